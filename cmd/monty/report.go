package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"monty/internal/diag"
	"monty/internal/diagfmt"
	"monty/internal/driver"
	"monty/internal/source"
)

const (
	exitCompileError = 1
	exitConfigError  = 2
)

// exitError ends the process with code after the command already reported
// what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// outputStyle holds the rendering flags shared by every command.
type outputStyle struct {
	format string
	color  bool
}

func readOutputStyle(cmd *cobra.Command) (outputStyle, error) {
	root := cmd.Root().PersistentFlags()
	format, err := root.GetString("format")
	if err != nil {
		return outputStyle{}, fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "pretty", "json":
	default:
		return outputStyle{}, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	colorValue, err := root.GetString("color")
	if err != nil {
		return outputStyle{}, fmt.Errorf("failed to get color flag: %w", err)
	}
	var useColor bool
	switch strings.ToLower(strings.TrimSpace(colorValue)) {
	case "", "auto":
		useColor = isTerminal(os.Stderr)
	case "on":
		useColor = true
	case "off":
		useColor = false
	default:
		return outputStyle{}, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorValue)
	}
	return outputStyle{format: format, color: useColor}, nil
}

// exitCodeFor classifies a compilation failure.
func exitCodeFor(err error) int {
	if driver.IsBootstrap(err) {
		return exitConfigError
	}
	return exitCompileError
}

// reportFailure renders the diagnostic for err against the file set of the
// failed compilation, which may be nil when no context was created.
func reportFailure(w io.Writer, err error, res *driver.Result, style outputStyle) error {
	var fs *source.FileSet
	if res != nil && res.Context != nil {
		fs = res.Context.Files
	}
	return writeDiagnostics(w, []diag.Diagnostic{driver.Diagnostic(err)}, fs, style)
}

func writeDiagnostics(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, style outputStyle) error {
	bag := diag.NewBag(len(diags))
	for _, d := range diags {
		bag.Add(d)
	}
	if style.format == "json" {
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			IncludeNotes:     true,
		})
	}
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     style.color,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
	return nil
}
