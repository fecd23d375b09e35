package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"monty/internal/buildpipeline"
	"monty/internal/diag"
	"monty/internal/driver"
	"monty/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] FILE...",
	Short: "Type-check independent entry files in parallel",
	Long: `Compile every FILE as its own program, without writing artifacts,
and report the first error of each`,
	Args: cobra.MinimumNArgs(1),
	RunE: checkExecution,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max parallel compilations (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func checkExecution(cmd *cobra.Command, args []string) error {
	style, err := readOutputStyle(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings(cmd, filepath.Dir(args[0]))
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	req := &buildpipeline.CheckRequest{
		Files: args,
		Options: driver.Options{
			LibStd:        s.libStd,
			MaxSteps:      s.maxSteps,
			EnableTimings: showTimings,
		},
		Jobs: s.jobs,
	}
	var res buildpipeline.CheckResult
	if shouldUseTUI(mode) {
		res, err = runCheckWithUI(cmd.Context(), "monty check", args, req)
	} else {
		res, err = buildpipeline.Check(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	code := 0
	out := cmd.ErrOrStderr()
	for _, f := range res.Files {
		if f.Err == nil {
			if showTimings && f.Timing != nil {
				fmt.Fprintf(out, "%s: %.2f ms\n", f.Path, f.Timing.TotalMS)
			}
			continue
		}
		d := driver.Diagnostic(f.Err)
		if f.Diag != nil {
			d = *f.Diag
		}
		var fs *source.FileSet
		if f.Result != nil && f.Result.Context != nil {
			fs = f.Result.Context.Files
		}
		if err := writeDiagnostics(out, []diag.Diagnostic{d}, fs, style); err != nil {
			return err
		}
		code = max(code, exitCodeFor(f.Err))
	}
	if showTimings {
		printStageTimings(out, res.Timings)
	}
	if code != 0 {
		return &exitError{code: code}
	}
	if style.format == "pretty" {
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d file(s)\n", len(res.Files))
	}
	return nil
}
