// Package main implements the monty CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"monty/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "monty [flags] INPUT",
	Short: "Ahead-of-time compiler for a typed Python subset",
	Long: `monty evaluates module-level code at compile time, checks types and
writes flat code for every function into a .mobj artifact`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          buildExecution,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(flatCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().StringP("output", "o", "", "artifact path (default <stem>.mobj)")
	rootCmd.Flags().Bool("no-cache", false, "always recompile, ignoring the build cache")

	rootCmd.PersistentFlags().String("libstd", "", "standard library root searched after the entry directory")
	rootCmd.PersistentFlags().String("config", "", "path to monty.toml (default: search upward from the input)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("format", "pretty", "diagnostic format (pretty|json)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-steps", 0, "bound on module-level evaluation steps (0 = default)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson|chrome)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
}

// main executes the root command. Commands that already reported their
// failure return an *exitError carrying the process status.
func main() {
	rootCmd.Version = version.Version
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "monty: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
