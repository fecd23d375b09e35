package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"monty/internal/buildpipeline"
	"monty/internal/driver"
)

// buildExecution compiles INPUT and writes its artifact. A compilation
// error is printed as a diagnostic on stderr and ends the process with
// status 1, or 2 when the builtins module itself failed to load.
func buildExecution(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	input := args[0]

	style, err := readOutputStyle(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings(cmd, filepath.Dir(input))
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
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

	var cache *driver.DiskCache
	if !noCache {
		// an unusable cache directory only disables caching
		if c, cacheErr := driver.OpenDiskCache("monty"); cacheErr == nil {
			cache = c
		}
	}

	res, err := buildpipeline.Build(cmd.Context(), &buildpipeline.BuildRequest{
		Input:  input,
		Output: s.output,
		Options: driver.Options{
			LibStd:        s.libStd,
			MaxSteps:      s.maxSteps,
			EnableTimings: showTimings,
		},
		Cache: cache,
	})
	if err != nil {
		if renderErr := reportFailure(cmd.ErrOrStderr(), err, res.Driver, style); renderErr != nil {
			return renderErr
		}
		return &exitError{code: exitCodeFor(err)}
	}

	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings)
		if res.Driver != nil && res.Driver.Context.Timer() != nil {
			fmt.Fprint(cmd.ErrOrStderr(), res.Driver.Context.Timer().Summary())
		}
	}
	if res.Cached {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date (cached)\n", res.OutputPath)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.OutputPath)
	return nil
}
