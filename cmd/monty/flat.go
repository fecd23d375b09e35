package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"monty/internal/driver"
	"monty/internal/hlir"
)

var flatCmd = &cobra.Command{
	Use:   "flat [flags] FILE",
	Short: "Print the flat code of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  flatExecution,
}

func init() {
	flatCmd.Flags().Bool("all", false, "print every compiled module, imports first")
}

func flatExecution(cmd *cobra.Command, args []string) error {
	style, err := readOutputStyle(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings(cmd, filepath.Dir(args[0]))
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
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

	res, err := driver.Compile(cmd.Context(), args[0], driver.Options{LibStd: s.libStd, MaxSteps: s.maxSteps})
	if err != nil {
		if renderErr := reportFailure(cmd.ErrOrStderr(), err, res, style); renderErr != nil {
			return renderErr
		}
		return &exitError{code: exitCodeFor(err)}
	}

	modules := []*driver.Module{res.Entry}
	if all {
		modules = res.Context.Modules()
	}
	out := cmd.OutOrStdout()
	for i, m := range modules {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if all {
			fmt.Fprintf(out, "# module %s\n", m.Ref.Path)
		}
		if err := hlir.Dump(out, m.Code); err != nil {
			return err
		}
	}
	return nil
}
