package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const configFileName = "monty.toml"

// fileConfig mirrors monty.toml. Every field is optional.
type fileConfig struct {
	LibStd     string `toml:"libstd"`
	Output     string `toml:"output"`
	TraceLevel string `toml:"trace_level"`
	MaxSteps   int    `toml:"max_steps"`
	Jobs       int    `toml:"jobs"`
}

// settings is the effective configuration: monty.toml values overridden
// by flags that were set on the command line.
type settings struct {
	configPath string
	libStd     string
	output     string
	traceLevel string
	maxSteps   int
	jobs       int
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfigFile(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.MaxSteps < 0 {
		return fileConfig{}, fmt.Errorf("%s: max_steps must not be negative", path)
	}
	if cfg.Jobs < 0 {
		return fileConfig{}, fmt.Errorf("%s: jobs must not be negative", path)
	}
	// relative paths in the file are relative to the file
	base := filepath.Dir(path)
	if cfg.LibStd != "" && !filepath.IsAbs(cfg.LibStd) {
		cfg.LibStd = filepath.Join(base, cfg.LibStd)
	}
	if cfg.Output != "" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(base, cfg.Output)
	}
	return cfg, nil
}

// loadSettings resolves the configuration for a command. The config file is
// taken from --config or searched upward from startDir.
func loadSettings(cmd *cobra.Command, startDir string) (settings, error) {
	root := cmd.Root().PersistentFlags()
	var s settings

	configPath, err := root.GetString("config")
	if err != nil {
		return s, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath == "" {
		found, ok, err := findConfig(startDir)
		if err != nil {
			return s, err
		}
		if ok {
			configPath = found
		}
	}
	if configPath != "" {
		cfg, err := loadConfigFile(configPath)
		if err != nil {
			return s, err
		}
		s = settings{
			configPath: configPath,
			libStd:     cfg.LibStd,
			output:     cfg.Output,
			traceLevel: cfg.TraceLevel,
			maxSteps:   cfg.MaxSteps,
			jobs:       cfg.Jobs,
		}
	}

	if root.Changed("libstd") || s.libStd == "" {
		if s.libStd, err = root.GetString("libstd"); err != nil {
			return s, fmt.Errorf("failed to get libstd flag: %w", err)
		}
	}
	if root.Changed("trace-level") || s.traceLevel == "" {
		if s.traceLevel, err = root.GetString("trace-level"); err != nil {
			return s, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
	}
	if root.Changed("max-steps") {
		if s.maxSteps, err = root.GetInt("max-steps"); err != nil {
			return s, fmt.Errorf("failed to get max-steps flag: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("output"); f != nil && (f.Changed || s.output == "") {
		s.output = f.Value.String()
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil && (f.Changed || s.jobs == 0) {
		if s.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return s, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	return s, nil
}
