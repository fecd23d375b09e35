package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "monty.toml", `
libstd = "stdlib"
output = "out/prog.mobj"
trace_level = "phase"
max_steps = 5000
jobs = 3
`)
	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LibStd != filepath.Join(dir, "stdlib") || cfg.Output != filepath.Join(dir, "out", "prog.mobj") {
		t.Fatalf("relative paths must resolve against the file: %+v", cfg)
	}
	if cfg.TraceLevel != "phase" || cfg.MaxSteps != 5000 || cfg.Jobs != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.toml":  "optimize = true\n",
		"negative.toml": "jobs = -1\n",
		"broken.toml":   "libstd = \n",
	}
	for name, src := range cases {
		if _, err := loadConfigFile(writeFile(t, dir, name, src)); err == nil {
			t.Fatalf("%s: expected an error", name)
		} else if !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: error should name the file: %v", name, err)
		}
	}
}

func TestFindConfigUpward(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "monty.toml", "")
	nested := filepath.Join(dir, "a", "b")
	writeFile(t, nested, "main.py", "")

	got, ok, err := findConfig(nested)
	if err != nil || !ok {
		t.Fatalf("config not found: %v", err)
	}
	if got != want {
		t.Fatalf("found %q, want %q", got, want)
	}
}
