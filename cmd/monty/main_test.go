package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"monty/internal/driver"
)

const addSrc = "def add(a: int, b: int) -> int:\n    return a + b\n\nx = add(1, 2)\n"

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// resetFlags restores every flag of the command tree, since rootCmd is
// shared between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if err := f.Value.Set(f.DefValue); err != nil {
				t.Fatalf("reset %s: %v", f.Name, err)
			}
			f.Changed = false
		})
	}
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		reset(c.Flags())
		reset(c.PersistentFlags())
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(t)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func exitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "prog.py", addSrc)
	out := filepath.Join(dir, "build", "prog.mobj")

	stdout, stderr, err := run(t, "--no-cache", "-o", out, in)
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "wrote "+out) {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	art, err := driver.ReadArtifact(out)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if art.Entry != "prog" || len(art.Modules) != 1 {
		t.Fatalf("unexpected artifact entry %q with %d modules", art.Entry, len(art.Modules))
	}
}

func TestBuildCommandConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "monty.toml", "output = \"fromconfig.mobj\"\nlibstd = \"lib\"\n")
	writeFile(t, dir, "lib/helpers.py", "def twice(n: int) -> int:\n    return n * 2\n")
	in := writeFile(t, dir, "prog.py", "from helpers import twice\ny = twice(4)\n")

	if _, stderr, err := run(t, "--no-cache", in); err != nil {
		t.Fatalf("build failed: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "fromconfig.mobj")); err != nil {
		t.Fatalf("config output not written: %v", err)
	}

	flagOut := filepath.Join(dir, "flag.mobj")
	if _, stderr, err := run(t, "--no-cache", "-o", flagOut, in); err != nil {
		t.Fatalf("build failed: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(flagOut); err != nil {
		t.Fatalf("-o must override the config file: %v", err)
	}
}

func TestBuildCommandSemanticError(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.py", "def f() -> int:\n    return 'a'\n")

	_, stderr, err := run(t, "--no-cache", "--color", "off", "-o", filepath.Join(dir, "bad.mobj"), in)
	if code := exitCode(err); code != exitCompileError {
		t.Fatalf("exit code %d (%v)", code, err)
	}
	if !strings.Contains(stderr, "bad.py:2:") || !strings.Contains(stderr, "SEM3007") {
		t.Fatalf("expected a located diagnostic, got:\n%s", stderr)
	}
}

func TestBuildCommandJSONDiagnostic(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "prog.py", "import missing\n")

	_, stderr, err := run(t, "--no-cache", "--format", "json", "-o", filepath.Join(dir, "p.mobj"), in)
	if exitCode(err) != exitCompileError {
		t.Fatalf("expected exit 1, got %v", err)
	}
	var payload struct {
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(stderr), &payload); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, stderr)
	}
	if len(payload.Diagnostics) != 1 || payload.Diagnostics[0].Code != "PRJ5001" {
		t.Fatalf("unexpected diagnostics %+v", payload.Diagnostics)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.py", addSrc)
	bad := writeFile(t, dir, "bad.py", "x: int = 1\nx = 'no'\n")

	_, stderr, err := run(t, "check", "--ui", "off", "--color", "off", good, bad)
	if exitCode(err) != exitCompileError {
		t.Fatalf("expected exit 1, got %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "bad.py") || strings.Contains(stderr, "good.py") {
		t.Fatalf("only bad.py should be reported:\n%s", stderr)
	}

	stdout, stderr, err := run(t, "check", "--ui", "off", good)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "checked 1 file(s)") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestFlatCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "prog.py", addSrc)

	stdout, stderr, err := run(t, "flat", in)
	if err != nil {
		t.Fatalf("flat failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "sequence(") || !strings.Contains(stdout, "def add(int, int) -> int") {
		t.Fatalf("unexpected dump:\n%s", stdout)
	}
	if !strings.Contains(stdout, "return") {
		t.Fatalf("dump lacks the return of add:\n%s", stdout)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	stdout, _, err := run(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if payload.Tool != "monty" || payload.Version == "" || payload.GitCommit != "unknown" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
