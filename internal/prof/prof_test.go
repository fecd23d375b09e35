package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "run.trace"),
	}
	s, err := Start(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
	for _, p := range []string{cfg.CPU, cfg.Mem, cfg.Trace} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing %s: %v", filepath.Base(p), err)
		}
	}
}

func TestStartFailureStopsCPU(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "run.trace"),
	})
	if err == nil {
		t.Fatalf("expected an error for an unwritable trace path")
	}
	// the CPU profiler must be free again
	s, err := Start(Config{CPU: filepath.Join(dir, "again.pprof")})
	if err != nil {
		t.Fatalf("cpu profiler left running: %v", err)
	}
	_ = s.Stop()
}

func TestNilSession(t *testing.T) {
	var s *Session
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
}
