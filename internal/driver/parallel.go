package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"monty/internal/diag"
	"monty/internal/observ"
)

// CheckResult is the outcome of checking one input file.
type CheckResult struct {
	Path   string
	Result *Result
	Err    error
	// Diag is the diagnostic for Err; nil when the file checked cleanly.
	Diag   *diag.Diagnostic
	Timing *observ.Report
}

// FileObserver receives the phase events of one input of CheckParallel.
// It is called from worker goroutines and must be safe for concurrent use.
type FileObserver func(path string, ev PhaseEvent)

// CheckParallel compiles independent input files concurrently, each with its
// own Context. Compilation errors are reported per file; the returned error
// is only set when ctx is cancelled.
func CheckParallel(ctx context.Context, paths []string, opts Options, jobs int, observe FileObserver) ([]CheckResult, error) {
	results := make([]CheckResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fileOpts := opts
			if observe != nil {
				fileOpts.Observe = func(ev PhaseEvent) { observe(path, ev) }
			}
			res, err := Compile(gctx, path, fileOpts)
			// results[i] is written by exactly one goroutine
			out := CheckResult{Path: path, Result: res, Err: err}
			if err != nil {
				d := Diagnostic(err)
				out.Diag = &d
			}
			if res != nil && res.Context.Timer() != nil {
				report := res.Context.Timer().Report()
				out.Timing = &report
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
