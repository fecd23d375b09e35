// Package buildpipeline orchestrates the compilation process.
package buildpipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"monty/internal/driver"
)

// DefaultOutput is used when the input has no stem to derive a name from.
const DefaultOutput = "a.out"

// ArtifactExt is the extension of artifacts named after their input.
const ArtifactExt = ".mobj"

// BuildRequest configures compilation of one input into an artifact.
type BuildRequest struct {
	Input    string
	Output   string
	Options  driver.Options
	Cache    *driver.DiskCache
	Progress ProgressSink
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	OutputPath string
	// Cached is set when the artifact came from the disk cache unchanged.
	Cached  bool
	Driver  *driver.Result
	Timings Timings
}

// OutputPath returns <stem>.mobj next to the working directory, or
// DefaultOutput when the input has no stem.
func OutputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return DefaultOutput
	}
	return stem + ArtifactExt
}

// Build compiles the input and writes its artifact.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Input == "" {
		return result, fmt.Errorf("missing input path")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Output == "" {
		req.Output = OutputPath(req.Input)
	}
	emitQueued(req.Progress, []string{req.Input})

	obs := &phaseObserver{sink: req.Progress}
	opts := req.Options
	opts.Observe = func(ev driver.PhaseEvent) { obs.OnPhase(req.Input, ev) }

	data, res, err := driver.Build(ctx, req.Input, opts, req.Cache)
	result.Driver = res
	result.Cached = err == nil && res == nil
	result.Timings = obs.timings()
	if err != nil {
		emitFile(req.Progress, req.Input, StageCheck, StatusError, err, 0)
		return result, err
	}

	emitFile(req.Progress, req.Input, StageEmit, StatusWorking, nil, 0)
	start := time.Now()
	if err := driver.WriteFileAtomic(req.Output, data); err != nil {
		err = fmt.Errorf("write %s: %w", req.Output, err)
		emitFile(req.Progress, req.Input, StageEmit, StatusError, err, 0)
		return result, err
	}
	elapsed := time.Since(start)
	result.Timings.Set(StageEmit, elapsed)
	result.OutputPath = req.Output
	emitFile(req.Progress, req.Input, StageEmit, StatusDone, nil, elapsed)
	return result, nil
}
