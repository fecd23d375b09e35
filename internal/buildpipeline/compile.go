package buildpipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"monty/internal/driver"
)

// CheckRequest configures checking of independent input files.
type CheckRequest struct {
	Files    []string
	Options  driver.Options
	Jobs     int
	Progress ProgressSink
}

// CheckResult holds one driver result per input, in input order.
type CheckResult struct {
	Files   []driver.CheckResult
	Timings Timings
}

// Failed reports whether any input failed to compile.
func (r CheckResult) Failed() bool {
	for _, f := range r.Files {
		if f.Err != nil {
			return true
		}
	}
	return false
}

// Check compiles every input concurrently, each in its own context.
func Check(ctx context.Context, req *CheckRequest) (CheckResult, error) {
	var result CheckResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing check request")
	}
	emitQueued(req.Progress, req.Files)

	obs := &phaseObserver{sink: req.Progress}
	files, err := driver.CheckParallel(ctx, req.Files, req.Options, req.Jobs, obs.OnPhase)
	result.Files = files
	result.Timings = obs.timings()
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		status := StatusDone
		if f.Err != nil {
			status = StatusError
		}
		var elapsed time.Duration
		if f.Timing != nil {
			elapsed = time.Duration(f.Timing.TotalMS * float64(time.Millisecond))
		}
		emitFile(req.Progress, f.Path, StageCheck, status, f.Err, elapsed)
	}
	return result, err
}

// phaseObserver turns driver phase events into progress events and sums
// stage durations. Workers call it concurrently.
type phaseObserver struct {
	sink ProgressSink

	mu    sync.Mutex
	total Timings
}

// OnPhase updates the progress UI based on compiler phase events.
func (p *phaseObserver) OnPhase(path string, ev driver.PhaseEvent) {
	stage := stageOf(ev.Stage)
	switch ev.Status {
	case driver.PhaseStart:
		emitFile(p.sink, path, stage, StatusWorking, nil, 0)
	default:
		p.mu.Lock()
		p.total.Add(stage, ev.Elapsed)
		p.mu.Unlock()
	}
}

func (p *phaseObserver) timings() Timings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func stageOf(s driver.Stage) Stage {
	switch s {
	case driver.StageParse:
		return StageParse
	case driver.StageDeclare, driver.StageEval:
		return StageEval
	case driver.StageFlatten:
		return StageFlatten
	default:
		return StageCheck
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageParse, Status: StatusQueued})
	}
}

func emitFile(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
