// Package observ records wall-clock durations of compilation stages.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one stage run over one module.
type Phase struct {
	Stage  string
	Module string
	Start  time.Time
	Dur    time.Duration
	Note   string
	Failed bool
}

// Timer tracks the stages a compilation runs, in start order.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts stage over module and returns its index.
func (t *Timer) Begin(stage, module string) int {
	t.phases = append(t.phases, Phase{Stage: stage, Module: module, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index. A non-nil err marks it failed and
// becomes its note.
func (t *Timer) End(idx int, err error) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	if err != nil {
		p.Failed = true
		p.Note = err.Error()
	}
}

// Phases returns the recorded phases.
func (t *Timer) Phases() []Phase { return t.phases }

// Summary renders per-stage totals followed by every module phase.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, s := range report.Stages {
		fmt.Fprintf(&b, "  %-12s %7.2f ms  (%d module", s.Stage, s.DurationMS, s.Modules)
		if s.Modules != 1 {
			b.WriteByte('s')
		}
		b.WriteString(")\n")
	}
	for _, p := range report.Phases {
		fmt.Fprintf(&b, "    %-10s %-20s %7.2f ms", p.Stage, p.Module, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %7.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Stage      string  `json:"stage"`
	Module     string  `json:"module"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// StageReport sums one stage over every module it ran on.
type StageReport struct {
	Stage      string  `json:"stage"`
	DurationMS float64 `json:"duration_ms"`
	Modules    int     `json:"modules"`
}

// Report aggregates the timer. Stages keep first-start order.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Stages  []StageReport `json:"stages"`
	Phases  []PhaseReport `json:"phases"`
}

// Report builds the per-phase list, per-stage sums and the total.
// Imports compile nested inside their importer's stages, so the total sums
// only the outermost phases.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	byStage := make(map[string]int)
	var total time.Duration
	var outerEnd time.Time
	for i, phase := range t.phases {
		report.Phases[i] = PhaseReport{
			Stage:      phase.Stage,
			Module:     phase.Module,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
		idx, ok := byStage[phase.Stage]
		if !ok {
			idx = len(report.Stages)
			byStage[phase.Stage] = idx
			report.Stages = append(report.Stages, StageReport{Stage: phase.Stage})
		}
		report.Stages[idx].DurationMS += durationToMillis(phase.Dur)
		report.Stages[idx].Modules++

		if phase.Start.Before(outerEnd) {
			continue
		}
		total += phase.Dur
		outerEnd = phase.Start.Add(phase.Dur)
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
