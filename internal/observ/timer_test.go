package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReportGroupsStages(t *testing.T) {
	base := time.Now()
	tm := &Timer{phases: []Phase{
		{Stage: "parse", Module: "prog", Start: base, Dur: 10 * time.Millisecond},
		{Stage: "eval", Module: "prog", Start: base.Add(10 * time.Millisecond), Dur: 20 * time.Millisecond},
		// helpers is imported while prog evaluates
		{Stage: "parse", Module: "helpers", Start: base.Add(12 * time.Millisecond), Dur: 4 * time.Millisecond},
		{Stage: "check", Module: "prog", Start: base.Add(30 * time.Millisecond), Dur: 5 * time.Millisecond},
	}}
	r := tm.Report()
	if len(r.Phases) != 4 {
		t.Fatalf("phases: %d", len(r.Phases))
	}
	if len(r.Stages) != 3 || r.Stages[0].Stage != "parse" || r.Stages[0].Modules != 2 {
		t.Fatalf("stages: %+v", r.Stages)
	}
	if r.Stages[0].DurationMS != 14 {
		t.Fatalf("parse total %.2f", r.Stages[0].DurationMS)
	}
	if r.TotalMS != 35 {
		t.Fatalf("nested phases must not count twice: total %.2f", r.TotalMS)
	}
}

func TestEndRecordsFailure(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("check", "prog")
	tm.End(idx, errors.New("bad return"))
	tm.End(7, nil)
	p := tm.Phases()[0]
	if !p.Failed || p.Note != "bad return" {
		t.Fatalf("phase %+v", p)
	}
	out := tm.Summary()
	for _, want := range []string{"timings:", "check", "(1 module)", "// bad return", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Stages != nil || r.Phases != nil {
		t.Fatalf("empty timer report %+v", r)
	}
}
