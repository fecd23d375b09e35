package main

import (
	"fmt"
	"io"
	"time"

	"monty/internal/buildpipeline"
)

var timedStages = []struct {
	stage buildpipeline.Stage
	label string
}{
	{buildpipeline.StageParse, "parsed"},
	{buildpipeline.StageEval, "evaluated"},
	{buildpipeline.StageCheck, "checked"},
	{buildpipeline.StageFlatten, "flattened"},
	{buildpipeline.StageEmit, "emitted"},
}

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	for _, ts := range timedStages {
		if !timings.Has(ts.stage) {
			continue
		}
		fmt.Fprintf(out, "%s %.1f ms\n", ts.label, toMillis(timings.Duration(ts.stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
