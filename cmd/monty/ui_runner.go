package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"monty/internal/buildpipeline"
	"monty/internal/ui"
)

type checkOutcome struct {
	result buildpipeline.CheckResult
	err    error
}

func runCheckWithUI(ctx context.Context, title string, files []string, req *buildpipeline.CheckRequest) (buildpipeline.CheckResult, error) {
	if req == nil {
		return buildpipeline.CheckResult{}, fmt.Errorf("missing check request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Check(ctx, &reqCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
