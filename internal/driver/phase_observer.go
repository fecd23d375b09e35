package driver

import "time"

// Stage names one step of compiling a module.
type Stage string

const (
	StageParse     Stage = "parse"
	StageDeclare   Stage = "declare"
	StageEval      Stage = "eval"
	StageCheck     Stage = "check"
	StageFlatten   Stage = "flatten"
	StageFlatCheck Stage = "flatcheck"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a compilation phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	PhaseFailed
)

// PhaseEvent describes a stage boundary of one module.
type PhaseEvent struct {
	Module  string
	Stage   Stage
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events emitted while a Context compiles.
type PhaseObserver func(PhaseEvent)
