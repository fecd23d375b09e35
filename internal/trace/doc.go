// Package trace provides a tracing subsystem for the monty compiler.
//
// The trace package enables tracking of compilation phases, module processing,
// and other operations to help diagnose performance issues and hangs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	monty check --trace=- --trace-level=phase main.py
//	monty --trace=build.json --trace-level=detail main.py
//	monty --trace=fail.log --trace-mode=ring --trace-level=debug main.py
//
// Output paths ending in .json get Chrome trace-event JSON, .ndjson
// newline-delimited JSON, anything else text; --trace-format overrides.
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer, written out only when a stage fails
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only failure events
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Module-level events
//   - LevelDebug: Everything including AST nodes
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopeModule: Per-module processing and import resolution
//   - ScopePass: Compilation phases (parse, eval, check, flatten)
//   - ScopeNode: Interpreter calls and other node level work
//
// # Context Propagation
//
// Tracers are propagated through the compilation pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "parse", parentID)
//	defer span.End("")
package trace
