package interp

import (
	"fmt"
	"strings"

	"monty/internal/source"
)

// ErrorCode identifies the kind of evaluation failure.
type ErrorCode int

// Stable codes - do not change values.
const (
	ErrNameUndefined    ErrorCode = 2001 // CE2001: name is not defined
	ErrNoAttribute      ErrorCode = 2002 // CE2002: object has no attribute
	ErrNotCallable      ErrorCode = 2003 // CE2003: object is not callable
	ErrArity            ErrorCode = 2004 // CE2004: wrong number of arguments
	ErrOperand          ErrorCode = 2005 // CE2005: unsupported operand
	ErrImport           ErrorCode = 2006 // CE2006: import failed
	ErrBudget           ErrorCode = 2007 // CE2007: evaluation budget exhausted
	ErrBadControl       ErrorCode = 2008 // CE2008: return/break/continue out of place
	ErrUnsupportedValue ErrorCode = 2999 // CE2999: construct not evaluated at compile time
)

// String returns the code as "CE2001".
func (c ErrorCode) String() string {
	return fmt.Sprintf("CE%d", c)
}

// Frame is one entry of an evaluation backtrace.
type Frame struct {
	Func string
	Span source.Span
}

// EvalError reports a failure while executing a module at compile time.
type EvalError struct {
	Code      ErrorCode
	Message   string
	Span      source.Span
	Backtrace []Frame // innermost call first
	Err       error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error %s: %s", e.Code, e.Message)
}

func (e *EvalError) Unwrap() error { return e.Err }

// FormatWithFiles renders the error with resolved file:line:col locations.
func (e *EvalError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "evaluation error %s: %s\n", e.Code, e.Message)
	sb.WriteString("at ")
	sb.WriteString(formatSpan(e.Span, files))
	sb.WriteString("\n")
	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, f := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, f.Func, formatSpan(f.Span, files))
		}
	}
	return sb.String()
}

func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}
	f := files.Get(span.File)
	if f == nil {
		return "<no-span>"
	}
	start, _ := files.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.DisplayPath(), start.Line, start.Col)
}

// BootstrapError reports a builtins module the runtime cannot accept.
type BootstrapError struct {
	Span source.Span
	Msg  string
}

func (e *BootstrapError) Error() string { return "bootstrap: " + e.Msg }

func bootstrapf(span source.Span, format string, args ...any) *BootstrapError {
	return &BootstrapError{Span: span, Msg: fmt.Sprintf(format, args...)}
}

// unwind carries return, break and continue out of nested statements.
type unwind struct {
	kind  unwindKind
	value AllocID
	span  source.Span
}

type unwindKind uint8

const (
	unwindReturn unwindKind = iota
	unwindBreak
	unwindContinue
)

func (u *unwind) Error() string {
	switch u.kind {
	case unwindReturn:
		return "'return' outside function"
	case unwindBreak:
		return "'break' outside loop"
	default:
		return "'continue' outside loop"
	}
}
