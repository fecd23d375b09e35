package typeck

import (
	"fmt"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/types"
)

// ErrorKind classifies type evaluation failures.
type ErrorKind uint8

const (
	ErrInvalid ErrorKind = iota
	ErrInferenceFailure
	ErrUndefinedVariable
	ErrUnknownType
	ErrIncompatibleReassignment
	ErrIncompatibleTypes
	ErrBadArgumentType
	ErrBadReturnType
	ErrMissingReturn
	ErrBadBinaryOp
	ErrUnsupported
)

var errorCodes = [...]diag.Code{
	ErrInvalid:                  diag.UnknownCode,
	ErrInferenceFailure:         diag.SemaInferenceFailure,
	ErrUndefinedVariable:        diag.SemaUndefinedVariable,
	ErrUnknownType:              diag.SemaUnknownType,
	ErrIncompatibleReassignment: diag.SemaIncompatibleReassignment,
	ErrIncompatibleTypes:        diag.SemaIncompatibleTypes,
	ErrBadArgumentType:          diag.SemaBadArgumentType,
	ErrBadReturnType:            diag.SemaBadReturnType,
	ErrMissingReturn:            diag.SemaMissingReturn,
	ErrBadBinaryOp:              diag.SemaBadBinaryOp,
	ErrUnsupported:              diag.SemaUnsupported,
}

// Code maps the kind onto its diagnostic code.
func (k ErrorKind) Code() diag.Code {
	if int(k) < len(errorCodes) {
		return errorCodes[k]
	}
	return diag.UnknownCode
}

func (k ErrorKind) String() string { return k.Code().Title() }

// Error is a typed evaluation failure. Every error is terminal for the
// compilation of its module.
type Error struct {
	Kind  ErrorKind
	Node  ast.NodeID
	Span  source.Span
	Msg   string
	Notes []diag.Note

	Expected types.TypeID
	Actual   types.TypeID
	// ArgIndex is the offending argument of a call, -1 otherwise.
	ArgIndex int
	// Name is the identifier involved, when there is one.
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Code returns the diagnostic code of the error.
func (e *Error) Code() diag.Code { return e.Kind.Code() }

// Diagnostic converts the error for reporting.
func (e *Error) Diagnostic() diag.Diagnostic {
	d := diag.NewError(e.Code(), e.Span, e.Msg)
	d.Notes = append(d.Notes, e.Notes...)
	return d
}

func (e *Error) withNote(sp source.Span, format string, args ...any) *Error {
	e.Notes = append(e.Notes, diag.Note{Span: sp, Msg: fmt.Sprintf(format, args...)})
	return e
}

func (e *Error) mismatch(expected, actual types.TypeID) *Error {
	e.Expected = expected
	e.Actual = actual
	return e
}
