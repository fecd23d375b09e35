package types

import (
	"fmt"
	"slices"
)

// CallMismatch reports the first argument position at which a call does not
// match the callee signature. On an arity mismatch Index is the length of the
// shorter list and the missing side is NoTypeID.
type CallMismatch struct {
	Expected TypeID
	Actual   TypeID
	Index    int
	Arity    bool
}

func (e *CallMismatch) Error() string {
	if e.Arity {
		return fmt.Sprintf("argument count mismatch at index %d", e.Index)
	}
	return fmt.Sprintf("argument %d: expected type #%d, found #%d", e.Index, e.Expected, e.Actual)
}

// NotCallableError is returned when the callee is not a function type.
type NotCallableError struct {
	Callee TypeID
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("type #%d is not callable", e.Callee)
}

// UnifyCall checks positional arguments against the signature of fn.
// Types are compared nominally; no numeric promotion is applied.
func (u *Universe) UnifyCall(fn TypeID, args []TypeID) error {
	sig, ok := u.FuncSig(fn)
	if !ok {
		return &NotCallableError{Callee: fn}
	}
	n := min(len(sig.Args), len(args))
	for i := range n {
		if sig.Args[i] != args[i] {
			return &CallMismatch{Expected: sig.Args[i], Actual: args[i], Index: i}
		}
	}
	if len(sig.Args) != len(args) {
		m := &CallMismatch{Index: n, Arity: true}
		if n < len(sig.Args) {
			m.Expected = sig.Args[n]
		}
		if n < len(args) {
			m.Actual = args[n]
		}
		return m
	}
	return nil
}

// UnifyFunc reports whether candidate can stand for template: the names must
// match first, then the argument lists must be equal.
func (u *Universe) UnifyFunc(candidate TypeID, template FuncSig) bool {
	sig, ok := u.FuncSig(candidate)
	if !ok || sig.Name != template.Name {
		return false
	}
	return slices.Equal(sig.Args, template.Args)
}

// ReturnOf returns the declared return type of a function TypeID.
func (u *Universe) ReturnOf(fn TypeID) (TypeID, bool) {
	sig, ok := u.FuncSig(fn)
	if !ok {
		return NoTypeID, false
	}
	return sig.Ret, true
}
