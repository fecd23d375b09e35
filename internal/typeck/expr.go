package typeck

import (
	"errors"

	"monty/internal/ast"
	"monty/internal/scope"
	"monty/internal/source"
	"monty/internal/types"
)

// name reads the rib of the current scope first, then falls back to
// flow-sensitive lookup and the type of the binding found.
func (c *Checker) name(n ast.NodeID) (types.TypeID, error) {
	ref, _ := c.tree.Name(n)
	if e, ok := c.ribOf(n).Lookup(ref); ok {
		return c.known(n, ref, e.Type)
	}
	found, err := c.scopes.Resolve(c.tree.File, n, ref, scope.FlowSensitive)
	if err != nil {
		var uerr *scope.UndefinedError
		if errors.As(err, &uerr) {
			e := c.errorf(ErrUndefinedVariable, n, "%s", uerr.Error())
			e.Name = uerr.Text
			return types.NoTypeID, e
		}
		return types.NoTypeID, err
	}
	t, err := c.BindingType(found[0])
	if err != nil {
		return types.NoTypeID, err
	}
	return c.known(n, ref, t)
}

func (c *Checker) known(n ast.NodeID, ref source.SymbolRef, t types.TypeID) (types.TypeID, error) {
	if t == c.b.Unknown || !t.IsValid() {
		e := c.errorf(ErrUnknownType, n, "type of %s is unknown; annotate it", c.text(ref))
		e.Name = c.text(ref)
		return types.NoTypeID, e
	}
	return t, nil
}

func (c *Checker) tuple(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.Tuple(n)
	members := make([]types.TypeID, 0, len(data.Elts))
	for _, e := range data.Elts {
		t, err := c.Check(e)
		if err != nil {
			return types.NoTypeID, err
		}
		members = append(members, t)
	}
	return c.u.Tuple(members...), nil
}

// attribute looks name up on values of type recv: module members and
// recorded properties first, then the environment (object graph).
func (c *Checker) attribute(recv types.TypeID, name source.StringID) (types.TypeID, bool) {
	if t, ok := c.u.Property(recv, name); ok {
		return t, true
	}
	if c.env == nil || c.u.KindOf(recv) == types.KindModule {
		return types.NoTypeID, false
	}
	return c.env.Attribute(recv, name)
}

// method returns the signature of a dunder of recv.
func (c *Checker) method(recv types.TypeID, dunder string) (types.FuncSig, bool) {
	t, ok := c.attribute(recv, c.syms.Strings.Intern(dunder))
	if !ok {
		return types.FuncSig{}, false
	}
	return c.u.FuncSig(t)
}

func (c *Checker) binOp(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.BinOp(n)
	lt, err := c.Check(data.Left)
	if err != nil {
		return types.NoTypeID, err
	}
	rt, err := c.Check(data.Right)
	if err != nil {
		return types.NoTypeID, err
	}
	if data.Op.IsShortCircuit() {
		if lt != rt {
			return types.NoTypeID, c.errorf(ErrIncompatibleTypes, n, "operands of %s have different types %s and %s",
				data.Op, c.u.Label(lt), c.u.Label(rt)).mismatch(lt, rt)
		}
		return lt, nil
	}
	sig, ok := c.method(lt, data.Op.Dunder())
	if !ok || len(sig.Args) != 1 || sig.Args[0] != rt {
		return types.NoTypeID, c.errorf(ErrBadBinaryOp, n, "unsupported operand types for %s: %s and %s",
			data.Op, c.u.Label(lt), c.u.Label(rt)).mismatch(lt, rt)
	}
	return sig.Ret, nil
}

func (c *Checker) unary(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.Unary(n)
	t, err := c.Check(data.Operand)
	if err != nil {
		return types.NoTypeID, err
	}
	if data.Op == ast.OpNot {
		return c.b.Bool, nil
	}
	sig, ok := c.method(t, data.Op.Dunder())
	if !ok || len(sig.Args) != 0 {
		return types.NoTypeID, c.errorf(ErrBadBinaryOp, n, "bad operand type for unary %s: %s", data.Op, c.u.Label(t))
	}
	return sig.Ret, nil
}

func (c *Checker) call(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.Call(n)
	fn, err := c.Check(data.Func)
	if err != nil {
		return types.NoTypeID, err
	}
	args := make([]types.TypeID, 0, len(data.Args))
	for _, a := range data.Args {
		t, err := c.Check(a)
		if err != nil {
			return types.NoTypeID, err
		}
		args = append(args, t)
	}
	return c.unifyCall(n, data.Func, fn, args, data.Args)
}

// unifyCall checks args against fn and returns its result type. argNodes
// may be nil when the arguments have no AST node of their own.
func (c *Checker) unifyCall(n, callee ast.NodeID, fn types.TypeID, args []types.TypeID, argNodes []ast.NodeID) (types.TypeID, error) {
	err := c.u.UnifyCall(fn, args)
	if err == nil {
		ret, _ := c.u.ReturnOf(fn)
		return ret, nil
	}
	var mismatch *types.CallMismatch
	if !errors.As(err, &mismatch) {
		return types.NoTypeID, c.errorf(ErrIncompatibleTypes, n, "%s is not callable", c.u.Label(fn))
	}
	at := n
	if mismatch.Index < len(argNodes) && !mismatch.Arity {
		at = argNodes[mismatch.Index]
	}
	var e *Error
	if mismatch.Arity {
		sig, _ := c.u.FuncSig(fn)
		e = c.errorf(ErrBadArgumentType, at, "%s takes %d arguments but %d were given", c.u.Label(fn), len(sig.Args), len(args))
	} else {
		e = c.errorf(ErrBadArgumentType, at, "argument %d: expected %s, found %s",
			mismatch.Index+1, c.u.Label(mismatch.Expected), c.u.Label(mismatch.Actual))
	}
	e.mismatch(mismatch.Expected, mismatch.Actual)
	e.ArgIndex = mismatch.Index
	if def, ok := c.definition(callee); ok {
		e.withNote(def, "defined here")
	}
	return types.NoTypeID, e
}

// definition returns the span of the def or class a callee names, when it
// lives in this module.
func (c *Checker) definition(callee ast.NodeID) (source.Span, bool) {
	ref, ok := c.tree.Name(callee)
	if !ok {
		return source.Span{}, false
	}
	found, err := c.scopes.Resolve(c.tree.File, callee, ref, scope.FlowSensitive)
	if err != nil {
		return source.Span{}, false
	}
	b := found[0]
	if (b.Kind != scope.BindFunc && b.Kind != scope.BindClass) || b.Name.File != c.tree.File {
		return source.Span{}, false
	}
	return b.Span, true
}

func (c *Checker) attr(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.Attr(n)
	base, err := c.Check(data.Value)
	if err != nil {
		return types.NoTypeID, err
	}
	if t, ok := c.attribute(base, data.Attr.Name); ok {
		return t, nil
	}
	e := c.errorf(ErrUndefinedVariable, n, "%s has no attribute %s", c.u.Label(base), c.text(data.Attr))
	e.Span = data.AttrSpan
	e.Name = c.text(data.Attr)
	return types.NoTypeID, e
}

func (c *Checker) subscript(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.Subscript(n)
	base, err := c.Check(data.Value)
	if err != nil {
		return types.NoTypeID, err
	}
	idx, err := c.Check(data.Index)
	if err != nil {
		return types.NoTypeID, err
	}
	sig, ok := c.method(base, "__getitem__")
	if !ok || len(sig.Args) != 1 || sig.Args[0] != idx {
		return types.NoTypeID, c.errorf(ErrBadBinaryOp, n, "%s cannot be indexed by %s", c.u.Label(base), c.u.Label(idx)).mismatch(base, idx)
	}
	return sig.Ret, nil
}

func (c *Checker) ifExpr(n ast.NodeID) (types.TypeID, error) {
	data, _ := c.tree.IfExpr(n)
	if _, err := c.Check(data.Test); err != nil {
		return types.NoTypeID, err
	}
	body, err := c.Check(data.Body)
	if err != nil {
		return types.NoTypeID, err
	}
	orelse, err := c.Check(data.Orelse)
	if err != nil {
		return types.NoTypeID, err
	}
	if body != orelse {
		return types.NoTypeID, c.errorf(ErrIncompatibleTypes, n, "branches of the conditional expression differ: %s and %s",
			c.u.Label(body), c.u.Label(orelse)).mismatch(body, orelse)
	}
	return body, nil
}
