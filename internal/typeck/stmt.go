package typeck

import (
	"monty/internal/ast"
	"monty/internal/scope"
	"monty/internal/types"
)

// assign checks the value against the annotation and the rib. The first
// binding of a name fixes its type for the whole scope.
func (c *Checker) assign(n ast.NodeID) error {
	data, _ := c.tree.Assign(n)
	var vt types.TypeID
	if data.Value.IsValid() {
		t, err := c.Check(data.Value)
		if err != nil {
			return err
		}
		vt = t
	}
	if data.Annotation.IsValid() {
		at, err := c.annotation(data.Annotation)
		if err != nil {
			return err
		}
		if vt.IsValid() && vt != at {
			return c.errorf(ErrIncompatibleTypes, data.Value, "expected %s, found %s", c.u.Label(at), c.u.Label(vt)).
				mismatch(at, vt).
				withNote(c.tree.Span(data.Annotation), "declared here")
		}
		vt = at
	}
	switch c.tree.Kind(data.Target) {
	case ast.KindName:
		return c.bindName(data.Target, vt)
	case ast.KindAttr:
		return c.setAttr(data.Target, vt)
	case ast.KindSubscript:
		sub, _ := c.tree.Subscript(data.Target)
		base, err := c.Check(sub.Value)
		if err != nil {
			return err
		}
		idx, err := c.Check(sub.Index)
		if err != nil {
			return err
		}
		sig, ok := c.method(base, "__setitem__")
		if !ok || len(sig.Args) != 2 || sig.Args[0] != idx || sig.Args[1] != vt {
			return c.errorf(ErrBadBinaryOp, data.Target, "%s does not support item assignment of %s", c.u.Label(base), c.u.Label(vt))
		}
		return nil
	default:
		return c.errorf(ErrUnsupported, data.Target, "cannot assign to %s", c.tree.Kind(data.Target))
	}
}

func (c *Checker) bindName(target ast.NodeID, vt types.TypeID) error {
	ref, _ := c.tree.Name(target)
	span := c.tree.Span(target)
	entry, created := c.ribOf(target).Bind(ref, vt, span)
	if !created && entry.Type != vt {
		e := c.errorf(ErrIncompatibleReassignment, target, "%s was bound to %s, cannot assign %s",
			c.text(ref), c.u.Label(entry.Type), c.u.Label(vt))
		e.Name = c.text(ref)
		return e.mismatch(entry.Type, vt).withNote(entry.Span, "first bound here")
	}
	c.types[target] = entry.Type
	if sc := c.owner(target); sc != nil && sc.Kind == scope.KindClass {
		c.u.SetProperty(c.classType(sc.Root), ref.Name, entry.Type)
	}
	return nil
}

func (c *Checker) setAttr(target ast.NodeID, vt types.TypeID) error {
	data, _ := c.tree.Attr(target)
	base, err := c.Check(data.Value)
	if err != nil {
		return err
	}
	if c.u.KindOf(base) != types.KindClass {
		return c.errorf(ErrUnsupported, target, "cannot set attribute %s on %s", c.text(data.Attr), c.u.Label(base))
	}
	if prev, ok := c.u.Property(base, data.Attr.Name); ok && prev != vt {
		e := c.errorf(ErrIncompatibleReassignment, target, "attribute %s is %s, cannot assign %s",
			c.text(data.Attr), c.u.Label(prev), c.u.Label(vt))
		e.Name = c.text(data.Attr)
		return e.mismatch(prev, vt)
	}
	c.u.SetProperty(base, data.Attr.Name, vt)
	c.types[target] = vt
	return nil
}

func (c *Checker) ret(n ast.NodeID) error {
	fnNode, ok := c.enclosingFunc(n)
	if !ok {
		return c.errorf(ErrUnsupported, n, "return outside of a def")
	}
	vt := c.b.None
	if v, _ := c.tree.ReturnValue(n); v.IsValid() {
		t, err := c.Check(v)
		if err != nil {
			return err
		}
		vt = t
	}
	ft, err := c.signature(fnNode)
	if err != nil {
		return err
	}
	sig, _ := c.u.FuncSig(ft)
	if vt != sig.Ret {
		fn, _ := c.tree.FuncDef(fnNode)
		return c.errorf(ErrBadReturnType, n, "returns %s, but %s is declared to return %s",
			c.u.Label(vt), c.text(fn.Name), c.u.Label(sig.Ret)).
			mismatch(sig.Ret, vt).
			withNote(fn.NameSpan, "declared here")
	}
	return nil
}

// funcDef binds the parameters in a fresh rib and checks the body. Stub
// bodies (`...`) are declarations and are not checked.
func (c *Checker) funcDef(n ast.NodeID) error {
	ft, err := c.signature(n)
	if err != nil {
		return err
	}
	fn, _ := c.tree.FuncDef(n)
	rib := c.rib(n)
	for i, p := range fn.Params {
		t, err := c.paramType(n, i)
		if err != nil {
			return err
		}
		rib.Bind(p.Name, t, p.Span)
	}
	if IsStub(c.tree, fn.Body) {
		return nil
	}
	if err := c.stmts(fn.Body); err != nil {
		return err
	}
	sig, _ := c.u.FuncSig(ft)
	if sig.Ret != c.b.None && !hasReturn(c.tree, fn.Body) {
		e := c.errorf(ErrMissingReturn, n, "%s is declared to return %s but never returns", c.text(fn.Name), c.u.Label(sig.Ret))
		e.Span = fn.NameSpan
		e.Name = c.text(fn.Name)
		return e.mismatch(sig.Ret, c.b.None)
	}
	return nil
}

// classDef registers method signatures and declared attributes before any
// body is checked, then checks __init__ first so attributes assigned there
// are known to the other methods.
func (c *Checker) classDef(n ast.NodeID) error {
	cls, _ := c.tree.ClassDef(n)
	ct := c.classType(n)
	for _, stmt := range cls.Body {
		switch c.tree.Kind(stmt) {
		case ast.KindFuncDef:
			fn, _ := c.tree.FuncDef(stmt)
			t, err := c.signature(stmt)
			if err != nil {
				return err
			}
			if !c.u.SetProperty(ct, fn.Name.Name, t) {
				prev, _ := c.u.Property(ct, fn.Name.Name)
				if prev != t {
					return c.errorf(ErrIncompatibleReassignment, stmt, "method %s redefined with a different signature", c.text(fn.Name)).
						mismatch(prev, t)
				}
			}
		case ast.KindAssign:
			data, _ := c.tree.Assign(stmt)
			ref, isName := c.tree.Name(data.Target)
			if !isName || !data.Annotation.IsValid() {
				continue
			}
			t, err := c.annotation(data.Annotation)
			if err != nil {
				return err
			}
			c.u.SetProperty(ct, ref.Name, t)
		}
	}
	c.rib(n)
	init, hasInit := c.findMethod(n, "__init__")
	if hasInit {
		if _, err := c.Check(init); err != nil {
			return err
		}
	}
	for _, stmt := range cls.Body {
		if hasInit && stmt == init {
			continue
		}
		if _, err := c.Check(stmt); err != nil {
			return err
		}
	}
	return nil
}

// IsStub reports whether a body is the single statement `...`.
func IsStub(tree *ast.Tree, body []ast.NodeID) bool {
	if len(body) != 1 {
		return false
	}
	v, ok := tree.ExprStmtValue(body[0])
	return ok && tree.Kind(v) == ast.KindEllipsis
}

// hasReturn reports whether a return statement appears in body outside of
// nested defs and classes.
func hasReturn(tree *ast.Tree, body []ast.NodeID) bool {
	found := false
	for _, stmt := range body {
		tree.Walk(stmt, func(n ast.NodeID) bool {
			switch tree.Kind(n) {
			case ast.KindReturn:
				found = true
			case ast.KindFuncDef, ast.KindClassDef:
				return false
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}
