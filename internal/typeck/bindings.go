package typeck

import (
	"errors"

	"monty/internal/ast"
	"monty/internal/scope"
	"monty/internal/types"
)

// BindingType returns the type a binding gives its name: the first-bound
// rib type of an assignment, the signature of a def, the constructor of a
// class, the parameter type of a param.
func (c *Checker) BindingType(b scope.Binding) (types.TypeID, error) {
	if b.IsRenamed() || b.Name.File != c.tree.File {
		return c.foreign(b.Origin(), b)
	}
	switch b.Kind {
	case scope.BindAssign:
		if _, err := c.Check(b.Node); err != nil {
			return types.NoTypeID, err
		}
		root := c.tree.Root
		if sc := c.scopes.Get(b.Scope); sc != nil {
			root = sc.Root
		}
		e, ok := c.rib(root).Lookup(b.Name)
		if !ok {
			return types.NoTypeID, c.errorf(ErrInferenceFailure, b.Node, "%s was never bound", c.text(b.Name))
		}
		return e.Type, nil
	case scope.BindParam:
		return c.paramType(b.Node, b.Index)
	case scope.BindFunc:
		return c.signature(b.Node)
	case scope.BindClass:
		return c.constructor(b.Node)
	case scope.BindImport:
		if c.env == nil {
			return types.NoTypeID, c.errorf(ErrUnknownType, b.Node, "import of %s cannot be resolved", c.text(b.Name))
		}
		t, err := c.env.ImportType(c.tree.File, b.Node, b.Index)
		if err != nil {
			var terr *Error
			if errors.As(err, &terr) {
				return types.NoTypeID, err
			}
			e := c.errorf(ErrUnknownType, b.Node, "import of %s: %v", c.text(b.Name), err)
			e.Name = c.text(b.Name)
			return types.NoTypeID, e
		}
		return t, nil
	default:
		return types.NoTypeID, c.errorf(ErrInferenceFailure, b.Node, "binding %s has no type", c.text(b.Name))
	}
}

// foreign types a binding that lives in another module, usually a builtin
// reached through a renamed proxy.
func (c *Checker) foreign(origin, local scope.Binding) (types.TypeID, error) {
	if c.env != nil {
		t, err := c.env.BindingType(origin)
		if err == nil {
			return t, nil
		}
		var terr *Error
		if errors.As(err, &terr) {
			return types.NoTypeID, err
		}
	}
	e := c.errorf(ErrUnknownType, local.Node, "cannot type builtin %s", c.text(local.Name))
	e.Span = local.Span
	e.Name = c.text(local.Name)
	return types.NoTypeID, e
}

// signature computes the type of a def from its annotations. Unannotated
// parameters are Unknown, a missing return annotation means None. The first
// parameter of a method is the receiver and is typed as the class.
func (c *Checker) signature(n ast.NodeID) (types.TypeID, error) {
	if t, ok := c.sigs[n]; ok {
		return t, nil
	}
	fn, ok := c.tree.FuncDef(n)
	if !ok {
		return types.NoTypeID, c.errorf(ErrInferenceFailure, n, "%s is not a def", c.tree.Kind(n))
	}
	sig := types.FuncSig{Name: fn.Name.Name, Ret: c.b.None}
	params := fn.Params
	if sc := c.owner(n); sc != nil && sc.Kind == scope.KindClass && len(params) > 0 {
		sig.Receiver = c.classType(sc.Root)
		params = params[1:]
	}
	sig.Args = make([]types.TypeID, 0, len(params))
	for _, p := range params {
		if !p.Annotation.IsValid() {
			sig.Args = append(sig.Args, c.b.Unknown)
			continue
		}
		t, err := c.annotation(p.Annotation)
		if err != nil {
			return types.NoTypeID, err
		}
		sig.Args = append(sig.Args, t)
	}
	if fn.Returns.IsValid() {
		t, err := c.annotation(fn.Returns)
		if err != nil {
			return types.NoTypeID, err
		}
		sig.Ret = t
	}
	t := c.u.Func(sig)
	c.sigs[n] = t
	return t, nil
}

func (c *Checker) paramType(fnNode ast.NodeID, index int) (types.TypeID, error) {
	t, err := c.signature(fnNode)
	if err != nil {
		return types.NoTypeID, err
	}
	sig, _ := c.u.FuncSig(t)
	if sig.Receiver.IsValid() {
		if index == 0 {
			return sig.Receiver, nil
		}
		index--
	}
	if index < 0 || index >= len(sig.Args) {
		return types.NoTypeID, c.errorf(ErrInferenceFailure, fnNode, "parameter %d out of range", index)
	}
	return sig.Args[index], nil
}

// classType returns the nominal type declared by a class statement.
func (c *Checker) classType(n ast.NodeID) types.TypeID {
	cls, _ := c.tree.ClassDef(n)
	return c.u.Class(cls.Name.Name, c.module)
}

// constructor types a class used as a value: calling it takes the
// arguments of __init__ and yields an instance.
func (c *Checker) constructor(n ast.NodeID) (types.TypeID, error) {
	cls, _ := c.tree.ClassDef(n)
	sig := types.FuncSig{Name: cls.Name.Name, Ret: c.classType(n)}
	if init, ok := c.findMethod(n, "__init__"); ok {
		t, err := c.signature(init)
		if err != nil {
			return types.NoTypeID, err
		}
		initSig, _ := c.u.FuncSig(t)
		sig.Args = initSig.Args
	}
	return c.u.Func(sig), nil
}

func (c *Checker) findMethod(class ast.NodeID, name string) (ast.NodeID, bool) {
	cls, _ := c.tree.ClassDef(class)
	for _, stmt := range cls.Body {
		if fn, ok := c.tree.FuncDef(stmt); ok && c.text(fn.Name) == name {
			return stmt, true
		}
	}
	return ast.NoNodeID, false
}

// annotation evaluates a type expression: a class, a builtin primitive,
// None, tuple[...] or a module member.
func (c *Checker) annotation(n ast.NodeID) (types.TypeID, error) {
	switch c.tree.Kind(n) {
	case ast.KindNone:
		return c.b.None, nil
	case ast.KindName:
		return c.annotationName(n)
	case ast.KindSubscript:
		sub, _ := c.tree.Subscript(n)
		base, _ := c.tree.Name(sub.Value)
		if c.tree.Kind(sub.Value) != ast.KindName || c.text(base) != "tuple" {
			return types.NoTypeID, c.errorf(ErrUnknownType, n, "unsupported generic annotation")
		}
		elts := []ast.NodeID{sub.Index}
		if tup, ok := c.tree.Tuple(sub.Index); ok {
			elts = tup.Elts
		}
		members := make([]types.TypeID, 0, len(elts))
		for _, e := range elts {
			t, err := c.annotation(e)
			if err != nil {
				return types.NoTypeID, err
			}
			members = append(members, t)
		}
		return c.u.Tuple(members...), nil
	case ast.KindAttr:
		t, err := c.Check(n)
		if err != nil {
			return types.NoTypeID, err
		}
		return c.instanceOf(n, t)
	default:
		return types.NoTypeID, c.errorf(ErrUnknownType, n, "%s is not a type", c.tree.Kind(n))
	}
}

func (c *Checker) annotationName(n ast.NodeID) (types.TypeID, error) {
	ref, _ := c.tree.Name(n)
	text := c.text(ref)
	prim, isPrim := c.primitives[text]
	found, err := c.scopes.Resolve(c.tree.File, n, ref, scope.Unordered)
	if err == nil {
		b := found[0]
		origin := b.Origin()
		switch {
		case origin.Kind == scope.BindClass && origin.Name.File == c.tree.File:
			return c.classType(origin.Node), nil
		case isPrim && (b.IsRenamed() || origin.Name.File != c.tree.File):
			return prim, nil
		case origin.Kind == scope.BindImport || b.IsRenamed():
			t, err := c.BindingType(b)
			if err != nil {
				return types.NoTypeID, err
			}
			return c.instanceOf(n, t)
		}
	}
	if isPrim {
		return prim, nil
	}
	e := c.errorf(ErrUnknownType, n, "unknown type %s", text)
	e.Name = text
	return types.NoTypeID, e
}

// instanceOf turns the type of a class used as a value into the type of
// its instances.
func (c *Checker) instanceOf(n ast.NodeID, t types.TypeID) (types.TypeID, error) {
	if c.u.KindOf(t) == types.KindClass || c.u.KindOf(t).IsPrimitive() && t != c.b.Unknown {
		return t, nil
	}
	if sig, ok := c.u.FuncSig(t); ok {
		if k := c.u.KindOf(sig.Ret); k == types.KindClass || k.IsPrimitive() {
			return sig.Ret, nil
		}
	}
	return types.NoTypeID, c.errorf(ErrUnknownType, n, "%s is not a type", c.u.Label(t))
}
