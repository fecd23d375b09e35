package ast

// Children returns the direct sub-nodes of id in source order. Decorators of
// defs and classes come first, then annotations, then bodies.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Get(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	add := func(ids ...NodeID) {
		for _, c := range ids {
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	switch n.Kind {
	case KindModule:
		m, _ := t.Module(id)
		add(m.Body...)
	case KindFuncDef:
		f, _ := t.FuncDef(id)
		add(f.Decorators...)
		for _, p := range f.Params {
			add(p.Annotation)
		}
		add(f.Returns)
		add(f.Body...)
	case KindClassDef:
		c, _ := t.ClassDef(id)
		add(c.Decorators...)
		add(c.Bases...)
		add(c.Body...)
	case KindIf:
		d, _ := t.If(id)
		add(d.Test)
		add(d.Body...)
		add(d.Orelse...)
	case KindWhile:
		d, _ := t.While(id)
		add(d.Test)
		add(d.Body...)
	case KindReturn, KindExprStmt:
		add(NodeID(n.Payload))
	case KindAssign:
		d, _ := t.Assign(id)
		add(d.Value, d.Annotation, d.Target)
	case KindTuple:
		d, _ := t.Tuple(id)
		add(d.Elts...)
	case KindBinOp:
		d, _ := t.BinOp(id)
		add(d.Left, d.Right)
	case KindUnary:
		d, _ := t.Unary(id)
		add(d.Operand)
	case KindCall:
		d, _ := t.Call(id)
		add(d.Func)
		add(d.Args...)
	case KindAttr:
		d, _ := t.Attr(id)
		add(d.Value)
	case KindSubscript:
		d, _ := t.Subscript(id)
		add(d.Value, d.Index)
	case KindIfExpr:
		d, _ := t.IfExpr(id)
		add(d.Test, d.Body, d.Orelse)
	}
	return out
}

// Walk visits id and its descendants in pre-order. When visit returns false
// the children of that node are skipped.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !id.IsValid() || !visit(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, visit)
	}
}

// Body returns the statement list owned by a module, def or class.
func (t *Tree) Body(id NodeID) []NodeID {
	switch t.Kind(id) {
	case KindModule:
		m, _ := t.Module(id)
		return m.Body
	case KindFuncDef:
		f, _ := t.FuncDef(id)
		return f.Body
	case KindClassDef:
		c, _ := t.ClassDef(id)
		return c.Body
	}
	return nil
}
