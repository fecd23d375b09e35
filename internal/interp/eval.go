package interp

import (
	"monty/internal/ast"
	"monty/internal/source"
	"monty/internal/trace"
)

func (rt *Runtime) eval(f *frame, n ast.NodeID) (AllocID, error) {
	t := f.tree
	switch t.Kind(n) {
	case ast.KindInt:
		lit, _ := t.Literal(n)
		return rt.NewInt(lit.Int), nil
	case ast.KindFloat:
		lit, _ := t.Literal(n)
		return rt.NewFloat(lit.Float), nil
	case ast.KindStr:
		lit, _ := t.Literal(n)
		return rt.NewStr(lit.Str), nil
	case ast.KindBool:
		lit, _ := t.Literal(n)
		return rt.Bool(lit.Bool), nil
	case ast.KindNone:
		return rt.none, nil
	case ast.KindEllipsis:
		return rt.ellipsis, nil
	case ast.KindName:
		ref, _ := t.Name(n)
		v, ok := rt.lookup(f, ref.Name)
		if !ok {
			return 0, rt.errorf(ErrNameUndefined, t.Span(n), "name %s is not defined", rt.text(ref))
		}
		return v, nil
	case ast.KindTuple:
		data, _ := t.Tuple(n)
		items, err := rt.evalList(f, data.Elts)
		if err != nil {
			return 0, err
		}
		return rt.NewTuple(items), nil
	case ast.KindBinOp:
		return rt.binOp(f, n)
	case ast.KindUnary:
		data, _ := t.Unary(n)
		v, err := rt.eval(f, data.Operand)
		if err != nil {
			return 0, err
		}
		if data.Op == ast.OpNot {
			return rt.Bool(!rt.Truthy(v)), nil
		}
		return rt.callMethod(v, data.Op.Dunder(), nil, t.Span(n))
	case ast.KindCall:
		data, _ := t.Call(n)
		callee, err := rt.eval(f, data.Func)
		if err != nil {
			return 0, err
		}
		args, err := rt.evalList(f, data.Args)
		if err != nil {
			return 0, err
		}
		return rt.call(callee, args, t.Span(n))
	case ast.KindAttr:
		data, _ := t.Attr(n)
		base, err := rt.eval(f, data.Value)
		if err != nil {
			return 0, err
		}
		v, ok := rt.GetAttr(base, data.Attr.Name)
		if !ok {
			return 0, rt.errorf(ErrNoAttribute, data.AttrSpan, "%s has no attribute %s", rt.describe(base), rt.text(data.Attr))
		}
		return v, nil
	case ast.KindSubscript:
		return rt.subscript(f, n)
	case ast.KindIfExpr:
		data, _ := t.IfExpr(n)
		ok, err := rt.test(f, data.Test)
		if err != nil {
			return 0, err
		}
		if ok {
			return rt.eval(f, data.Body)
		}
		return rt.eval(f, data.Orelse)
	default:
		return 0, rt.errorf(ErrUnsupportedValue, t.Span(n), "%s is not evaluated at compile time", t.Kind(n))
	}
}

func (rt *Runtime) evalList(f *frame, nodes []ast.NodeID) ([]AllocID, error) {
	out := make([]AllocID, len(nodes))
	for i, n := range nodes {
		v, err := rt.eval(f, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (rt *Runtime) binOp(f *frame, n ast.NodeID) (AllocID, error) {
	t := f.tree
	data, _ := t.BinOp(n)
	left, err := rt.eval(f, data.Left)
	if err != nil {
		return 0, err
	}
	switch data.Op {
	case ast.OpAnd:
		if !rt.Truthy(left) {
			return left, nil
		}
		return rt.eval(f, data.Right)
	case ast.OpOr:
		if rt.Truthy(left) {
			return left, nil
		}
		return rt.eval(f, data.Right)
	}
	right, err := rt.eval(f, data.Right)
	if err != nil {
		return 0, err
	}
	return rt.callMethod(left, data.Op.Dunder(), []AllocID{right}, t.Span(n))
}

func (rt *Runtime) subscript(f *frame, n ast.NodeID) (AllocID, error) {
	t := f.tree
	data, _ := t.Subscript(n)
	base, err := rt.eval(f, data.Value)
	if err != nil {
		return 0, err
	}
	idx, err := rt.eval(f, data.Index)
	if err != nil {
		return 0, err
	}
	obj, _ := rt.heap.get(base)
	i, _ := rt.heap.get(idx)
	switch {
	case obj.Kind == ObjTuple && i.Kind == ObjInteger:
		k := i.Int
		if k < 0 {
			k += int64(len(obj.Items))
		}
		if k < 0 || k >= int64(len(obj.Items)) {
			return 0, rt.errorf(ErrOperand, t.Span(n), "tuple index %d out of range", i.Int)
		}
		return obj.Items[k], nil
	case obj.Kind == ObjDict && i.Kind == ObjString:
		v, ok := rt.DictGet(base, i.Str)
		if !ok {
			return 0, rt.errorf(ErrOperand, t.Span(n), "key %q not found", i.Str)
		}
		return v, nil
	}
	return rt.callMethod(base, "__getitem__", []AllocID{idx}, t.Span(n))
}

// GetAttr looks name up on an object: its own attributes first, then the
// attributes of its class. Functions found on the class are bound to the
// receiver.
func (rt *Runtime) GetAttr(id AllocID, name source.StringID) (AllocID, bool) {
	obj, ok := rt.heap.get(id)
	if !ok {
		return 0, false
	}
	if v, ok := obj.Attr(name); ok {
		return v, true
	}
	var clsID AllocID
	switch obj.Kind {
	case ObjInstance:
		clsID = obj.Class
	case ObjInteger, ObjFloat, ObjString, ObjBool:
		clsID = rt.classes[obj.Type]
	}
	cls, ok := rt.heap.get(clsID)
	if !ok {
		return 0, false
	}
	m, ok := cls.Attr(name)
	if !ok {
		return 0, false
	}
	switch mo, _ := rt.heap.get(m); mo.Kind {
	case ObjFunction, ObjNative:
		bound := rt.heap.alloc(ObjBound, mo.Type)
		bound.Self = id
		bound.Method = m
		return bound.ID, true
	}
	return m, true
}

func (rt *Runtime) callMethod(recv AllocID, name string, args []AllocID, span source.Span) (AllocID, error) {
	m, ok := rt.GetAttr(recv, rt.syms.Strings.Intern(name))
	if !ok {
		return 0, rt.errorf(ErrOperand, span, "%s does not support %s", rt.describe(recv), name)
	}
	return rt.call(m, args, span)
}

// Call invokes a callable object.
func (rt *Runtime) Call(callee AllocID, args []AllocID) (AllocID, error) {
	return rt.call(callee, args, source.Span{})
}

func (rt *Runtime) call(callee AllocID, args []AllocID, span source.Span) (AllocID, error) {
	obj, ok := rt.heap.get(callee)
	if !ok {
		return 0, rt.errorf(ErrNotCallable, span, "invalid callee")
	}
	switch obj.Kind {
	case ObjFunction:
		return rt.callFunction(obj, args, span)
	case ObjNative:
		if len(args) == 0 {
			return 0, rt.errorf(ErrArity, span, "%s needs a receiver", obj.Native.Name)
		}
		return rt.callNative(obj.Native, args[0], args[1:], span)
	case ObjBound:
		m, _ := rt.heap.get(obj.Method)
		if m.Kind == ObjNative {
			return rt.callNative(m.Native, obj.Self, args, span)
		}
		return rt.callFunction(m, append([]AllocID{obj.Self}, args...), span)
	case ObjClass:
		return rt.instantiate(obj, args, span)
	default:
		return 0, rt.errorf(ErrNotCallable, span, "%s is not callable", rt.describe(callee))
	}
}

func (rt *Runtime) callNative(n *Native, self AllocID, args []AllocID, span source.Span) (AllocID, error) {
	v, err := n.Fn(rt, self, args)
	if e, ok := err.(*EvalError); ok && e.Span == (source.Span{}) {
		e.Span = span
	}
	return v, err
}

func (rt *Runtime) callFunction(fn *Object, args []AllocID, span source.Span) (AllocID, error) {
	if rt.depth >= defaultMaxDepth {
		return 0, rt.errorf(ErrBudget, span, "call depth exceeds %d", defaultMaxDepth)
	}
	rt.depth++
	defer func() { rt.depth-- }()

	if rt.tracer.Level() >= trace.LevelDebug {
		sp := trace.Begin(rt.tracer, trace.ScopeNode, "call", 0).WithExtra("func", fn.Func.Name)
		defer sp.End("")
	}

	tree := fn.Func.Tree
	fd, _ := tree.FuncDef(fn.Func.Node)
	if len(args) != len(fd.Params) {
		return 0, rt.errorf(ErrArity, span, "%s() takes %d arguments but %d were given", fn.Func.Name, len(fd.Params), len(args))
	}
	closure := fn.Func.closure
	f := &frame{tree: tree, module: closure.module, parent: closure, name: fn.Func.Name}
	for i, p := range fd.Params {
		f.define(p.Name.Name, args[i])
	}
	err := rt.execBlock(f, fd.Body)
	if err == nil {
		return rt.none, nil
	}
	switch e := err.(type) {
	case *unwind:
		if e.kind == unwindReturn {
			return e.value, nil
		}
		return 0, rt.surface(e)
	case *EvalError:
		e.Backtrace = append(e.Backtrace, Frame{Func: fn.Func.Name, Span: span})
	}
	return 0, err
}

func (rt *Runtime) instantiate(cls *Object, args []AllocID, span source.Span) (AllocID, error) {
	if cls.Data != nil && cls.Data.Extern {
		return 0, rt.errorf(ErrUnsupportedValue, span, "builtin class %s cannot be instantiated at compile time", cls.Data.Name)
	}
	inst := rt.heap.alloc(ObjInstance, cls.Type)
	inst.Class = cls.ID
	init, ok := rt.GetAttr(inst.ID, rt.nameInit)
	if !ok {
		if len(args) > 0 {
			return 0, rt.errorf(ErrArity, span, "%s() takes no arguments", rt.describe(cls.ID))
		}
		return inst.ID, nil
	}
	if _, err := rt.call(init, args, span); err != nil {
		return 0, err
	}
	return inst.ID, nil
}
