package hlir

import (
	"monty/internal/ast"
	"monty/internal/scope"
)

func (sf *seqFlattener) expr(n ast.NodeID) (ValueID, error) {
	switch sf.tree.Kind(n) {
	case ast.KindInt:
		lit, _ := sf.tree.Literal(n)
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstInt, Int: lit.Int}}), nil
	case ast.KindFloat:
		lit, _ := sf.tree.Literal(n)
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstFloat, Float: lit.Float}}), nil
	case ast.KindStr:
		lit, _ := sf.tree.Literal(n)
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstStr, Str: lit.Str}}), nil
	case ast.KindBool:
		lit, _ := sf.tree.Literal(n)
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstBool, Bool: lit.Bool}}), nil
	case ast.KindNone:
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstNone}}), nil
	case ast.KindEllipsis:
		return sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstEllipsis}}), nil
	case ast.KindName:
		return sf.name(n)
	case ast.KindTuple:
		return sf.tuple(n)
	case ast.KindBinOp:
		return sf.binOp(n)
	case ast.KindUnary:
		return sf.unary(n)
	case ast.KindCall:
		return sf.call(n)
	case ast.KindAttr:
		data, _ := sf.tree.Attr(n)
		base, err := sf.expr(data.Value)
		if err != nil {
			return NoValue, err
		}
		return sf.emit(n, Inst{Op: OpGetAttr, Base: base, Name: data.Attr}), nil
	case ast.KindSubscript:
		data, _ := sf.tree.Subscript(n)
		return sf.method(n, data.Value, "__getitem__", data.Index)
	case ast.KindIfExpr:
		return sf.ifExpr(n)
	default:
		return NoValue, sf.errorf(n, nil, "unsupported expression %s", sf.tree.Kind(n))
	}
}

// name reads a local of this sequence or references the binding found by
// flow-sensitive lookup.
func (sf *seqFlattener) name(n ast.NodeID) (ValueID, error) {
	ref, _ := sf.tree.Name(n)
	if sf.locals[ref] {
		return sf.emit(n, Inst{Op: OpUseLocal, Var: ref}), nil
	}
	found, err := sf.opts.Scopes.Resolve(sf.tree.File, n, ref, scope.FlowSensitive)
	if err != nil {
		return NoValue, sf.errorf(n, err, "cannot reference %q", sf.text(ref))
	}
	origin := found[0].Origin()
	return sf.emit(n, Inst{Op: OpRefVal, Var: origin.Name, Def: origin.Node}), nil
}

func (sf *seqFlattener) tuple(n ast.NodeID) (ValueID, error) {
	data, _ := sf.tree.Tuple(n)
	typ, err := sf.typeOf(n)
	if err != nil {
		return NoValue, err
	}
	lay, err := sf.opts.Layout.TupleLayout(typ)
	if err != nil {
		return NoValue, sf.errorf(n, err, "tuple layout")
	}
	vals := make([]ValueID, 0, len(data.Elts))
	for _, e := range data.Elts {
		v, err := sf.expr(e)
		if err != nil {
			return NoValue, err
		}
		vals = append(vals, v)
	}
	size := sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstInt, Int: int64(lay.Size)}})
	obj := sf.emit(n, Inst{Op: OpAlloc, Size: size, Type: typ})
	for i, v := range vals {
		sf.emit(data.Elts[i], Inst{Op: OpStore, Base: obj, Offset: lay.Offsets[i], Value: v})
	}
	return obj, nil
}

// method lowers recv.<dunder>(args...) as GetAttr followed by Call.
func (sf *seqFlattener) method(n, recv ast.NodeID, dunder string, args ...ast.NodeID) (ValueID, error) {
	base, err := sf.expr(recv)
	if err != nil {
		return NoValue, err
	}
	vals := make([]ValueID, 0, len(args))
	for _, a := range args {
		v, err := sf.expr(a)
		if err != nil {
			return NoValue, err
		}
		vals = append(vals, v)
	}
	m := sf.emit(n, Inst{Op: OpGetAttr, Base: base, Name: sf.opts.Symbols.Magic(dunder)})
	return sf.emit(n, Inst{Op: OpCall, Func: m, Args: vals}), nil
}

func (sf *seqFlattener) binOp(n ast.NodeID) (ValueID, error) {
	data, _ := sf.tree.BinOp(n)
	if !data.Op.IsShortCircuit() {
		return sf.method(n, data.Left, data.Op.Dunder(), data.Right)
	}
	left, err := sf.expr(data.Left)
	if err != nil {
		return NoValue, err
	}
	// and: a falsy left skips the right operand; or: a truthy one does
	br := sf.emit(n, Inst{Op: OpIf, Test: left, Truthy: NoValue, Falsey: NoValue})
	right, err := sf.expr(data.Right)
	if err != nil {
		return NoValue, err
	}
	fromRight := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: right})
	short := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(br, func(in *Inst) {
		if data.Op == ast.OpAnd {
			in.Falsey = short
		} else {
			in.Truthy = short
		}
	})
	fromLeft := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: left})
	return sf.join(n, fromRight, fromLeft), nil
}

func (sf *seqFlattener) unary(n ast.NodeID) (ValueID, error) {
	data, _ := sf.tree.Unary(n)
	if data.Op != ast.OpNot {
		return sf.method(n, data.Operand, data.Op.Dunder())
	}
	test, err := sf.expr(data.Operand)
	if err != nil {
		return NoValue, err
	}
	br := sf.emit(n, Inst{Op: OpIf, Test: test, Truthy: NoValue, Falsey: NoValue})
	f := sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstBool, Bool: false}})
	j1 := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: f})
	falsey := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(br, func(in *Inst) { in.Falsey = falsey })
	t := sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstBool, Bool: true}})
	j2 := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: t})
	return sf.join(n, j1, j2), nil
}

func (sf *seqFlattener) ifExpr(n ast.NodeID) (ValueID, error) {
	data, _ := sf.tree.IfExpr(n)
	test, err := sf.expr(data.Test)
	if err != nil {
		return NoValue, err
	}
	br := sf.emit(n, Inst{Op: OpIf, Test: test, Truthy: NoValue, Falsey: NoValue})
	body, err := sf.expr(data.Body)
	if err != nil {
		return NoValue, err
	}
	j1 := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: body})
	falsey := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(br, func(in *Inst) { in.Falsey = falsey })
	orelse, err := sf.expr(data.Orelse)
	if err != nil {
		return NoValue, err
	}
	j2 := sf.emit(n, Inst{Op: OpPhiJump, Recv: NoValue, Value: orelse})
	return sf.join(n, j1, j2), nil
}

// join emits the PhiRecv merging the given PhiJumps.
func (sf *seqFlattener) join(n ast.NodeID, jumps ...ValueID) ValueID {
	recv := sf.emit(n, Inst{Op: OpPhiRecv})
	for _, j := range jumps {
		sf.patch(j, func(in *Inst) { in.Recv = recv })
	}
	return recv
}

func (sf *seqFlattener) call(n ast.NodeID) (ValueID, error) {
	data, _ := sf.tree.Call(n)
	fn, err := sf.expr(data.Func)
	if err != nil {
		return NoValue, err
	}
	args := make([]ValueID, 0, len(data.Args))
	for _, a := range data.Args {
		v, err := sf.expr(a)
		if err != nil {
			return NoValue, err
		}
		args = append(args, v)
	}
	return sf.emit(n, Inst{Op: OpCall, Func: fn, Args: args}), nil
}
