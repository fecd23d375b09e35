package hlir

import (
	"monty/internal/ast"
)

func (sf *seqFlattener) stmts(list []ast.NodeID) error {
	for _, s := range list {
		if err := sf.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (sf *seqFlattener) stmt(n ast.NodeID) error {
	switch sf.tree.Kind(n) {
	case ast.KindExprStmt:
		v, _ := sf.tree.ExprStmtValue(n)
		_, err := sf.expr(v)
		return err
	case ast.KindAssign:
		return sf.assign(n)
	case ast.KindReturn:
		return sf.ret(n)
	case ast.KindIf:
		return sf.ifStmt(n)
	case ast.KindWhile:
		return sf.while(n)
	case ast.KindBreak, ast.KindContinue:
		return sf.jump(n)
	case ast.KindPass:
		return nil
	case ast.KindFuncDef:
		id, err := sf.function(n, sf.prefix(), sf.seq.ID)
		if err != nil {
			return err
		}
		sf.emit(n, Inst{Op: OpDefn, Seq: id})
		return nil
	case ast.KindClassDef:
		if err := sf.class(n, sf.prefix(), sf.seq.ID); err != nil {
			return err
		}
		sf.emit(n, Inst{Op: OpClass})
		return nil
	case ast.KindImport, ast.KindImportFrom:
		sf.emit(n, Inst{Op: OpImport})
		return nil
	default:
		return sf.errorf(n, nil, "unsupported statement %s", sf.tree.Kind(n))
	}
}

func (sf *seqFlattener) assign(n ast.NodeID) error {
	data, _ := sf.tree.Assign(n)
	if sf.tree.Kind(data.Target) == ast.KindName && !data.Value.IsValid() {
		// `x: T` declares without storing
		ref, _ := sf.tree.Name(data.Target)
		typ, err := sf.typeOf(data.Target)
		if err != nil {
			return err
		}
		sf.seq.Rib.Bind(ref, typ, sf.tree.Span(data.Target))
		return nil
	}
	if !data.Value.IsValid() {
		return sf.errorf(n, nil, "declaration of a non-name target")
	}
	val, err := sf.expr(data.Value)
	if err != nil {
		return err
	}
	switch sf.tree.Kind(data.Target) {
	case ast.KindName:
		ref, _ := sf.tree.Name(data.Target)
		typ, err := sf.typeOf(data.Target)
		if err != nil {
			return err
		}
		sf.seq.Rib.Bind(ref, typ, sf.tree.Span(data.Target))
		sf.emit(n, Inst{Op: OpSetVar, Var: ref, Value: val})
	case ast.KindAttr:
		attr, _ := sf.tree.Attr(data.Target)
		base, err := sf.expr(attr.Value)
		if err != nil {
			return err
		}
		sf.emit(n, Inst{Op: OpSetAttr, Base: base, Name: attr.Attr, Value: val})
	case ast.KindSubscript:
		sub, _ := sf.tree.Subscript(data.Target)
		base, err := sf.expr(sub.Value)
		if err != nil {
			return err
		}
		idx, err := sf.expr(sub.Index)
		if err != nil {
			return err
		}
		m := sf.emit(data.Target, Inst{Op: OpGetAttr, Base: base, Name: sf.opts.Symbols.Magic("__setitem__")})
		sf.emit(n, Inst{Op: OpCall, Func: m, Args: []ValueID{idx, val}})
	default:
		return sf.errorf(data.Target, nil, "unsupported assignment target %s", sf.tree.Kind(data.Target))
	}
	return nil
}

func (sf *seqFlattener) ret(n ast.NodeID) error {
	v, _ := sf.tree.ReturnValue(n)
	var val ValueID
	if v.IsValid() {
		var err error
		if val, err = sf.expr(v); err != nil {
			return err
		}
	} else {
		val = sf.emit(n, Inst{Op: OpConst, Const: Const{Kind: ConstNone}})
	}
	sf.emit(n, Inst{Op: OpReturn, Value: val})
	return nil
}

func (sf *seqFlattener) ifStmt(n ast.NodeID) error {
	data, _ := sf.tree.If(n)
	test, err := sf.expr(data.Test)
	if err != nil {
		return err
	}
	br := sf.emit(n, Inst{Op: OpIf, Test: test, Truthy: NoValue, Falsey: NoValue})
	if err := sf.stmts(data.Body); err != nil {
		return err
	}
	if len(data.Orelse) == 0 {
		end := sf.emit(n, Inst{Op: OpJumpTarget})
		sf.patch(br, func(in *Inst) { in.Falsey = end })
		return nil
	}
	skip := sf.emit(n, Inst{Op: OpBr, To: NoValue})
	elseT := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(br, func(in *Inst) { in.Falsey = elseT })
	if err := sf.stmts(data.Orelse); err != nil {
		return err
	}
	end := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(skip, func(in *Inst) { in.To = end })
	return nil
}

func (sf *seqFlattener) while(n ast.NodeID) error {
	data, _ := sf.tree.While(n)
	enter := sf.emit(n, Inst{Op: OpBr, To: NoValue})
	head := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(enter, func(in *Inst) { in.To = head })

	test, err := sf.expr(data.Test)
	if err != nil {
		return err
	}
	br := sf.emit(n, Inst{Op: OpIf, Test: test, Truthy: NoValue, Falsey: NoValue})
	sf.loops = append(sf.loops, loopCtx{head: head})
	if err := sf.stmts(data.Body); err != nil {
		return err
	}
	sf.emit(n, Inst{Op: OpBr, To: head})
	exit := sf.emit(n, Inst{Op: OpJumpTarget})
	sf.patch(br, func(in *Inst) { in.Falsey = exit })

	loop := sf.loops[len(sf.loops)-1]
	sf.loops = sf.loops[:len(sf.loops)-1]
	for _, b := range loop.breaks {
		sf.patch(b, func(in *Inst) { in.To = exit })
	}
	return nil
}

func (sf *seqFlattener) jump(n ast.NodeID) error {
	if len(sf.loops) == 0 {
		return sf.errorf(n, nil, "%s outside loop", sf.tree.Kind(n))
	}
	loop := &sf.loops[len(sf.loops)-1]
	if sf.tree.Kind(n) == ast.KindContinue {
		sf.emit(n, Inst{Op: OpBr, To: loop.head})
		return nil
	}
	loop.breaks = append(loop.breaks, sf.emit(n, Inst{Op: OpBr, To: NoValue}))
	return nil
}
