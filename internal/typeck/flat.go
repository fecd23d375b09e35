package typeck

import (
	"fmt"

	"monty/internal/ast"
	"monty/internal/hlir"
	"monty/internal/source"
	"monty/internal/types"
)

// Annotations holds one type per instruction of every sequence.
type Annotations struct {
	Seqs [][]types.TypeID
}

// Type returns the type of value v of sequence seq.
func (a *Annotations) Type(seq hlir.SeqID, v hlir.ValueID) types.TypeID {
	if a == nil || int(seq) >= len(a.Seqs) || int(v) >= len(a.Seqs[seq]) {
		return types.NoTypeID
	}
	return a.Seqs[seq][v]
}

// FlatChecker re-evaluates types over flattened code. References to defs,
// classes and imports are typed through the AST checker of the same module.
type FlatChecker struct {
	ast *Checker
	u   *types.Universe
	b   types.Builtins
}

// NewFlatChecker builds a flat checker backed by an AST checker that has
// already checked the module.
func NewFlatChecker(c *Checker) *FlatChecker {
	return &FlatChecker{ast: c, u: c.u, b: c.b}
}

// Check types every instruction of code.
func (fc *FlatChecker) Check(code *hlir.Code) (*Annotations, error) {
	out := &Annotations{Seqs: make([][]types.TypeID, len(code.Seqs))}
	for i, s := range code.Seqs {
		ts, err := fc.seq(code, s)
		if err != nil {
			return nil, err
		}
		out.Seqs[i] = ts
	}
	return out, nil
}

type flatSeq struct {
	*FlatChecker
	code  *hlir.Code
	seq   *hlir.Seq
	types []types.TypeID
	// incoming collects the values jumping to each PhiRecv.
	incoming map[hlir.ValueID][]hlir.ValueID
}

func (fc *FlatChecker) seq(code *hlir.Code, s *hlir.Seq) ([]types.TypeID, error) {
	fs := &flatSeq{
		FlatChecker: fc,
		code:        code,
		seq:         s,
		types:       make([]types.TypeID, len(s.Insts)),
		incoming:    make(map[hlir.ValueID][]hlir.ValueID),
	}
	returns := false
	for i := range s.Insts {
		in := &s.Insts[i]
		t, err := fs.inst(hlir.ValueID(i), in)
		if err != nil {
			return nil, err
		}
		fs.types[i] = t
		if in.Op == hlir.OpReturn {
			returns = true
		}
	}
	if s.Kind == hlir.SeqFunction && !returns {
		sig, _ := fc.u.FuncSig(s.Func)
		fn, _ := fc.ast.tree.FuncDef(s.Node)
		if sig.Ret != fc.b.None && fn != nil && !IsStub(fc.ast.tree, fn.Body) {
			e := fs.errorf(ErrMissingReturn, hlir.Inst{Node: s.Node, Span: fn.NameSpan},
				"%s is declared to return %s but never returns", s.Name, fc.u.Label(sig.Ret))
			e.Name = s.Name
			return nil, e.mismatch(sig.Ret, fc.b.None)
		}
	}
	return fs.types, nil
}

func (fs *flatSeq) inst(v hlir.ValueID, in *hlir.Inst) (types.TypeID, error) {
	switch in.Op {
	case hlir.OpConst:
		return fs.constType(in.Const), nil
	case hlir.OpUseLocal:
		e, ok := fs.seq.Rib.Lookup(in.Var)
		if !ok {
			return types.NoTypeID, fs.errorf(ErrInferenceFailure, *in, "%s is not bound in %s", fs.text(in.Var), fs.seq.Name)
		}
		if e.Type == fs.b.Unknown {
			err := fs.errorf(ErrUnknownType, *in, "type of %s is unknown; annotate it", fs.text(in.Var))
			err.Name = fs.text(in.Var)
			return types.NoTypeID, err
		}
		return e.Type, nil
	case hlir.OpSetVar:
		e, ok := fs.seq.Rib.Lookup(in.Var)
		if !ok {
			return types.NoTypeID, fs.errorf(ErrInferenceFailure, *in, "%s is not bound in %s", fs.text(in.Var), fs.seq.Name)
		}
		if vt := fs.types[in.Value]; vt != e.Type {
			err := fs.errorf(ErrIncompatibleReassignment, *in, "%s was bound to %s, cannot assign %s",
				fs.text(in.Var), fs.u.Label(e.Type), fs.u.Label(vt))
			err.Name = fs.text(in.Var)
			return types.NoTypeID, err.mismatch(e.Type, vt).withNote(e.Span, "first bound here")
		}
		return fs.b.Never, nil
	case hlir.OpRefVal:
		return fs.ast.TypeOf(in.Node)
	case hlir.OpGetAttr:
		base := fs.types[in.Base]
		if t, ok := fs.ast.attribute(base, in.Name.Name); ok {
			return t, nil
		}
		kind := ErrUndefinedVariable
		if source.IsDunder(fs.text(in.Name)) {
			kind = ErrBadBinaryOp
		}
		err := fs.errorf(kind, *in, "%s has no attribute %s", fs.u.Label(base), fs.text(in.Name))
		err.Name = fs.text(in.Name)
		return types.NoTypeID, err
	case hlir.OpSetAttr:
		base, vt := fs.types[in.Base], fs.types[in.Value]
		if prev, ok := fs.u.Property(base, in.Name.Name); ok && prev != vt {
			return types.NoTypeID, fs.errorf(ErrIncompatibleReassignment, *in, "attribute %s is %s, cannot assign %s",
				fs.text(in.Name), fs.u.Label(prev), fs.u.Label(vt)).mismatch(prev, vt)
		}
		return fs.b.Never, nil
	case hlir.OpCall:
		args := make([]types.TypeID, len(in.Args))
		for i, a := range in.Args {
			args[i] = fs.types[a]
		}
		return fs.call(in, fs.types[in.Func], args)
	case hlir.OpAlloc:
		return in.Type, nil
	case hlir.OpPhiJump:
		fs.incoming[in.Recv] = append(fs.incoming[in.Recv], in.Value)
		return fs.b.Never, nil
	case hlir.OpPhiRecv:
		return fs.phi(v, in)
	case hlir.OpReturn:
		vt := fs.types[in.Value]
		sig, ok := fs.u.FuncSig(fs.seq.Func)
		if !ok {
			return types.NoTypeID, fs.errorf(ErrUnsupported, *in, "return outside of a def")
		}
		if vt != sig.Ret {
			err := fs.errorf(ErrBadReturnType, *in, "returns %s, but %s is declared to return %s",
				fs.u.Label(vt), fs.seq.Name, fs.u.Label(sig.Ret)).mismatch(sig.Ret, vt)
			if fn, ok := fs.ast.tree.FuncDef(fs.seq.Node); ok {
				err = err.withNote(fn.NameSpan, "declared here")
			}
			return types.NoTypeID, err
		}
		return fs.b.Never, nil
	case hlir.OpDefn:
		target := fs.code.Seq(in.Seq)
		if target == nil {
			return types.NoTypeID, fs.errorf(ErrInferenceFailure, *in, "defn names missing sequence %d", in.Seq)
		}
		return target.Func, nil
	default:
		// Nop, Store, If, Br, JumpTarget, Class, Import
		return fs.b.Never, nil
	}
}

func (fs *flatSeq) call(in *hlir.Inst, fn types.TypeID, args []types.TypeID) (types.TypeID, error) {
	var argNodes []ast.NodeID
	for _, a := range in.Args {
		argNodes = append(argNodes, fs.seq.Insts[a].Node)
	}
	var callee ast.NodeID
	if in.Func.IsValid() {
		callee = fs.seq.Insts[in.Func].Node
	}
	t, err := fs.ast.unifyCall(in.Node, callee, fn, args, argNodes)
	if err != nil {
		if e, ok := err.(*Error); ok && !e.Node.IsValid() {
			e.Span = in.Span
		}
		return types.NoTypeID, err
	}
	return t, nil
}

// phi requires every value jumping to the receiver to share one type.
func (fs *flatSeq) phi(v hlir.ValueID, in *hlir.Inst) (types.TypeID, error) {
	vals := fs.incoming[v]
	if len(vals) == 0 {
		return types.NoTypeID, fs.errorf(ErrInferenceFailure, *in, "phi %s has no incoming values", fmtValue(v))
	}
	t := fs.types[vals[0]]
	for _, other := range vals[1:] {
		if ot := fs.types[other]; ot != t {
			return types.NoTypeID, fs.errorf(ErrIncompatibleTypes, *in, "incoming values of %s differ: %s and %s",
				fmtValue(v), fs.u.Label(t), fs.u.Label(ot)).mismatch(t, ot)
		}
	}
	return t, nil
}

func (fs *flatSeq) constType(k hlir.Const) types.TypeID {
	switch k.Kind {
	case hlir.ConstInt:
		return fs.b.Int
	case hlir.ConstFloat:
		return fs.b.Float
	case hlir.ConstStr:
		return fs.b.Str
	case hlir.ConstBool:
		return fs.b.Bool
	case hlir.ConstNone:
		return fs.b.None
	default:
		return fs.b.Ellipsis
	}
}

func (fs *flatSeq) text(ref source.SymbolRef) string { return fs.ast.text(ref) }

func (fs *flatSeq) errorf(kind ErrorKind, in hlir.Inst, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Node:     in.Node,
		Span:     in.Span,
		Msg:      fmt.Sprintf(format, args...),
		ArgIndex: -1,
	}
}

func fmtValue(v hlir.ValueID) string { return fmt.Sprintf("%%%d", v) }
