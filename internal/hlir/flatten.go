package hlir

import (
	"fmt"

	"monty/internal/ast"
	"monty/internal/layout"
	"monty/internal/scope"
	"monty/internal/source"
	"monty/internal/types"
)

// Oracle answers the type of an AST node. Flattening never invents types:
// tuple layouts, parameter and variable types all come from the oracle.
type Oracle interface {
	TypeOf(node ast.NodeID) (types.TypeID, error)
}

// Options wires the collaborators the flattener queries.
type Options struct {
	Types   *types.Universe
	Layout  *layout.Engine
	Oracle  Oracle
	Symbols *source.Symbols
	// Scopes must already contain the module scope of the tree.
	Scopes *scope.Table
}

// FlattenError reports a construct that cannot be lowered.
type FlattenError struct {
	Node ast.NodeID
	Span source.Span
	Msg  string
	Err  error
}

func (e *FlattenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FlattenError) Unwrap() error { return e.Err }

type loopCtx struct {
	head   ValueID
	breaks []ValueID
}

type flattener struct {
	tree *ast.Tree
	opts Options
	code *Code
}

type seqFlattener struct {
	*flattener
	seq    *Seq
	locals map[source.SymbolRef]bool
	loops  []loopCtx
}

// Flatten lowers the module tree into Code: one module sequence plus one
// sequence per def (methods and nested defs included), each with its own rib.
func Flatten(tree *ast.Tree, opts Options) (*Code, error) {
	if opts.Scopes == nil {
		opts.Scopes = scope.NewTable(opts.Symbols)
	}
	opts.Scopes.Build(tree)
	fl := &flattener{
		tree: tree,
		opts: opts,
		code: &Code{
			File:    tree.File,
			ByNode:  make(map[ast.NodeID]SeqID),
			Symbols: opts.Symbols,
			Types:   opts.Types,
		},
	}
	mod := fl.code.newSeq(SeqModule, "<module>", tree.Root, ModuleSeq)
	sf := fl.enter(mod)
	if err := sf.stmts(tree.Body(tree.Root)); err != nil {
		return nil, err
	}
	return fl.code, nil
}

func (fl *flattener) enter(seq *Seq) *seqFlattener {
	sf := &seqFlattener{flattener: fl, seq: seq, locals: make(map[source.SymbolRef]bool)}
	if sc := fl.opts.Scopes.Get(fl.opts.Scopes.ScopeOf(fl.tree.File, seq.Node)); sc != nil {
		for _, b := range sc.Bindings() {
			if b.Kind == scope.BindAssign || b.Kind == scope.BindParam {
				sf.locals[b.Name] = true
			}
		}
	}
	return sf
}

func (fl *flattener) errorf(n ast.NodeID, err error, format string, args ...any) *FlattenError {
	return &FlattenError{Node: n, Span: fl.tree.Span(n), Msg: fmt.Sprintf(format, args...), Err: err}
}

func (fl *flattener) typeOf(n ast.NodeID) (types.TypeID, error) {
	typ, err := fl.opts.Oracle.TypeOf(n)
	if err != nil {
		return types.NoTypeID, fl.errorf(n, err, "no type for %s", fl.tree.Kind(n))
	}
	return typ, nil
}

func (fl *flattener) text(ref source.SymbolRef) string {
	if fl.opts.Symbols == nil {
		return "?"
	}
	return fl.opts.Symbols.Text(ref)
}

// function flattens a def into a fresh sequence and returns its id.
func (fl *flattener) function(node ast.NodeID, prefix string, parent SeqID) (SeqID, error) {
	fn, _ := fl.tree.FuncDef(node)
	name := fl.text(fn.Name)
	if prefix != "" {
		name = prefix + "." + name
	}
	fnType, err := fl.typeOf(node)
	if err != nil {
		return 0, err
	}
	sig, ok := fl.opts.Types.FuncSig(fnType)
	if !ok {
		return 0, fl.errorf(node, nil, "def %s has non-function type", name)
	}
	seq := fl.code.newSeq(SeqFunction, name, node, parent)
	seq.Func = fnType

	args := sig.Args
	for i, p := range fn.Params {
		typ := fl.opts.Types.Builtins().Unknown
		switch {
		case i == 0 && sig.Receiver.IsValid():
			typ = sig.Receiver
		case len(args) > 0:
			typ, args = args[0], args[1:]
		}
		seq.Rib.Bind(p.Name, typ, p.Span)
	}

	sf := fl.enter(seq)
	if err := sf.stmts(fn.Body); err != nil {
		return 0, err
	}
	return seq.ID, nil
}

// class flattens every method of a class body, nested classes included.
func (fl *flattener) class(node ast.NodeID, prefix string, parent SeqID) error {
	cls, _ := fl.tree.ClassDef(node)
	name := fl.text(cls.Name)
	if prefix != "" {
		name = prefix + "." + name
	}
	for _, stmt := range cls.Body {
		switch fl.tree.Kind(stmt) {
		case ast.KindFuncDef:
			if _, err := fl.function(stmt, name, parent); err != nil {
				return err
			}
		case ast.KindClassDef:
			if err := fl.class(stmt, name, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sf *seqFlattener) emit(n ast.NodeID, in Inst) ValueID {
	in.Node = n
	if n.IsValid() {
		in.Span = sf.tree.Span(n)
	}
	return sf.seq.Emit(in)
}

func (sf *seqFlattener) patch(at ValueID, fn func(*Inst)) {
	fn(&sf.seq.Insts[at])
}

func (sf *seqFlattener) prefix() string {
	if sf.seq.Kind == SeqModule {
		return ""
	}
	return sf.seq.Name
}
