package hlir_test

import (
	"errors"
	"strings"
	"testing"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/hlir"
	"monty/internal/layout"
	"monty/internal/parser"
	"monty/internal/scope"
	"monty/internal/source"
	"monty/internal/types"
)

// kindOracle types literals by kind, every other expression as int, and
// every def as taking and returning ints.
type kindOracle struct {
	u    *types.Universe
	tree *ast.Tree
}

func (o kindOracle) TypeOf(n ast.NodeID) (types.TypeID, error) {
	b := o.u.Builtins()
	switch o.tree.Kind(n) {
	case ast.KindFuncDef:
		fn, _ := o.tree.FuncDef(n)
		args := make([]types.TypeID, len(fn.Params))
		for i := range args {
			args[i] = b.Int
		}
		return o.u.Func(types.FuncSig{Name: fn.Name.Name, Args: args, Ret: b.Int}), nil
	case ast.KindTuple:
		tup, _ := o.tree.Tuple(n)
		members := make([]types.TypeID, 0, len(tup.Elts))
		for _, e := range tup.Elts {
			m, err := o.TypeOf(e)
			if err != nil {
				return types.NoTypeID, err
			}
			members = append(members, m)
		}
		return o.u.Tuple(members...), nil
	case ast.KindBool:
		return b.Bool, nil
	case ast.KindStr:
		return b.Str, nil
	case ast.KindInvalid:
		return types.NoTypeID, errors.New("no node")
	}
	return b.Int, nil
}

type flatFixture struct {
	syms *source.Symbols
	u    *types.Universe
	code *hlir.Code
}

func flatten(t *testing.T, src string) (*flatFixture, error) {
	t.Helper()
	fs := source.NewFileSet()
	syms := source.NewSymbols(source.NewInterner(), fs)
	id := fs.AddVirtual("m.py", []byte(src))
	bag := diag.NewBag(0)
	res := parser.ParseFile(fs.Get(id), syms, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("parse: %+v", bag.Items())
	}
	u := types.NewUniverse(syms.Strings)
	code, err := hlir.Flatten(res.Tree, hlir.Options{
		Types:   u,
		Layout:  layout.New(layout.X86_64LinuxGNU(), u),
		Oracle:  kindOracle{u: u, tree: res.Tree},
		Symbols: syms,
		Scopes:  scope.NewTable(syms),
	})
	return &flatFixture{syms: syms, u: u, code: code}, err
}

func mustFlatten(t *testing.T, src string) *flatFixture {
	t.Helper()
	f, err := flatten(t, src)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if err := hlir.Validate(f.code); err != nil {
		t.Fatalf("validate: %v\n%s", err, f.code)
	}
	return f
}

func ops(s *hlir.Seq) []hlir.Op {
	out := make([]hlir.Op, 0, len(s.Insts))
	for _, in := range s.Insts {
		out = append(out, in.Op)
	}
	return out
}

func equalOps(a, b []hlir.Op) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlattenAdd(t *testing.T) {
	f := mustFlatten(t, "def add(a: int, b: int) -> int:\n    return a + b\n")
	if len(f.code.Seqs) != 2 {
		t.Fatalf("expected module + one function, got %d sequences", len(f.code.Seqs))
	}
	fn := f.code.Seqs[1]
	want := []hlir.Op{hlir.OpUseLocal, hlir.OpUseLocal, hlir.OpGetAttr, hlir.OpCall, hlir.OpReturn}
	if got := ops(fn); !equalOps(got, want) {
		t.Fatalf("ops = %v, want %v\n%s", got, want, f.code)
	}
	if name := f.syms.Text(fn.Insts[2].Name); name != "__add__" {
		t.Fatalf("expected __add__, got %s", name)
	}
	call := fn.Insts[3]
	if call.Func != 2 || len(call.Args) != 1 || call.Args[0] != 1 {
		t.Fatalf("unexpected call operands %+v", call)
	}
	if fn.Rib.Len() != 2 {
		t.Fatalf("params must be bound in the rib, got %d", fn.Rib.Len())
	}
	if mod := ops(f.code.Module()); !equalOps(mod, []hlir.Op{hlir.OpDefn}) {
		t.Fatalf("module ops = %v", mod)
	}
	if !strings.Contains(f.code.String(), "sequence(1): add") {
		t.Fatalf("printer output missing function header:\n%s", f.code)
	}
}

func TestFlattenTupleUsesLayout(t *testing.T) {
	f := mustFlatten(t, "t = (1, True, 2)\n")
	mod := f.code.Module()
	want := []hlir.Op{
		hlir.OpConst, hlir.OpConst, hlir.OpConst,
		hlir.OpConst, hlir.OpAlloc,
		hlir.OpStore, hlir.OpStore, hlir.OpStore,
		hlir.OpSetVar,
	}
	if got := ops(mod); !equalOps(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if size := mod.Insts[3].Const.Int; size != 24 {
		t.Fatalf("tuple size = %d, want 24", size)
	}
	for i, off := range []int{0, 8, 16} {
		if got := mod.Insts[5+i].Offset; got != off {
			t.Fatalf("store %d offset = %d, want %d", i, got, off)
		}
	}
	b := f.u.Builtins()
	if mod.Insts[4].Type != f.u.Tuple(b.Int, b.Bool, b.Int) {
		t.Fatalf("alloc carries the wrong type %s", f.u.Label(mod.Insts[4].Type))
	}
}

func TestRibKeepsFirstBinding(t *testing.T) {
	f := mustFlatten(t, "x = 1\nx = 2\ny = x\n")
	rib := f.code.Module().Rib
	if rib.Len() != 2 {
		t.Fatalf("expected x and y in the rib, got %d entries", rib.Len())
	}
	e, ok := rib.Lookup(f.syms.Ref(f.code.File, "x"))
	if !ok || e.Type != f.u.Builtins().Int {
		t.Fatalf("unexpected rib entry %+v", e)
	}
	if _, created := rib.Bind(e.Var, f.u.Builtins().Str, e.Span); created {
		t.Fatalf("rebinding must not create a new entry")
	}
	if again, _ := rib.Lookup(e.Var); again.Type != f.u.Builtins().Int {
		t.Fatalf("rib entry was overwritten")
	}
}

func TestFlattenControlFlow(t *testing.T) {
	src := "def f(n):\n" +
		"    i = 0\n" +
		"    while i < n:\n" +
		"        if i == 3:\n" +
		"            break\n" +
		"        else:\n" +
		"            i = i + 1\n" +
		"            continue\n" +
		"    return i\n"
	f := mustFlatten(t, src)
	fn := f.code.Seqs[1]
	var ifs, brs, targets int
	for _, in := range fn.Insts {
		switch in.Op {
		case hlir.OpIf:
			ifs++
		case hlir.OpBr:
			brs++
		case hlir.OpJumpTarget:
			targets++
		}
	}
	if ifs != 2 || targets != 4 {
		t.Fatalf("expected 2 ifs and 4 targets, got %d/%d\n%s", ifs, targets, f.code)
	}
	before := brs
	if n := hlir.SimplifyCFG(f.code); n == 0 {
		t.Fatalf("expected the loop entry branch to be simplified")
	}
	if err := hlir.Validate(f.code); err != nil {
		t.Fatalf("validate after simplify: %v", err)
	}
	after := 0
	for _, in := range fn.Insts {
		if in.Op == hlir.OpBr {
			after++
		}
	}
	if after >= before {
		t.Fatalf("simplify kept every br: %d -> %d", before, after)
	}
}

func TestFlattenShortCircuitAndIfExpr(t *testing.T) {
	f := mustFlatten(t, "a = 1\nb = 2\nc = a and b\nd = a if b else 3\ne = not a\n")
	mod := f.code.Module()
	recvs := 0
	for i, in := range mod.Insts {
		switch in.Op {
		case hlir.OpPhiRecv:
			recvs++
		case hlir.OpPhiJump:
			if mod.Insts[in.Recv].Op != hlir.OpPhiRecv || in.Recv <= hlir.ValueID(i) {
				t.Fatalf("%%%d jumps to %v", i, in.Recv)
			}
		}
	}
	if recvs != 3 {
		t.Fatalf("expected 3 phi receivers, got %d\n%s", recvs, f.code)
	}
}

func TestFlattenReferencesDefinitions(t *testing.T) {
	f := mustFlatten(t, "def g():\n    return 1\nx = g()\n")
	mod := f.code.Module()
	ref := mod.Insts[1]
	if ref.Op != hlir.OpRefVal || ref.Def != mod.Insts[0].Node {
		t.Fatalf("expected ref to the def node, got %+v", ref)
	}
	if mod.Insts[0].Op != hlir.OpDefn || f.code.ByNode[ref.Def] != mod.Insts[0].Seq {
		t.Fatalf("defn does not name the function sequence")
	}
}

func TestFlattenMethodsGetSequences(t *testing.T) {
	f := mustFlatten(t, "class C:\n    def m(self, x):\n        return x\n")
	if len(f.code.Seqs) != 2 || f.code.Seqs[1].Name != "C.m" {
		t.Fatalf("expected method sequence C.m, got %d seqs", len(f.code.Seqs))
	}
	if got := ops(f.code.Module()); !equalOps(got, []hlir.Op{hlir.OpClass}) {
		t.Fatalf("module ops = %v", got)
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	_, err := flatten(t, "break\n")
	var ferr *hlir.FlattenError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FlattenError, got %v", err)
	}
}

func TestValidateRejectsBadTargets(t *testing.T) {
	code := &hlir.Code{ByNode: map[ast.NodeID]hlir.SeqID{}}
	seq := &hlir.Seq{ID: hlir.ModuleSeq, Kind: hlir.SeqModule, Rib: hlir.NewRib()}
	code.Seqs = append(code.Seqs, seq)
	c := seq.Emit(hlir.Inst{Op: hlir.OpConst})
	seq.Emit(hlir.Inst{Op: hlir.OpBr, To: c})
	seq.Emit(hlir.Inst{Op: hlir.OpPhiJump, Recv: c, Value: 7})
	err := hlir.Validate(code)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"not a block start", "not a phirecv", "uses %7"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %v", want, msg)
		}
	}
}
