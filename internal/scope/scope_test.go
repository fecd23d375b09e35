package scope_test

import (
	"errors"
	"testing"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/parser"
	"monty/internal/scope"
	"monty/internal/source"
)

type fixture struct {
	syms  *source.Symbols
	files *source.FileSet
	table *scope.Table
}

func newFixture() *fixture {
	fs := source.NewFileSet()
	syms := source.NewSymbols(source.NewInterner(), fs)
	return &fixture{syms: syms, files: fs, table: scope.NewTable(syms)}
}

func (f *fixture) parse(t *testing.T, name, src string) *ast.Tree {
	t.Helper()
	id := f.files.AddVirtual(name, []byte(src))
	bag := diag.NewBag(0)
	res := parser.ParseFile(f.files.Get(id), f.syms, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("parse %s: %+v", name, bag.Items())
	}
	f.table.Build(res.Tree)
	return res.Tree
}

// names returns every Name node spelling text, in pre-order.
func (f *fixture) names(tree *ast.Tree, text string) []ast.NodeID {
	var out []ast.NodeID
	tree.Walk(tree.Root, func(n ast.NodeID) bool {
		if ref, ok := tree.Name(n); ok && f.syms.Text(ref) == text {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (f *fixture) resolve(tree *ast.Tree, at ast.NodeID, text string, order scope.Order) ([]scope.Binding, error) {
	return f.table.Resolve(tree.File, at, f.syms.Ref(tree.File, text), order)
}

func TestFlowSensitiveLookupPicksNearestPreceding(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "x = 1\ny = x\nx = \"s\"\n")
	body := tree.Body(tree.Root)
	use := f.names(tree, "x")[1] // [target of x = 1, use in y = x, target of x = "s"]

	got, err := f.resolve(tree, use, "x", scope.FlowSensitive)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 || got[0].Node != body[0] || got[0].Kind != scope.BindAssign {
		t.Fatalf("expected the first assignment, got %+v", got)
	}

	all, err := f.resolve(tree, use, "x", scope.Unordered)
	if err != nil {
		t.Fatalf("unordered lookup: %v", err)
	}
	if len(all) != 2 || all[0].Node != body[0] || all[1].Node != body[2] {
		t.Fatalf("expected both assignments, got %+v", all)
	}
}

func TestSelfReferenceDoesNotSeeItself(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "x = 1\nx = x + 1\n")
	body := tree.Body(tree.Root)
	uses := f.names(tree, "x")
	// pre-order visits the value of the second assignment before its target
	got, err := f.resolve(tree, uses[1], "x", scope.FlowSensitive)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got[0].Node != body[0] {
		t.Fatalf("expected first assignment, got node %d", got[0].Node)
	}
}

func TestUndefinedVariable(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "y = z\n")
	use := f.names(tree, "z")[0]
	_, err := f.resolve(tree, use, "z", scope.FlowSensitive)
	var undef *scope.UndefinedError
	if !errors.As(err, &undef) {
		t.Fatalf("expected UndefinedError, got %v", err)
	}
	if undef.Text != "z" || undef.Node != use || undef.Span != tree.Span(use) {
		t.Fatalf("unexpected error payload %+v", undef)
	}
}

func TestUseBeforeAssignmentIsUndefined(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "y = x\nx = 1\n")
	use := f.names(tree, "x")[0]
	if _, err := f.resolve(tree, use, "x", scope.FlowSensitive); err == nil {
		t.Fatalf("expected an error for use before assignment")
	}
	if got, err := f.resolve(tree, use, "x", scope.Unordered); err != nil || len(got) != 1 {
		t.Fatalf("unordered lookup should still see the assignment: %v %+v", err, got)
	}
}

func TestDefinitionsAreHoisted(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "def f():\n    return g()\ndef g():\n    return 1\n")
	use := f.names(tree, "g")[0]
	got, err := f.resolve(tree, use, "g", scope.FlowSensitive)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got[0].Kind != scope.BindFunc || got[0].Node != tree.Body(tree.Root)[1] {
		t.Fatalf("expected def g, got %+v", got[0])
	}
}

func TestParamsAndEnclosingScopes(t *testing.T) {
	f := newFixture()
	src := "a = 2\nclass C:\n    a = 1\n    def m(self, b: int):\n        return a + b\n"
	tree := f.parse(t, "m.py", src)
	useA := f.names(tree, "a")[2]
	useB := f.names(tree, "b")[0]

	got, err := f.resolve(tree, useB, "b", scope.FlowSensitive)
	if err != nil || got[0].Kind != scope.BindParam || got[0].Index != 1 {
		t.Fatalf("expected param b, got %+v (%v)", got, err)
	}

	got, err = f.resolve(tree, useA, "a", scope.FlowSensitive)
	if err != nil {
		t.Fatalf("lookup a: %v", err)
	}
	if got[0].Node != tree.Body(tree.Root)[0] {
		t.Fatalf("class body must be skipped, got %+v", got[0])
	}
	if sc := f.table.Get(got[0].Scope); sc.Kind != scope.KindModule {
		t.Fatalf("expected module scope, got %v", sc.Kind)
	}
}

func TestBuiltinsResolveByText(t *testing.T) {
	f := newFixture()
	builtins := f.parse(t, "builtins.py", "@extern\nclass int:\n    pass\n")
	f.table.SetBuiltins(f.table.Module(builtins.File))

	tree := f.parse(t, "m.py", "x = int\n")
	use := f.names(tree, "int")[0]
	got, err := f.resolve(tree, use, "int", scope.Unordered)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 || !got[0].IsRenamed() {
		t.Fatalf("expected renamed builtin, got %+v", got)
	}
	if got[0].Name.File != tree.File {
		t.Fatalf("renamed binding must report the local name")
	}
	origin := got[0].Origin()
	if origin.Kind != scope.BindClass || origin.Name.File != builtins.File {
		t.Fatalf("unexpected origin %+v", origin)
	}
}

func TestLocalShadowsBuiltinInFlowMode(t *testing.T) {
	f := newFixture()
	builtins := f.parse(t, "builtins.py", "class str:\n    pass\n")
	f.table.SetBuiltins(f.table.Module(builtins.File))

	tree := f.parse(t, "m.py", "str = 1\ny = str\n")
	use := f.names(tree, "str")[1]
	got, err := f.resolve(tree, use, "str", scope.FlowSensitive)
	if err != nil || len(got) != 1 || got[0].IsRenamed() {
		t.Fatalf("expected the local assignment, got %+v (%v)", got, err)
	}
	all, _ := f.resolve(tree, use, "str", scope.Unordered)
	if len(all) != 2 || !all[1].IsRenamed() {
		t.Fatalf("unordered lookup should list local then builtin, got %+v", all)
	}
}

func TestContainsAnnotations(t *testing.T) {
	f := newFixture()
	tree := f.parse(t, "m.py", "class P:\n    x: int\n    y = 1\ndef f():\n    z: int = 1\n")
	body := tree.Body(tree.Root)
	cls := f.table.Get(f.table.ScopeOf(tree.File, body[0]))
	fn := f.table.Get(f.table.ScopeOf(tree.File, body[1]))
	if cls.Kind != scope.KindClass || fn.Kind != scope.KindFunction {
		t.Fatalf("unexpected scope kinds %v %v", cls.Kind, fn.Kind)
	}
	if !cls.ContainsAnnotations(f.syms.Ref(tree.File, "x")) {
		t.Fatalf("x is annotated in the class body")
	}
	if cls.ContainsAnnotations(f.syms.Ref(tree.File, "y")) {
		t.Fatalf("y has no annotation")
	}
	if fn.ContainsAnnotations(f.syms.Ref(tree.File, "z")) {
		t.Fatalf("function scopes never report annotations")
	}
	mod := f.table.Get(f.table.Module(tree.File))
	if len(mod.Children()) != 2 {
		t.Fatalf("expected two child scopes, got %d", len(mod.Children()))
	}
}
