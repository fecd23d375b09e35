package interp_test

import (
	"errors"
	"math"
	"testing"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/interp"
	"monty/internal/parser"
	"monty/internal/source"
	"monty/internal/types"
)

type env struct {
	files *source.FileSet
	syms  *source.Symbols
	u     *types.Universe
	rt    *interp.Runtime
	// sources by module path for the importer
	sources map[string]string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	files := source.NewFileSet()
	syms := source.NewSymbols(source.NewInterner(), files)
	e := &env{files: files, syms: syms, u: types.NewUniverse(syms.Strings), sources: map[string]string{}}
	e.rt = interp.NewRuntime(interp.Config{
		Symbols: syms,
		Types:   e.u,
		Importer: func(path string) (interp.AllocID, error) {
			if id, ok := e.rt.Module(path); ok {
				return id, nil
			}
			src, ok := e.sources[path]
			if !ok {
				return 0, errors.New("module not found: " + path)
			}
			return e.rt.ExecModule(e.parse(t, path+".py", src), path)
		},
	})
	return e
}

func (e *env) parse(t *testing.T, name, src string) *ast.Tree {
	t.Helper()
	id := e.files.AddVirtual(name, []byte(src))
	bag := diag.NewBag(0)
	res := parser.ParseFile(e.files.Get(id), e.syms, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("parse %s: %+v", name, bag.Items())
	}
	return res.Tree
}

func preloaded(t *testing.T) *env {
	t.Helper()
	e := newEnv(t)
	if err := e.rt.Preload(e.parse(t, "builtins.py", string(interp.BuiltinsSource()))); err != nil {
		t.Fatalf("preload: %v", err)
	}
	return e
}

func (e *env) exec(t *testing.T, src string) interp.AllocID {
	t.Helper()
	mod, err := e.rt.ExecModule(e.parse(t, "m.py", src), "m")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return mod
}

func (e *env) global(t *testing.T, name string) *interp.Object {
	t.Helper()
	id, ok := e.rt.ModuleMember("m", e.syms.Strings.Intern(name))
	if !ok {
		t.Fatalf("m.%s is not bound", name)
	}
	obj, _ := e.rt.Object(id)
	return obj
}

func TestPreloadBindsExternClasses(t *testing.T) {
	e := preloaded(t)
	b := e.u.Builtins()
	for _, typ := range []types.TypeID{b.Int, b.Float, b.Str, b.Bool} {
		cls, ok := e.rt.ClassOf(typ)
		if !ok {
			t.Fatalf("no class for %s", e.u.Label(typ))
		}
		obj, _ := e.rt.Object(cls)
		if obj.Kind != interp.ObjClass || !obj.Data.Extern {
			t.Fatalf("%s must be an extern class", e.u.Label(typ))
		}
	}
	add, ok := e.rt.MethodType(b.Int, e.syms.Strings.Intern("__add__"))
	if !ok || e.u.Label(add) != "def int.__add__(int) -> int" {
		t.Fatalf("int.__add__: %s", e.u.Label(add))
	}
	if p, ok := e.u.Property(b.Str, e.syms.Strings.Intern("__mul__")); !ok || e.u.Label(p) != "def str.__mul__(int) -> str" {
		t.Fatalf("str.__mul__ must be recorded in the universe")
	}
	if _, ok := e.u.Property(b.Bool, e.syms.Strings.Intern("__add__")); ok {
		t.Fatalf("bool has no __add__")
	}
}

func TestPreloadBootstrapErrors(t *testing.T) {
	cases := map[string]string{
		"missing decorator": "class int:\n    ...\n",
		"two decorators":    "@extern\n@extern\nclass int:\n    ...\n",
		"wrong decorator":   "@builtin\nclass int:\n    ...\n",
		"unknown class":     "@extern\nclass list:\n    ...\n",
		"decorated def":     "@extern\ndef f():\n    ...\n",
		"loop":              "while True:\n    pass\n",
		"duplicate":         "@extern\nclass int:\n    ...\n@extern\nclass int:\n    ...\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			err := e.rt.Preload(e.parse(t, "builtins.py", src))
			var berr *interp.BootstrapError
			if !errors.As(err, &berr) {
				t.Fatalf("expected a bootstrap error, got %v", err)
			}
		})
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	if got := interp.SaturatingAdd(math.MaxInt64, 1); got != math.MaxInt64 {
		t.Fatalf("add: %d", got)
	}
	if got := interp.SaturatingSub(math.MinInt64, 1); got != math.MinInt64 {
		t.Fatalf("sub: %d", got)
	}
	if got := interp.SaturatingMul(math.MaxInt64, -2); got != math.MinInt64 {
		t.Fatalf("mul: %d", got)
	}
	if got := interp.SaturatingNeg(math.MinInt64); got != math.MaxInt64 {
		t.Fatalf("neg: %d", got)
	}
	if got := interp.SaturatingPow(2, 10); got != 1024 {
		t.Fatalf("pow: %d", got)
	}
	if got := interp.SaturatingPow(2, 64); got != math.MaxInt64 {
		t.Fatalf("pow overflow: %d", got)
	}
	if got := interp.SaturatingPow(-2, 63); got != math.MinInt64 {
		t.Fatalf("negative pow: %d", got)
	}
}

func TestExecArithmeticAndCalls(t *testing.T) {
	e := preloaded(t)
	e.exec(t, "def add(a: int, b: int) -> int:\n"+
		"    return a + b\n"+
		"x = add(1, 2)\n"+
		"big = 9223372036854775807 + 1\n"+
		"s = 'ab' * 3\n"+
		"c = 1 < 2 and 'yes' or 'no'\n"+
		"n = -5\n")
	if x := e.global(t, "x"); x.Kind != interp.ObjInteger || x.Int != 3 {
		t.Fatalf("x = %+v", x)
	}
	if big := e.global(t, "big"); big.Int != math.MaxInt64 {
		t.Fatalf("integer addition must saturate, got %d", big.Int)
	}
	if s := e.global(t, "s"); s.Str != "ababab" {
		t.Fatalf("s = %q", s.Str)
	}
	if c := e.global(t, "c"); c.Str != "yes" {
		t.Fatalf("c = %q", c.Str)
	}
	if n := e.global(t, "n"); n.Int != -5 {
		t.Fatalf("n = %d", n.Int)
	}
}

func TestExecControlFlow(t *testing.T) {
	e := preloaded(t)
	e.exec(t, "def fact(n: int) -> int:\n"+
		"    r = 1\n"+
		"    while n > 1:\n"+
		"        r = r * n\n"+
		"        n = n - 1\n"+
		"    return r\n"+
		"i = 0\n"+
		"while True:\n"+
		"    i = i + 1\n"+
		"    if i < 3:\n"+
		"        continue\n"+
		"    break\n"+
		"f = fact(5)\n")
	if f := e.global(t, "f"); f.Int != 120 {
		t.Fatalf("fact(5) = %d", f.Int)
	}
	if i := e.global(t, "i"); i.Int != 3 {
		t.Fatalf("i = %d", i.Int)
	}
}

func TestExecClassesAndDecorators(t *testing.T) {
	e := preloaded(t)
	e.exec(t, "class P:\n"+
		"    kind: str\n"+
		"    def __init__(self, x: int):\n"+
		"        self.x = x\n"+
		"    def get(self) -> int:\n"+
		"        return self.x\n"+
		"def keep(f):\n"+
		"    return f\n"+
		"@keep\n"+
		"def g() -> int:\n"+
		"    return P(4).get()\n"+
		"y = g()\n")
	if y := e.global(t, "y"); y.Int != 4 {
		t.Fatalf("y = %d", y.Int)
	}
	p := e.global(t, "P")
	if p.Kind != interp.ObjClass || e.u.Label(p.Type) != "P" {
		t.Fatalf("P = %+v", p)
	}
	ann, ok := p.Attr(e.syms.Strings.Intern("__annotations__"))
	if !ok {
		t.Fatalf("class annotations not recorded")
	}
	kind, ok := e.rt.DictGet(ann, "kind")
	if cls, _ := e.rt.ClassOf(e.u.Builtins().Str); !ok || kind != cls {
		t.Fatalf("kind must be annotated with str")
	}
}

func TestExecErrors(t *testing.T) {
	cases := []struct {
		src  string
		code interp.ErrorCode
	}{
		{"x = y\n", interp.ErrNameUndefined},
		{"x = 1\nx.y = 2\n", interp.ErrNoAttribute},
		{"x = 1\nx()\n", interp.ErrNotCallable},
		{"def f(a):\n    return a\nf()\n", interp.ErrArity},
		{"x = 'a' - 'b'\n", interp.ErrOperand},
		{"x = 2 ** -1\n", interp.ErrOperand},
		{"return 1\n", interp.ErrBadControl},
		{"break\n", interp.ErrBadControl},
		{"import missing\n", interp.ErrImport},
		{"while True:\n    pass\n", interp.ErrBudget},
		{"def f() -> int:\n    return f()\nf()\n", interp.ErrBudget},
		{"x = int()\n", interp.ErrUnsupportedValue},
	}
	for _, tc := range cases {
		e := preloaded(t)
		_, err := e.rt.ExecModule(e.parse(t, "m.py", tc.src), "m")
		var eerr *interp.EvalError
		if !errors.As(err, &eerr) || eerr.Code != tc.code {
			t.Fatalf("%q: expected %s, got %v", tc.src, tc.code, err)
		}
	}
}

func TestBacktrace(t *testing.T) {
	e := preloaded(t)
	_, err := e.rt.ExecModule(e.parse(t, "m.py", "def f():\n    return g\ndef h():\n    return f()\nh()\n"), "m")
	var eerr *interp.EvalError
	if !errors.As(err, &eerr) || len(eerr.Backtrace) != 2 {
		t.Fatalf("expected a two-frame backtrace, got %v", err)
	}
	if eerr.Backtrace[0].Func != "f" || eerr.Backtrace[1].Func != "h" {
		t.Fatalf("backtrace must be innermost first: %+v", eerr.Backtrace)
	}
}

func TestImports(t *testing.T) {
	e := preloaded(t)
	e.sources["lib"] = "X = 1\ndef two() -> int:\n    return 2\n"
	e.sources["pkg"] = ""
	e.sources["pkg.sub"] = "Y = 3\n"
	tree := e.parse(t, "m.py", "import lib\nfrom lib import two, X as x\nimport pkg.sub\nfrom pkg import sub\na = lib.X + two()\nb = pkg.sub.Y\n")
	if _, err := e.rt.ExecModule(tree, "m"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if a := e.global(t, "a"); a.Int != 3 {
		t.Fatalf("a = %d", a.Int)
	}
	if b := e.global(t, "b"); b.Int != 3 {
		t.Fatalf("b = %d", b.Int)
	}
	body, _ := tree.Module(tree.Root)
	target, ok := e.rt.ImportTarget(tree.File, body.Body[1], 1)
	if !ok || target.Module != "lib" || e.syms.Text(source.SymbolRef{Name: target.Member}) != "X" {
		t.Fatalf("from-import target: %+v", target)
	}
	if target, _ := e.rt.ImportTarget(tree.File, body.Body[3], 0); target.Module != "pkg.sub" || target.Member != source.NoStringID {
		t.Fatalf("submodule target: %+v", target)
	}
	if target, _ := e.rt.ImportTarget(tree.File, body.Body[2], 0); target.Module != "pkg" {
		t.Fatalf("dotted import binds the top package: %+v", target)
	}
}

func TestDeclareThenRun(t *testing.T) {
	e := preloaded(t)
	e.sources["lib"] = "K = 2\n"
	tree := e.parse(t, "m.py", "x = 1\n"+
		"if x > 0:\n"+
		"    import lib\n"+
		"def f() -> int:\n"+
		"    return x + lib.K\n"+
		"y = f()\n")
	if _, err := e.rt.DeclareModule(tree, "m"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	strs := e.syms.Strings
	if _, ok := e.rt.ModuleMember("m", strs.Intern("f")); !ok {
		t.Fatalf("f must be bound by the declarations")
	}
	if _, ok := e.rt.ModuleMember("m", strs.Intern("lib")); !ok {
		t.Fatalf("nested imports must be executed by the declarations")
	}
	if _, ok := e.rt.ModuleMember("m", strs.Intern("x")); ok {
		t.Fatalf("assignments must wait for RunModule")
	}
	if err := e.rt.RunModule(tree, "m"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if y := e.global(t, "y"); y.Int != 3 {
		t.Fatalf("y = %d", y.Int)
	}
	var eerr *interp.EvalError
	if err := e.rt.RunModule(tree, "other"); !errors.As(err, &eerr) || eerr.Code != interp.ErrImport {
		t.Fatalf("running an undeclared module: %v", err)
	}
}
