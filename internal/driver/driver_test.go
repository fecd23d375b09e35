package driver_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"monty/internal/diag"
	"monty/internal/driver"
	"monty/internal/interp"
	"monty/internal/types"
)

// writeTree creates files under a temporary root; keys are slash-separated
// relative paths.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const libSrc = "K = 3\n" +
	"def double(n: int) -> int:\n" +
	"    return n * 2\n"

const mainSrc = "import lib\n" +
	"from lib import double\n" +
	"def add(a: int, b: int) -> int:\n" +
	"    return a + b\n" +
	"x = add(1, 2)\n" +
	"y = double(x)\n" +
	"z = lib.K\n"

func TestSearchPath(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/a.py":             "",
		"app/pkg/__init__.py":  "",
		"app/pkg/sub.py":       "",
		"app/x.y.py":           "",
		"app/a.txt":            "",
		"std/a.py":             "",
		"std/only.py":          "",
		"std/deep/nested/m.py": "",
		"std/noinit/keep.py":   "",
	})
	sp := driver.NewSearchPath(filepath.Join(root, "app"), filepath.Join(root, "std"))
	cases := map[string]string{
		"a":             "app/a.py",
		"only":          "std/only.py",
		"pkg":           "app/pkg/__init__.py",
		"pkg.sub":       "app/pkg/sub.py",
		"deep.nested.m": "std/deep/nested/m.py",
	}
	for path, want := range cases {
		ref, err := sp.Find(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if ref.Path != path || ref.File != filepath.Join(root, filepath.FromSlash(want)) {
			t.Fatalf("%s resolved to %+v, want %s", path, ref, want)
		}
	}
	for _, path := range []string{"x.y", "x", "noinit", "pkg.missing", "a.b", "", "pkg..sub"} {
		_, err := sp.Find(path)
		var nf *driver.ModuleNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("%q: expected ModuleNotFoundError, got %v", path, err)
		}
	}
}

func TestEntryRef(t *testing.T) {
	ref, err := driver.EntryRef("dir/prog.py")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Path != "prog" || !filepath.IsAbs(ref.File) {
		t.Fatalf("entry ref %+v", ref)
	}
	if ref, _ := driver.EntryRef("dir/.py"); ref.Path != "__main__" {
		t.Fatalf("stemless entry must be __main__, got %q", ref.Path)
	}
}

func TestCompileEndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{"lib.py": libSrc, "main.py": mainSrc})
	res, err := driver.Compile(context.Background(), filepath.Join(root, "main.py"), driver.Options{})
	if err != nil {
		t.Fatalf("compile: %v", driver.Diagnostic(err).Message)
	}
	c := res.Context
	var order []string
	for _, m := range c.Modules() {
		order = append(order, m.Ref.Path)
	}
	if !slices.Equal(order, []string{"lib", "main"}) {
		t.Fatalf("modules must complete after their imports: %v", order)
	}
	syms := c.Symbols.Strings
	for name, want := range map[string]int64{"x": 3, "y": 6, "z": 3} {
		id, ok := c.Runtime.ModuleMember("main", syms.Intern(name))
		if !ok {
			t.Fatalf("main.%s is not bound", name)
		}
		obj, _ := c.Runtime.Object(id)
		if obj.Kind != interp.ObjInteger || obj.Int != want {
			t.Fatalf("main.%s = %+v, want %d", name, obj, want)
		}
	}

	code := res.Entry.Code
	var add bool
	for _, s := range code.Functions() {
		if s.Name != "add" {
			continue
		}
		add = true
		if got := c.Types.Label(s.Func); got != "def add(int, int) -> int" {
			t.Fatalf("add signature %s", got)
		}
		if s.Rib.Len() != 2 {
			t.Fatalf("add rib must hold the two parameters, got %d", s.Rib.Len())
		}
	}
	if !add {
		t.Fatalf("no sequence for add:\n%s", code)
	}
	mod := c.Types.Module(syms.Intern("lib"))
	if k, ok := c.Types.Property(mod, syms.Intern("K")); !ok || k != c.Types.Builtins().Int {
		t.Fatalf("lib.K must be published as int")
	}
}

func TestCompileSubmoduleAttribute(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/sub.py":      "Y = 'y'\n",
		"main.py":         "import pkg.sub\nv = pkg.sub.Y\n",
	})
	res, err := driver.Compile(context.Background(), filepath.Join(root, "main.py"), driver.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	syms := res.Context.Symbols.Strings
	sub, ok := res.Context.Types.Property(res.Context.Types.Module(syms.Intern("pkg")), syms.Intern("sub"))
	if !ok || res.Context.Types.KindOf(sub) != types.KindModule {
		t.Fatalf("pkg.sub must be an attribute of pkg")
	}
}

func TestCyclicImport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import c\n",
		"c.py": "import a\n",
	})
	_, err := driver.Compile(context.Background(), filepath.Join(root, "a.py"), driver.Options{})
	var cyc *driver.CyclicImportError
	if !errors.As(err, &cyc) {
		t.Fatalf("expected a cyclic import error, got %v", err)
	}
	if !slices.Equal(cyc.Chain, []string{"a", "b", "c", "a"}) {
		t.Fatalf("chain %v", cyc.Chain)
	}
	d := driver.Diagnostic(err)
	if d.Code != diag.ProjImportCycle || !strings.Contains(d.Message, "a -> b -> c -> a") {
		t.Fatalf("diagnostic %+v", d)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing module", "import nowhere\n", diag.ProjModuleNotFound},
		{"syntax", "def f(:\n", diag.SynExpectIdentifier},
		{"bad argument", "def f(a: int) -> int:\n    return a\nx = f('s')\n", diag.SemaBadArgumentType},
		{"bad return", "def f() -> int:\n    return 's'\n", diag.SemaBadReturnType},
		{"eval", "x = 1\ny = x.nothing\n", diag.SemaUndefinedVariable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeTree(t, map[string]string{"m.py": tc.src})
			_, err := driver.Compile(context.Background(), filepath.Join(root, "m.py"), driver.Options{})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.code == diag.SynExpectIdentifier {
				var syn *driver.SyntaxError
				if !errors.As(err, &syn) {
					t.Fatalf("expected a syntax error, got %v", err)
				}
				return
			}
			if d := driver.Diagnostic(err); d.Code != tc.code {
				t.Fatalf("expected %s, got %s: %s", tc.code.ID(), d.Code.ID(), d.Message)
			}
		})
	}
}

// Module-level statements are checked before the interpreter runs them,
// so their errors carry the checker's kinds.
func TestModuleLevelErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"argument with arithmetic body", "def f(a: int) -> int:\n    return a + 1\nx = f('s')\n", diag.SemaBadArgumentType},
		{"operand", "x = 1 + 's'\n", diag.SemaBadBinaryOp},
		{"undefined name", "y = q\n", diag.SemaUndefinedVariable},
		{"missing attribute", "x = 1\ny = x.nothing\n", diag.SemaUndefinedVariable},
		// well typed, rejected only when evaluated
		{"negative power", "x = 2 ** -1\n", diag.SemaBadBinaryOp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeTree(t, map[string]string{"m.py": tc.src})
			var stages []driver.Stage
			_, err := driver.Compile(context.Background(), filepath.Join(root, "m.py"), driver.Options{
				Observe: func(ev driver.PhaseEvent) {
					if ev.Status == driver.PhaseFailed {
						stages = append(stages, ev.Stage)
					}
				},
			})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if d := driver.Diagnostic(err); d.Code != tc.code {
				t.Fatalf("expected %s, got %s: %s", tc.code.ID(), d.Code.ID(), d.Message)
			}
			if tc.name == "negative power" {
				if !slices.Equal(stages, []driver.Stage{driver.StageEval}) {
					t.Fatalf("failed stages %v", stages)
				}
			} else if slices.Contains(stages, driver.StageEval) || slices.Contains(stages, driver.StageDeclare) {
				t.Fatalf("the checker must fail first, failed stages %v", stages)
			}
		})
	}
}

func TestDeclarationsBeforeCheck(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib.py": libSrc,
		"m.py":   "import lib\n" +
			"class P:\n" +
			"    def __init__(self, x: int):\n" +
			"        self.x = x\n" +
			"    def get(self) -> int:\n" +
			"        return self.x + lib.K\n" +
			"v = P(1).get()\n",
	})
	var order []driver.Stage
	res, err := driver.Compile(context.Background(), filepath.Join(root, "m.py"), driver.Options{
		Observe: func(ev driver.PhaseEvent) {
			if ev.Module == "m" && ev.Status == driver.PhaseEnd {
				order = append(order, ev.Stage)
			}
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", driver.Diagnostic(err).Message)
	}
	want := []driver.Stage{driver.StageParse, driver.StageDeclare, driver.StageCheck, driver.StageFlatten, driver.StageFlatCheck, driver.StageEval}
	if !slices.Equal(order, want) {
		t.Fatalf("stage order %v", order)
	}
	id, ok := res.Context.Runtime.ModuleMember("m", res.Context.Symbols.Strings.Intern("v"))
	if !ok {
		t.Fatalf("m.v is not bound")
	}
	if obj, _ := res.Context.Runtime.Object(id); obj.Int != 4 {
		t.Fatalf("m.v = %+v", obj)
	}
}

func TestCompileCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"m.py": "x = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Compile(ctx, filepath.Join(root, "m.py"), driver.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestBuildArtifact(t *testing.T) {
	root := writeTree(t, map[string]string{"lib.py": libSrc, "main.py": mainSrc})
	cache, err := driver.NewDiskCache(filepath.Join(root, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(root, "main.py")
	data, res, err := driver.Build(context.Background(), entry, driver.Options{}, cache)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res == nil {
		t.Fatalf("first build must compile")
	}
	art, err := driver.DecodeArtifact(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if art.Entry != "main" || len(art.Modules) != 2 {
		t.Fatalf("artifact header: entry %q, %d modules", art.Entry, len(art.Modules))
	}
	var add *driver.Function
	for i := range art.Modules[1].Functions {
		if art.Modules[1].Functions[i].Name == "main.add" {
			add = &art.Modules[1].Functions[i]
		}
	}
	if add == nil {
		t.Fatalf("main.add missing from the artifact")
	}
	if add.FrameSize != 16 || len(add.Slots) != 2 || add.Slots[0].Offset != 0 || add.Slots[1].Offset != 8 {
		t.Fatalf("frame of add: size %d slots %+v", add.FrameSize, add.Slots)
	}
	var calls, returns int
	for _, in := range add.Insts {
		switch in.Op {
		case "call":
			calls++
		case "return":
			returns++
		}
	}
	if calls != 1 || returns != 1 {
		t.Fatalf("add body: %+v", add.Insts)
	}
	var intEntry bool
	for _, te := range art.Types {
		if te.Label == "int" && te.Sized && te.Size == 8 && te.Align == 8 {
			intEntry = true
		}
	}
	if !intEntry || len(art.Graph.Nodes) == 0 {
		t.Fatalf("type table or object graph missing")
	}

	again, res, err := driver.Build(context.Background(), entry, driver.Options{}, cache)
	if err != nil || res != nil || !bytes.Equal(again, data) {
		t.Fatalf("unchanged inputs must be served from the cache")
	}
	if err := os.WriteFile(filepath.Join(root, "lib.py"), []byte(libSrc+"W = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, res, err := driver.Build(context.Background(), entry, driver.Options{}, cache); err != nil || res == nil {
		t.Fatalf("a changed import must invalidate the cache: %v", err)
	}
}

func TestBuildCacheNoticesShadowingModule(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/main.py": "import lib\nz = lib.K + 1\n",
		"std/lib.py":  "K = 3\n",
	})
	cache, err := driver.NewDiskCache(filepath.Join(root, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(root, "app", "main.py")
	opts := driver.Options{LibStd: filepath.Join(root, "std")}
	if _, res, err := driver.Build(context.Background(), entry, opts, cache); err != nil || res == nil {
		t.Fatalf("first build: %v", err)
	}
	if _, res, err := driver.Build(context.Background(), entry, opts, cache); err != nil || res != nil {
		t.Fatalf("unchanged inputs must be served from the cache: %v", err)
	}

	// the entry directory is searched before the standard library
	if err := os.WriteFile(filepath.Join(root, "app", "lib.py"), []byte("K = 'shadow'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, res, err := driver.Build(context.Background(), entry, opts, cache)
	if res == nil {
		t.Fatalf("a shadowed import must invalidate the cache: %v", err)
	}
	if err == nil {
		t.Fatalf("the shadowing module must be compiled")
	}
	if d := driver.Diagnostic(err); d.Code != diag.SemaBadBinaryOp {
		t.Fatalf("expected %s, got %s: %s", diag.SemaBadBinaryOp.ID(), d.Code.ID(), d.Message)
	}
	imports := res.Context.Imports()
	if len(imports) != 1 || imports[0].File != filepath.Join(root, "app", "lib.py") {
		t.Fatalf("imports %+v", imports)
	}
}

func TestArtifactFileRoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{"m.py": "x = (1, 'a')\n"})
	res, err := driver.Compile(context.Background(), filepath.Join(root, "m.py"), driver.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	art, err := res.Context.BuildArtifact(res.Entry)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(root, "out", "m.mobj")
	if err := driver.WriteArtifact(out, art); err != nil {
		t.Fatal(err)
	}
	back, err := driver.ReadArtifact(out)
	if err != nil {
		t.Fatal(err)
	}
	if back.Entry != "m" || len(back.Types) != len(art.Types) || len(back.Graph.Edges) != len(art.Graph.Edges) {
		t.Fatalf("artifact changed on disk")
	}
	bad := filepath.Join(root, "bad.mobj")
	if err := os.WriteFile(bad, []byte{0x80}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := driver.ReadArtifact(bad); !errors.Is(err, driver.ErrArtifactSchema) {
		t.Fatalf("expected a schema error, got %v", err)
	}
}

func TestCheckParallel(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok1.py": "x = 1\n",
		"ok2.py": "def f(a: int) -> int:\n    return a\n",
		"bad.py": "def f() -> int:\n    return 's'\n",
	})
	paths := []string{filepath.Join(root, "ok1.py"), filepath.Join(root, "bad.py"), filepath.Join(root, "ok2.py")}
	var (
		mu     sync.Mutex
		events = map[string]int{}
	)
	results, err := driver.CheckParallel(context.Background(), paths, driver.Options{EnableTimings: true}, 2,
		func(path string, ev driver.PhaseEvent) {
			mu.Lock()
			events[path]++
			mu.Unlock()
		})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("results must keep input order")
		}
		if r.Timing == nil || len(r.Timing.Phases) == 0 {
			t.Fatalf("%s: timings missing", r.Path)
		}
		if events[r.Path] == 0 {
			t.Fatalf("%s: no phase events", r.Path)
		}
	}
	if results[0].Diag != nil || results[2].Diag != nil {
		t.Fatalf("clean files must not report")
	}
	if results[1].Diag == nil || results[1].Diag.Code != diag.SemaBadReturnType {
		t.Fatalf("bad.py: %+v", results[1].Diag)
	}
}
