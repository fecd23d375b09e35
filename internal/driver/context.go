package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/hlir"
	"monty/internal/interp"
	"monty/internal/layout"
	"monty/internal/observ"
	"monty/internal/parser"
	"monty/internal/scope"
	"monty/internal/source"
	"monty/internal/trace"
	"monty/internal/typeck"
	"monty/internal/types"
)

// Options configures one compilation.
type Options struct {
	// LibStd is the standard library root searched after the entry directory.
	LibStd string
	// MaxSteps bounds module-level evaluation; 0 keeps the interpreter default.
	MaxSteps int
	// EnableTimings records per-stage durations on the context timer.
	EnableTimings bool
	// Observe receives stage boundaries; nil disables notifications.
	Observe PhaseObserver
}

// Module is one compiled module.
type Module struct {
	Ref         ModuleRef
	File        source.FileID
	Tree        *ast.Tree
	Checker     *typeck.Checker
	Code        *hlir.Code
	Annotations *typeck.Annotations
	Object      interp.AllocID
}

// Context owns every table of one compilation: sources, symbols, the type
// universe, scopes and the interpreter heap. It is not safe for concurrent
// use; independent compilations use independent contexts.
type Context struct {
	ctx    context.Context
	opts   Options
	search SearchPath
	tracer trace.Tracer
	timer  *observ.Timer
	parent uint64

	Files   *source.FileSet
	Symbols *source.Symbols
	Types   *types.Universe
	Layout  *layout.Engine
	Scopes  *scope.Table
	Runtime *interp.Runtime

	builtins        *ast.Tree
	builtinsChecker *typeck.Checker

	byPath   map[string]*Module
	byFile   map[source.FileID]*Module
	order    []*Module
	loading  []ModuleRef
	resolved []ModuleRef
}

var _ typeck.Env = (*Context)(nil)

// NewContext prepares a compilation rooted at entryDir and preloads the
// builtins module. A bootstrap failure is returned as *interp.BootstrapError.
func NewContext(ctx context.Context, entryDir string, opts Options) (*Context, error) {
	files := source.NewFileSet()
	syms := source.NewSymbols(source.NewInterner(), files)
	u := types.NewUniverse(syms.Strings)
	c := &Context{
		ctx:     ctx,
		opts:    opts,
		search:  NewSearchPath(entryDir, opts.LibStd),
		tracer:  trace.FromContext(ctx),
		Files:   files,
		Symbols: syms,
		Types:   u,
		Layout:  layout.New(layout.X86_64LinuxGNU(), u),
		Scopes:  scope.NewTable(syms),
		byPath:  make(map[string]*Module),
		byFile:  make(map[source.FileID]*Module),
	}
	c.parent = trace.CurrentSpan(ctx).SpanID
	if opts.EnableTimings {
		c.timer = observ.NewTimer()
	}
	c.Runtime = interp.NewRuntime(interp.Config{
		Symbols:  syms,
		Types:    u,
		Importer: c.importModule,
		Tracer:   c.tracer,
		MaxSteps: opts.MaxSteps,
	})
	if err := c.preload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Timer returns the stage timer, nil unless timings are enabled.
func (c *Context) Timer() *observ.Timer { return c.timer }

// Modules returns the compiled modules in completion order: every module
// appears after the modules it imports.
func (c *Context) Modules() []*Module { return c.order }

// Imports returns what every import resolved to through the search path,
// in the order the imports were first executed. The entry module is not
// among them.
func (c *Context) Imports() []ModuleRef { return c.resolved }

// Module returns a compiled module by dotted path.
func (c *Context) Module(path string) (*Module, bool) {
	m, ok := c.byPath[path]
	return m, ok
}

func (c *Context) preload() error {
	idx := c.begin("preload", interp.BuiltinsPath)
	span := trace.Begin(c.tracer, trace.ScopePass, "preload", c.parent)
	id := c.Files.AddVirtual(interp.BuiltinsPath+".py", interp.BuiltinsSource())
	tree, err := c.parse(id, interp.BuiltinsPath)
	if err != nil {
		span.End("syntax error")
		c.end(idx, err)
		return &interp.BootstrapError{Msg: err.Error()}
	}
	c.Scopes.SetBuiltins(c.Scopes.Build(tree))
	c.builtins = tree
	err = c.Runtime.Preload(tree)
	span.End("")
	c.end(idx, err)
	trace.Fail(c.tracer, trace.ScopePass, "preload", span.ID(), err)
	return err
}

// Compile compiles the entry file and everything it imports.
func (c *Context) Compile(entry ModuleRef) (*Module, error) {
	return c.load(entry)
}

// importModule is the interpreter's importer.
func (c *Context) importModule(path string) (interp.AllocID, error) {
	if c.isLoading(path) {
		err := c.cycle(path)
		trace.Fail(c.tracer, trace.ScopeModule, "import:"+path, c.parent, err)
		return 0, err
	}
	if m, ok := c.byPath[path]; ok {
		return m.Object, nil
	}
	ref, err := c.search.Find(path)
	if err != nil {
		return 0, err
	}
	c.resolved = append(c.resolved, ref)
	trace.Point(c.tracer, trace.ScopeModule, "import:"+path, c.parent, "", map[string]string{"file": ref.File})
	m, err := c.load(ref)
	if err != nil {
		return 0, err
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		// a.b.c is reachable as an attribute of a.b
		parent, child := path[:i], path[i+1:]
		c.Types.SetProperty(c.moduleType(parent), c.Symbols.Strings.Intern(child), c.moduleType(path))
	}
	return m.Object, nil
}

func (c *Context) isLoading(path string) bool {
	return slices.ContainsFunc(c.loading, func(r ModuleRef) bool { return r.Path == path })
}

func (c *Context) cycle(path string) *CyclicImportError {
	chain := make([]string, 0, len(c.loading)+1)
	start := slices.IndexFunc(c.loading, func(r ModuleRef) bool { return r.Path == path })
	for _, r := range c.loading[start:] {
		chain = append(chain, r.Path)
	}
	return &CyclicImportError{Chain: append(chain, path)}
}

// load runs every stage on one module: parse and scopes, declarations,
// type checking, flattening, flat checking and finally the module body.
// Imports executed while declaring recurse into load through the
// interpreter, so an imported module is complete before its importer is
// checked.
func (c *Context) load(ref ModuleRef) (_ *Module, err error) {
	if m, ok := c.byPath[ref.Path]; ok {
		return m, nil
	}
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	c.loading = append(c.loading, ref)
	defer func() { c.loading = c.loading[:len(c.loading)-1] }()

	span := trace.Begin(c.tracer, trace.ScopeModule, "module:"+ref.Path, c.parent)
	prevParent := c.parent
	c.parent = span.ID()
	defer func() {
		c.parent = prevParent
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		span.End(detail)
	}()

	m := &Module{Ref: ref}
	err = c.stage(ref, StageParse, func() error {
		id, err := c.Files.Load(ref.File)
		if err != nil {
			return fmt.Errorf("load %s: %w", ref.File, err)
		}
		m.File = id
		m.Tree, err = c.parse(id, ref.Path)
		if err != nil {
			return err
		}
		c.Scopes.Build(m.Tree)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.byPath[ref.Path] = m
	c.byFile[m.File] = m

	stages := []struct {
		name Stage
		run  func() error
	}{
		{StageDeclare, func() error {
			obj, err := c.Runtime.DeclareModule(m.Tree, ref.Path)
			m.Object = obj
			return err
		}},
		{StageCheck, func() error {
			m.Checker = typeck.NewChecker(typeck.Config{
				Tree:       m.Tree,
				Symbols:    c.Symbols,
				Types:      c.Types,
				Scopes:     c.Scopes,
				Env:        c,
				ModulePath: ref.Path,
			})
			if err := m.Checker.CheckModule(); err != nil {
				return err
			}
			return m.Checker.Publish()
		}},
		{StageFlatten, func() error {
			code, err := hlir.Flatten(m.Tree, hlir.Options{
				Types:   c.Types,
				Layout:  c.Layout,
				Oracle:  m.Checker,
				Symbols: c.Symbols,
				Scopes:  c.Scopes,
			})
			if err != nil {
				return err
			}
			hlir.SimplifyCFG(code)
			if err := hlir.Validate(code); err != nil {
				return err
			}
			m.Code = code
			return nil
		}},
		{StageFlatCheck, func() error {
			ann, err := typeck.NewFlatChecker(m.Checker).Check(m.Code)
			m.Annotations = ann
			return err
		}},
		{StageEval, func() error {
			return c.Runtime.RunModule(m.Tree, ref.Path)
		}},
	}
	for _, st := range stages {
		if err := c.ctx.Err(); err != nil {
			delete(c.byPath, ref.Path)
			return nil, err
		}
		if err := c.stage(ref, st.name, st.run); err != nil {
			delete(c.byPath, ref.Path)
			return nil, err
		}
	}
	c.order = append(c.order, m)
	return m, nil
}

// stage runs one step under a trace span, a timer phase and observer events.
func (c *Context) stage(ref ModuleRef, name Stage, run func() error) error {
	idx := c.begin(name, ref.Path)
	span := trace.Begin(c.tracer, trace.ScopePass, string(name), c.parent).WithExtra("module", ref.Path)
	c.notify(PhaseEvent{Module: ref.Path, Stage: name, Status: PhaseStart})
	start := time.Now()
	err := run()
	elapsed := time.Since(start)
	span.End("")
	c.end(idx, err)
	status := PhaseEnd
	if err != nil {
		status = PhaseFailed
		trace.Fail(c.tracer, trace.ScopePass, string(name)+":"+ref.Path, span.ID(), err)
	}
	c.notify(PhaseEvent{Module: ref.Path, Stage: name, Status: status, Elapsed: elapsed, Err: err})
	return err
}

func (c *Context) parse(id source.FileID, path string) (*ast.Tree, error) {
	bag := diag.NewBag(0)
	res := parser.ParseFile(c.Files.Get(id), c.Symbols, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		bag.Sort()
		return nil, &SyntaxError{Path: path, Diags: bag.Items()}
	}
	return res.Tree, nil
}

func (c *Context) begin(name Stage, module string) int {
	if c.timer == nil {
		return -1
	}
	return c.timer.Begin(string(name), module)
}

func (c *Context) end(idx int, err error) {
	if c.timer == nil || idx < 0 {
		return
	}
	c.timer.End(idx, err)
}

func (c *Context) notify(ev PhaseEvent) {
	if c.opts.Observe != nil {
		c.opts.Observe(ev)
	}
}

func (c *Context) moduleType(path string) types.TypeID {
	return c.Types.Module(c.Symbols.Strings.Intern(path))
}

// ImportType implements typeck.Env: the interpreter recorded what every
// imported name resolved to while executing the import statement.
func (c *Context) ImportType(file source.FileID, node ast.NodeID, index int) (types.TypeID, error) {
	target, ok := c.Runtime.ImportTarget(file, node, index)
	if !ok {
		return types.NoTypeID, fmt.Errorf("import was not executed")
	}
	mod := c.moduleType(target.Module)
	if target.Member == source.NoStringID {
		return mod, nil
	}
	t, ok := c.Types.Property(mod, target.Member)
	if !ok {
		return types.NoTypeID, fmt.Errorf("module %s has no member %s", target.Module, c.Symbols.Strings.MustLookup(target.Member))
	}
	return t, nil
}

// BindingType implements typeck.Env for bindings owned by other modules.
// Extern classes of the builtins module are typed as constructors of the
// primitive they stand for.
func (c *Context) BindingType(b scope.Binding) (types.TypeID, error) {
	if b.Kind == scope.BindClass {
		if t, ok := c.Runtime.ExternType(b.Name.File, b.Node); ok {
			return c.Types.Func(types.FuncSig{Name: b.Name.Name, Ret: t}), nil
		}
	}
	if m, ok := c.byFile[b.Name.File]; ok && m.Checker != nil {
		return m.Checker.BindingType(b)
	}
	if c.builtins != nil && b.Name.File == c.builtins.File {
		if c.builtinsChecker == nil {
			c.builtinsChecker = typeck.NewChecker(typeck.Config{
				Tree:       c.builtins,
				Symbols:    c.Symbols,
				Types:      c.Types,
				Scopes:     c.Scopes,
				Env:        c,
				ModulePath: interp.BuiltinsPath,
			})
		}
		return c.builtinsChecker.BindingType(b)
	}
	return types.NoTypeID, fmt.Errorf("binding %s belongs to no compiled module", c.Symbols.Text(b.Name))
}

// Attribute implements typeck.Env through the interpreter's classes.
func (c *Context) Attribute(recv types.TypeID, name source.StringID) (types.TypeID, bool) {
	return c.Runtime.MethodType(recv, name)
}

// EntryDir returns the directory the entry file is searched relative to.
func EntryDir(entry ModuleRef) string { return filepath.Dir(entry.File) }
