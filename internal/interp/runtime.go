package interp

import (
	_ "embed"
	"fmt"

	"monty/internal/ast"
	"monty/internal/source"
	"monty/internal/trace"
	"monty/internal/types"
)

// BuiltinsPath is the module path of the builtin stub module.
const BuiltinsPath = "builtins"

//go:embed builtins.py
var builtinsSource []byte

// BuiltinsSource returns the builtin stub module shipped with the compiler.
func BuiltinsSource() []byte { return builtinsSource }

const (
	defaultMaxSteps = 1 << 20
	defaultMaxDepth = 256
)

// Importer loads a module by dotted path and returns its module object.
type Importer func(path string) (AllocID, error)

// Config configures a Runtime.
type Config struct {
	Symbols  *source.Symbols
	Types    *types.Universe
	Importer Importer
	Tracer   trace.Tracer
	// MaxSteps bounds the statements executed by one ExecModule; 0 means
	// the default budget.
	MaxSteps int
}

// ImportTarget is what one imported name of an import statement refers to:
// a module, or Member of a module.
type ImportTarget struct {
	Module string
	Member source.StringID
}

type importKey struct {
	file  source.FileID
	node  ast.NodeID
	index int
}

type nodeKey struct {
	file source.FileID
	node ast.NodeID
}

// Runtime evaluates modules at compile time. It owns the heap of
// compile-time objects and the object graph materialized from it.
type Runtime struct {
	syms     *source.Symbols
	u        *types.Universe
	b        types.Builtins
	importer Importer
	tracer   trace.Tracer
	maxSteps int

	heap  heap
	graph *ObjectGraph

	none, ellipsis, trueObj, falseObj AllocID

	builtins *Object
	modules  map[string]AllocID
	byFile   map[source.FileID]AllocID
	classes  map[types.TypeID]AllocID
	externs  map[nodeKey]types.TypeID
	imports  map[importKey]ImportTarget

	steps int
	depth int

	nameInit, nameName, nameAnnotations source.StringID
}

// NewRuntime creates a runtime with the None, Ellipsis and bool singletons
// allocated.
func NewRuntime(cfg Config) *Runtime {
	rt := &Runtime{
		syms:     cfg.Symbols,
		u:        cfg.Types,
		b:        cfg.Types.Builtins(),
		importer: cfg.Importer,
		tracer:   cfg.Tracer,
		maxSteps: cfg.MaxSteps,
		graph:    NewObjectGraph(),
		modules:  make(map[string]AllocID),
		byFile:   make(map[source.FileID]AllocID),
		classes:  make(map[types.TypeID]AllocID),
		externs:  make(map[nodeKey]types.TypeID),
		imports:  make(map[importKey]ImportTarget),
	}
	if rt.maxSteps <= 0 {
		rt.maxSteps = defaultMaxSteps
	}
	if rt.tracer == nil {
		rt.tracer = trace.Nop
	}
	rt.none = rt.heap.alloc(ObjNone, rt.b.None).ID
	rt.ellipsis = rt.heap.alloc(ObjEllipsis, rt.b.Ellipsis).ID
	t := rt.heap.alloc(ObjBool, rt.b.Bool)
	t.Bool = true
	rt.trueObj = t.ID
	rt.falseObj = rt.heap.alloc(ObjBool, rt.b.Bool).ID
	strs := rt.syms.Strings
	rt.nameInit = strs.Intern("__init__")
	rt.nameName = strs.Intern("__name__")
	rt.nameAnnotations = strs.Intern("__annotations__")
	return rt
}

// Graph returns the object graph.
func (rt *Runtime) Graph() *ObjectGraph { return rt.graph }

// Object returns the object behind an allocation id.
func (rt *Runtime) Object(id AllocID) (*Object, bool) { return rt.heap.get(id) }

// Allocations returns the number of live allocations.
func (rt *Runtime) Allocations() int { return rt.heap.len() }

// None returns the None singleton.
func (rt *Runtime) None() AllocID { return rt.none }

// Preload executes the builtin stub module. Every class in it must carry
// exactly one @extern decorator and name one of int, float, str or bool;
// such classes stand for the builtin types and receive native methods.
// A module that breaks these rules yields a *BootstrapError.
func (rt *Runtime) Preload(tree *ast.Tree) (err error) {
	sp := trace.Begin(rt.tracer, trace.ScopeModule, "interp_preload", 0)
	defer func() { sp.End(errDetail(err)) }()

	if rt.builtins != nil {
		return bootstrapf(tree.Span(tree.Root), "builtins already loaded")
	}
	mod := rt.newModule(tree.File, BuiltinsPath)
	rt.builtins = mod
	f := &frame{tree: tree, module: mod, scope: mod, name: BuiltinsPath}
	data, _ := tree.Module(tree.Root)
	for _, stmt := range data.Body {
		var err error
		switch tree.Kind(stmt) {
		case ast.KindClassDef:
			err = rt.externClass(f, stmt)
		case ast.KindFuncDef:
			if fd, _ := tree.FuncDef(stmt); len(fd.Decorators) > 0 {
				return bootstrapf(tree.Span(fd.Decorators[0]), "decorators are not supported on builtin function %s", rt.text(fd.Name))
			}
			err = rt.exec(f, stmt)
		case ast.KindImport, ast.KindImportFrom, ast.KindExprStmt, ast.KindAssign, ast.KindPass:
			err = rt.exec(f, stmt)
		default:
			return bootstrapf(tree.Span(stmt), "%s statement is not allowed in the builtins module", tree.Kind(stmt))
		}
		if err != nil {
			return rt.surface(err)
		}
	}
	return nil
}

// ExecModule executes a module's top level and returns its module object.
// It is DeclareModule followed by RunModule.
func (rt *Runtime) ExecModule(tree *ast.Tree, path string) (AllocID, error) {
	id, err := rt.DeclareModule(tree, path)
	if err != nil {
		return 0, err
	}
	if err := rt.RunModule(tree, path); err != nil {
		return 0, err
	}
	return id, nil
}

// DeclareModule creates the module object and executes its declarations:
// top-level imports, function and class definitions with their decorators,
// and the imports nested in top-level if and while blocks. Class bodies and
// decorators see only names bound by earlier declarations and builtins.
func (rt *Runtime) DeclareModule(tree *ast.Tree, path string) (_ AllocID, err error) {
	sp := trace.Begin(rt.tracer, trace.ScopeModule, "interp_declare", 0).WithExtra("module", path)
	defer func() { sp.End(errDetail(err)) }()

	mod := rt.newModule(tree.File, path)
	f := &frame{tree: tree, module: mod, scope: mod, name: path}
	data, _ := tree.Module(tree.Root)
	rt.steps = 0
	if err := rt.declare(f, data.Body, true); err != nil {
		return 0, rt.surface(err)
	}
	return mod.ID, nil
}

// RunModule executes the statements DeclareModule skipped, in source order,
// on the module object it created.
func (rt *Runtime) RunModule(tree *ast.Tree, path string) (err error) {
	sp := trace.Begin(rt.tracer, trace.ScopeModule, "interp_exec", 0).WithExtra("module", path)
	defer func() { sp.End(errDetail(err)) }()

	id, ok := rt.modules[path]
	if !ok {
		return rt.errorf(ErrImport, tree.Span(tree.Root), "module %s was not declared", path)
	}
	mod, _ := rt.heap.get(id)
	f := &frame{tree: tree, module: mod, scope: mod, name: path}
	data, _ := tree.Module(tree.Root)
	rt.steps = 0
	for _, stmt := range data.Body {
		if isDeclaration(tree.Kind(stmt)) {
			continue
		}
		if err := rt.exec(f, stmt); err != nil {
			return rt.surface(err)
		}
	}
	return nil
}

func isDeclaration(k ast.Kind) bool {
	switch k {
	case ast.KindImport, ast.KindImportFrom, ast.KindFuncDef, ast.KindClassDef:
		return true
	}
	return false
}

// declare executes the declarations of body. Below the top level only
// imports are executed; the blocks themselves run later. Imports inside
// def and class bodies are loaded into a scratch frame so that their
// targets are known before the module is checked.
func (rt *Runtime) declare(f *frame, body []ast.NodeID, top bool) error {
	t := f.tree
	for _, stmt := range body {
		k := t.Kind(stmt)
		switch {
		case k == ast.KindImport || k == ast.KindImportFrom || top && isDeclaration(k):
			if err := rt.exec(f, stmt); err != nil {
				return err
			}
		case k == ast.KindIf:
			data, _ := t.If(stmt)
			if err := rt.declare(f, data.Body, false); err != nil {
				return err
			}
			if err := rt.declare(f, data.Orelse, false); err != nil {
				return err
			}
		case k == ast.KindWhile:
			data, _ := t.While(stmt)
			if err := rt.declare(f, data.Body, false); err != nil {
				return err
			}
		}
		var nested []ast.NodeID
		if fn, ok := t.FuncDef(stmt); ok {
			nested = fn.Body
		} else if cls, ok := t.ClassDef(stmt); ok {
			nested = cls.Body
		}
		if len(nested) > 0 {
			scratch := &frame{tree: t, module: f.module, parent: f, name: f.name}
			if err := rt.declare(scratch, nested, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// surface converts unwinding sentinels that reached a module top level.
func (rt *Runtime) surface(err error) error {
	if u, ok := err.(*unwind); ok {
		return &EvalError{Code: ErrBadControl, Message: u.Error(), Span: u.span}
	}
	return err
}

func (rt *Runtime) newModule(file source.FileID, path string) *Object {
	mod := rt.heap.alloc(ObjModule, rt.u.Module(rt.syms.Strings.Intern(path)))
	mod.Path = path
	mod.SetAttr(rt.nameName, rt.NewStr(path))
	rt.modules[path] = mod.ID
	rt.byFile[file] = mod.ID
	return mod
}

// Module returns the module object loaded under path.
func (rt *Runtime) Module(path string) (AllocID, bool) {
	id, ok := rt.modules[path]
	return id, ok
}

// ModuleOf returns the module object executed from file.
func (rt *Runtime) ModuleOf(file source.FileID) (AllocID, bool) {
	id, ok := rt.byFile[file]
	return id, ok
}

// ModuleMember returns a global of the module loaded under path.
func (rt *Runtime) ModuleMember(path string, name source.StringID) (AllocID, bool) {
	id, ok := rt.modules[path]
	if !ok {
		return 0, false
	}
	mod, _ := rt.heap.get(id)
	return mod.Attr(name)
}

// Builtin returns a global of the builtins module.
func (rt *Runtime) Builtin(name source.StringID) (AllocID, bool) {
	if rt.builtins == nil {
		return 0, false
	}
	return rt.builtins.Attr(name)
}

// ImportTarget returns what the index-th name of an import statement
// bound.
func (rt *Runtime) ImportTarget(file source.FileID, node ast.NodeID, index int) (ImportTarget, bool) {
	t, ok := rt.imports[importKey{file: file, node: node, index: index}]
	return t, ok
}

// ExternType returns the builtin type an @extern class definition stands for.
func (rt *Runtime) ExternType(file source.FileID, node ast.NodeID) (types.TypeID, bool) {
	t, ok := rt.externs[nodeKey{file: file, node: node}]
	return t, ok
}

// ClassOf returns the class object of type typ.
func (rt *Runtime) ClassOf(typ types.TypeID) (AllocID, bool) {
	id, ok := rt.classes[typ]
	return id, ok
}

// MethodType returns the type of a method of recv. Methods of the extern
// classes are read from the object graph, which materializes the class on
// first use; everything else falls back to the properties recorded in the
// type universe.
func (rt *Runtime) MethodType(recv types.TypeID, name source.StringID) (types.TypeID, bool) {
	if id, ok := rt.classes[recv]; ok {
		if cls, _ := rt.heap.get(id); cls.Data != nil && cls.Data.Extern {
			if m, ok := rt.graph.Member(rt.IntoValue(id), rt.str(name)); ok {
				if v := rt.graph.Node(m); v.Kind == ValueFunction && v.Native {
					return v.Type, true
				}
			}
		}
	}
	return rt.u.Property(recv, name)
}

// NewInt allocates an integer.
func (rt *Runtime) NewInt(v int64) AllocID {
	obj := rt.heap.alloc(ObjInteger, rt.b.Int)
	obj.Int = v
	return obj.ID
}

// NewFloat allocates a float.
func (rt *Runtime) NewFloat(v float64) AllocID {
	obj := rt.heap.alloc(ObjFloat, rt.b.Float)
	obj.Float = v
	return obj.ID
}

// NewStr allocates a string.
func (rt *Runtime) NewStr(s string) AllocID {
	obj := rt.heap.alloc(ObjString, rt.b.Str)
	obj.Str = s
	return obj.ID
}

// Bool returns the True or False singleton.
func (rt *Runtime) Bool(v bool) AllocID {
	if v {
		return rt.trueObj
	}
	return rt.falseObj
}

// NewTuple allocates a tuple typed by its members.
func (rt *Runtime) NewTuple(items []AllocID) AllocID {
	members := make([]types.TypeID, len(items))
	for i, it := range items {
		obj, _ := rt.heap.get(it)
		members[i] = obj.Type
	}
	obj := rt.heap.alloc(ObjTuple, rt.u.Tuple(members...))
	obj.Items = items
	return obj.ID
}

// NewDict allocates an empty dict.
func (rt *Runtime) NewDict() AllocID {
	obj := rt.heap.alloc(ObjDict, types.NoTypeID)
	obj.Dict = &Dict{}
	return obj.ID
}

// DictSet binds key to value in dict d. Keys are strings.
func (rt *Runtime) DictSet(d, key, value AllocID) {
	obj, _ := rt.heap.get(d)
	k, _ := rt.heap.get(key)
	obj.Dict.set(HashString(k.Str), k.Str, key, value)
}

// DictGet looks a string key up in dict d.
func (rt *Runtime) DictGet(d AllocID, key string) (AllocID, bool) {
	obj, _ := rt.heap.get(d)
	if obj == nil || obj.Dict == nil {
		return 0, false
	}
	e, ok := obj.Dict.get(HashString(key), key)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

func (rt *Runtime) text(ref source.SymbolRef) string { return rt.syms.Text(ref) }

func (rt *Runtime) str(id source.StringID) string {
	s, _ := rt.syms.Strings.Lookup(id)
	return s
}

func (rt *Runtime) errorf(code ErrorCode, span source.Span, format string, args ...any) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// describe names an object for error messages.
func (rt *Runtime) describe(id AllocID) string {
	obj, ok := rt.heap.get(id)
	if !ok {
		return "<invalid>"
	}
	switch obj.Kind {
	case ObjInstance, ObjClass:
		if obj.Type.IsValid() {
			return rt.u.Label(obj.Type)
		}
	case ObjFunction:
		return obj.Func.Name
	case ObjModule:
		return "module " + obj.Path
	}
	return obj.Kind.String()
}

func errDetail(err error) string {
	if err != nil {
		return "error"
	}
	return ""
}
