package interp

import (
	"strings"

	"monty/internal/ast"
	"monty/internal/source"
)

// frame is one activation: a module top level, a class body or a call.
// Module and class frames keep their names as attributes of scope.
type frame struct {
	tree   *ast.Tree
	module *Object
	scope  *Object
	locals map[source.StringID]AllocID
	parent *frame
	name   string
}

func (f *frame) get(name source.StringID) (AllocID, bool) {
	if f.scope != nil {
		return f.scope.Attr(name)
	}
	v, ok := f.locals[name]
	return v, ok
}

func (f *frame) define(name source.StringID, v AllocID) {
	if f.scope != nil {
		f.scope.SetAttr(name, v)
		return
	}
	if f.locals == nil {
		f.locals = make(map[source.StringID]AllocID)
	}
	f.locals[name] = v
}

// lookup searches the frame, then the enclosing non-class frames, then the
// builtins.
func (rt *Runtime) lookup(f *frame, name source.StringID) (AllocID, bool) {
	if v, ok := f.get(name); ok {
		return v, true
	}
	for p := f.parent; p != nil; p = p.parent {
		if p.scope != nil && p.scope.Kind == ObjClass {
			continue
		}
		if v, ok := p.get(name); ok {
			return v, true
		}
	}
	if rt.builtins != nil {
		return rt.builtins.Attr(name)
	}
	return 0, false
}

func (rt *Runtime) execBlock(f *frame, body []ast.NodeID) error {
	for _, stmt := range body {
		if err := rt.exec(f, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) exec(f *frame, n ast.NodeID) error {
	t := f.tree
	rt.steps++
	if rt.steps > rt.maxSteps {
		return rt.errorf(ErrBudget, t.Span(n), "evaluation budget of %d steps exhausted", rt.maxSteps)
	}
	switch t.Kind(n) {
	case ast.KindPass:
		return nil
	case ast.KindExprStmt:
		v, _ := t.ExprStmtValue(n)
		_, err := rt.eval(f, v)
		return err
	case ast.KindAssign:
		return rt.assign(f, n)
	case ast.KindFuncDef:
		return rt.funcDef(f, n)
	case ast.KindClassDef:
		return rt.classDef(f, n)
	case ast.KindImport:
		return rt.importStmt(f, n)
	case ast.KindImportFrom:
		return rt.importFrom(f, n)
	case ast.KindIf:
		data, _ := t.If(n)
		ok, err := rt.test(f, data.Test)
		if err != nil {
			return err
		}
		if ok {
			return rt.execBlock(f, data.Body)
		}
		return rt.execBlock(f, data.Orelse)
	case ast.KindWhile:
		return rt.while(f, n)
	case ast.KindReturn:
		val := rt.none
		if v, _ := t.ReturnValue(n); v.IsValid() {
			r, err := rt.eval(f, v)
			if err != nil {
				return err
			}
			val = r
		}
		return &unwind{kind: unwindReturn, value: val, span: t.Span(n)}
	case ast.KindBreak:
		return &unwind{kind: unwindBreak, span: t.Span(n)}
	case ast.KindContinue:
		return &unwind{kind: unwindContinue, span: t.Span(n)}
	default:
		return rt.errorf(ErrUnsupportedValue, t.Span(n), "%s is not evaluated at compile time", t.Kind(n))
	}
}

func (rt *Runtime) while(f *frame, n ast.NodeID) error {
	data, _ := f.tree.While(n)
	for {
		ok, err := rt.test(f, data.Test)
		if err != nil || !ok {
			return err
		}
		err = rt.execBlock(f, data.Body)
		if u, isUnwind := err.(*unwind); isUnwind {
			switch u.kind {
			case unwindBreak:
				return nil
			case unwindContinue:
				continue
			}
		}
		if err != nil {
			return err
		}
	}
}

func (rt *Runtime) test(f *frame, n ast.NodeID) (bool, error) {
	v, err := rt.eval(f, n)
	if err != nil {
		return false, err
	}
	return rt.Truthy(v), nil
}

// Truthy reports the truth value of an object.
func (rt *Runtime) Truthy(id AllocID) bool {
	obj, ok := rt.heap.get(id)
	if !ok {
		return false
	}
	switch obj.Kind {
	case ObjBool:
		return obj.Bool
	case ObjInteger:
		return obj.Int != 0
	case ObjFloat:
		return obj.Float != 0
	case ObjString:
		return obj.Str != ""
	case ObjNone:
		return false
	case ObjTuple:
		return len(obj.Items) > 0
	case ObjDict:
		return obj.Dict.Len() > 0
	default:
		return true
	}
}

func (rt *Runtime) assign(f *frame, n ast.NodeID) error {
	t := f.tree
	data, _ := t.Assign(n)
	if data.Annotation.IsValid() {
		if err := rt.annotate(f, data); err != nil {
			return err
		}
	}
	if !data.Value.IsValid() {
		return nil
	}
	v, err := rt.eval(f, data.Value)
	if err != nil {
		return err
	}
	switch t.Kind(data.Target) {
	case ast.KindName:
		ref, _ := t.Name(data.Target)
		f.define(ref.Name, v)
		return nil
	case ast.KindAttr:
		attr, _ := t.Attr(data.Target)
		base, err := rt.eval(f, attr.Value)
		if err != nil {
			return err
		}
		obj, _ := rt.heap.get(base)
		switch obj.Kind {
		case ObjInstance, ObjClass, ObjModule:
			obj.SetAttr(attr.Attr.Name, v)
			return nil
		}
		return rt.errorf(ErrNoAttribute, attr.AttrSpan, "cannot set attribute %s on %s", rt.text(attr.Attr), rt.describe(base))
	case ast.KindSubscript:
		sub, _ := t.Subscript(data.Target)
		base, err := rt.eval(f, sub.Value)
		if err != nil {
			return err
		}
		idx, err := rt.eval(f, sub.Index)
		if err != nil {
			return err
		}
		_, err = rt.callMethod(base, "__setitem__", []AllocID{idx, v}, t.Span(data.Target))
		return err
	default:
		return rt.errorf(ErrUnsupportedValue, t.Span(data.Target), "cannot assign to %s", t.Kind(data.Target))
	}
}

// annotate records `name: T` in the __annotations__ dict of a module or
// class body.
func (rt *Runtime) annotate(f *frame, data *ast.AssignData) error {
	ref, ok := f.tree.Name(data.Target)
	if !ok || f.scope == nil {
		return nil
	}
	typ, err := rt.eval(f, data.Annotation)
	if err != nil {
		return err
	}
	ann, ok := f.scope.Attr(rt.nameAnnotations)
	if !ok {
		ann = rt.NewDict()
		f.scope.SetAttr(rt.nameAnnotations, ann)
	}
	rt.DictSet(ann, rt.NewStr(rt.text(ref)), typ)
	return nil
}

func (rt *Runtime) funcDef(f *frame, n ast.NodeID) error {
	fd, _ := f.tree.FuncDef(n)
	obj := rt.heap.alloc(ObjFunction, 0)
	obj.Func = &Function{Name: rt.text(fd.Name), Tree: f.tree, Node: n, closure: f}
	v, err := rt.decorate(f, obj.ID, fd.Decorators)
	if err != nil {
		return err
	}
	f.define(fd.Name.Name, v)
	return nil
}

func (rt *Runtime) classDef(f *frame, n ast.NodeID) error {
	t := f.tree
	cd, _ := t.ClassDef(n)
	if len(cd.Bases) > 0 {
		return rt.errorf(ErrUnsupportedValue, t.Span(cd.Bases[0]), "base classes are not supported")
	}
	name := rt.text(cd.Name)
	typ := rt.u.Class(cd.Name.Name, rt.syms.Strings.Intern(f.module.Path))
	cls := rt.heap.alloc(ObjClass, typ)
	cls.Data = &ClassData{Name: name, Module: f.module.Path, Tree: t, Node: n}
	cls.SetAttr(rt.nameName, rt.NewStr(name))
	rt.classes[typ] = cls.ID
	body := &frame{tree: t, module: f.module, scope: cls, parent: f, name: name}
	if err := rt.execBlock(body, cd.Body); err != nil {
		return err
	}
	v, err := rt.decorate(f, cls.ID, cd.Decorators)
	if err != nil {
		return err
	}
	f.define(cd.Name.Name, v)
	return nil
}

// decorate applies decorators innermost first.
func (rt *Runtime) decorate(f *frame, v AllocID, decorators []ast.NodeID) (AllocID, error) {
	for i := len(decorators) - 1; i >= 0; i-- {
		dec, err := rt.eval(f, decorators[i])
		if err != nil {
			return 0, err
		}
		v, err = rt.call(dec, []AllocID{v}, f.tree.Span(decorators[i]))
		if err != nil {
			return 0, err
		}
	}
	return v, nil
}

// externClass binds an @extern class of the builtins module to its builtin
// type and installs the native methods.
func (rt *Runtime) externClass(f *frame, n ast.NodeID) error {
	t := f.tree
	cd, _ := t.ClassDef(n)
	name := rt.text(cd.Name)
	if len(cd.Decorators) != 1 {
		return bootstrapf(cd.NameSpan, "class %s must carry exactly one @extern decorator, found %d", name, len(cd.Decorators))
	}
	if ref, ok := t.Name(cd.Decorators[0]); !ok || rt.text(ref) != "extern" {
		return bootstrapf(t.Span(cd.Decorators[0]), "unsupported decorator on builtin class %s; only @extern is allowed", name)
	}
	if len(cd.Bases) > 0 {
		return bootstrapf(t.Span(cd.Bases[0]), "builtin class %s cannot have base classes", name)
	}
	typ, ok := rt.primitive(name)
	if !ok {
		return bootstrapf(cd.NameSpan, "unknown builtin class %s", name)
	}
	if _, dup := rt.classes[typ]; dup {
		return bootstrapf(cd.NameSpan, "builtin class %s is defined twice", name)
	}
	cls := rt.heap.alloc(ObjClass, typ)
	cls.Data = &ClassData{Name: name, Module: f.module.Path, Tree: t, Node: n, Extern: true}
	cls.SetAttr(rt.nameName, rt.NewStr(name))
	rt.classes[typ] = cls.ID
	rt.externs[nodeKey{file: t.File, node: n}] = typ
	body := &frame{tree: t, module: f.module, scope: cls, parent: f, name: name}
	if err := rt.execBlock(body, cd.Body); err != nil {
		return err
	}
	rt.installNatives(cls)
	f.define(cd.Name.Name, cls.ID)
	return nil
}

func (rt *Runtime) importStmt(f *frame, n ast.NodeID) error {
	t := f.tree
	data, _ := t.Import(n)
	for i, imp := range data.Names {
		path := rt.joinPath(imp.Path)
		target, err := rt.load(path, imp.Span)
		if err != nil {
			return err
		}
		bound := path
		if !imp.Alias.IsValid() {
			// `import a.b` binds a; every prefix is loaded and linked.
			bound = rt.text(imp.Path[0])
			for k := 1; k < len(imp.Path); k++ {
				parent, err := rt.load(rt.joinPath(imp.Path[:k]), imp.Span)
				if err != nil {
					return err
				}
				child, err := rt.load(rt.joinPath(imp.Path[:k+1]), imp.Span)
				if err != nil {
					return err
				}
				p, _ := rt.heap.get(parent)
				if _, ok := p.Attr(imp.Path[k].Name); !ok {
					p.SetAttr(imp.Path[k].Name, child)
				}
			}
			target, err = rt.load(bound, imp.Span)
			if err != nil {
				return err
			}
		}
		rt.imports[importKey{file: t.File, node: n, index: i}] = ImportTarget{Module: bound}
		f.define(imp.Binding().Name, target)
	}
	return nil
}

func (rt *Runtime) importFrom(f *frame, n ast.NodeID) error {
	t := f.tree
	data, _ := t.ImportFrom(n)
	path := rt.joinPath(data.Module)
	mod, err := rt.load(path, t.Span(n))
	if err != nil {
		return err
	}
	obj, _ := rt.heap.get(mod)
	for i, imp := range data.Names {
		name := imp.Path[0]
		key := importKey{file: t.File, node: n, index: i}
		v, ok := obj.Attr(name.Name)
		if ok {
			rt.imports[key] = ImportTarget{Module: path, Member: name.Name}
		} else {
			sub := path + "." + rt.text(name)
			v, err = rt.load(sub, imp.Span)
			if err != nil {
				return rt.errorf(ErrImport, imp.Span, "cannot import name %s from %s", rt.text(name), path)
			}
			rt.imports[key] = ImportTarget{Module: sub}
		}
		f.define(imp.Binding().Name, v)
	}
	return nil
}

// load resolves an import. With an importer configured every import goes
// through it, so the importer sees modules that are still executing.
func (rt *Runtime) load(path string, span source.Span) (AllocID, error) {
	if rt.importer == nil {
		if id, ok := rt.modules[path]; ok {
			return id, nil
		}
		return 0, rt.errorf(ErrImport, span, "no module named %s", path)
	}
	steps := rt.steps
	id, err := rt.importer(path)
	rt.steps = steps
	if err != nil {
		return 0, &EvalError{Code: ErrImport, Message: "importing " + path + " failed", Span: span, Err: err}
	}
	return id, nil
}

func (rt *Runtime) joinPath(path []source.SymbolRef) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = rt.text(p)
	}
	return strings.Join(parts, ".")
}
