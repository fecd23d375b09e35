package scope

import (
	"fmt"

	"fortio.org/safecast"

	"monty/internal/ast"
	"monty/internal/source"
)

type nodeKey struct {
	file source.FileID
	node ast.NodeID
}

// Table owns the scopes of every module of one compilation.
type Table struct {
	Symbols *source.Symbols

	scopes   []Scope
	byRoot   map[nodeKey]ScopeID
	owner    map[nodeKey]ScopeID
	modules  map[source.FileID]ScopeID
	builtins ScopeID
}

// NewTable builds an empty table; index 0 is reserved for NoScopeID.
func NewTable(syms *source.Symbols) *Table {
	return &Table{
		Symbols: syms,
		scopes:  make([]Scope, 1, 64),
		byRoot:  make(map[nodeKey]ScopeID),
		owner:   make(map[nodeKey]ScopeID),
		modules: make(map[source.FileID]ScopeID),
	}
}

// Get returns the scope pointer or nil if ID is invalid.
func (t *Table) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return &t.scopes[id]
}

// Len reports total number of scopes excluding the sentinel.
func (t *Table) Len() int { return len(t.scopes) - 1 }

// SetBuiltins marks the module scope consulted last by every lookup.
func (t *Table) SetBuiltins(id ScopeID) { t.builtins = id }

// Builtins returns the builtins module scope, NoScopeID before preload.
func (t *Table) Builtins() ScopeID { return t.builtins }

// Module returns the module scope built for file.
func (t *Table) Module(file source.FileID) ScopeID { return t.modules[file] }

// ScopeOf returns the scope rooted at a module, def or class node.
func (t *Table) ScopeOf(file source.FileID, root ast.NodeID) ScopeID {
	return t.byRoot[nodeKey{file: file, node: root}]
}

// Enclosing returns the scope whose node list contains node.
func (t *Table) Enclosing(file source.FileID, node ast.NodeID) ScopeID {
	return t.owner[nodeKey{file: file, node: node}]
}

// Build constructs the module scope of tree and every nested def and class
// scope. Building the same file twice returns the first module scope.
func (t *Table) Build(tree *ast.Tree) ScopeID {
	if id, ok := t.modules[tree.File]; ok {
		return id
	}
	id := t.build(tree, tree.Root, KindModule, NoScopeID)
	t.modules[tree.File] = id
	return id
}

func (t *Table) alloc(s Scope) ScopeID {
	value, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	t.scopes = append(t.scopes, s)
	return ScopeID(value)
}

func (t *Table) build(tree *ast.Tree, root ast.NodeID, kind Kind, parent ScopeID) ScopeID {
	s := Scope{
		Kind:   kind,
		Parent: parent,
		Root:   root,
		Module: tree.File,
		Tree:   tree,
		byName: make(map[source.SymbolRef][]int),
	}
	if fn, ok := tree.FuncDef(root); ok {
		s.Params = fn.Params
		for i, p := range fn.Params {
			s.bind(Binding{Kind: BindParam, Node: root, Name: p.Name, Span: p.Span, Index: i})
		}
	}
	var nested []ast.NodeID
	for _, stmt := range tree.Body(root) {
		tree.Walk(stmt, func(n ast.NodeID) bool {
			s.Nodes = append(s.Nodes, n)
			switch tree.Kind(n) {
			case ast.KindFuncDef, ast.KindClassDef:
				nested = append(nested, n)
				s.Nodes = append(s.Nodes, headerNodes(tree, n)...)
				return false
			}
			return true
		})
	}
	for _, n := range s.Nodes {
		s.collect(tree, n)
	}

	id := t.alloc(s)
	for i := range t.scopes[id].bindings {
		t.scopes[id].bindings[i].Scope = id
	}
	t.byRoot[nodeKey{file: tree.File, node: root}] = id
	for _, n := range t.scopes[id].Nodes {
		t.owner[nodeKey{file: tree.File, node: n}] = id
	}
	for _, n := range nested {
		childKind := KindFunction
		if tree.Kind(n) == ast.KindClassDef {
			childKind = KindClass
		}
		child := t.build(tree, n, childKind, id)
		t.scopes[id].children = append(t.scopes[id].children, child)
	}
	return id
}

// headerNodes are the parts of a def or class evaluated in the enclosing
// scope: decorators, bases and annotations.
func headerNodes(tree *ast.Tree, n ast.NodeID) []ast.NodeID {
	var roots []ast.NodeID
	if fn, ok := tree.FuncDef(n); ok {
		roots = append(roots, fn.Decorators...)
		for _, p := range fn.Params {
			roots = append(roots, p.Annotation)
		}
		roots = append(roots, fn.Returns)
	}
	if cls, ok := tree.ClassDef(n); ok {
		roots = append(roots, cls.Decorators...)
		roots = append(roots, cls.Bases...)
	}
	var out []ast.NodeID
	for _, r := range roots {
		tree.Walk(r, func(c ast.NodeID) bool {
			out = append(out, c)
			return true
		})
	}
	return out
}

func (s *Scope) bind(b Binding) {
	s.byName[b.Name] = append(s.byName[b.Name], len(s.bindings))
	s.bindings = append(s.bindings, b)
}

func (s *Scope) collect(tree *ast.Tree, n ast.NodeID) {
	switch tree.Kind(n) {
	case ast.KindAssign:
		data, _ := tree.Assign(n)
		s.bindTarget(tree, n, data.Target)
	case ast.KindFuncDef:
		fn, _ := tree.FuncDef(n)
		s.bind(Binding{Kind: BindFunc, Node: n, Name: fn.Name, Span: tree.Span(n)})
	case ast.KindClassDef:
		cls, _ := tree.ClassDef(n)
		s.bind(Binding{Kind: BindClass, Node: n, Name: cls.Name, Span: tree.Span(n)})
	case ast.KindImport:
		imp, _ := tree.Import(n)
		for i, name := range imp.Names {
			s.bind(Binding{Kind: BindImport, Node: n, Name: name.Binding(), Span: name.Span, Index: i})
		}
	case ast.KindImportFrom:
		imp, _ := tree.ImportFrom(n)
		for i, name := range imp.Names {
			s.bind(Binding{Kind: BindImport, Node: n, Name: name.Binding(), Span: name.Span, Index: i})
		}
	}
}

func (s *Scope) bindTarget(tree *ast.Tree, assign, target ast.NodeID) {
	switch tree.Kind(target) {
	case ast.KindName:
		name, _ := tree.Name(target)
		s.bind(Binding{Kind: BindAssign, Node: assign, Name: name, Span: tree.Span(assign)})
	case ast.KindTuple:
		tup, _ := tree.Tuple(target)
		for _, elt := range tup.Elts {
			s.bindTarget(tree, assign, elt)
		}
	}
}
