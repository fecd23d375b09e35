package typeck

import (
	"fmt"

	"monty/internal/ast"
	"monty/internal/hlir"
	"monty/internal/scope"
	"monty/internal/source"
	"monty/internal/types"
)

// Env answers questions that cross module boundaries. The driver implements
// it on top of the interpreter; a nil Env restricts the checker to one file.
type Env interface {
	// ImportType returns the type of the index-th name bound by the import
	// statement node of file.
	ImportType(file source.FileID, node ast.NodeID, index int) (types.TypeID, error)
	// BindingType types a binding owned by another module (builtins).
	BindingType(b scope.Binding) (types.TypeID, error)
	// Attribute returns the type of attribute name of a value of type recv.
	Attribute(recv types.TypeID, name source.StringID) (types.TypeID, bool)
}

// Config wires a checker to one module.
type Config struct {
	Tree    *ast.Tree
	Symbols *source.Symbols
	Types   *types.Universe
	// Scopes must contain the module scope of Tree; NewChecker builds it otherwise.
	Scopes *scope.Table
	Env    Env
	// ModulePath is the dotted module name classes and the module type are keyed by.
	ModulePath string
}

// Checker evaluates the types of one module's AST. Results are memoized per
// node; the checker also serves as the flattener's hlir.Oracle.
type Checker struct {
	tree   *ast.Tree
	syms   *source.Symbols
	u      *types.Universe
	b      types.Builtins
	scopes *scope.Table
	env    Env
	module source.StringID

	types      map[ast.NodeID]types.TypeID
	sigs       map[ast.NodeID]types.TypeID
	ribs       map[ast.NodeID]*hlir.Rib
	active     map[ast.NodeID]bool
	primitives map[string]types.TypeID
}

var _ hlir.Oracle = (*Checker)(nil)

// NewChecker prepares a checker; the module scope is built when missing.
func NewChecker(cfg Config) *Checker {
	if cfg.Scopes == nil {
		cfg.Scopes = scope.NewTable(cfg.Symbols)
	}
	cfg.Scopes.Build(cfg.Tree)
	b := cfg.Types.Builtins()
	return &Checker{
		tree:   cfg.Tree,
		syms:   cfg.Symbols,
		u:      cfg.Types,
		b:      b,
		scopes: cfg.Scopes,
		env:    cfg.Env,
		module: cfg.Symbols.Strings.Intern(cfg.ModulePath),
		types:  make(map[ast.NodeID]types.TypeID),
		sigs:   make(map[ast.NodeID]types.TypeID),
		ribs:   make(map[ast.NodeID]*hlir.Rib),
		active: make(map[ast.NodeID]bool),
		primitives: map[string]types.TypeID{
			"int":   b.Int,
			"float": b.Float,
			"str":   b.Str,
			"bool":  b.Bool,
		},
	}
}

// Tree returns the checked tree.
func (c *Checker) Tree() *ast.Tree { return c.tree }

// ModuleType returns the module type members are published on.
func (c *Checker) ModuleType() types.TypeID { return c.u.Module(c.module) }

// CheckModule checks the top-level statements in source order and stops at
// the first error.
func (c *Checker) CheckModule() error {
	c.rib(c.tree.Root)
	for _, stmt := range c.tree.Body(c.tree.Root) {
		if _, err := c.Check(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Check returns the type of node n, evaluating it on first request.
// Statements evaluate to Never.
func (c *Checker) Check(n ast.NodeID) (types.TypeID, error) {
	if t, ok := c.types[n]; ok {
		return t, nil
	}
	if c.active[n] {
		return types.NoTypeID, c.errorf(ErrInferenceFailure, n, "cannot infer the type of %s: it depends on itself", c.tree.Kind(n))
	}
	c.active[n] = true
	t, err := c.check(n)
	delete(c.active, n)
	if err != nil {
		return types.NoTypeID, err
	}
	c.types[n] = t
	return t, nil
}

// TypeOf implements hlir.Oracle. A def evaluates to its signature.
func (c *Checker) TypeOf(n ast.NodeID) (types.TypeID, error) {
	if c.tree.Kind(n) == ast.KindFuncDef {
		return c.signature(n)
	}
	return c.Check(n)
}

// Rib returns the rib of the scope rooted at a module, def or class node.
func (c *Checker) Rib(root ast.NodeID) (*hlir.Rib, bool) {
	r, ok := c.ribs[root]
	return r, ok
}

// Publish records the type of every module-level binding as a property of
// the module type, so importers can resolve members.
func (c *Checker) Publish() error {
	mod := c.ModuleType()
	sc := c.scopes.Get(c.scopes.Module(c.tree.File))
	if sc == nil {
		return nil
	}
	for _, b := range sc.Bindings() {
		t, err := c.BindingType(b)
		if err != nil {
			return err
		}
		if !c.u.SetProperty(mod, b.Name.Name, t) {
			prev, _ := c.u.Property(mod, b.Name.Name)
			if prev != t {
				return c.errorf(ErrIncompatibleReassignment, b.Node, "module member %s is bound to both %s and %s",
					c.text(b.Name), c.u.Label(prev), c.u.Label(t))
			}
		}
	}
	return nil
}

func (c *Checker) check(n ast.NodeID) (types.TypeID, error) {
	switch c.tree.Kind(n) {
	case ast.KindInt:
		return c.b.Int, nil
	case ast.KindFloat:
		return c.b.Float, nil
	case ast.KindStr:
		return c.b.Str, nil
	case ast.KindBool:
		return c.b.Bool, nil
	case ast.KindNone:
		return c.b.None, nil
	case ast.KindEllipsis:
		return c.b.Ellipsis, nil
	case ast.KindName:
		return c.name(n)
	case ast.KindTuple:
		return c.tuple(n)
	case ast.KindBinOp:
		return c.binOp(n)
	case ast.KindUnary:
		return c.unary(n)
	case ast.KindCall:
		return c.call(n)
	case ast.KindAttr:
		return c.attr(n)
	case ast.KindSubscript:
		return c.subscript(n)
	case ast.KindIfExpr:
		return c.ifExpr(n)
	case ast.KindAssign:
		return c.b.Never, c.assign(n)
	case ast.KindExprStmt:
		v, _ := c.tree.ExprStmtValue(n)
		_, err := c.Check(v)
		return c.b.Never, err
	case ast.KindReturn:
		return c.b.Never, c.ret(n)
	case ast.KindIf:
		data, _ := c.tree.If(n)
		if _, err := c.Check(data.Test); err != nil {
			return types.NoTypeID, err
		}
		if err := c.stmts(data.Body); err != nil {
			return types.NoTypeID, err
		}
		return c.b.Never, c.stmts(data.Orelse)
	case ast.KindWhile:
		data, _ := c.tree.While(n)
		if _, err := c.Check(data.Test); err != nil {
			return types.NoTypeID, err
		}
		return c.b.Never, c.stmts(data.Body)
	case ast.KindFuncDef:
		return c.b.Never, c.funcDef(n)
	case ast.KindClassDef:
		return c.b.Never, c.classDef(n)
	case ast.KindImport, ast.KindImportFrom, ast.KindPass, ast.KindBreak, ast.KindContinue:
		return c.b.Never, nil
	default:
		return types.NoTypeID, c.errorf(ErrUnsupported, n, "cannot type %s", c.tree.Kind(n))
	}
}

func (c *Checker) stmts(list []ast.NodeID) error {
	for _, s := range list {
		if _, err := c.Check(s); err != nil {
			return err
		}
	}
	return nil
}

// rib returns the rib of the scope rooted at root, creating it on demand.
func (c *Checker) rib(root ast.NodeID) *hlir.Rib {
	r, ok := c.ribs[root]
	if !ok {
		r = hlir.NewRib()
		c.ribs[root] = r
	}
	return r
}

// owner returns the scope whose node list contains n.
func (c *Checker) owner(n ast.NodeID) *scope.Scope {
	id := c.scopes.Enclosing(c.tree.File, n)
	if !id.IsValid() {
		id = c.scopes.Module(c.tree.File)
	}
	return c.scopes.Get(id)
}

// ribOf returns the rib n binds into and reads from.
func (c *Checker) ribOf(n ast.NodeID) *hlir.Rib {
	if sc := c.owner(n); sc != nil {
		return c.rib(sc.Root)
	}
	return c.rib(c.tree.Root)
}

// enclosingFunc returns the def whose body contains n.
func (c *Checker) enclosingFunc(n ast.NodeID) (ast.NodeID, bool) {
	sc := c.owner(n)
	if sc == nil || sc.Kind != scope.KindFunction {
		return ast.NoNodeID, false
	}
	return sc.Root, true
}

func (c *Checker) text(ref source.SymbolRef) string {
	if c.syms == nil {
		return "?"
	}
	return c.syms.Text(ref)
}

func (c *Checker) errorf(kind ErrorKind, n ast.NodeID, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Node:     n,
		Span:     c.tree.Span(n),
		Msg:      fmt.Sprintf(format, args...),
		ArgIndex: -1,
	}
}
