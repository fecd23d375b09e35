package ast

import (
	"monty/internal/source"
)

// Tree is the arena-backed AST of one module.
type Tree struct {
	File source.FileID
	Root NodeID

	Nodes      *Arena[Node]
	Modules    *Arena[ModuleData]
	Funcs      *Arena[FuncDefData]
	Classes    *Arena[ClassDefData]
	Imports    *Arena[ImportData]
	FromImps   *Arena[ImportFromData]
	Ifs        *Arena[IfData]
	Whiles     *Arena[WhileData]
	Assigns    *Arena[AssignData]
	Literals   *Arena[LiteralData]
	Names      *Arena[NameData]
	Tuples     *Arena[TupleData]
	BinOps     *Arena[BinOpData]
	Unaries    *Arena[UnaryData]
	Calls      *Arena[CallData]
	Attrs      *Arena[AttrData]
	Subscripts *Arena[SubscriptData]
	IfExprs    *Arena[IfExprData]
}

// NewTree creates an empty tree for file.
func NewTree(file source.FileID, capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 7
	}
	small := capHint/4 + 1
	return &Tree{
		File:       file,
		Nodes:      NewArena[Node](capHint),
		Modules:    NewArena[ModuleData](1),
		Funcs:      NewArena[FuncDefData](small),
		Classes:    NewArena[ClassDefData](small),
		Imports:    NewArena[ImportData](small),
		FromImps:   NewArena[ImportFromData](small),
		Ifs:        NewArena[IfData](small),
		Whiles:     NewArena[WhileData](small),
		Assigns:    NewArena[AssignData](small),
		Literals:   NewArena[LiteralData](capHint),
		Names:      NewArena[NameData](capHint),
		Tuples:     NewArena[TupleData](small),
		BinOps:     NewArena[BinOpData](small),
		Unaries:    NewArena[UnaryData](small),
		Calls:      NewArena[CallData](small),
		Attrs:      NewArena[AttrData](small),
		Subscripts: NewArena[SubscriptData](small),
		IfExprs:    NewArena[IfExprData](small),
	}
}

func (t *Tree) new(kind Kind, span source.Span, payload uint32) NodeID {
	return NodeID(t.Nodes.Allocate(Node{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

// Get returns the node header, or nil for an invalid id.
func (t *Tree) Get(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (t *Tree) Span(id NodeID) source.Span {
	if n := t.Get(id); n != nil {
		return n.Span
	}
	return source.Span{File: t.File}
}

func payload[T any](t *Tree, id NodeID, kind Kind, arena *Arena[T]) (*T, bool) {
	n := t.Get(id)
	if n == nil || n.Kind != kind {
		return nil, false
	}
	return arena.Get(uint32(n.Payload)), true
}

func (t *Tree) NewModule(span source.Span, body []NodeID) NodeID {
	id := t.new(KindModule, span, t.Modules.Allocate(ModuleData{Body: body}))
	t.Root = id
	return id
}

func (t *Tree) Module(id NodeID) (*ModuleData, bool) { return payload(t, id, KindModule, t.Modules) }

func (t *Tree) NewFuncDef(span source.Span, data FuncDefData) NodeID {
	return t.new(KindFuncDef, span, t.Funcs.Allocate(data))
}

func (t *Tree) FuncDef(id NodeID) (*FuncDefData, bool) { return payload(t, id, KindFuncDef, t.Funcs) }

func (t *Tree) NewClassDef(span source.Span, data ClassDefData) NodeID {
	return t.new(KindClassDef, span, t.Classes.Allocate(data))
}

func (t *Tree) ClassDef(id NodeID) (*ClassDefData, bool) {
	return payload(t, id, KindClassDef, t.Classes)
}

func (t *Tree) NewImport(span source.Span, names []ImportName) NodeID {
	return t.new(KindImport, span, t.Imports.Allocate(ImportData{Names: names}))
}

func (t *Tree) Import(id NodeID) (*ImportData, bool) { return payload(t, id, KindImport, t.Imports) }

func (t *Tree) NewImportFrom(span source.Span, module []source.SymbolRef, names []ImportName) NodeID {
	return t.new(KindImportFrom, span, t.FromImps.Allocate(ImportFromData{Module: module, Names: names}))
}

func (t *Tree) ImportFrom(id NodeID) (*ImportFromData, bool) {
	return payload(t, id, KindImportFrom, t.FromImps)
}

func (t *Tree) NewIf(span source.Span, test NodeID, body, orelse []NodeID) NodeID {
	return t.new(KindIf, span, t.Ifs.Allocate(IfData{Test: test, Body: body, Orelse: orelse}))
}

func (t *Tree) If(id NodeID) (*IfData, bool) { return payload(t, id, KindIf, t.Ifs) }

func (t *Tree) NewWhile(span source.Span, test NodeID, body []NodeID) NodeID {
	return t.new(KindWhile, span, t.Whiles.Allocate(WhileData{Test: test, Body: body}))
}

func (t *Tree) While(id NodeID) (*WhileData, bool) { return payload(t, id, KindWhile, t.Whiles) }

// NewReturn stores the returned value directly in the payload slot.
func (t *Tree) NewReturn(span source.Span, value NodeID) NodeID {
	return t.new(KindReturn, span, uint32(value))
}

// ReturnValue returns the value of a return statement, NoNodeID for a bare return.
func (t *Tree) ReturnValue(id NodeID) (NodeID, bool) {
	n := t.Get(id)
	if n == nil || n.Kind != KindReturn {
		return NoNodeID, false
	}
	return NodeID(n.Payload), true
}

func (t *Tree) NewAssign(span source.Span, data AssignData) NodeID {
	return t.new(KindAssign, span, t.Assigns.Allocate(data))
}

func (t *Tree) Assign(id NodeID) (*AssignData, bool) { return payload(t, id, KindAssign, t.Assigns) }

func (t *Tree) NewExprStmt(span source.Span, expr NodeID) NodeID {
	return t.new(KindExprStmt, span, uint32(expr))
}

// ExprStmtValue returns the expression wrapped by an expression statement.
func (t *Tree) ExprStmtValue(id NodeID) (NodeID, bool) {
	n := t.Get(id)
	if n == nil || n.Kind != KindExprStmt {
		return NoNodeID, false
	}
	return NodeID(n.Payload), true
}

// NewSimple allocates payload-free nodes: pass, break, continue, None, `...`.
func (t *Tree) NewSimple(kind Kind, span source.Span) NodeID {
	return t.new(kind, span, 0)
}

func (t *Tree) NewLiteral(kind Kind, span source.Span, data LiteralData) NodeID {
	return t.new(kind, span, t.Literals.Allocate(data))
}

// Literal returns the decoded value of an Int/Float/Str/Bool node.
func (t *Tree) Literal(id NodeID) (*LiteralData, bool) {
	n := t.Get(id)
	if n == nil || !n.Kind.IsLiteral() || !n.Payload.IsValid() {
		return nil, false
	}
	return t.Literals.Get(uint32(n.Payload)), true
}

func (t *Tree) NewName(span source.Span, sym source.SymbolRef) NodeID {
	return t.new(KindName, span, t.Names.Allocate(NameData{Sym: sym}))
}

// Name returns the symbol a Name node refers to.
func (t *Tree) Name(id NodeID) (source.SymbolRef, bool) {
	d, ok := payload(t, id, KindName, t.Names)
	if !ok {
		return source.NoSymbol, false
	}
	return d.Sym, true
}

func (t *Tree) NewTuple(span source.Span, elts []NodeID) NodeID {
	return t.new(KindTuple, span, t.Tuples.Allocate(TupleData{Elts: elts}))
}

func (t *Tree) Tuple(id NodeID) (*TupleData, bool) { return payload(t, id, KindTuple, t.Tuples) }

func (t *Tree) NewBinOp(span source.Span, op BinaryOp, left, right NodeID) NodeID {
	return t.new(KindBinOp, span, t.BinOps.Allocate(BinOpData{Op: op, Left: left, Right: right}))
}

func (t *Tree) BinOp(id NodeID) (*BinOpData, bool) { return payload(t, id, KindBinOp, t.BinOps) }

func (t *Tree) NewUnary(span source.Span, op UnaryOp, operand NodeID) NodeID {
	return t.new(KindUnary, span, t.Unaries.Allocate(UnaryData{Op: op, Operand: operand}))
}

func (t *Tree) Unary(id NodeID) (*UnaryData, bool) { return payload(t, id, KindUnary, t.Unaries) }

func (t *Tree) NewCall(span source.Span, fn NodeID, args []NodeID) NodeID {
	return t.new(KindCall, span, t.Calls.Allocate(CallData{Func: fn, Args: args}))
}

func (t *Tree) Call(id NodeID) (*CallData, bool) { return payload(t, id, KindCall, t.Calls) }

func (t *Tree) NewAttr(span source.Span, value NodeID, attr source.SymbolRef, attrSpan source.Span) NodeID {
	return t.new(KindAttr, span, t.Attrs.Allocate(AttrData{Value: value, Attr: attr, AttrSpan: attrSpan}))
}

func (t *Tree) Attr(id NodeID) (*AttrData, bool) { return payload(t, id, KindAttr, t.Attrs) }

func (t *Tree) NewSubscript(span source.Span, value, index NodeID) NodeID {
	return t.new(KindSubscript, span, t.Subscripts.Allocate(SubscriptData{Value: value, Index: index}))
}

func (t *Tree) Subscript(id NodeID) (*SubscriptData, bool) {
	return payload(t, id, KindSubscript, t.Subscripts)
}

func (t *Tree) NewIfExpr(span source.Span, test, body, orelse NodeID) NodeID {
	return t.new(KindIfExpr, span, t.IfExprs.Allocate(IfExprData{Test: test, Body: body, Orelse: orelse}))
}

func (t *Tree) IfExpr(id NodeID) (*IfExprData, bool) { return payload(t, id, KindIfExpr, t.IfExprs) }
