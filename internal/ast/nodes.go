package ast

import (
	"monty/internal/source"
)

// Node is the uniform header of every statement and expression.
type Node struct {
	Kind    Kind
	Span    source.Span
	Payload PayloadID
}

type ModuleData struct {
	Body []NodeID
}

// Param is one positional parameter of a def.
type Param struct {
	Name       source.SymbolRef
	Span       source.Span
	Annotation NodeID
}

type FuncDefData struct {
	Name       source.SymbolRef
	NameSpan   source.Span
	Params     []Param
	Returns    NodeID // аннотация возвращаемого типа, может отсутствовать
	Body       []NodeID
	Decorators []NodeID
}

type ClassDefData struct {
	Name       source.SymbolRef
	NameSpan   source.Span
	Bases      []NodeID
	Body       []NodeID
	Decorators []NodeID
}

// ImportName is `a.b.c as d` in an import, or `x as y` in a from-import.
type ImportName struct {
	Path  []source.SymbolRef
	Alias source.SymbolRef
	Span  source.Span
}

// Binding returns the name the import introduces into scope.
func (n ImportName) Binding() source.SymbolRef {
	if n.Alias.IsValid() {
		return n.Alias
	}
	if len(n.Path) == 0 {
		return source.NoSymbol
	}
	return n.Path[0]
}

type ImportData struct {
	Names []ImportName
}

type ImportFromData struct {
	Module []source.SymbolRef
	Names  []ImportName
}

type IfData struct {
	Test   NodeID
	Body   []NodeID
	Orelse []NodeID
}

type WhileData struct {
	Test NodeID
	Body []NodeID
}

type AssignData struct {
	Target     NodeID
	Annotation NodeID
	Value      NodeID // пусто для `x: int`
}

// LiteralData stores the decoded value of Int/Float/Str/Bool literals.
type LiteralData struct {
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type NameData struct {
	Sym source.SymbolRef
}

type TupleData struct {
	Elts []NodeID
}

type BinOpData struct {
	Op    BinaryOp
	Left  NodeID
	Right NodeID
}

type UnaryData struct {
	Op      UnaryOp
	Operand NodeID
}

type CallData struct {
	Func NodeID
	Args []NodeID
}

type AttrData struct {
	Value    NodeID
	Attr     source.SymbolRef
	AttrSpan source.Span
}

type SubscriptData struct {
	Value NodeID
	Index NodeID
}

type IfExprData struct {
	Test   NodeID
	Body   NodeID
	Orelse NodeID
}
