package ast

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd // short-circuit
	OpOr  // short-circuit
)

var binaryOps = [...]struct{ text, dunder string }{
	OpAdd:    {"+", "__add__"},
	OpSub:    {"-", "__sub__"},
	OpMul:    {"*", "__mul__"},
	OpDiv:    {"/", "__div__"},
	OpMod:    {"%", "__mod__"},
	OpPow:    {"**", "__pow__"},
	OpShl:    {"<<", "__lshift__"},
	OpShr:    {">>", "__rshift__"},
	OpBitAnd: {"&", "__and__"},
	OpBitOr:  {"|", "__or__"},
	OpBitXor: {"^", "__xor__"},
	OpEq:     {"==", "__eq__"},
	OpNe:     {"!=", "__ne__"},
	OpLt:     {"<", "__lt__"},
	OpLe:     {"<=", "__le__"},
	OpGt:     {">", "__gt__"},
	OpGe:     {">=", "__ge__"},
	OpAnd:    {"and", ""},
	OpOr:     {"or", ""},
}

func (op BinaryOp) String() string { return binaryOps[op].text }

// Dunder returns the operator method name, or "" for and/or.
func (op BinaryOp) Dunder() string { return binaryOps[op].dunder }

// IsShortCircuit reports whether op evaluates its right operand lazily.
func (op BinaryOp) IsShortCircuit() bool { return op == OpAnd || op == OpOr }

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
	OpInvert
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpNot:
		return "not"
	default:
		return "~"
	}
}

// Dunder returns the method implementing op; `not` has none.
func (op UnaryOp) Dunder() string {
	switch op {
	case OpNeg:
		return "__neg__"
	case OpPos:
		return "__pos__"
	case OpInvert:
		return "__invert__"
	default:
		return ""
	}
}
