package parser

import (
	"monty/internal/ast"
	"monty/internal/token"
)

// Таблица приоритетов: чем больше число, тем сильнее связывание.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPower
)

type binaryInfo struct {
	prec  int
	op    ast.BinaryOp
	right bool // правоассоциативный
}

var binaryOps = map[token.Kind]binaryInfo{
	token.KwOr:     {precOr, ast.OpOr, false},
	token.KwAnd:    {precAnd, ast.OpAnd, false},
	token.EqEq:     {precComparison, ast.OpEq, false},
	token.NotEq:    {precComparison, ast.OpNe, false},
	token.Lt:       {precComparison, ast.OpLt, false},
	token.LtEq:     {precComparison, ast.OpLe, false},
	token.Gt:       {precComparison, ast.OpGt, false},
	token.GtEq:     {precComparison, ast.OpGe, false},
	token.Pipe:     {precBitOr, ast.OpBitOr, false},
	token.Caret:    {precBitXor, ast.OpBitXor, false},
	token.Amp:      {precBitAnd, ast.OpBitAnd, false},
	token.Shl:      {precShift, ast.OpShl, false},
	token.Shr:      {precShift, ast.OpShr, false},
	token.Plus:     {precAdditive, ast.OpAdd, false},
	token.Minus:    {precAdditive, ast.OpSub, false},
	token.Star:     {precMultiplicative, ast.OpMul, false},
	token.Slash:    {precMultiplicative, ast.OpDiv, false},
	token.Percent:  {precMultiplicative, ast.OpMod, false},
	token.StarStar: {precPower, ast.OpPow, true},
}
