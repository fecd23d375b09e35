package parser

import (
	"strconv"
	"strings"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/lexer"
	"monty/internal/token"
)

// parseExprList: expr (',' expr)* [',']: запятая делает кортеж.
func (p *Parser) parseExprList() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	first, ok := p.parseExpr()
	if !ok || !p.at(token.Comma) {
		return first, ok
	}
	elts := []ast.NodeID{first}
	for p.at(token.Comma) {
		p.advance()
		if !p.startsExpr() {
			break
		}
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoNodeID, false
		}
		elts = append(elts, e)
	}
	return p.tree.NewTuple(p.spanFrom(start), elts), true
}

// parseExpr: or_test ['if' or_test 'else' expr]
func (p *Parser) parseExpr() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	body, ok := p.parseBinary(precOr)
	if !ok || !p.at(token.KwIf) {
		return body, ok
	}
	p.advance()
	test, ok := p.parseBinary(precOr)
	if !ok {
		return ast.NoNodeID, false
	}
	if _, ok := p.expect(token.KwElse, diag.SynUnexpectedToken, "expected 'else' in conditional expression"); !ok {
		return ast.NoNodeID, false
	}
	orelse, ok := p.parseExpr()
	if !ok {
		return ast.NoNodeID, false
	}
	return p.tree.NewIfExpr(p.spanFrom(start), test, body, orelse), true
}

// parseBinary: precedence climbing по таблице binaryOps.
func (p *Parser) parseBinary(minPrec int) (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	left, ok := p.parseUnary(minPrec)
	if !ok {
		return ast.NoNodeID, false
	}
	for {
		info, isOp := binaryOps[p.lx.Peek().Kind]
		if !isOp || info.prec < minPrec {
			return left, true
		}
		p.advance()
		next := info.prec + 1
		if info.right {
			next = info.prec
		}
		right, ok := p.parseBinary(next)
		if !ok {
			return ast.NoNodeID, false
		}
		left = p.tree.NewBinOp(p.spanFrom(start), info.op, left, right)
	}
}

func (p *Parser) parseUnary(minPrec int) (ast.NodeID, bool) {
	tok := p.lx.Peek()
	var (
		op   ast.UnaryOp
		prec int
	)
	switch tok.Kind {
	case token.KwNot:
		op, prec = ast.OpNot, precNot
	case token.Minus:
		op, prec = ast.OpNeg, precUnary
	case token.Plus:
		op, prec = ast.OpPos, precUnary
	default:
		return p.parsePower()
	}
	// унарные минус/плюс допустимы в любом операнде (`2 ** -1`), `not`: нет
	if op == ast.OpNot && prec < minPrec {
		p.err(diag.SynExpectExpression, "unexpected 'not'")
		return ast.NoNodeID, false
	}
	p.advance()
	operand, ok := p.parseBinary(prec)
	if !ok {
		return ast.NoNodeID, false
	}
	return p.tree.NewUnary(p.spanFrom(tok.Span), op, operand), true
}

// parsePower: primary; '**' обрабатывается в parseBinary с правой ассоциативностью.
func (p *Parser) parsePower() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	expr, ok := p.parseAtom()
	if !ok {
		return ast.NoNodeID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			attr, attrSpan, ok := p.ident()
			if !ok {
				return ast.NoNodeID, false
			}
			expr = p.tree.NewAttr(p.spanFrom(start), expr, attr, attrSpan)
		case token.LParen:
			p.advance()
			args, ok := p.parseArgs()
			if !ok {
				return ast.NoNodeID, false
			}
			expr = p.tree.NewCall(p.spanFrom(start), expr, args)
		case token.LBracket:
			p.advance()
			index, ok := p.parseExprList()
			if !ok {
				return ast.NoNodeID, false
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedParen, "expected ']'"); !ok {
				return ast.NoNodeID, false
			}
			expr = p.tree.NewSubscript(p.spanFrom(start), expr, index)
		default:
			return expr, true
		}
	}
}

// parseArgs разбирает аргументы после '(' включая закрывающую скобку.
func (p *Parser) parseArgs() ([]ast.NodeID, bool) {
	var args []ast.NodeID
	for !p.at(token.RParen) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return nil, false
	}
	return args, true
}

func (p *Parser) parseAtom() (ast.NodeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.tree.NewName(tok.Span, p.syms.Ref(p.file, tok.Text)), true
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseInt(strings.ReplaceAll(tok.Text, "_", ""), 0, 64)
		if err != nil {
			p.report(diag.LexBadNumber, tok.Span, "integer literal out of range")
			return ast.NoNodeID, false
		}
		return p.tree.NewLiteral(ast.KindInt, tok.Span, ast.LiteralData{Int: v}), true
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.report(diag.LexBadNumber, tok.Span, "malformed float literal")
			return ast.NoNodeID, false
		}
		return p.tree.NewLiteral(ast.KindFloat, tok.Span, ast.LiteralData{Float: v}), true
	case token.StringLit:
		return p.parseStrings()
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.tree.NewLiteral(ast.KindBool, tok.Span, ast.LiteralData{Bool: tok.Kind == token.KwTrue}), true
	case token.KwNone:
		p.advance()
		return p.tree.NewSimple(ast.KindNone, tok.Span), true
	case token.Ellipsis:
		p.advance()
		return p.tree.NewSimple(ast.KindEllipsis, tok.Span), true
	case token.LParen:
		p.advance()
		if p.at(token.RParen) {
			p.advance()
			return p.tree.NewTuple(p.spanFrom(tok.Span), nil), true
		}
		inner, ok := p.parseExprList()
		if !ok {
			return ast.NoNodeID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoNodeID, false
		}
		return inner, true
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+tok.Kind.String())
	return ast.NoNodeID, false
}

// parseStrings склеивает соседние строковые литералы: "a" "b" == "ab".
func (p *Parser) parseStrings() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	var b strings.Builder
	for p.at(token.StringLit) {
		tok := p.advance()
		s, err := lexer.Unquote(tok.Text)
		if err != nil {
			p.report(diag.LexUnterminatedString, tok.Span, err.Error())
			return ast.NoNodeID, false
		}
		b.WriteString(s)
	}
	return p.tree.NewLiteral(ast.KindStr, p.spanFrom(start), ast.LiteralData{Str: b.String()}), true
}

func (p *Parser) startsExpr() bool {
	switch p.lx.Peek().Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit, token.KwTrue, token.KwFalse,
		token.KwNone, token.Ellipsis, token.LParen, token.Minus, token.Plus, token.KwNot:
		return true
	}
	return false
}
