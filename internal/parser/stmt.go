package parser

import (
	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/token"
)

// parseStmt выбирает распознаватель по первому токену. Простая строка
// `a; b` даёт несколько узлов.
func (p *Parser) parseStmt() ([]ast.NodeID, bool) {
	switch p.lx.Peek().Kind {
	case token.At:
		id, ok := p.parseDecorated()
		return []ast.NodeID{id}, ok
	case token.KwDef:
		id, ok := p.parseFuncDef(nil, p.lx.Peek().Span)
		return []ast.NodeID{id}, ok
	case token.KwClass:
		id, ok := p.parseClassDef(nil, p.lx.Peek().Span)
		return []ast.NodeID{id}, ok
	case token.KwIf:
		id, ok := p.parseIf()
		return []ast.NodeID{id}, ok
	case token.KwWhile:
		id, ok := p.parseWhile()
		return []ast.NodeID{id}, ok
	case token.Indent:
		p.err(diag.SynUnexpectedToken, "unexpected indent")
		p.advance()
		body := p.parseStmts(token.Dedent)
		p.advance()
		return body, false
	default:
		return p.parseSimpleLine()
	}
}

// parseSimpleLine: small (';' small)* NEWLINE
func (p *Parser) parseSimpleLine() ([]ast.NodeID, bool) {
	var out []ast.NodeID
	for {
		id, ok := p.parseSmallStmt()
		if !ok {
			return out, false
		}
		out = append(out, id)
		if !p.at(token.Semicolon) {
			break
		}
		p.advance()
		if p.atOr(token.Newline, token.EOF) {
			break
		}
	}
	if p.at(token.EOF) {
		return out, true
	}
	if _, ok := p.expect(token.Newline, diag.SynExpectNewline, "expected end of line"); !ok {
		return out, false
	}
	return out, true
}

func (p *Parser) parseSmallStmt() (ast.NodeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwPass:
		p.advance()
		return p.tree.NewSimple(ast.KindPass, tok.Span), true
	case token.KwBreak:
		p.advance()
		return p.tree.NewSimple(ast.KindBreak, tok.Span), true
	case token.KwContinue:
		p.advance()
		return p.tree.NewSimple(ast.KindContinue, tok.Span), true
	case token.KwReturn:
		p.advance()
		value := ast.NoNodeID
		if !p.atOr(token.Newline, token.Semicolon, token.EOF) {
			v, ok := p.parseExprList()
			if !ok {
				return ast.NoNodeID, false
			}
			value = v
		}
		return p.tree.NewReturn(p.spanFrom(tok.Span), value), true
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseFromImport()
	default:
		return p.parseExprStmt()
	}
}

// parseExprStmt: exprlist [':' annotation] ['=' exprlist]
func (p *Parser) parseExprStmt() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	lhs, ok := p.parseExprList()
	if !ok {
		return ast.NoNodeID, false
	}

	annotation := ast.NoNodeID
	if p.at(token.Colon) {
		p.advance()
		if annotation, ok = p.parseExpr(); !ok {
			return ast.NoNodeID, false
		}
	}
	if !p.at(token.Assign) {
		if annotation.IsValid() {
			if !p.checkTarget(lhs) {
				return ast.NoNodeID, false
			}
			return p.tree.NewAssign(p.spanFrom(start), ast.AssignData{Target: lhs, Annotation: annotation}), true
		}
		return p.tree.NewExprStmt(p.spanFrom(start), lhs), true
	}

	p.advance()
	value, ok := p.parseExprList()
	if !ok {
		return ast.NoNodeID, false
	}
	if !p.checkTarget(lhs) {
		return ast.NoNodeID, false
	}
	return p.tree.NewAssign(p.spanFrom(start), ast.AssignData{Target: lhs, Annotation: annotation, Value: value}), true
}

// checkTarget принимает Name, Attr, Subscript и кортежи из них.
func (p *Parser) checkTarget(id ast.NodeID) bool {
	switch p.tree.Kind(id) {
	case ast.KindName, ast.KindAttr, ast.KindSubscript:
		return true
	case ast.KindTuple:
		tup, _ := p.tree.Tuple(id)
		for _, e := range tup.Elts {
			if !p.checkTarget(e) {
				return false
			}
		}
		return true
	}
	p.report(diag.SynBadAssignTarget, p.tree.Span(id), "cannot assign to "+p.tree.Kind(id).String())
	return false
}

// parseBlock: ':' (simple_line | NEWLINE INDENT stmt+ DEDENT)
func (p *Parser) parseBlock() ([]ast.NodeID, bool) {
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':'"); !ok {
		return nil, false
	}
	if !p.at(token.Newline) {
		return p.parseSimpleLine()
	}
	p.advance()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent, "expected an indented block"); !ok {
		return nil, false
	}
	body := p.parseStmts(token.Dedent)
	if p.at(token.Dedent) {
		p.advance()
	}
	if len(body) == 0 {
		p.err(diag.SynExpectIndent, "expected an indented block")
		return nil, false
	}
	return body, true
}

// parseDecorated: ('@' expr NEWLINE)+ (def | class)
func (p *Parser) parseDecorated() (ast.NodeID, bool) {
	start := p.lx.Peek().Span
	var decorators []ast.NodeID
	for p.at(token.At) {
		p.advance()
		dec, ok := p.parseExpr()
		if !ok {
			return ast.NoNodeID, false
		}
		decorators = append(decorators, dec)
		if _, ok := p.expect(token.Newline, diag.SynExpectNewline, "expected end of line after decorator"); !ok {
			return ast.NoNodeID, false
		}
	}
	switch {
	case p.at(token.KwDef):
		return p.parseFuncDef(decorators, start)
	case p.at(token.KwClass):
		return p.parseClassDef(decorators, start)
	}
	p.err(diag.SynBadDecorator, "decorator must precede def or class")
	return ast.NoNodeID, false
}

// parseFuncDef: 'def' NAME '(' params ')' ['->' expr] block
func (p *Parser) parseFuncDef(decorators []ast.NodeID, start source.Span) (ast.NodeID, bool) {
	p.advance() // def
	name, nameSpan, ok := p.ident()
	if !ok {
		return ast.NoNodeID, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		return ast.NoNodeID, false
	}
	var params []ast.Param
	for !p.at(token.RParen) {
		pname, pspan, ok := p.ident()
		if !ok {
			return ast.NoNodeID, false
		}
		param := ast.Param{Name: pname, Span: pspan}
		if p.at(token.Colon) {
			p.advance()
			if param.Annotation, ok = p.parseExpr(); !ok {
				return ast.NoNodeID, false
			}
			param.Span = p.spanFrom(pspan)
		}
		params = append(params, param)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after parameters"); !ok {
		return ast.NoNodeID, false
	}
	returns := ast.NoNodeID
	if p.at(token.Arrow) {
		p.advance()
		if returns, ok = p.parseExpr(); !ok {
			return ast.NoNodeID, false
		}
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoNodeID, false
	}
	return p.tree.NewFuncDef(p.spanFrom(start), ast.FuncDefData{
		Name:       name,
		NameSpan:   nameSpan,
		Params:     params,
		Returns:    returns,
		Body:       body,
		Decorators: decorators,
	}), true
}

// parseClassDef: 'class' NAME ['(' bases ')'] block
func (p *Parser) parseClassDef(decorators []ast.NodeID, start source.Span) (ast.NodeID, bool) {
	p.advance() // class
	name, nameSpan, ok := p.ident()
	if !ok {
		return ast.NoNodeID, false
	}
	var bases []ast.NodeID
	if p.at(token.LParen) {
		p.advance()
		if bases, ok = p.parseArgs(); !ok {
			return ast.NoNodeID, false
		}
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoNodeID, false
	}
	return p.tree.NewClassDef(p.spanFrom(start), ast.ClassDefData{
		Name:       name,
		NameSpan:   nameSpan,
		Bases:      bases,
		Body:       body,
		Decorators: decorators,
	}), true
}

// parseIf: 'if' expr block ('elif' expr block)* ['else' block]; elif
// становится вложенным If в ветке else.
func (p *Parser) parseIf() (ast.NodeID, bool) {
	start := p.advance().Span // if / elif
	test, ok := p.parseExpr()
	if !ok {
		return ast.NoNodeID, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoNodeID, false
	}
	var orelse []ast.NodeID
	switch {
	case p.at(token.KwElif):
		elif, ok := p.parseIf()
		if !ok {
			return ast.NoNodeID, false
		}
		orelse = []ast.NodeID{elif}
	case p.at(token.KwElse):
		p.advance()
		if orelse, ok = p.parseBlock(); !ok {
			return ast.NoNodeID, false
		}
	}
	return p.tree.NewIf(p.spanFrom(start), test, body, orelse), true
}

func (p *Parser) parseWhile() (ast.NodeID, bool) {
	start := p.advance().Span
	test, ok := p.parseExpr()
	if !ok {
		return ast.NoNodeID, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoNodeID, false
	}
	return p.tree.NewWhile(p.spanFrom(start), test, body), true
}
