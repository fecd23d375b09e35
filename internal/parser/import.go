package parser

import (
	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/token"
)

// parseDottedName: NAME ('.' NAME)*
func (p *Parser) parseDottedName() ([]source.SymbolRef, source.Span, bool) {
	first, span, ok := p.ident()
	if !ok {
		return nil, span, false
	}
	path := []source.SymbolRef{first}
	for p.at(token.Dot) {
		p.advance()
		seg, _, ok := p.ident()
		if !ok {
			return nil, span, false
		}
		path = append(path, seg)
	}
	return path, p.spanFrom(span), true
}

func (p *Parser) parseAlias(name *ast.ImportName) bool {
	if !p.at(token.KwAs) {
		return true
	}
	p.advance()
	alias, _, ok := p.ident()
	if !ok {
		return false
	}
	name.Alias = alias
	name.Span = p.spanFrom(name.Span)
	return true
}

// parseImport: 'import' dotted ['as' NAME] (',' dotted ['as' NAME])*
func (p *Parser) parseImport() (ast.NodeID, bool) {
	start := p.advance().Span
	var names []ast.ImportName
	for {
		path, span, ok := p.parseDottedName()
		if !ok {
			return ast.NoNodeID, false
		}
		in := ast.ImportName{Path: path, Span: span}
		if !p.parseAlias(&in) {
			return ast.NoNodeID, false
		}
		names = append(names, in)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	return p.tree.NewImport(p.spanFrom(start), names), true
}

// parseFromImport: 'from' dotted 'import' NAME ['as' NAME] (',' ...)* | '(' ... ')'
func (p *Parser) parseFromImport() (ast.NodeID, bool) {
	start := p.advance().Span
	module, _, ok := p.parseDottedName()
	if !ok {
		return ast.NoNodeID, false
	}
	if _, ok := p.expect(token.KwImport, diag.SynUnexpectedToken, "expected 'import'"); !ok {
		return ast.NoNodeID, false
	}
	paren := p.at(token.LParen)
	if paren {
		p.advance()
	}
	var names []ast.ImportName
	for {
		if paren && p.at(token.RParen) {
			break
		}
		sym, span, ok := p.ident()
		if !ok {
			return ast.NoNodeID, false
		}
		in := ast.ImportName{Path: []source.SymbolRef{sym}, Span: span}
		if !p.parseAlias(&in) {
			return ast.NoNodeID, false
		}
		names = append(names, in)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if paren {
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoNodeID, false
		}
	}
	if len(names) == 0 {
		p.err(diag.SynExpectIdentifier, "expected at least one imported name")
		return ast.NoNodeID, false
	}
	return p.tree.NewImportFrom(p.spanFrom(start), module, names), true
}
