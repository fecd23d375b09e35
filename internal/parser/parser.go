package parser

import (
	"slices"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/lexer"
	"monty/internal/source"
	"monty/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Tree   *ast.Tree
	Errors uint
}

// Parser: состояние парсера на один модуль
type Parser struct {
	lx       *lexer.Lexer
	tree     *ast.Tree
	syms     *source.Symbols
	file     source.FileID
	opts     Options
	lastSpan source.Span // span последнего съеденного токена
}

// ParseFile разбирает один модуль. Лексические ошибки репортятся в тот же Reporter.
func ParseFile(file *source.File, syms *source.Symbols, opts Options) Result {
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	p := Parser{
		lx:       lx,
		tree:     ast.NewTree(file.ID, uint(len(file.Content)/4)),
		syms:     syms,
		file:     file.ID,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	start := p.lx.Peek().Span
	body := p.parseStmts(token.EOF)
	p.tree.NewModule(start.Cover(p.lastSpan), body)

	errs := p.opts.CurrentErrors
	if n := lx.Errors(); n > 0 {
		errs += uint(n)
	}
	return Result{Tree: p.tree, Errors: errs}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseStmts: основной цикл блока: до end (EOF или Dedent), пустые строки пропускаются.
func (p *Parser) parseStmts(end token.Kind) []ast.NodeID {
	var out []ast.NodeID
	for !p.at(end) && !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.advance()
			continue
		}
		if p.opts.Enough() {
			p.skipTo(end)
			break
		}
		ids, ok := p.parseStmt()
		if !ok {
			p.resyncLine()
			continue
		}
		out = append(out, ids...)
	}
	return out
}

// resyncLine: восстановление после ошибки: прокручиваем до конца логической строки.
func (p *Parser) resyncLine() {
	for !p.atOr(token.Newline, token.EOF, token.Dedent) {
		p.advance()
	}
	if p.at(token.Newline) {
		p.advance()
	}
}

func (p *Parser) skipTo(end token.Kind) {
	for !p.at(end) && !p.at(token.EOF) {
		p.advance()
	}
}

// ident: ожидает Ident и возвращает ссылку на символ текущего модуля.
func (p *Parser) ident() (source.SymbolRef, source.Span, bool) {
	if p.at(token.Ident) {
		tok := p.advance()
		return p.syms.Ref(p.file, tok.Text), tok.Span, true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got \""+p.lx.Peek().Kind.String()+"\"")
	return source.NoSymbol, p.lx.Peek().Span, false
}
