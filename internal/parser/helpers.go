package parser

import (
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/token"
)

// advance: съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Dedent && tok.Kind != token.Indent {
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan: лучший span для диагностики. Для синтетических токенов
// (Newline/Dedent/EOF) указываем в конец последнего съеденного токена.
func (p *Parser) diagSpan() source.Span {
	peek := p.lx.Peek()
	switch peek.Kind {
	case token.EOF, token.Dedent, token.Indent, token.Newline:
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect: ожидаем конкретный токен. Если нет, репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.report(code, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp}, false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, p.diagSpan(), msg)
}

func (p *Parser) report(code diag.Code, sp source.Span, msg string) {
	if p.opts.Reporter != nil && !p.opts.Enough() {
		p.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
	p.opts.CurrentErrors++
}

// spanFrom покрывает интервал от start до последнего съеденного токена.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}
