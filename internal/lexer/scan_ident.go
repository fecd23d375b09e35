package lexer

import (
	"golang.org/x/text/unicode/norm"

	"monty/internal/diag"
	"monty/internal/token"
)

// scanIdentOrKeyword сканирует идентификатор и проверяет ключевые слова.
// Не-ASCII идентификаторы приводятся к NFKC, поэтому Token.Text может
// отличаться от исходного среза.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, sz := lx.peekRune()
	if sz == 0 || (r >= utf8RuneSelf && !isIdentStartRune(r)) {
		lx.bumpRune()
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexUnknownChar, sp, "unexpected character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
	for {
		r, sz = lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if !ascii {
		text = norm.NFKC.String(text)
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
