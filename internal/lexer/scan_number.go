package lexer

import (
	"monty/internal/diag"
	"monty/internal/token"
)

// scanNumber: 123, 1_000, 0x1F, 0o17, 0b101, 1.5, .5, 1e9, 2.5e-3
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			lx.cursor.Bump()
			base := lx.cursor.Bump() | 0x20
			n := 0
			for {
				b := lx.cursor.Peek()
				if b == '_' || (base == 'x' && isHex(b)) || (base == 'o' && b >= '0' && b <= '7') || (base == 'b' && (b == '0' || b == '1')) {
					lx.cursor.Bump()
					n++
					continue
				}
				break
			}
			sp := lx.cursor.SpanFrom(start)
			if n == 0 {
				lx.report(diag.LexBadNumber, sp, "missing digits after base prefix")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
			}
			return token.Token{Kind: token.IntLit, Span: sp, Text: lx.text(sp.Start, sp.End)}
		}
	}

	lx.digits()
	if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
		kind = token.FloatLit
		lx.cursor.Bump()
		lx.digits()
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if isDec(lx.cursor.Peek()) {
			kind = token.FloatLit
			lx.digits()
		} else {
			lx.cursor.Reset(mark)
		}
	}

	sp := lx.cursor.SpanFrom(start)
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp = lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, "invalid suffix on number literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp.Start, sp.End)}
}

func (lx *Lexer) digits() {
	for b := lx.cursor.Peek(); isDec(b) || b == '_'; b = lx.cursor.Peek() {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) text(start, end uint32) string {
	return string(lx.file.Content[start:end])
}
