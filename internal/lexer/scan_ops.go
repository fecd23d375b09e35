package lexer

import (
	"monty/internal/diag"
	"monty/internal/token"
)

// scanOperatorOrPunct: сначала трёхсимвольные, затем двухсимвольные, затем одиночные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b0, b1, b2 := lx.cursor.Peek(), lx.cursor.PeekAt(1), lx.cursor.PeekAt(2)

	emit := func(k token.Kind, n int) token.Token {
		for range n {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp.Start, sp.End)}
	}

	if b0 == '.' && b1 == '.' && b2 == '.' {
		return emit(token.Ellipsis, 3)
	}
	switch string([]byte{b0, b1}) {
	case "**":
		return emit(token.StarStar, 2)
	case "<<":
		return emit(token.Shl, 2)
	case ">>":
		return emit(token.Shr, 2)
	case "==":
		return emit(token.EqEq, 2)
	case "!=":
		return emit(token.NotEq, 2)
	case "<=":
		return emit(token.LtEq, 2)
	case ">=":
		return emit(token.GtEq, 2)
	case "->":
		return emit(token.Arrow, 2)
	}

	switch b0 {
	case '+':
		return emit(token.Plus, 1)
	case '-':
		return emit(token.Minus, 1)
	case '*':
		return emit(token.Star, 1)
	case '/':
		return emit(token.Slash, 1)
	case '%':
		return emit(token.Percent, 1)
	case '&':
		return emit(token.Amp, 1)
	case '|':
		return emit(token.Pipe, 1)
	case '^':
		return emit(token.Caret, 1)
	case '<':
		return emit(token.Lt, 1)
	case '>':
		return emit(token.Gt, 1)
	case '=':
		return emit(token.Assign, 1)
	case ':':
		return emit(token.Colon, 1)
	case ',':
		return emit(token.Comma, 1)
	case '.':
		return emit(token.Dot, 1)
	case ';':
		return emit(token.Semicolon, 1)
	case '@':
		return emit(token.At, 1)
	case '(':
		lx.depth++
		return emit(token.LParen, 1)
	case '[':
		lx.depth++
		return emit(token.LBracket, 1)
	case '{':
		lx.depth++
		return emit(token.LBrace, 1)
	case ')':
		lx.closeDelim()
		return emit(token.RParen, 1)
	case ']':
		lx.closeDelim()
		return emit(token.RBracket, 1)
	case '}':
		lx.closeDelim()
		return emit(token.RBrace, 1)
	}

	tok := emit(token.Invalid, 1)
	lx.report(diag.LexUnknownChar, tok.Span, "unexpected character "+tok.Text)
	return tok
}

func (lx *Lexer) closeDelim() {
	if lx.depth > 0 {
		lx.depth--
	}
}
