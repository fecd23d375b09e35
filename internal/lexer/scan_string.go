package lexer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"monty/internal/diag"
	"monty/internal/token"
)

// scanString сканирует '...', "..." и тройные кавычки. Text хранит исходный
// литерал вместе с кавычками, декодирует его Unquote.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	q := lx.cursor.Bump()
	triple := lx.cursor.Peek() == q && lx.cursor.PeekAt(1) == q
	if triple {
		lx.cursor.Bump()
		lx.cursor.Bump()
	}

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		case b == '\n' && !triple:
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
		case b == q && !triple:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp.Start, sp.End)}
		case b == q && lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q:
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp.Start, sp.End)}
		}
		lx.cursor.Bump()
	}

	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
}

var errBadEscape = errors.New("invalid escape sequence")

// Unquote decodes a string literal produced by the lexer.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", errors.New("literal too short")
	}
	q := lit[0]
	body := lit[1 : len(lit)-1]
	if len(lit) >= 6 && lit[1] == q && lit[2] == q {
		body = lit[3 : len(lit)-3]
	}
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errBadEscape
		}
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(e)
		case '\n':
			// продолжение строки внутри литерала
		case 'x', 'u':
			n := 2
			if e == 'u' {
				n = 4
			}
			if i+1+n > len(body) {
				return "", errBadEscape
			}
			v, err := strconv.ParseUint(body[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", errBadEscape
			}
			b.WriteRune(rune(v))
			i += n
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	if !utf8.ValidString(b.String()) {
		return "", errors.New("string literal is not valid UTF-8")
	}
	return b.String(), nil
}
