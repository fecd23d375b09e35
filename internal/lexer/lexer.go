package lexer

import (
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/token"
)

// Lexer turns a module into a token stream with Python block structure:
// logical lines end in Newline, indentation changes produce Indent/Dedent.
type Lexer struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	look    *token.Token
	pending []token.Token
	indents []uint32 // стек ширин отступов, indents[0] == 0
	depth   int      // глубина вложенности скобок
	bol     bool     // курсор в начале физической строки
	inLine  bool     // в текущей логической строке уже был токен
	done    bool
	errors  int
}

func New(file *source.File, opts Options) *Lexer {
	if opts.TabWidth == 0 {
		opts.TabWidth = 8
	}
	return &Lexer{
		file:    file,
		cursor:  NewCursor(file),
		opts:    opts,
		indents: []uint32{0},
		bol:     true,
	}
}

// Errors returns the number of lexical errors reported so far.
func (lx *Lexer) Errors() int { return lx.errors }

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		t := lx.next()
		lx.look = &t
	}
	return *lx.look
}

// Next возвращает следующий токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	return lx.next()
}

func (lx *Lexer) next() token.Token {
	for {
		if len(lx.pending) > 0 {
			tok := lx.pending[0]
			lx.pending = lx.pending[1:]
			return tok
		}
		if lx.done {
			return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
		}
		if lx.bol && lx.depth == 0 {
			lx.scanIndent()
			continue
		}

		lx.skipBlanks()
		if lx.cursor.EOF() {
			lx.finish()
			continue
		}

		ch := lx.cursor.Peek()
		switch {
		case ch == '\n':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.depth > 0 {
				continue
			}
			lx.bol = true
			if !lx.inLine {
				continue
			}
			lx.inLine = false
			return token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start), Text: "\n"}
		case ch == '\\' && lx.cursor.PeekAt(1) == '\n':
			// явное продолжение строки
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}

		tok := lx.scanToken(ch)
		lx.inLine = true
		return tok
	}
}

func (lx *Lexer) scanToken(ch byte) token.Token {
	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString()
	default:
		return lx.scanOperatorOrPunct()
	}
}

// scanIndent measures the indentation of a new physical line. Blank and
// comment-only lines leave the indentation stack untouched.
func (lx *Lexer) scanIndent() {
	start := lx.cursor.Mark()
	var width uint32
	sawTab, sawSpace := false, false
measure:
	for {
		switch lx.cursor.Peek() {
		case ' ':
			width++
			sawSpace = true
		case '\t':
			width += lx.opts.TabWidth - width%lx.opts.TabWidth
			sawTab = true
		case '\f':
			width = 0
		default:
			break measure
		}
		lx.cursor.Bump()
	}
	switch lx.cursor.Peek() {
	case '#':
		lx.skipComment()
		return
	case '\n':
		lx.cursor.Bump()
		return
	case '\\':
		if lx.cursor.PeekAt(1) == '\n' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			return
		}
	}
	lx.bol = false
	if lx.cursor.EOF() {
		return
	}
	sp := lx.cursor.SpanFrom(start)
	if sawTab && sawSpace {
		lx.report(diag.LexTabsAndSpaces, sp, "indentation mixes tabs and spaces")
	}

	top := lx.indents[len(lx.indents)-1]
	switch {
	case width > top:
		lx.indents = append(lx.indents, width)
		lx.pending = append(lx.pending, token.Token{Kind: token.Indent, Span: sp})
	case width < top:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: sp})
		}
		if lx.indents[len(lx.indents)-1] != width {
			lx.report(diag.LexBadIndent, sp, "unindent does not match any outer indentation level")
		}
	}
}

// finish closes the last logical line and every open block.
func (lx *Lexer) finish() {
	sp := lx.EmptySpan()
	if lx.inLine {
		lx.inLine = false
		lx.pending = append(lx.pending, token.Token{Kind: token.Newline, Span: sp})
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: sp})
	}
	lx.pending = append(lx.pending, token.Token{Kind: token.EOF, Span: sp})
	lx.done = true
}

// EmptySpan returns a zero-width span at the cursor.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
