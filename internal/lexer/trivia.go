package lexer

// skipBlanks пропускает пробелы, табы и комментарии внутри строки; '\n' не трогает.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\f', '\r':
			lx.cursor.Bump()
		case '#':
			lx.skipComment()
		default:
			return
		}
	}
}

// skipComment съедает комментарий до конца строки, не включая '\n'.
func (lx *Lexer) skipComment() {
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
}
