package lexer

import (
	"unicode"
	"unicode/utf8"
)

const utf8RuneSelf = 0x80

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinueRune(r rune) bool {
	return isIdentStartRune(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func (lx *Lexer) peekRune() (rune, int) {
	if lx.cursor.EOF() {
		return 0, 0
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
}

func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	for range sz {
		lx.cursor.Bump()
	}
}
