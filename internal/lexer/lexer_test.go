package lexer_test

import (
	"testing"

	"monty/internal/diag"
	"monty/internal/lexer"
	"monty/internal/source"
	"monty/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.py", []byte(input))
	bag := diag.NewBag(0)
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx, bag
}

func kinds(lx *lexer.Lexer) []token.Kind {
	var out []token.Kind
	for {
		tok := lx.Next()
		out = append(out, tok.Kind)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func expectKinds(t *testing.T, got, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestIndentation(t *testing.T) {
	src := "def f(a: int) -> int:\n    if a:\n        return a\n\n    # comment\n    return 0\nx = 1\n"
	lx, bag := makeTestLexer(src)
	expectKinds(t, kinds(lx), []token.Kind{
		token.KwDef, token.Ident, token.LParen, token.Ident, token.Colon, token.Ident, token.RParen,
		token.Arrow, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwReturn, token.Ident, token.Newline,
		token.Dedent, token.KwReturn, token.IntLit, token.Newline,
		token.Dedent, token.Ident, token.Assign, token.IntLit, token.Newline,
		token.EOF,
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestImplicitLineJoining(t *testing.T) {
	lx, _ := makeTestLexer("f(1,\n  2)\ny = (1 +\n 2)")
	expectKinds(t, kinds(lx), []token.Kind{
		token.Ident, token.LParen, token.IntLit, token.Comma, token.IntLit, token.RParen, token.Newline,
		token.Ident, token.Assign, token.LParen, token.IntLit, token.Plus, token.IntLit, token.RParen, token.Newline,
		token.EOF,
	})
}

func TestDedentAtEOF(t *testing.T) {
	lx, _ := makeTestLexer("class A:\n    pass")
	expectKinds(t, kinds(lx), []token.Kind{
		token.KwClass, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwPass, token.Newline, token.Dedent, token.EOF,
	})
}

func TestBadDedent(t *testing.T) {
	lx, bag := makeTestLexer("if x:\n    a\n  b\n")
	kinds(lx)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexBadIndent {
		t.Fatalf("expected LexBadIndent, got %+v", bag.Items())
	}
}

func TestOperatorsAndLiterals(t *testing.T) {
	lx, bag := makeTestLexer(`a ** 2 <= 0x1F != 1.5e3 ... 'hi' "x\n" -> @`)
	expectKinds(t, kinds(lx), []token.Kind{
		token.Ident, token.StarStar, token.IntLit, token.LtEq, token.IntLit, token.NotEq,
		token.FloatLit, token.Ellipsis, token.StringLit, token.StringLit, token.Arrow, token.At,
		token.Newline, token.EOF,
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestNFKCIdentifiers(t *testing.T) {
	// U+FB01 (ﬁ) нормализуется в "fi"
	lx, _ := makeTestLexer("\ufb01le = 1")
	tok := lx.Next()
	if tok.Kind != token.Ident || tok.Text != "file" {
		t.Fatalf("got %v %q", tok.Kind, tok.Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	lx, bag := makeTestLexer("s = 'abc\n")
	kinds(lx)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("got %+v", bag.Items())
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct{ in, want string }{
		{`'abc'`, "abc"},
		{`"a\nb"`, "a\nb"},
		{`'\x41\u00e9'`, "Aé"},
		{`"""doc "q" """`, `doc "q" `},
		{`'\q'`, `\q`},
	}
	for _, tt := range tests {
		got, err := lexer.Unquote(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("Unquote(%s) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := lexer.Unquote(`'\x4'`); err == nil {
		t.Fatal("short hex escape must fail")
	}
}
