package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline ends a logical line.
	Newline
	// Indent opens a block.
	Indent
	// Dedent closes a block.
	Dedent

	Ident
	IntLit
	FloatLit
	StringLit

	KwDef
	KwClass
	KwReturn
	KwIf
	KwElif
	KwElse
	KwWhile
	KwBreak
	KwContinue
	KwPass
	KwImport
	KwFrom
	KwAs
	KwAnd
	KwOr
	KwNot
	KwTrue
	KwFalse
	KwNone

	Plus      // +
	Minus     // -
	Star      // *
	StarStar  // **
	Slash     // /
	Percent   // %
	Amp       // &
	Pipe      // |
	Caret     // ^
	Shl       // <<
	Shr       // >>
	EqEq      // ==
	NotEq     // !=
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	Assign    // =
	Colon     // :
	Comma     // ,
	Dot       // .
	Ellipsis  // ...
	Arrow     // ->
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	LBrace    // {
	RBrace    // }
	At        // @
	Semicolon // ;
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Newline:    "newline",
	Indent:     "indent",
	Dedent:     "dedent",
	Ident:      "identifier",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	StringLit:  "string literal",
	KwDef:      "def",
	KwClass:    "class",
	KwReturn:   "return",
	KwIf:       "if",
	KwElif:     "elif",
	KwElse:     "else",
	KwWhile:    "while",
	KwBreak:    "break",
	KwContinue: "continue",
	KwPass:     "pass",
	KwImport:   "import",
	KwFrom:     "from",
	KwAs:       "as",
	KwAnd:      "and",
	KwOr:       "or",
	KwNot:      "not",
	KwTrue:     "True",
	KwFalse:    "False",
	KwNone:     "None",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	StarStar:   "**",
	Slash:      "/",
	Percent:    "%",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	Shl:        "<<",
	Shr:        ">>",
	EqEq:       "==",
	NotEq:      "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Assign:     "=",
	Colon:      ":",
	Comma:      ",",
	Dot:        ".",
	Ellipsis:   "...",
	Arrow:      "->",
	LParen:     "(",
	RParen:     ")",
	LBracket:   "[",
	RBracket:   "]",
	LBrace:     "{",
	RBrace:     "}",
	At:         "@",
	Semicolon:  ";",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
