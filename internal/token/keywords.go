package token

var keywords = map[string]Kind{
	"def":      KwDef,
	"class":    KwClass,
	"return":   KwReturn,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"while":    KwWhile,
	"break":    KwBreak,
	"continue": KwContinue,
	"pass":     KwPass,
	"import":   KwImport,
	"from":     KwFrom,
	"as":       KwAs,
	"and":      KwAnd,
	"or":       KwOr,
	"not":      KwNot,
	"True":     KwTrue,
	"False":    KwFalse,
	"None":     KwNone,
}

// LookupKeyword returns the keyword kind for ident; keywords are case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
