package lexer

import (
	"monty/internal/diag"
	"monty/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil: ошибки игнорируются, лексинг продолжается
	TabWidth uint32        // ширина табуляции в отступах, по умолчанию 8
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	lx.errors++
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
