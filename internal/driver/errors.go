package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"monty/internal/diag"
	"monty/internal/hlir"
	"monty/internal/interp"
	"monty/internal/source"
	"monty/internal/typeck"
)

// CyclicImportError reports an import of a module that is still loading.
// Chain lists the loading modules from the outermost to the repeated one.
type CyclicImportError struct {
	Chain []string
}

func (e *CyclicImportError) Error() string {
	return "cyclic import: " + strings.Join(e.Chain, " -> ")
}

// ModuleNotFoundError reports a dotted path no search root provides.
type ModuleNotFoundError struct {
	Path     string
	Searched []string
}

func (e *ModuleNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("module %s not found", e.Path)
	}
	return fmt.Sprintf("module %s not found (searched %s)", e.Path, strings.Join(e.Searched, ", "))
}

// SyntaxError carries the diagnostics of a module that failed to parse.
type SyntaxError struct {
	Path  string
	Diags []diag.Diagnostic
}

func (e *SyntaxError) Error() string {
	if len(e.Diags) == 0 {
		return "syntax error in " + e.Path
	}
	return fmt.Sprintf("syntax error in %s: %s", e.Path, e.Diags[0].Message)
}

// IsBootstrap reports whether err comes from loading the builtins module.
// Such failures are configuration errors, not errors in user code.
func IsBootstrap(err error) bool {
	var b *interp.BootstrapError
	return errors.As(err, &b)
}

// Diagnostic converts a compilation error into a diagnostic. Errors raised
// inside an imported module keep that module's span; driver-level errors
// are placed at the innermost import statement that led to them.
func Diagnostic(err error) diag.Diagnostic {
	var (
		terr  *typeck.Error
		cyc   *CyclicImportError
		nf    *ModuleNotFoundError
		syn   *SyntaxError
		boot  *interp.BootstrapError
		flat  *hlir.FlattenError
		eval  *interp.EvalError
		perr  *fs.PathError
		where = importSpan(err)
	)
	switch {
	case errors.As(err, &terr):
		return terr.Diagnostic()
	case errors.As(err, &syn) && len(syn.Diags) > 0:
		return syn.Diags[0]
	case errors.As(err, &cyc):
		return diag.NewError(diag.ProjImportCycle, where, cyc.Error())
	case errors.As(err, &nf):
		return diag.NewError(diag.ProjModuleNotFound, where, nf.Error())
	case errors.As(err, &perr):
		return diag.NewError(diag.IOLoadFileError, where, err.Error())
	case errors.As(err, &boot):
		return diag.NewError(diag.CfgBootstrap, boot.Span, boot.Error())
	case errors.As(err, &flat):
		return diag.NewError(diag.SemaUnsupported, flat.Span, flat.Error())
	case errors.As(err, &eval):
		d := diag.NewError(evalCode(eval.Code), where, eval.Message)
		for _, f := range eval.Backtrace {
			d = d.WithNote(f.Span, "in call to "+f.Func)
		}
		return d
	}
	return diag.NewError(diag.UnknownCode, source.Span{}, err.Error())
}

// evalCode maps interpreter failures onto the checker's kinds where one
// fits; the rest are unsupported at compile time.
func evalCode(code interp.ErrorCode) diag.Code {
	switch code {
	case interp.ErrNameUndefined, interp.ErrNoAttribute:
		return diag.SemaUndefinedVariable
	case interp.ErrOperand:
		return diag.SemaBadBinaryOp
	case interp.ErrArity:
		return diag.SemaBadArgumentType
	default:
		return diag.SemaUnsupported
	}
}

// importSpan returns the span of the innermost evaluation error in the chain.
func importSpan(err error) source.Span {
	var span source.Span
	for err != nil {
		if e, ok := err.(*interp.EvalError); ok {
			span = e.Span
		}
		err = errors.Unwrap(err)
	}
	return span
}
