package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadIndent          Code = 1004
	LexTabsAndSpaces      Code = 1005

	// Синтаксические
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectExpression Code = 2003
	SynExpectColon      Code = 2004
	SynExpectIndent     Code = 2005
	SynUnclosedParen    Code = 2006
	SynExpectNewline    Code = 2007
	SynBadAssignTarget  Code = 2008
	SynBadDecorator     Code = 2009

	// Семантические
	SemaInferenceFailure         Code = 3001
	SemaUndefinedVariable        Code = 3002
	SemaUnknownType              Code = 3003
	SemaIncompatibleReassignment Code = 3004
	SemaIncompatibleTypes        Code = 3005
	SemaBadArgumentType          Code = 3006
	SemaBadReturnType            Code = 3007
	SemaMissingReturn            Code = 3008
	SemaBadBinaryOp              Code = 3009
	SemaUnsupported              Code = 3010

	IOLoadFileError Code = 4001

	// Модули
	ProjModuleNotFound Code = 5001
	ProjImportCycle    Code = 5002

	// Ошибки начальной загрузки builtins
	CfgBootstrap Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                  "Unknown error",
	LexUnknownChar:               "Unknown character",
	LexUnterminatedString:        "Unterminated string literal",
	LexBadNumber:                 "Malformed number literal",
	LexBadIndent:                 "Inconsistent dedent",
	LexTabsAndSpaces:             "Tabs mixed with spaces in indentation",
	SynUnexpectedToken:           "Unexpected token",
	SynExpectIdentifier:          "Expected identifier",
	SynExpectExpression:          "Expected expression",
	SynExpectColon:               "Expected ':'",
	SynExpectIndent:              "Expected an indented block",
	SynUnclosedParen:             "Unclosed parenthesis",
	SynExpectNewline:             "Expected end of line",
	SynBadAssignTarget:           "Invalid assignment target",
	SynBadDecorator:              "Decorator must precede def or class",
	SemaInferenceFailure:         "Type inference failed",
	SemaUndefinedVariable:        "Undefined variable",
	SemaUnknownType:              "Unknown type",
	SemaIncompatibleReassignment: "Incompatible reassignment",
	SemaIncompatibleTypes:        "Incompatible types",
	SemaBadArgumentType:          "Bad argument type",
	SemaBadReturnType:            "Bad return type",
	SemaMissingReturn:            "Missing return",
	SemaBadBinaryOp:              "Unsupported binary operation",
	SemaUnsupported:              "Unsupported at compile time",
	IOLoadFileError:              "I/O load file error",
	ProjModuleNotFound:           "Module not found",
	ProjImportCycle:              "Import cycle detected",
	CfgBootstrap:                 "Builtin bootstrap failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
