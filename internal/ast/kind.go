package ast

// Kind is the closed set of node shapes. Statements come first, then
// expressions; IsExpr relies on that ordering.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule
	KindFuncDef
	KindClassDef
	KindImport
	KindImportFrom
	KindIf
	KindWhile
	KindReturn
	KindAssign
	KindExprStmt
	KindPass
	KindBreak
	KindContinue

	KindInt
	KindFloat
	KindStr
	KindBool
	KindNone
	KindEllipsis
	KindName
	KindTuple
	KindBinOp
	KindUnary
	KindCall
	KindAttr
	KindSubscript
	KindIfExpr
)

var kindNames = [...]string{
	KindInvalid:    "Invalid",
	KindModule:     "Module",
	KindFuncDef:    "FuncDef",
	KindClassDef:   "ClassDef",
	KindImport:     "Import",
	KindImportFrom: "ImportFrom",
	KindIf:         "If",
	KindWhile:      "While",
	KindReturn:     "Return",
	KindAssign:     "Assign",
	KindExprStmt:   "ExprStmt",
	KindPass:       "Pass",
	KindBreak:      "Break",
	KindContinue:   "Continue",
	KindInt:        "Int",
	KindFloat:      "Float",
	KindStr:        "Str",
	KindBool:       "Bool",
	KindNone:       "None",
	KindEllipsis:   "Ellipsis",
	KindName:       "Name",
	KindTuple:      "Tuple",
	KindBinOp:      "BinOp",
	KindUnary:      "Unary",
	KindCall:       "Call",
	KindAttr:       "Attr",
	KindSubscript:  "Subscript",
	KindIfExpr:     "IfExpr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsExpr reports whether nodes of kind k produce a value.
func (k Kind) IsExpr() bool { return k >= KindInt }

// IsLiteral reports whether k is a constant literal.
func (k Kind) IsLiteral() bool { return k >= KindInt && k <= KindEllipsis }
