package main

import (
	"strconv"
	"strings"
)

// Node is any syntax node handed to the translator by the parser.
// Nodes are never mutated once built.
type Node interface {
	Kind() string
}

// Stmt is a node valid at statement position.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Module is the root of a translation unit.
type Module struct {
	Body []Stmt
}

func (*Module) Kind() string { return "Module" }

// Statements

// Assign binds Value to Target.
//
//	x = 5
//	^   ^
//	|   Value
//	Target
type Assign struct {
	Target Expr
	Value  Expr
}

// AugAssign is an in-place update such as x += 1.
type AugAssign struct {
	Op     string
	Target Expr
	Value  Expr
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Value Expr
}

// Param is one positional parameter of a function definition.
type Param struct {
	Name    string
	Default Expr // nil when required
}

// FunctionDef declares a function.
//
//	def f(a, b=1, *rest, **opts):
type FunctionDef struct {
	Name   string
	Params []Param
	VarArg string // "" when absent
	KwArg  string // "" when absent
	Body   []Stmt
}

type Return struct {
	Value Expr // nil for a bare return
}

// For iterates Target over the elements of Iter.
type For struct {
	Target Expr
	Iter   Expr
	Body   []Stmt
}

type While struct {
	Cond Expr
	Body []Stmt
}

type If struct {
	Cond Expr
	Body []Stmt
	Else []Stmt
}

type Break struct{}

type Continue struct{}

type Pass struct{}

// ExceptHandler is one except clause. Type is nil for a bare except.
type ExceptHandler struct {
	Type Expr
	Name string
	Body []Stmt
}

type Try struct {
	Body     []Stmt
	Handlers []ExceptHandler
}

type Raise struct {
	Exc Expr // nil for a bare re-raise
}

type Assert struct {
	Test Expr
	Msg  Expr // nil when omitted
}

func (*Assign) Kind() string      { return "Assign" }
func (*AugAssign) Kind() string   { return "AugAssign" }
func (*ExprStmt) Kind() string    { return "Expr" }
func (*FunctionDef) Kind() string { return "FunctionDef" }
func (*Return) Kind() string      { return "Return" }
func (*For) Kind() string         { return "For" }
func (*While) Kind() string       { return "While" }
func (*If) Kind() string          { return "If" }
func (*Break) Kind() string       { return "Break" }
func (*Continue) Kind() string    { return "Continue" }
func (*Pass) Kind() string        { return "Pass" }
func (*Try) Kind() string         { return "Try" }
func (*Raise) Kind() string       { return "Raise" }
func (*Assert) Kind() string      { return "Assert" }

func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}
func (*FunctionDef) stmtNode() {}
func (*Return) stmtNode()      {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}

// Expressions

type Name struct {
	ID string
}

// ConstKind tags the payload of a Constant.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
	ConstBool
)

// Constant is a literal. Only the field matching Kind is meaningful.
type Constant struct {
	Const ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type List struct {
	Elts []Expr
}

type Tuple struct {
	Elts []Expr
}

// Dict keeps keys and values as parallel slices in source order.
type Dict struct {
	Keys   []Expr
	Values []Expr
}

type BinOp struct {
	Op    string // Add, Sub, Mult, ...
	Left  Expr
	Right Expr
}

type UnaryOp struct {
	Op      string // UAdd, USub, Not
	Operand Expr
}

// Compare holds a comparison chain. Only chains of length one are
// translatable.
type Compare struct {
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// Keyword is a name=value call argument. Arg is "" for **splat.
type Keyword struct {
	Arg   string
	Value Expr
}

type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// JoinedStr is an f-string. Values holds string Constants and
// FormattedValues in source order.
type JoinedStr struct {
	Values []Expr
}

type FormattedValue struct {
	Value      Expr
	Conversion rune // 0, 's', 'r' or 'a'
	FormatSpec Expr
}

func (*Name) Kind() string           { return "Name" }
func (*Constant) Kind() string       { return "Constant" }
func (*List) Kind() string           { return "List" }
func (*Tuple) Kind() string          { return "Tuple" }
func (*Dict) Kind() string           { return "Dict" }
func (*BinOp) Kind() string          { return "BinOp" }
func (*UnaryOp) Kind() string        { return "UnaryOp" }
func (*Compare) Kind() string        { return "Compare" }
func (*Call) Kind() string           { return "Call" }
func (*JoinedStr) Kind() string      { return "JoinedStr" }
func (*FormattedValue) Kind() string { return "FormattedValue" }

func (*Name) exprNode()           {}
func (*Constant) exprNode()       {}
func (*List) exprNode()           {}
func (*Tuple) exprNode()          {}
func (*Dict) exprNode()           {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*Compare) exprNode()        {}
func (*Call) exprNode()           {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}

// Constructors used by tests and the decoder.

func IntConst(v int64) *Constant      { return &Constant{Const: ConstInt, Int: v} }
func FloatConst(v float64) *Constant  { return &Constant{Const: ConstFloat, Float: v} }
func StrConst(s string) *Constant     { return &Constant{Const: ConstString, Str: s} }
func BoolConst(b bool) *Constant      { return &Constant{Const: ConstBool, Bool: b} }
func NoneConst() *Constant            { return &Constant{Const: ConstNone} }
func Ident(id string) *Name           { return &Name{ID: id} }
func ExprOf(e Expr) *ExprStmt         { return &ExprStmt{Value: e} }
func CallOf(name string, args ...Expr) *Call {
	return &Call{Func: Ident(name), Args: args}
}

// ToSExpr renders a node in the same s-expression form accepted by Decode.
func ToSExpr(node Node) string {
	switch n := node.(type) {
	case *Module:
		return "(module" + stmtsSExpr(n.Body) + ")"
	case *Assign:
		return "(assign " + ToSExpr(n.Target) + " " + ToSExpr(n.Value) + ")"
	case *AugAssign:
		return "(augassign " + n.Op + " " + ToSExpr(n.Target) + " " + ToSExpr(n.Value) + ")"
	case *ExprStmt:
		return "(expr " + ToSExpr(n.Value) + ")"
	case *FunctionDef:
		var sb strings.Builder
		sb.WriteString("(def " + quote(n.Name) + " (params")
		for _, p := range n.Params {
			if p.Default == nil {
				sb.WriteString(" " + quote(p.Name))
			} else {
				sb.WriteString(" (" + quote(p.Name) + " " + ToSExpr(p.Default) + ")")
			}
		}
		sb.WriteString(")")
		if n.VarArg != "" {
			sb.WriteString(" (vararg " + quote(n.VarArg) + ")")
		}
		if n.KwArg != "" {
			sb.WriteString(" (kwarg " + quote(n.KwArg) + ")")
		}
		sb.WriteString(" (body" + stmtsSExpr(n.Body) + "))")
		return sb.String()
	case *Return:
		if n.Value == nil {
			return "(return)"
		}
		return "(return " + ToSExpr(n.Value) + ")"
	case *For:
		return "(for " + ToSExpr(n.Target) + " " + ToSExpr(n.Iter) + " (body" + stmtsSExpr(n.Body) + "))"
	case *While:
		return "(while " + ToSExpr(n.Cond) + " (body" + stmtsSExpr(n.Body) + "))"
	case *If:
		result := "(if " + ToSExpr(n.Cond) + " (body" + stmtsSExpr(n.Body) + ")"
		if len(n.Else) > 0 {
			result += " (else" + stmtsSExpr(n.Else) + ")"
		}
		return result + ")"
	case *Break:
		return "(break)"
	case *Continue:
		return "(continue)"
	case *Pass:
		return "(pass)"
	case *Try:
		result := "(try (body" + stmtsSExpr(n.Body) + ")"
		for _, h := range n.Handlers {
			result += " (except"
			if h.Type != nil {
				result += " " + ToSExpr(h.Type)
			}
			if h.Name != "" {
				result += " " + quote(h.Name)
			}
			result += " (body" + stmtsSExpr(h.Body) + "))"
		}
		return result + ")"
	case *Raise:
		if n.Exc == nil {
			return "(raise)"
		}
		return "(raise " + ToSExpr(n.Exc) + ")"
	case *Assert:
		if n.Msg == nil {
			return "(assert " + ToSExpr(n.Test) + ")"
		}
		return "(assert " + ToSExpr(n.Test) + " " + ToSExpr(n.Msg) + ")"
	case *Name:
		return "(name " + quote(n.ID) + ")"
	case *Constant:
		switch n.Const {
		case ConstInt:
			return "(int " + strconv.FormatInt(n.Int, 10) + ")"
		case ConstFloat:
			return "(float " + quote(strconv.FormatFloat(n.Float, 'g', -1, 64)) + ")"
		case ConstString:
			return "(str " + quote(n.Str) + ")"
		case ConstBool:
			if n.Bool {
				return "(true)"
			}
			return "(false)"
		default:
			return "(none)"
		}
	case *List:
		return "(list" + exprsSExpr(n.Elts) + ")"
	case *Tuple:
		return "(tuple" + exprsSExpr(n.Elts) + ")"
	case *Dict:
		result := "(dict"
		for i := range n.Keys {
			result += " (pair " + ToSExpr(n.Keys[i]) + " " + ToSExpr(n.Values[i]) + ")"
		}
		return result + ")"
	case *BinOp:
		return "(binop " + n.Op + " " + ToSExpr(n.Left) + " " + ToSExpr(n.Right) + ")"
	case *UnaryOp:
		return "(unary " + n.Op + " " + ToSExpr(n.Operand) + ")"
	case *Compare:
		if len(n.Ops) == 0 || len(n.Ops) != len(n.Comparators) {
			return "(compare " + ToSExpr(n.Left) + ")"
		}
		result := "(compare " + n.Ops[0] + " " + ToSExpr(n.Left) + " " + ToSExpr(n.Comparators[0])
		for i := 1; i < len(n.Ops); i++ {
			result += " " + n.Ops[i] + " " + ToSExpr(n.Comparators[i])
		}
		return result + ")"
	case *Call:
		result := "(call " + ToSExpr(n.Func) + exprsSExpr(n.Args)
		for _, kw := range n.Keywords {
			if kw.Arg == "" {
				result += " (kwsplat " + ToSExpr(kw.Value) + ")"
			} else {
				result += " (kw " + quote(kw.Arg) + " " + ToSExpr(kw.Value) + ")"
			}
		}
		return result + ")"
	case *JoinedStr:
		return "(fstr" + exprsSExpr(n.Values) + ")"
	case *FormattedValue:
		result := "(fmt " + ToSExpr(n.Value)
		if n.Conversion != 0 {
			result += " (conv " + quote(string(n.Conversion)) + ")"
		}
		if n.FormatSpec != nil {
			result += " (spec " + ToSExpr(n.FormatSpec) + ")"
		}
		return result + ")"
	default:
		return ""
	}
}

func stmtsSExpr(stmts []Stmt) string {
	var sb strings.Builder
	for _, s := range stmts {
		sb.WriteString(" ")
		sb.WriteString(ToSExpr(s))
	}
	return sb.String()
}

func exprsSExpr(exprs []Expr) string {
	var sb strings.Builder
	for _, e := range exprs {
		sb.WriteString(" ")
		sb.WriteString(ToSExpr(e))
	}
	return sb.String()
}

func quote(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	escaped = strings.ReplaceAll(escaped, "\t", "\\t")
	return "\"" + escaped + "\""
}
