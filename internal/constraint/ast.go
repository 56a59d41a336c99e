package constraint

import (
	"strconv"
	"strings"
)

// Expr is a node of the constraint AST. The set of implementations is
// closed: BinaryExpr, CallExpr, Identifier, Literal and SequenceExpr.
type Expr interface {
	Pos() int
	String() string
	expr()
}

// Operator is a binary operator.
type Operator string

const (
	OpOr        Operator = "or"
	OpAnd       Operator = "and"
	OpEq        Operator = "=="
	OpNe        Operator = "!="
	OpStrictEq  Operator = "==="
	OpStrictNe  Operator = "!=="
	OpLess      Operator = "<"
	OpGreater   Operator = ">"
	OpLessEq    Operator = "<="
	OpGreaterEq Operator = ">="
)

// BinaryExpr is "Left Op Right".
type BinaryExpr struct {
	Op       Operator
	Left     Expr
	Right    Expr
	Position int
}

// CallExpr is a method call on an object path, e.g. source.kindOf("Class").
type CallExpr struct {
	Receiver *Identifier
	Method   string
	Args     []Expr
	Position int
}

// Identifier is a dotted path such as source or self.target.
type Identifier struct {
	Path     []string
	Position int
}

// Literal is a string, number or boolean constant.
type Literal struct {
	Value    Value
	Position int
}

// SequenceExpr is a comma separated list; its value is the last element's.
type SequenceExpr struct {
	Exprs    []Expr
	Position int
}

func (e *BinaryExpr) Pos() int   { return e.Position }
func (e *CallExpr) Pos() int     { return e.Position }
func (e *Identifier) Pos() int   { return e.Position }
func (e *Literal) Pos() int      { return e.Position }
func (e *SequenceExpr) Pos() int { return e.Position }

func (*BinaryExpr) expr()   {}
func (*CallExpr) expr()     {}
func (*Identifier) expr()   {}
func (*Literal) expr()      {}
func (*SequenceExpr) expr() {}

// String renders the expression fully parenthesised. The output parses
// back to an equal tree.
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + string(e.Op) + " " + e.Right.String() + ")"
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Receiver.String() + "." + e.Method + "(" + strings.Join(args, ", ") + ")"
}

func (e *Identifier) String() string { return strings.Join(e.Path, ".") }

func (e *Literal) String() string {
	switch e.Value.Kind {
	case KindString:
		return strconv.Quote(e.Value.Str)
	case KindNumber:
		return strconv.FormatFloat(e.Value.Num, 'f', -1, 64)
	default:
		return e.Value.String()
	}
}

func (e *SequenceExpr) String() string {
	parts := make([]string, len(e.Exprs))
	for i, x := range e.Exprs {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
