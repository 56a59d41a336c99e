package constraint

import (
	"fmt"
	"strings"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
)

// Context binds the objects a constraint is evaluated against.
type Context struct {
	Source *ir.InstanceObject
	Target *ir.InstanceObject
}

// Evaluator evaluates parsed constraints. It is stateless apart from the
// meta-models used to resolve type references and is safe for concurrent
// use.
type Evaluator struct {
	metas []ir.Tree
}

// NewEvaluator returns an evaluator resolving object types through metas.
func NewEvaluator(metas ...*ir.MetaModel) *Evaluator {
	e := &Evaluator{}
	for _, m := range metas {
		if m != nil {
			e.metas = append(e.metas, m)
		}
	}
	return e
}

// Evaluate evaluates expr with a single meta-model.
func Evaluate(expr Expr, ctx Context, meta *ir.MetaModel) (Value, error) {
	return NewEvaluator(meta).Eval(expr, ctx)
}

// Check parses and evaluates src, requiring a boolean result.
func (ev *Evaluator) Check(src string, ctx Context) (bool, error) {
	expr, err := Parse(src)
	if err != nil {
		return false, err
	}
	return ev.EvalBool(expr, ctx)
}

// EvalBool evaluates expr and requires a boolean result.
func (ev *Evaluator) EvalBool(expr Expr, ctx Context) (bool, error) {
	v, err := ev.Eval(expr, ctx)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, &TypeError{Pos: expr.Pos(), Op: "constraint", Message: "result is " + v.Kind.String() + ", want boolean"}
	}
	return v.Bool, nil
}

// Eval evaluates expr against ctx.
func (ev *Evaluator) Eval(expr Expr, ctx Context) (Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *Identifier:
		return lookup(e, ctx)
	case *BinaryExpr:
		return ev.binary(e, ctx)
	case *CallExpr:
		return ev.call(e, ctx)
	case *SequenceExpr:
		var last Value
		for _, x := range e.Exprs {
			v, err := ev.Eval(x, ctx)
			if err != nil {
				return Value{}, err
			}
			last = v
		}
		return last, nil
	default:
		return Value{}, &UnsupportedError{Pos: expr.Pos(), Construct: fmt.Sprintf("node %T", expr)}
	}
}

func lookup(id *Identifier, ctx Context) (Value, error) {
	path := id.Path
	if len(path) == 2 && path[0] == "self" {
		path = path[1:]
	}
	if len(path) == 1 {
		var obj *ir.InstanceObject
		switch path[0] {
		case ir.LinkSource:
			obj = ctx.Source
		case ir.LinkTarget:
			obj = ctx.Target
		default:
			return Value{}, &UnsupportedError{Pos: id.Position, Construct: "identifier " + id.String()}
		}
		if obj == nil {
			return Null, nil
		}
		return Object(obj), nil
	}
	return Value{}, &UnsupportedError{Pos: id.Position, Construct: "identifier " + id.String()}
}

func (ev *Evaluator) binary(e *BinaryExpr, ctx Context) (Value, error) {
	left, err := ev.Eval(e.Left, ctx)
	if err != nil {
		return Value{}, err
	}

	if e.Op == OpAnd || e.Op == OpOr {
		if left.Kind != KindBool {
			return Value{}, operandError(e, left, "left")
		}
		if (e.Op == OpAnd && !left.Bool) || (e.Op == OpOr && left.Bool) {
			return left, nil
		}
		right, err := ev.Eval(e.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		if right.Kind != KindBool {
			return Value{}, operandError(e, right, "right")
		}
		return right, nil
	}

	right, err := ev.Eval(e.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpEq, OpStrictEq:
		return Bool(left.equal(right)), nil
	case OpNe, OpStrictNe:
		return Bool(!left.equal(right)), nil
	}

	if left.Kind != right.Kind || (left.Kind != KindNumber && left.Kind != KindString) {
		return Value{}, &TypeError{
			Pos: e.Position, Op: string(e.Op),
			Message: "cannot compare " + left.Kind.String() + " with " + right.Kind.String(),
		}
	}
	var c int
	if left.Kind == KindNumber {
		switch {
		case left.Num < right.Num:
			c = -1
		case left.Num > right.Num:
			c = 1
		}
	} else {
		c = strings.Compare(left.Str, right.Str)
	}
	switch e.Op {
	case OpLess:
		return Bool(c < 0), nil
	case OpGreater:
		return Bool(c > 0), nil
	case OpLessEq:
		return Bool(c <= 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

func operandError(e *BinaryExpr, v Value, side string) error {
	return &TypeError{Pos: e.Position, Op: string(e.Op), Message: side + " operand is " + v.Kind.String() + ", want boolean"}
}

// method implements a call on an object receiver.
type method func(ev *Evaluator, call *CallExpr, recv Value, args []Value) (Value, error)

var methods = map[string]method{
	"kindOf": kindOf,
}

func (ev *Evaluator) call(e *CallExpr, ctx Context) (Value, error) {
	m, ok := methods[e.Method]
	if !ok {
		return Value{}, &UnsupportedError{Pos: e.Position, Construct: "method " + e.Method}
	}
	recv, err := lookup(e.Receiver, ctx)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = ev.Eval(a, ctx); err != nil {
			return Value{}, err
		}
	}
	return m(ev, e, recv, args)
}

// kindOf reports whether the receiver's classifier is named like the
// argument. An unbound receiver is of no kind.
func kindOf(ev *Evaluator, call *CallExpr, recv Value, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindString {
		return Value{}, &TypeError{Pos: call.Position, Op: "kindOf", Message: "want exactly one string argument"}
	}
	switch recv.Kind {
	case KindNull:
		return Bool(false), nil
	case KindObject:
	default:
		return Value{}, &TypeError{Pos: call.Position, Op: "kindOf", Message: "receiver is " + recv.Kind.String()}
	}

	n, _, err := ref.ResolveAny(recv.Obj.Type.Ref, ev.metas...)
	if err != nil {
		return Value{}, fmt.Errorf("kindOf %s: %w", recv.Obj.Name, err)
	}
	cls, ok := n.(*ir.Classifier)
	if !ok {
		return Value{}, fmt.Errorf("kindOf %s: type %s is a %s, not a classifier", recv.Obj.Name, recv.Obj.Type.Ref, n.NodeKind())
	}
	return Bool(cls.Name == args[0].Str), nil
}
