package constraint

// Inspect traverses expr depth-first, calling fn for each node. Children
// are skipped when fn returns false.
func Inspect(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	switch e := expr.(type) {
	case *BinaryExpr:
		Inspect(e.Left, fn)
		Inspect(e.Right, fn)
	case *CallExpr:
		Inspect(e.Receiver, fn)
		for _, a := range e.Args {
			Inspect(a, fn)
		}
	case *SequenceExpr:
		for _, x := range e.Exprs {
			Inspect(x, fn)
		}
	}
}

// Check reports the first identifier or method in expr that evaluation
// would reject as unsupported. It does not evaluate anything.
func Check(expr Expr) error {
	var err error
	Inspect(expr, func(n Expr) bool {
		if err != nil {
			return false
		}
		switch e := n.(type) {
		case *Identifier:
			_, err = lookup(e, Context{})
		case *CallExpr:
			if _, ok := methods[e.Method]; !ok {
				err = &UnsupportedError{Pos: e.Position, Construct: "method " + e.Method}
			}
		}
		return err == nil
	})
	return err
}

// KindNames returns the string literal arguments of kindOf calls in expr,
// in source order.
func KindNames(expr Expr) []string {
	var out []string
	Inspect(expr, func(n Expr) bool {
		call, ok := n.(*CallExpr)
		if !ok || call.Method != "kindOf" {
			return true
		}
		for _, a := range call.Args {
			if lit, ok := a.(*Literal); ok && lit.Value.Kind == KindString {
				out = append(out, lit.Value.Str)
			}
		}
		return true
	})
	return out
}
