// Package constraint parses and evaluates the boolean constraint language
// attached to meta-model classes.
//
// A constraint is evaluated against a pair of instance objects, for example
// the endpoints of an edge:
//
//	source.kindOf("Class") and target.kindOf("Interface")
//
// # Grammar
//
// Lowest to highest precedence:
//
//	sequence := or ("," or)*
//	or       := and (("or" | "||") and)*
//	and      := cmp (("and" | "&&") cmp)*
//	cmp      := primary (relop primary)?
//	relop    := "==" | "!=" | "===" | "!==" | "<" | ">" | "<=" | ">="
//	primary  := literal | path | path "." ident "(" args? ")" | "(" sequence ")"
//	path     := ident ("." ident)*
//	literal  := string | number | "true" | "false"
//
// Parsing produces a closed AST (BinaryExpr, CallExpr, Identifier, Literal,
// SequenceExpr). Anything else the lexer recognises from general-purpose
// expression languages (unary "!", arithmetic, indexing, ternaries) is
// reported as an UnsupportedError rather than silently approximated.
//
// # Evaluation
//
// Evaluation is a pure tree walk over a Context binding "source" and
// "target" (also reachable as "self.source" and "self.target"). The value of
// a sequence is the value of its last element. The only method is kindOf,
// which resolves the receiver's type reference through the meta-model and
// compares the class name.
package constraint
