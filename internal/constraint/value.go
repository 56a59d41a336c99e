package constraint

import (
	"strconv"

	"github.com/roach88/modelsync/internal/ir"
)

// ValueKind classifies evaluation values.
type ValueKind int

const (
	KindBool ValueKind = iota
	KindNumber
	KindString
	KindObject
	KindNull
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is the result of evaluating an expression.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Str  string
	Obj  *ir.InstanceObject
}

func Bool(b bool) Value                 { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value            { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value             { return Value{Kind: KindString, Str: s} }
func Object(o *ir.InstanceObject) Value { return Value{Kind: KindObject, Obj: o} }

// Null is the value of an unbound endpoint.
var Null = Value{Kind: KindNull}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindObject:
		return v.Obj.Name
	default:
		return "null"
	}
}

// equal is strict equality: values of different kinds are never equal and
// objects compare by identity.
func (v Value) equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindObject:
		return v.Obj == o.Obj
	default:
		return true
	}
}
