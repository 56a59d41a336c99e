package constraint

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrSyntax      = errors.New("constraint syntax error")
	ErrUnsupported = errors.New("unsupported constraint construct")
	ErrType        = errors.New("constraint type error")
)

// SyntaxError reports malformed constraint text.
type SyntaxError struct {
	Pos     int // byte offset in the source
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d: %s", ErrSyntax, e.Pos, e.Message)
}

// Is makes errors.Is(err, ErrSyntax) work.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// UnsupportedError reports an operator, method, identifier or node type the
// language deliberately does not implement. It is fatal to the evaluation
// in progress only.
type UnsupportedError struct {
	Pos       int
	Construct string // e.g. "operator !", "method typeName", "identifier self"
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s at %d: %s", ErrUnsupported, e.Pos, e.Construct)
}

// Is makes errors.Is(err, ErrUnsupported) work.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// TypeError reports operands of the wrong kind for an operator or method.
type TypeError struct {
	Pos     int
	Op      string
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s at %d: %s: %s", ErrType, e.Pos, e.Op, e.Message)
}

// Is makes errors.Is(err, ErrType) work.
func (e *TypeError) Is(target error) bool { return target == ErrType }

// IsUnsupported reports whether err is an unsupported-construct error.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
