package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/modelsync/internal/ir"
)

// OpError is returned by a failed engine operation. A failed operation
// never changes the committed session state.
type OpError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed.
	Op ir.OpKind

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (resolver or constraint error), if any.
	Err error
}

// ErrorCode categorizes operation errors.
type ErrorCode string

const (
	// ErrCodeClassifierNotFound indicates the classifier ref does not resolve
	// to an instantiable Class.
	ErrCodeClassifierNotFound ErrorCode = "CLASSIFIER_NOT_FOUND"

	// ErrCodeWrongRepresentation indicates a node operation on an edge class
	// or the reverse.
	ErrCodeWrongRepresentation ErrorCode = "WRONG_REPRESENTATION"

	// ErrCodeObjectNotFound indicates no instance object has the given name.
	ErrCodeObjectNotFound ErrorCode = "OBJECT_NOT_FOUND"

	// ErrCodeInvalidEndpoint indicates an edge endpoint that is not a node.
	ErrCodeInvalidEndpoint ErrorCode = "INVALID_ENDPOINT"

	// ErrCodeInvalidPosition indicates non-finite coordinates where no
	// previous position exists to fall back to.
	ErrCodeInvalidPosition ErrorCode = "INVALID_POSITION"

	// ErrCodeDanglingReference indicates a meta-level ref that does not
	// resolve (e.g. a class representation).
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// ErrCodeConstraintViolated indicates an edge class constraint that
	// evaluated to false or could not be evaluated.
	ErrCodeConstraintViolated ErrorCode = "CONSTRAINT_VIOLATED"

	// ErrCodeInvariantBroken indicates the working copy failed the
	// positional correspondence check; the operation was discarded.
	ErrCodeInvariantBroken ErrorCode = "INVARIANT_BROKEN"

	// ErrCodeReplayDiverged indicates a replayed operation produced a
	// different result than the one recorded.
	ErrCodeReplayDiverged ErrorCode = "REPLAY_DIVERGED"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op ir.OpKind, code ErrorCode, err error, format string, args ...any) *OpError {
	return &OpError{Code: code, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsCode reports whether err is an OpError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsConstraintViolation reports whether err is a constraint failure.
func IsConstraintViolation(err error) bool {
	return IsCode(err, ErrCodeConstraintViolated)
}

// ErrExecutorStopped is returned by Submit after the executor stopped.
var ErrExecutorStopped = errors.New("executor stopped")
