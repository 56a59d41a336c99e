package ref

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrReferenceMismatch: the ref's URI names a different package.
	ErrReferenceMismatch = errors.New("reference mismatch")

	// ErrDanglingReference: the URI matches but the pointer does not resolve.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrMalformedReference: the ref string is not "<uri>#<pointer>".
	ErrMalformedReference = errors.New("malformed reference")
)

// Cause explains why a pointer segment could not be followed.
type Cause string

const (
	CauseUnknownField     Cause = "UNKNOWN_FIELD"      // no such field on this node kind
	CauseAbsent           Cause = "ABSENT"             // optional field not set
	CauseNotAnIndex       Cause = "NOT_AN_INDEX"       // sequence indexed by a non-integer
	CauseIndexOutOfRange  Cause = "INDEX_OUT_OF_RANGE" // sequence index past the end
	CauseNotTraversable   Cause = "NOT_TRAVERSABLE"    // scalar has no children
	CauseWrongKind        Cause = "WRONG_KIND"         // resolved node has an unexpected kind
	CauseNotObjectPointer Cause = "NOT_OBJECT_POINTER" // pointer is not /objects/<n>
)

// MismatchError reports a reference whose URI does not belong to the root.
type MismatchError struct {
	Ref        string
	URI        string // URI part of Ref
	PackageURI string // URI of the package it was resolved against
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %q does not belong to package %q", ErrReferenceMismatch, e.Ref, e.PackageURI)
}

// Is makes errors.Is(err, ErrReferenceMismatch) work.
func (e *MismatchError) Is(target error) bool {
	return target == ErrReferenceMismatch
}

// DanglingError reports the first pointer segment that could not be followed.
type DanglingError struct {
	Ref      string
	Segment  string // offending segment ("" when the whole ref is at fault)
	Position int    // zero-based segment index
	Cause    Cause
	Detail   string
}

func (e *DanglingError) Error() string {
	msg := fmt.Sprintf("%s: %q at segment %d (%q): %s", ErrDanglingReference, e.Ref, e.Position, e.Segment, e.Cause)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is makes errors.Is(err, ErrDanglingReference) work.
func (e *DanglingError) Is(target error) bool {
	return target == ErrDanglingReference
}

// MalformedError reports a syntactically invalid reference.
type MalformedError struct {
	Ref    string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrMalformedReference, e.Ref, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedReference) work.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedReference
}

// IsMismatch reports whether err is a reference mismatch.
func IsMismatch(err error) bool {
	return errors.Is(err, ErrReferenceMismatch)
}

// IsDangling reports whether err is a dangling reference.
// Uses errors.As to handle wrapped errors.
func IsDangling(err error) bool {
	var de *DanglingError
	return errors.As(err, &de)
}
