// Package ref resolves cross-model references into nodes of a model tree.
//
// A reference has the form "<uri>#<json-pointer>", for example
//
//	urn:session:default/instance#/objects/3/attributes/1
//
// Resolution first compares <uri> with the root package URI. A mismatch is a
// normal outcome (MismatchError, matching ErrReferenceMismatch) that callers
// use to route a reference to the package that owns it. On a match the
// pointer is walked segment by segment over the closed set of node kinds in
// internal/ir; the first segment that cannot be followed yields a
// DanglingError naming the segment and a typed Cause.
//
// Resolution is a pure function of (root, ref). It never mutates the tree and
// keeps no state, so concurrent readers are safe as long as nobody writes.
package ref
