// Package engine implements the consistency engine that keeps an
// InstanceModel and its RepresentationInstanceModel in step.
//
// The two packages are index-aligned: objects[i] of the instance package is
// drawn by objects[i] of the representation-instance package, and
// objects[i].representation is the positional ref "<uri>#/objects/i".
// Edges point at their endpoints with positional "source" and "target"
// links.
//
// OPERATIONS:
//
//   - CreateNode: append a node and its ClassNode representation at the same index
//   - CreateEdge: append an edge after checking endpoints and class constraints
//   - MoveNode: reposition a node, keeping the previous value of invalid coordinates
//   - DeleteNode: remove an object, cascade to dependent edges, renormalize refs
//
// Every operation mutates a working copy, verifies positional
// correspondence on it and commits by swapping it in, so a failed
// operation never leaves partial state. Index renormalization happens only
// in DeleteNode, from one old->new index map computed before any removal.
//
// Committed operations are stamped by a logical Clock and recorded as
// ir.Operation entries; Replay applies such a log to a fresh session and
// Verify compares the result with stored state.
//
// CONCURRENCY:
//
// A Session is single-threaded. Executor puts a FIFO queue and one run
// loop in front of it for callers on several goroutines. Persistence is
// fire-and-forget: each commit hands a copy of the state to the Persister
// on a background goroutine, and Flush waits for outstanding writes.
package engine
