// Package store provides SQLite-backed persistence for editing sessions.
//
// Two tables:
//   - sessions: the latest instance/representation pair of each session
//     key, written in full after every operation
//   - operations: the append-only operation log, keyed by (session, seq)
//
// # Ordering
//
// All ordering uses the logical seq of the operation, never timestamps.
// Session writes are guarded by seq: a write carrying an older seq than the
// stored row is ignored, so out-of-order background persistence can never
// regress a session.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Documents are stored as RFC 8785 canonical JSON (ir.MarshalCanonical),
// so the stored digest can be recomputed from the stored text.
package store
