package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/modelsync/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveSession writes the full session state. The write only takes effect
// when state.Seq is newer than the stored seq (or the session is new).
//
// Returns written=false when a newer state is already stored.
func (s *Store) SaveSession(ctx context.Context, state ir.SessionState) (written bool, err error) {
	return saveSession(ctx, s.db, state)
}

func saveSession(ctx context.Context, db execer, state ir.SessionState) (bool, error) {
	inst, err := marshalCanonical("instance model", state.Snapshot.InstanceModel)
	if err != nil {
		return false, fmt.Errorf("save session %s: %w", state.Key, err)
	}
	rep, err := marshalCanonical("representation instance model", state.Snapshot.RepresentationInstanceModel)
	if err != nil {
		return false, fmt.Errorf("save session %s: %w", state.Key, err)
	}
	counters := state.Counters
	if counters == nil {
		counters = map[string]int{}
	}
	countersJSON, err := marshalCanonical("counters", counters)
	if err != nil {
		return false, fmt.Errorf("save session %s: %w", state.Key, err)
	}

	// The WHERE guard makes stale background writes no-ops.
	result, err := db.ExecContext(ctx, `
		INSERT INTO sessions
		(key, seq, meta_uri, representation_uri, instance_model, representation_instance_model,
		 counters, digest, engine_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			seq = excluded.seq,
			meta_uri = excluded.meta_uri,
			representation_uri = excluded.representation_uri,
			instance_model = excluded.instance_model,
			representation_instance_model = excluded.representation_instance_model,
			counters = excluded.counters,
			digest = excluded.digest,
			engine_version = excluded.engine_version,
			format_version = excluded.format_version
		WHERE excluded.seq > sessions.seq
	`,
		state.Key,
		state.Seq,
		state.MetaModel,
		state.RepresentationMetaModel,
		inst,
		rep,
		countersJSON,
		state.Digest,
		ir.EngineVersion,
		ir.FormatVersion,
	)
	if err != nil {
		return false, fmt.Errorf("save session %s: %w", state.Key, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save session %s: rows affected: %w", state.Key, err)
	}
	return n > 0, nil
}

// AppendOperation records one entry of a session's operation log.
// Uses ON CONFLICT DO NOTHING for idempotency - a seq is written once.
//
// The session row must exist (foreign key constraint).
func (s *Store) AppendOperation(ctx context.Context, key string, op ir.Operation) error {
	return appendOperation(ctx, s.db, key, op)
}

func appendOperation(ctx context.Context, db execer, key string, op ir.Operation) error {
	payload, err := marshalCanonical("operation", op)
	if err != nil {
		return fmt.Errorf("append operation %d: %w", op.Seq, err)
	}
	digest, err := ir.OperationDigest(op)
	if err != nil {
		return fmt.Errorf("append operation %d: %w", op.Seq, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO operations
		(session_key, seq, kind, object_id, payload, digest)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_key, seq) DO NOTHING
	`,
		key,
		op.Seq,
		string(op.Kind),
		op.ObjectID,
		payload,
		digest,
	)
	if err != nil {
		return fmt.Errorf("append operation %d: %w", op.Seq, err)
	}
	return nil
}

// Commit writes the session state and its operation log entry in a single
// transaction. The log entry is written even when the state is stale, so
// late writes still complete the log.
func (s *Store) Commit(ctx context.Context, state ir.SessionState, op ir.Operation) (written bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("commit session %s: begin tx: %w", state.Key, err)
	}
	defer tx.Rollback()

	written, err = saveSession(ctx, tx, state)
	if err != nil {
		return false, err
	}
	if err := appendOperation(ctx, tx, state.Key, op); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit session %s: %w", state.Key, err)
	}
	return written, nil
}

// Persist implements engine.Persister.
func (s *Store) Persist(ctx context.Context, state ir.SessionState, op ir.Operation) error {
	_, err := s.Commit(ctx, state, op)
	return err
}

// DeleteSession removes a session and its operation log.
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) DeleteSession(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: rows affected: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("delete session %s: %w", key, ErrSessionNotFound)
	}
	return nil
}
