package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/modelsync/internal/ir"
)

// LoadSession reads the latest stored state of a session.
// Returns ErrSessionNotFound if the key is unknown.
//
// The digest is recomputed from the stored documents; a mismatch means
// the row was modified outside the store and is reported as an error.
func (s *Store) LoadSession(ctx context.Context, key string) (ir.SessionState, error) {
	var (
		state                          ir.SessionState
		instJSON, repJSON, countersRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, seq, meta_uri, representation_uri, instance_model,
		       representation_instance_model, counters, digest
		FROM sessions
		WHERE key = ?
	`, key).Scan(
		&state.Key,
		&state.Seq,
		&state.MetaModel,
		&state.RepresentationMetaModel,
		&instJSON,
		&repJSON,
		&countersRaw,
		&state.Digest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, ErrSessionNotFound)
	}
	if err != nil {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, err)
	}

	if state.Snapshot.InstanceModel, err = unmarshalInstance(instJSON); err != nil {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, err)
	}
	if state.Snapshot.RepresentationInstanceModel, err = unmarshalRepresentation(repJSON); err != nil {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, err)
	}
	if state.Counters, err = unmarshalCounters(countersRaw); err != nil {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, err)
	}

	digest, err := ir.SnapshotDigest(state.Snapshot)
	if err != nil {
		return ir.SessionState{}, fmt.Errorf("load session %s: %w", key, err)
	}
	if digest != state.Digest {
		return ir.SessionState{}, fmt.Errorf("load session %s: stored digest %s does not match content %s", key, state.Digest, digest)
	}
	return state, nil
}

// ReadOperations returns the operation log of a session ordered by seq.
// Returns an empty slice (not nil) if there are no entries.
func (s *Store) ReadOperations(ctx context.Context, key string) ([]ir.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload, digest
		FROM operations
		WHERE session_key = ?
		ORDER BY seq ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []ir.Operation{}
	for rows.Next() {
		var payload, digest string
		if err := rows.Scan(&payload, &digest); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op, err := unmarshalOperation(payload)
		if err != nil {
			return nil, err
		}
		if got, err := ir.OperationDigest(op); err != nil || got != digest {
			return nil, fmt.Errorf("operation %d of %s: digest mismatch", op.Seq, key)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	Key        string `json:"key"`
	Seq        int64  `json:"seq"`
	MetaURI    string `json:"metaModel"`
	Digest     string `json:"digest"`
	Operations int    `json:"operations"`
}

// ListSessions returns all stored sessions ordered by key.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.key, s.seq, s.meta_uri, s.digest, COUNT(o.seq)
		FROM sessions s
		LEFT JOIN operations o ON o.session_key = s.key
		GROUP BY s.key
		ORDER BY s.key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.Key, &sum.Seq, &sum.MetaURI, &sum.Digest, &sum.Operations); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
