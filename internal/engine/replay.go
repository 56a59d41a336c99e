package engine

import (
	"fmt"
	"strings"

	"github.com/go-test/deep"

	"github.com/roach88/modelsync/internal/ir"
)

// Replay rebuilds a session by applying a recorded operation log to an
// empty session.
//
// Replay runs the same code path as live editing. Names and ids are
// derived deterministically, so each replayed create must issue the name
// that was recorded; any difference is a REPLAY_DIVERGED error. Moves
// replay the effective (post-fallback) position that was logged.
func Replay(key string, meta *ir.MetaModel, rep *ir.RepresentationMetaModel, ops []ir.Operation, opts ...Option) (*Session, error) {
	s, err := NewSession(key, meta, rep, opts...)
	if err != nil {
		return nil, err
	}

	var last int64
	for _, op := range ops {
		if op.Seq != 0 && op.Seq <= last {
			return nil, opErr(op.Kind, ErrCodeReplayDiverged, nil, "seq %d after %d", op.Seq, last)
		}
		last = op.Seq

		if _, err := s.Apply(op); err != nil {
			return nil, fmt.Errorf("replay seq %d: %w", op.Seq, err)
		}
		got := s.ops[len(s.ops)-1]
		if (op.Kind == ir.OpCreateNode || op.Kind == ir.OpCreateEdge) && op.Name != "" && got.Name != op.Name {
			return nil, opErr(op.Kind, ErrCodeReplayDiverged, nil, "seq %d created %s, log says %s", op.Seq, got.Name, op.Name)
		}
		if op.ObjectID != "" && got.ObjectID != op.ObjectID {
			return nil, opErr(op.Kind, ErrCodeReplayDiverged, nil, "seq %d object id %s, log says %s", op.Seq, got.ObjectID, op.ObjectID)
		}
	}
	return s, nil
}

// Verify compares a session's committed state with a stored state. It
// returns nil when the digests match and otherwise a REPLAY_DIVERGED error
// listing the structural differences.
func Verify(stored ir.SessionState, s *Session) error {
	got, err := s.State()
	if err != nil {
		return err
	}
	if got.Digest == stored.Digest {
		return nil
	}

	diff := deep.Equal(stored.Snapshot, got.Snapshot)
	msg := fmt.Sprintf("digest %s, stored %s", short(got.Digest), short(stored.Digest))
	if len(diff) > 0 {
		msg += "\n  " + strings.Join(diff, "\n  ")
	}
	return &OpError{Code: ErrCodeReplayDiverged, Op: "replay", Message: msg}
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
