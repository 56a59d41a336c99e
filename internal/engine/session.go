package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/modelsync/internal/constraint"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
)

// Persister receives the full session state after every committed
// operation. Persist runs in a background goroutine; the engine logs but
// never waits for its result.
type Persister interface {
	Persist(ctx context.Context, state ir.SessionState, op ir.Operation) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ctx context.Context, state ir.SessionState, op ir.Operation) error

// Persist calls f.
func (f PersisterFunc) Persist(ctx context.Context, state ir.SessionState, op ir.Operation) error {
	return f(ctx, state, op)
}

// Session is one editing session: the read-only meta and representation
// packages plus the instance pair mutated by the operations in this
// package.
//
// Every operation works on a clone of the instance pair, verifies the
// positional correspondence invariant on the clone and then swaps it in.
// A failed operation leaves the committed state untouched.
//
// Thread-safety: a Session is NOT safe for concurrent mutation. Use an
// Executor to share one session between goroutines.
type Session struct {
	key     string
	meta    *ir.MetaModel
	rep     *ir.RepresentationMetaModel
	inst    *ir.InstanceModel
	repInst *ir.RepresentationInstanceModel

	counters  map[string]int
	clock     *Clock
	ops       []ir.Operation
	evaluator *constraint.Evaluator
	persister Persister
	logger    *slog.Logger

	// Background persistence; see Flush.
	pending sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the logical clock. Used by tests and by Restore.
func WithClock(c *Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPersister installs the persistence hook fired after each commit.
func WithPersister(p Persister) Option {
	return func(s *Session) {
		s.persister = p
	}
}

// NewSession creates a session with empty instance packages whose URIs
// are derived from key.
func NewSession(key string, meta *ir.MetaModel, rep *ir.RepresentationMetaModel, opts ...Option) (*Session, error) {
	if key == "" {
		return nil, fmt.Errorf("session key is required")
	}
	if meta == nil || rep == nil {
		return nil, fmt.Errorf("session %s: meta-model and representation meta-model are required", key)
	}

	s := &Session{
		key:       key,
		meta:      meta,
		rep:       rep,
		inst:      &ir.InstanceModel{URI: InstanceURI(key), Objects: []ir.InstanceObject{}},
		repInst:   &ir.RepresentationInstanceModel{URI: RepresentationInstanceURI(key), Objects: []ir.RepresentationInstanceObject{}},
		counters:  make(map[string]int),
		clock:     NewClock(),
		evaluator: constraint.NewEvaluator(meta),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Restore rebuilds a session from persisted state. The state must satisfy
// the positional correspondence invariant; the clock resumes at state.Seq.
func Restore(state ir.SessionState, meta *ir.MetaModel, rep *ir.RepresentationMetaModel, opts ...Option) (*Session, error) {
	s, err := NewSession(state.Key, meta, rep, append([]Option{WithClock(NewClockAt(state.Seq))}, opts...)...)
	if err != nil {
		return nil, err
	}
	if state.MetaModel != "" && state.MetaModel != meta.URI {
		return nil, fmt.Errorf("restore session %s: saved with meta-model %s, got %s", state.Key, state.MetaModel, meta.URI)
	}
	if state.RepresentationMetaModel != "" && state.RepresentationMetaModel != rep.URI {
		return nil, fmt.Errorf("restore session %s: saved with representation %s, got %s", state.Key, state.RepresentationMetaModel, rep.URI)
	}

	snap := state.Snapshot.Clone()
	s.inst = &snap.InstanceModel
	s.repInst = &snap.RepresentationInstanceModel
	for k, v := range state.Counters {
		s.counters[k] = v
	}

	t := s.begin()
	if err := s.verify(t); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", state.Key, err)
	}
	return s, nil
}

// Key returns the session key.
func (s *Session) Key() string { return s.key }

// Seq returns the seq of the last committed operation.
func (s *Session) Seq() int64 { return s.clock.Current() }

// MetaModel returns the session's meta-model. Callers must not modify it.
func (s *Session) MetaModel() *ir.MetaModel { return s.meta }

// RepresentationMetaModel returns the session's representation meta-model.
func (s *Session) RepresentationMetaModel() *ir.RepresentationMetaModel { return s.rep }

// Snapshot returns a deep copy of the committed instance pair.
func (s *Session) Snapshot() ir.Snapshot {
	return ir.Snapshot{
		InstanceModel:               *s.inst.Clone(),
		RepresentationInstanceModel: *s.repInst.Clone(),
	}
}

// State returns the persistable session state including its digest.
func (s *Session) State() (ir.SessionState, error) {
	return s.state(s.Snapshot())
}

func (s *Session) state(snap ir.Snapshot) (ir.SessionState, error) {
	digest, err := ir.SnapshotDigest(snap)
	if err != nil {
		return ir.SessionState{}, fmt.Errorf("session %s: %w", s.key, err)
	}
	counters := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	return ir.SessionState{
		Key:                     s.key,
		Seq:                     s.clock.Current(),
		MetaModel:               s.meta.URI,
		RepresentationMetaModel: s.rep.URI,
		Snapshot:                snap,
		Counters:                counters,
		Digest:                  digest,
	}, nil
}

// Operations returns a copy of the operations committed by this session
// object, in seq order.
func (s *Session) Operations() []ir.Operation {
	out := make([]ir.Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Flush blocks until all background persistence calls have returned.
func (s *Session) Flush() {
	s.pending.Wait()
}

// Apply runs a logged operation. It is the single dispatch point used by
// the executor and by replay.
func (s *Session) Apply(op ir.Operation) (ir.Snapshot, error) {
	switch op.Kind {
	case ir.OpCreateNode:
		if op.Position == nil {
			return ir.Snapshot{}, opErr(op.Kind, ErrCodeInvalidPosition, nil, "position is required")
		}
		return s.CreateNode(op.Classifier, *op.Position)
	case ir.OpCreateEdge:
		return s.CreateEdge(op.Classifier, op.Source, op.Target)
	case ir.OpMoveNode:
		if op.Position == nil {
			return ir.Snapshot{}, opErr(op.Kind, ErrCodeInvalidPosition, nil, "position is required")
		}
		return s.MoveNode(op.Name, *op.Position)
	case ir.OpDeleteNode:
		return s.DeleteNode(op.Name)
	default:
		return ir.Snapshot{}, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// txn is the working copy of one operation.
type txn struct {
	inst     *ir.InstanceModel
	rep      *ir.RepresentationInstanceModel
	counters map[string]int
}

func (s *Session) begin() *txn {
	counters := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	return &txn{inst: s.inst.Clone(), rep: s.repInst.Clone(), counters: counters}
}

// commit verifies t, swaps it in, records op and fires persistence.
func (s *Session) commit(t *txn, op ir.Operation) (ir.Snapshot, error) {
	if err := s.verify(t); err != nil {
		return ir.Snapshot{}, opErr(op.Kind, ErrCodeInvariantBroken, err, "working copy discarded")
	}
	s.warnDanglingLinks(t)

	op.Seq = s.clock.Next()
	s.inst, s.repInst, s.counters = t.inst, t.rep, t.counters
	s.ops = append(s.ops, op)

	snap := s.Snapshot()
	s.persist(snap, op)
	return snap, nil
}

func (s *Session) persist(snap ir.Snapshot, op ir.Operation) {
	if s.persister == nil {
		return
	}
	state, err := s.state(snap.Clone())
	if err != nil {
		s.logger.Error("persist skipped", "session", s.key, "seq", op.Seq, "error", err)
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.persister.Persist(context.Background(), state, op); err != nil {
			s.logger.Error("persist failed",
				"session", s.key,
				"seq", op.Seq,
				"op", op.Kind,
				"error", err,
			)
		}
	}()
}

// verify checks the positional correspondence invariant and name
// uniqueness on a working copy.
func (s *Session) verify(t *txn) error {
	if len(t.inst.Objects) != len(t.rep.Objects) {
		return fmt.Errorf("instance has %d objects, representation has %d", len(t.inst.Objects), len(t.rep.Objects))
	}
	names := make(map[string]int, len(t.inst.Objects))
	for i := range t.inst.Objects {
		obj := &t.inst.Objects[i]
		if j, dup := names[obj.Name]; dup {
			return fmt.Errorf("objects %d and %d are both named %q", j, i, obj.Name)
		}
		names[obj.Name] = i

		if obj.Representation == nil {
			return fmt.Errorf("object %d (%s) has no representation", i, obj.Name)
		}
		idx, err := ref.ObjectIndex(obj.Representation.Ref, t.rep.URI, len(t.rep.Objects))
		if err != nil {
			return fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
		}
		if idx != i {
			return fmt.Errorf("object %d (%s) is represented by index %d", i, obj.Name, idx)
		}
	}
	return nil
}

// warnDanglingLinks logs links that do not resolve to an object of the
// instance package. They indicate corruption that predates the operation.
func (s *Session) warnDanglingLinks(t *txn) {
	for i := range t.inst.Objects {
		obj := &t.inst.Objects[i]
		for _, l := range obj.Links {
			if _, err := ref.ObjectIndex(l.Target.Ref, t.inst.URI, len(t.inst.Objects)); err != nil {
				s.logger.Warn("dangling link",
					"session", s.key,
					"object", obj.Name,
					"link", l.Name,
					"target", l.Target.Ref,
					"error", err,
				)
			}
		}
	}
}

// Counters returns the per-classifier name counters, sorted by classifier
// name for stable output.
func (s *Session) Counters() []Counter {
	out := make([]Counter, 0, len(s.counters))
	for k, v := range s.counters {
		out = append(out, Counter{Classifier: k, Last: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Classifier < out[j].Classifier })
	return out
}

// Counter is the last name suffix issued for a classifier.
type Counter struct {
	Classifier string `json:"classifier"`
	Last       int    `json:"last"`
}
