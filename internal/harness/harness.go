package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/notation"
	"github.com/roach88/modelsync/internal/store"
)

// Harness is the scenario execution context.
type Harness struct {
	store    *store.Store
	executor *engine.Executor
	notation *notation.Notation
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes engine logs to l. Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and validate the notation
// 2. Create a session persisting into the store, start an executor
// 3. Submit each step and check its expect clause
// 4. Flush persistence and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	n, err := notation.Load(scenario.Notation)
	if err != nil {
		return nil, fmt.Errorf("failed to load notation: %w", err)
	}
	if errs := notation.Errors(notation.Validate(n)); len(errs) > 0 {
		return nil, fmt.Errorf("invalid notation %s: %w", scenario.Notation, errs[0])
	}
	return RunNotation(ctx, scenario, n, opts...)
}

// RunNotation executes a scenario against an already loaded notation.
func RunNotation(ctx context.Context, scenario *Scenario, n *notation.Notation, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		notation: n,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}

	sess, err := engine.NewSession(scenario.Session, n.MetaModel, n.Representation,
		engine.WithLogger(h.logger),
		engine.WithPersister(st),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	h.executor = engine.NewExecutor(sess)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.executor.Run(runCtx)
	}()

	result := NewResult()
	stepErr := h.executeSteps(ctx, scenario.Steps, result)

	h.executor.Stop()
	<-done
	cancel()
	h.executor.Flush()

	if stepErr != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", stepErr)
	}

	result.Snapshot = sess.Snapshot()
	result.Digest, err = ir.SnapshotDigest(result.Snapshot)
	if err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Ctx:      ctx,
		Store:    st,
		Session:  sess,
		Notation: n,
		Logger:   h.logger,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeSteps submits each step and checks its expect clause. Expectation
// mismatches are recorded on result; only infrastructure failures (the
// executor stopping, ctx cancellation) are returned.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		snap, err := h.executor.Submit(ctx, step.Operation())
		if errors.Is(err, engine.ErrExecutorStopped) || ctx.Err() != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		ev := TraceEvent{Step: i, Op: step.Op, Name: step.Name}
		if err != nil {
			ev.Error = errorCode(err)
			ev.Objects = objectNames(h.executor.Session().Snapshot())
		} else {
			ev.Seq = h.executor.Session().Seq()
			ev.Objects = objectNames(snap)
			if step.Op == ir.OpCreateNode || step.Op == ir.OpCreateEdge {
				objs := snap.InstanceModel.Objects
				ev.Name = objs[len(objs)-1].Name
			}
		}
		result.AddTrace(ev)

		checkExpect(i, step, ev, err, result)
	}
	return nil
}

func checkExpect(i int, step Step, ev TraceEvent, err error, result *Result) {
	want := step.Expect
	if want == nil {
		want = &ExpectClause{}
	}

	switch {
	case want.Error == "" && err != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op, err))
	case want.Error != "" && err == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got success", i, step.Op, want.Error))
	case want.Error != "" && ev.Error != want.Error:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %v", i, step.Op, want.Error, err))
	}

	if want.Name != "" && err == nil && ev.Name != want.Name {
		result.AddError(fmt.Sprintf("step %d (%s): expected name %s, got %s", i, step.Op, want.Name, ev.Name))
	}
}

// errorCode returns the engine error code of err, or "ERROR" for errors
// raised outside the engine's taxonomy.
func errorCode(err error) string {
	var opErr *engine.OpError
	if errors.As(err, &opErr) {
		return string(opErr.Code)
	}
	return "ERROR"
}

func objectNames(snap ir.Snapshot) []string {
	out := make([]string, len(snap.InstanceModel.Objects))
	for i, o := range snap.InstanceModel.Objects {
		out[i] = o.Name
	}
	return out
}
