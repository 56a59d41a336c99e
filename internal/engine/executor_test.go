package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/testutil"
)

func TestOpQueue_FIFO(t *testing.T) {
	q := newOpQueue()
	for _, n := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(request{op: ir.Operation{Name: n}}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, r.op.Name)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestOpQueue_Close(t *testing.T) {
	q := newOpQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(request{}))
	select {
	case <-q.Wait():
	default:
		t.Fatal("closed queue must wake waiters")
	}
}

func startExecutor(t *testing.T, s *Session) (*Executor, context.CancelFunc, <-chan error) {
	t.Helper()
	x := NewExecutor(s)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- x.Run(ctx) }()
	return x, cancel, done
}

func TestExecutor_SerializesConcurrentSubmits(t *testing.T) {
	s := newTestSession(t)
	x, cancel, done := startExecutor(t, s)
	defer cancel()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := pos(float64(i), 0)
			_, err := x.Submit(context.Background(), ir.Operation{Kind: ir.OpCreateNode, Classifier: testutil.ClassName, Position: &p})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	x.Stop()
	require.NoError(t, <-done)

	snap := x.Session().Snapshot()
	require.Len(t, snap.InstanceModel.Objects, n)
	seen := map[string]bool{}
	for _, o := range snap.InstanceModel.Objects {
		assert.False(t, seen[o.Name], "duplicate %s", o.Name)
		seen[o.Name] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("Class%d", i)])
	}
	assertConsistent(t, snap)
}

func TestExecutor_ReturnsOperationErrors(t *testing.T) {
	s := newTestSession(t)
	x, cancel, _ := startExecutor(t, s)
	defer cancel()

	_, err := x.Submit(context.Background(), ir.Operation{Kind: ir.OpDeleteNode, Name: "Ghost"})
	assert.True(t, IsCode(err, ErrCodeObjectNotFound))

	p := pos(0, 0)
	snap, err := x.Submit(context.Background(), ir.Operation{Kind: ir.OpCreateNode, Classifier: testutil.ClassName, Position: &p})
	require.NoError(t, err, "the loop survives a failed operation")
	assert.Len(t, snap.InstanceModel.Objects, 1)
}

func TestExecutor_StopsOnContext(t *testing.T) {
	s := newTestSession(t)
	x, cancel, done := startExecutor(t, s)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := x.Submit(context.Background(), ir.Operation{Kind: ir.OpDeleteNode, Name: "A"})
	assert.ErrorIs(t, err, ErrExecutorStopped)
}

func TestExecutor_SubmitHonoursContext(t *testing.T) {
	s := newTestSession(t)
	x := NewExecutor(s) // not running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := x.Submit(ctx, ir.Operation{Kind: ir.OpDeleteNode, Name: "A"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_FlushWaitsForPersistence(t *testing.T) {
	release := make(chan struct{})
	var persisted sync.WaitGroup
	persisted.Add(1)
	p := PersisterFunc(func(context.Context, ir.SessionState, ir.Operation) error {
		<-release
		persisted.Done()
		return nil
	})

	s := newTestSession(t, WithPersister(p))
	x, cancel, _ := startExecutor(t, s)
	defer cancel()

	pp := pos(0, 0)
	_, err := x.Submit(context.Background(), ir.Operation{Kind: ir.OpCreateNode, Classifier: testutil.ClassName, Position: &pp})
	require.NoError(t, err, "submit returns before persistence finished")

	flushed := make(chan struct{})
	go func() {
		x.Flush()
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("Flush returned while a write was pending")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-flushed
	persisted.Wait()
}
