package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/modelsync/internal/ir"
)

// Executor serializes operations from any number of goroutines onto one
// Session through a single FIFO queue and one run loop.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(), Flush(): safe from any goroutine
type Executor struct {
	session *Session
	queue   *opQueue
}

// NewExecutor creates an executor for s. Call Run to start processing.
func NewExecutor(s *Session) *Executor {
	return &Executor{session: s, queue: newOpQueue()}
}

// Session returns the executor's session. It must only be read from the
// run loop or after Run returned.
func (x *Executor) Session() *Session {
	return x.session
}

// Submit enqueues op and blocks until the run loop applied it or ctx is
// done. An operation already dequeued still runs to completion when ctx is
// cancelled; only the wait is abandoned.
func (x *Executor) Submit(ctx context.Context, op ir.Operation) (ir.Snapshot, error) {
	r := request{ctx: ctx, op: op, reply: make(chan result, 1)}
	if !x.queue.Enqueue(r) {
		return ir.Snapshot{}, ErrExecutorStopped
	}
	select {
	case res := <-r.reply:
		return res.snap, res.err
	case <-ctx.Done():
		return ir.Snapshot{}, ctx.Err()
	}
}

// Run is the single-writer loop. It blocks until ctx is cancelled or Stop
// is called; requests still queued at that point fail with
// ErrExecutorStopped.
//
// A failed operation is returned to its submitter and logged; the loop
// continues with the next request.
func (x *Executor) Run(ctx context.Context) error {
	log := x.session.logger
	log.Info("executor starting", "session", x.session.key)

	for {
		r, ok := x.queue.TryDequeue()
		if ok {
			x.process(r)
			continue
		}

		select {
		case <-ctx.Done():
			log.Info("executor stopping: context cancelled", "session", x.session.key)
			x.queue.Close()
			x.drain()
			return ctx.Err()

		case <-x.queue.Wait():
			// The signal channel closes with the queue, so a closed and
			// empty queue ends the loop.
			if x.queue.Len() == 0 && x.closed() {
				log.Info("executor stopping: queue closed", "session", x.session.key)
				return nil
			}
		}
	}
}

func (x *Executor) process(r request) {
	if err := r.ctx.Err(); err != nil {
		r.reply <- result{err: err}
		return
	}
	snap, err := x.session.Apply(r.op)
	if err != nil {
		x.session.logger.Warn("operation failed",
			slog.String("session", x.session.key),
			slog.String("op", string(r.op.Kind)),
			slog.String("name", r.op.Name),
			slog.Any("error", err),
		)
	}
	r.reply <- result{snap: snap, err: err}
}

func (x *Executor) drain() {
	for {
		r, ok := x.queue.TryDequeue()
		if !ok {
			return
		}
		r.reply <- result{err: ErrExecutorStopped}
	}
}

func (x *Executor) closed() bool {
	x.queue.mu.Lock()
	defer x.queue.mu.Unlock()
	return x.queue.closed
}

// Stop closes the queue; Run returns once the queued requests ran.
func (x *Executor) Stop() {
	x.queue.Close()
}

// Flush waits for background persistence of all committed operations.
func (x *Executor) Flush() {
	x.session.Flush()
}
