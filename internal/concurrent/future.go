package concurrent

import (
	"context"
	"time"
)

// Future is the promise counterpart of a submitted Task, matching
// §4.C's `async(fn, args…) → future<R>`. The zero value is not usable;
// Futures are returned by Pool.Go.
type Future struct {
	done   chan struct{}
	result any
	err    error
	pool   *Pool
}

func newFuture(pool *Pool) *Future {
	return &Future{done: make(chan struct{}), pool: pool}
}

func (f *Future) settle(result any, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Ready reports whether the task has completed (successfully or not)
// without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the task completes and returns its result, or the
// error it failed with (including a wrapped panic, per §7 "Worker task
// failure").
func (f *Future) Get() (any, error) {
	return f.Wait(context.Background())
}

// Wait implements §4.C's `wait(future)`: if the owning pool has
// stealing enabled, the caller helps drain other workers' queues
// while waiting instead of just blocking; otherwise it blocks directly
// on the future. ctx cancellation unblocks Wait with ctx.Err().
func (f *Future) Wait(ctx context.Context) (any, error) {
	if f.pool == nil || !f.pool.stealing || f.pool.queueMode != QueuePerWorker {
		select {
		case <-f.done:
			return f.result, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for {
		if f.Ready() {
			return f.result, f.err
		}
		if t, ok := f.pool.stealAny(); ok {
			f.pool.runTask(t)
			continue
		}
		select {
		case <-f.done:
			return f.result, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
			// yield and re-check rather than block indefinitely.
		}
	}
}
