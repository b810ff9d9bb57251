// Package concurrent implements the generic task-queue thread pool
// (§4.C) the node scheduler drives its worker loops on. It is adapted
// from vishalbelsare-lindb's goroutine pool
// (internal/concurrent/pool.go: workerPool, dispatch, worker,
// Task/NewTask), generalized with the queue-mode, work-stealing and
// recursive-push construction parameters the scheduler core requires,
// and with a promise/future return value in place of that pool's
// fire-and-forget Task.panicHandle callback.
package concurrent

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/dagcore/scheduler/internal/metrics"
	"github.com/dagcore/scheduler/pkg/fault"
)

// QueueMode selects how tasks are routed to workers.
type QueueMode int

const (
	// QueueShared routes every task onto one shared queue; any idle
	// worker may pick it up.
	QueueShared QueueMode = iota
	// QueuePerWorker gives each worker its own queue, round-robin
	// assigned; Stealing controls whether idle workers may pull work
	// from a sibling's queue.
	QueuePerWorker
)

// task bundles a unit of work with the promise it must settle.
type task struct {
	fn      func(ctx context.Context) (any, error)
	future  *Future
	taskCtx context.Context
}

type workerMarkerKey struct{}

// Pool is the generic N-worker task pool described in §4.C.
type Pool struct {
	name          string
	numWorkers    int
	queueMode     QueueMode
	stealing      bool
	recursivePush bool

	shared chan *task
	perW   []chan *task

	wg      sync.WaitGroup
	closed  atomic.Bool
	closeMu sync.Mutex

	stats  *metrics.PoolStatistics
	logger logger.Logger
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithQueueMode selects QueueShared (default) or QueuePerWorker.
func WithQueueMode(mode QueueMode) Option {
	return func(p *Pool) { p.queueMode = mode }
}

// WithStealing enables worker-to-worker task stealing; only
// meaningful when the queue mode is QueuePerWorker (§4.C).
func WithStealing(on bool) Option {
	return func(p *Pool) { p.stealing = on }
}

// WithRecursivePush controls whether a task submitted from inside a
// worker goroutine is enqueued (on, the default) or executed inline on
// that worker (off).
func WithRecursivePush(on bool) Option {
	return func(p *Pool) { p.recursivePush = on }
}

// WithStatistics attaches a metrics.PoolStatistics handle.
func WithStatistics(stats *metrics.PoolStatistics) Option {
	return func(p *Pool) { p.stats = stats }
}

const taskQueueCapacity = 64

// NewPool constructs a Pool with numWorkers goroutines pre-launched.
// numWorkers must be in [1, 256*runtime.NumCPU()); construction
// returns a fault.ConfigError otherwise (§4.C "Failure").
func NewPool(name string, numWorkers int, opts ...Option) (*Pool, error) {
	if numWorkers < 1 {
		return nil, fault.NewConfigError(name, "numWorkers=%d must be >= 1", numWorkers)
	}
	if limit := 256 * runtime.NumCPU(); numWorkers >= limit {
		return nil, fault.NewConfigError(name, "numWorkers=%d exceeds limit %d", numWorkers, limit)
	}

	p := &Pool{
		name:          name,
		numWorkers:    numWorkers,
		queueMode:     QueueShared,
		recursivePush: true,
		logger:        logger.GetLogger("Concurrent", fmt.Sprintf("Pool[%s]", name)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stats == nil {
		p.stats = metrics.NewPoolStatistics(name)
	}

	switch p.queueMode {
	case QueuePerWorker:
		p.perW = make([]chan *task, numWorkers)
		for i := range p.perW {
			p.perW[i] = make(chan *task, taskQueueCapacity)
		}
	default:
		p.shared = make(chan *task, taskQueueCapacity)
	}

	// Launching N goroutines cannot fail the way std::thread can, so
	// there is no transient creation failure to retry: the barrier
	// below waits once for every worker to report in and is not
	// retried.
	ready := make(chan struct{}, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		idx := i
		go func() {
			defer p.wg.Done()
			ready <- struct{}{}
			p.stats.WorkersAlive.Inc()
			defer p.stats.WorkersAlive.Dec()
			p.workerLoop(idx)
		}()
	}
	for i := 0; i < numWorkers; i++ {
		<-ready
	}

	return p, nil
}

// Go submits fn for execution and returns a Future for its result. If
// recursive_push is off and ctx already carries a worker marker (i.e.
// Go is being called from inside a task already running on a Pool; the
// marker does not record which Pool), fn runs inline instead of being
// queued (§4.C).
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := newFuture(p)

	if !p.recursivePush {
		if _, onWorker := ctx.Value(workerMarkerKey{}).(int); onWorker {
			p.stats.TasksRecursive.Inc()
			p.execute(ctx, fn, f)
			return f
		}
	}

	p.stats.TasksSubmitted.Inc()
	t := &task{fn: fn, future: f, taskCtx: ctx}
	p.enqueue(t)
	return f
}

func (p *Pool) enqueue(t *task) {
	if p.queueMode == QueuePerWorker {
		// Round-robin over a counter embedded in the task pointer's
		// low bits would be overkill; a simple shared counter keeps
		// assignment close to even without another lock per task.
		idx := int(p.nextWorker()) % len(p.perW)
		p.perW[idx] <- t
		return
	}
	p.shared <- t
}

var roundRobinCounter atomic.Uint64

func (p *Pool) nextWorker() uint64 {
	return roundRobinCounter.Inc()
}

// execute runs fn, recovering a panic into the future's error per §7
// "Worker task failure".
func (p *Pool) execute(ctx context.Context, fn func(context.Context) (any, error), f *Future) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.TasksPanicked.Inc()
			p.logger.Error("task panicked", logger.Any("recovered", r), logger.Stack())
			f.settle(nil, fault.FromRecover(r))
		}
	}()
	result, err := fn(ctx)
	p.stats.TasksExecuted.Inc()
	f.settle(result, err)
}

func (p *Pool) runTask(t *task) {
	ctx := context.WithValue(t.taskCtx, workerMarkerKey{}, 0)
	p.execute(ctx, t.fn, t.future)
}

// workerLoop implements §4.C's worker loop: under per-worker+stealing,
// a worker probes its own queue, then scans sibling queues round-robin
// before blocking on its own queue; under single-queue mode it simply
// blocks on the shared queue.
func (p *Pool) workerLoop(idx int) {
	if p.queueMode == QueueShared {
		for t := range p.shared {
			p.runTaskOn(idx, t)
		}
		return
	}

	own := p.perW[idx]
	const rounds = 4
	for {
		select {
		case t, ok := <-own:
			if !ok {
				return
			}
			p.runTaskOn(idx, t)
			continue
		default:
		}

		if p.stealing {
			stolen := false
			for round := 0; round < rounds*len(p.perW); round++ {
				victim := (idx + 1 + round) % len(p.perW)
				if victim == idx {
					continue
				}
				select {
				case t, ok := <-p.perW[victim]:
					if ok {
						p.stats.TasksStolen.Inc()
						p.runTaskOn(idx, t)
						stolen = true
					}
				default:
				}
				if stolen {
					break
				}
			}
			if stolen {
				continue
			}
		}

		t, ok := <-own
		if !ok {
			return
		}
		p.runTaskOn(idx, t)
	}
}

func (p *Pool) runTaskOn(workerIdx int, t *task) {
	taskCtx := context.WithValue(t.taskCtx, workerMarkerKey{}, workerIdx)
	p.execute(taskCtx, t.fn, t.future)
}

// stealAny is used by Future.Wait on the caller's side (which is not
// necessarily a pool worker) to help drain the pool while blocked.
func (p *Pool) stealAny() (*task, bool) {
	if p.queueMode != QueuePerWorker {
		return nil, false
	}
	for _, q := range p.perW {
		select {
		case t, ok := <-q:
			if ok {
				return t, true
			}
		default:
		}
	}
	return nil, false
}

// Shutdown closes every queue, causing worker loops to exit once they
// observe an empty, closed channel, then joins all workers. Calling
// Shutdown more than once is safe.
func (p *Pool) Shutdown() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	if p.queueMode == QueuePerWorker {
		for _, q := range p.perW {
			close(q)
		}
	} else {
		close(p.shared)
	}
	p.wg.Wait()
}

// NumWorkers reports the pool's configured worker count.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}
