// Package scheduler implements the node scheduler (§4.E): the public
// contract host code submits nodes against, and the worker-loop
// algorithm that drives node bodies to completion on a fixed-size
// thread pool. Grounded on
// original_source/experimental/tiledb/common/dag/execution/frugal.h
// (ThrowCatchScheduler::worker/submit/sync_wait_all) and
// scheduler.h (SchedulerStateMachine), adapted to Go's
// return-value-carries-the-event convention in place of the source's
// throw-as-signal shortcut (§9 "Throw-as-signal").
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/dagcore/scheduler/internal/concurrent"
	"github.com/dagcore/scheduler/internal/fsm"
	"github.com/dagcore/scheduler/internal/metrics"
	"github.com/dagcore/scheduler/pkg/fault"
	"github.com/dagcore/scheduler/pkg/mover"
	"github.com/dagcore/scheduler/pkg/nodeset"
)

// Scheduler drives a DAG of Nodes through the submission, ready,
// running, waiting and finished sets described in §3, on numThreads
// worker goroutines. A Scheduler is single-use: once SyncWaitAll
// returns, construct a new Scheduler for another run.
type Scheduler struct {
	name       string
	numThreads int

	machine *fsm.Machine
	policy  *schedulerPolicy

	submission *mover.Mover[Node]
	ready      *mover.Mover[Node]
	running    *nodeset.Set[Node, Node]
	waiting    *nodeset.Set[Node, Node]
	finished   *mover.Mover[Node]
	submitted  *nodeset.Set[Node, struct{}]

	// eventMu serializes the critical section that applies a
	// state-machine event to a node and moves it between state sets.
	// It resolves the race between a node's own `wait` and a peer's
	// concurrent `notify` (§9 open questions, §4.E step 7's "wait" race
	// note): both paths take eventMu before touching
	// lastEvent/state/set membership, so the two can no longer
	// interleave and a notify can never be dropped.
	eventMu sync.Mutex

	numSubmissions atomic.Int64
	started        atomic.Bool
	debug          atomic.Bool

	pool *concurrent.Pool

	stats  *metrics.SchedulerStatistics
	logger logger.Logger
}

// New builds a Scheduler with numThreads worker goroutines. A value of
// 0 constructs an inert scheduler that accepts submissions but never
// runs them (§4.E).
func New(name string, numThreads int) (*Scheduler, error) {
	if numThreads < 0 {
		return nil, fault.NewConfigError(name, "numThreads=%d must be >= 0", numThreads)
	}

	s := &Scheduler{
		name:       name,
		numThreads: numThreads,
		machine:    fsm.New(name),
		submission: mover.New[Node](0, mover.FIFO, nil),
		ready:      mover.New[Node](0, mover.FIFO, nil),
		running:    nodeset.New[Node, Node](),
		waiting:    nodeset.New[Node, Node](),
		finished:   mover.New[Node](0, mover.FIFO, nil),
		submitted:  nodeset.New[Node, struct{}](),
		stats:      metrics.NewSchedulerStatistics(name),
		logger:     logger.GetLogger("Scheduler", name),
	}
	s.policy = &schedulerPolicy{s: s}
	return s, nil
}

// EnableDebug turns on verbose tracing for this scheduler.
func (s *Scheduler) EnableDebug() { s.debug.Store(true) }

// DisableDebug turns off verbose tracing for this scheduler.
func (s *Scheduler) DisableDebug() { s.debug.Store(false) }

// Debug reports whether verbose tracing is on.
func (s *Scheduler) Debug() bool { return s.debug.Load() }

// Submit admits node into the run: it is recorded as created and
// placed onto the submission queue. Submit must be called before
// SyncWaitAll; submitting the same handle twice, or submitting after
// the run has started, is a logic fault.
func (s *Scheduler) Submit(node Node) error {
	if s.started.Load() {
		return fault.NewLogicFault(s.name, "Submit called after SyncWaitAll started")
	}
	if _, exists := s.submitted.Find(node); exists {
		return fault.NewLogicFault(s.name, "node %d submitted twice", node.ID())
	}
	s.submitted.Insert(node, struct{}{})

	next, exit, entry, err := s.machine.Fire(node.State(), fsm.EventCreate)
	if err != nil {
		return err
	}
	if err := fsm.Dispatch(s.name, exit, s.policy, node); err != nil {
		return err
	}
	node.SetState(next)
	if err := fsm.Dispatch(s.name, entry, s.policy, node); err != nil {
		return err
	}

	s.numSubmissions.Inc()
	if err := s.submission.Push(node); err != nil {
		return err
	}
	if s.debug.Load() {
		s.logger.Debug("submitted node", logger.Int64("nodeID", int64(node.ID())), logger.String("name", node.Name()))
	}
	return nil
}

// SyncWaitAll moves all submissions into the ready queue, launches the
// worker pool, and blocks until the graph is quiescent: every node has
// reached a terminal state, and the ready/running/waiting sets are all
// empty. After SyncWaitAll returns the Scheduler is consumed.
func (s *Scheduler) SyncWaitAll(ctx context.Context) error {
	if s.started.Swap(true) {
		return fault.NewLogicFault(s.name, "SyncWaitAll called more than once")
	}

	// §4.A SwapData: move submissions into the ready queue atomically
	// with respect to both queues.
	s.submission.SwapData(s.ready)

	if s.numThreads == 0 {
		return nil
	}

	pool, err := concurrent.NewPool(s.name, s.numThreads, concurrent.WithQueueMode(concurrent.QueueShared))
	if err != nil {
		return err
	}
	s.pool = pool

	futures := make([]*concurrent.Future, s.numThreads)
	for i := 0; i < s.numThreads; i++ {
		futures[i] = pool.Go(ctx, func(ctx context.Context) (any, error) {
			return nil, s.workerLoop(ctx)
		})
	}

	var firstErr error
	for _, f := range futures {
		if _, err := f.Get(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.shutdown()
	return firstErr
}

// shutdown implements §4.E's shutdown sequence: sweep notified waiters
// until a sweep promotes none, drain the ready/finished queues, clear
// the running/waiting sets, and join all workers. It does not wait for
// the waiting set to empty: any waiter still there after the last
// sweep is dropped by the clear.
func (s *Scheduler) shutdown() {
	for {
		promoted := s.sweep()
		if promoted == 0 {
			break
		}
	}
	s.ready.Drain()
	s.finished.Drain()
	s.running.Clear()
	s.waiting.Clear()
	if s.pool != nil {
		s.pool.Shutdown()
	}
}

// workerLoop implements §4.E steps 1-8 for a single worker goroutine.
func (s *Scheduler) workerLoop(ctx context.Context) error {
outer:
	for {
		s.sweep()

		if s.ready.Len() == 0 && s.running.Size() == 0 && s.waiting.Size() == 0 {
			return nil
		}

		node, ok := s.ready.TryPop()
		if !ok {
			continue outer
		}

		// A freshly submitted node is still Created (Submit only fires
		// EventCreate); admit it to Runnable before dispatching it to
		// Running. A node returning from Yield/Notify is already
		// Runnable and only needs the dispatch.
		if node.State() == fsm.StateCreated {
			if err := s.applyTransition(node, fsm.EventAdmit); err != nil {
				return err
			}
		}
		if err := s.applyTransition(node, fsm.EventDispatch); err != nil {
			return err
		}

		s.running.Insert(node, node)

	resumeLoop:
		for {
			event := node.Resume(ctx)
			if s.debug.Load() {
				s.logger.Debug("node resumed", logger.Int64("nodeID", int64(node.ID())), logger.String("event", event.String()))
			}
			// last-event is not stamped here: it is reserved for a
			// peer's Notify to flag "you were notified while still
			// running" (Scheduler.Notify's race branch) and consumed
			// once by this node's own next Wait call. Stamping it from
			// Resume's return value would clobber that flag outside
			// eventMu whenever it raced ahead of us, losing the notify.

			switch event {
			case fsm.EventYield:
				s.running.Extract(node)
				if err := s.applyTransition(node, fsm.EventYield); err != nil {
					return err
				}
				s.ready.Push(node)
				break resumeLoop

			case fsm.EventWait:
				if err := s.Wait(node); err != nil {
					return err
				}
				break resumeLoop

			case fsm.EventNotify:
				if err := s.Notify(node); err != nil {
					return err
				}
				// The notifying node stays in the running set; its
				// own resume continues until a genuine suspension
				// point (§4.E step 7 "notify").
				continue resumeLoop

			case fsm.EventExit:
				s.running.Extract(node)
				if err := s.applyTransition(node, fsm.EventExit); err != nil {
					return err
				}
				s.finished.Push(node)
				break resumeLoop

			default:
				return fault.NewLogicFault(s.name, "node %d raised unrecognized event %v", node.ID(), event)
			}
		}
	}
}

// sweep implements §4.E step 2: promote every waiting node whose
// last-event is notify to runnable. It returns the number of nodes
// promoted.
func (s *Scheduler) sweep() int {
	promoted := 0
	for _, entry := range s.waiting.Snapshot() {
		if entry.Value.LastEvent() != fsm.EventNotify {
			continue
		}
		if n, ok := s.waiting.Extract(entry.Key); ok {
			if err := s.applyTransition(n, fsm.EventNotify); err == nil {
				s.ready.Push(n)
				promoted++
			}
		}
	}
	s.stats.SweepRounds.Inc()
	return promoted
}

// Wait applies the wait event hook (§4.E, §6) to node: called either
// by the worker loop when a resumed body raises EventWait, or directly
// by a node body/mover integration that wants to register a wait
// without unwinding Resume.
func (s *Scheduler) Wait(node Node) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	n, ok := s.running.Extract(node)
	if !ok {
		// Already removed by a concurrent path; nothing to do.
		return nil
	}

	if n.LastEvent() == fsm.EventNotify {
		// The peer's notify raced ahead of our own wait observation:
		// requeue as runnable directly rather than parking in the
		// waiting set, per §4.E step 7's documented race handling.
		// Clear the flag once consumed so a later, unrelated wait on
		// this same node doesn't mistake it for a fresh notify.
		n.SetLastEvent(fsm.EventCreate)
		if err := fsm.Dispatch(s.name, fsm.ActionStopRunning, s.policy, n); err != nil {
			return err
		}
		n.SetState(fsm.StateRunnable)
		if err := fsm.Dispatch(s.name, fsm.ActionMakeRunnable, s.policy, n); err != nil {
			return err
		}
		s.ready.Push(n)
		return nil
	}

	if err := s.applyTransitionLocked(n, fsm.EventWait); err != nil {
		return err
	}
	s.waiting.Insert(n, n)
	return nil
}

// Notify applies the notify event hook: node is notifying its
// correspondent. If the peer is currently parked in the waiting set it
// is promoted to runnable immediately; otherwise the peer's
// last-event is stamped so that its own forthcoming Wait call observes
// the notify and short-circuits (the race window called out in §9).
func (s *Scheduler) Notify(node Node) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	peer := node.Correspondent()
	if peer == nil {
		return nil
	}

	if p, ok := s.waiting.Extract(peer); ok {
		if err := s.applyTransitionLocked(p, fsm.EventNotify); err != nil {
			return err
		}
		s.ready.Push(p)
		return nil
	}

	peer.SetLastEvent(fsm.EventNotify)
	return nil
}

// Yield applies the yield event hook directly (outside the worker
// loop's own resume switch), exposed for node bodies or tests that
// want to request a yield without returning EventYield from Resume.
func (s *Scheduler) Yield(node Node) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	n, ok := s.running.Extract(node)
	if !ok {
		return nil
	}
	if err := s.applyTransitionLocked(n, fsm.EventYield); err != nil {
		return err
	}
	s.ready.Push(n)
	return nil
}

// applyTransition fires the state machine for (node.State(), event),
// dispatching the resulting exit/entry actions and writing the new
// state, taking eventMu for the duration.
func (s *Scheduler) applyTransition(node Node, event fsm.Event) error {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	return s.applyTransitionLocked(node, event)
}

// applyTransitionLocked is applyTransition's body, for callers that
// already hold eventMu.
func (s *Scheduler) applyTransitionLocked(node Node, event fsm.Event) error {
	next, exit, entry, err := s.machine.Fire(node.State(), event)
	if err != nil {
		return err
	}
	if err := fsm.Dispatch(s.name, exit, s.policy, node); err != nil {
		return err
	}
	node.SetState(next)
	return fsm.Dispatch(s.name, entry, s.policy, node)
}

// Stats returns a point-in-time snapshot of the four state-set sizes.
func (s *Scheduler) Stats() (ready, running, waiting, finished int) {
	return s.ready.Len(), s.running.Size(), s.waiting.Size(), s.finished.Len()
}

// schedulerPolicy implements fsm.Policy[Node], logging each action at
// debug level with structured fields.
type schedulerPolicy struct {
	s *Scheduler
}

func (p *schedulerPolicy) log(action string, node Node) {
	if !p.s.debug.Load() {
		return
	}
	p.s.logger.Debug(fmt.Sprintf("action:%s", action), logger.Int64("nodeID", int64(node.ID())))
}

func (p *schedulerPolicy) OnCreate(node Node)       { p.log("create", node) }
func (p *schedulerPolicy) OnStopCreate(node Node)   { p.log("stop_create", node) }
func (p *schedulerPolicy) OnMakeRunnable(node Node) { p.log("make_runnable", node) }
func (p *schedulerPolicy) OnStopRunnable(node Node) { p.log("stop_runnable", node) }
func (p *schedulerPolicy) OnMakeRunning(node Node)  { p.log("make_running", node) }
func (p *schedulerPolicy) OnStopRunning(node Node)  { p.log("stop_running", node) }
func (p *schedulerPolicy) OnMakeWaiting(node Node)  { p.log("make_waiting", node) }
func (p *schedulerPolicy) OnStopWaiting(node Node)  { p.log("stop_waiting", node) }
func (p *schedulerPolicy) OnTerminate(node Node)    { p.log("terminate", node) }
