// Package mover implements the bounded single-item (or fixed-capacity)
// channel used to hand data off between two cooperatively-scheduled
// node bodies. It is the Go counterpart of vishalbelsare-lindb's
// producer/consumer buffer conventions (github.com/lindb/lindb/pkg/queue),
// cut down to the synchronous, in-memory, single-slot contract the
// scheduler core requires and generalized over the carried item type
// with Go generics.
package mover

import (
	"sync"

	"github.com/dagcore/scheduler/internal/metrics"
	"github.com/dagcore/scheduler/pkg/fault"
)

// Ordering selects the container discipline backing a Mover.
type Ordering int

const (
	// FIFO delivers items in the order they were pushed.
	FIFO Ordering = iota
	// LIFO treats the buffer as a stack: the most recently pushed item
	// is the next one popped.
	LIFO
)

// Mover is a thread-safe bounded (or unbounded, when capacity is 0)
// buffer of capacity items, with paired source (push) and sink (pop)
// endpoints, draining and shutdown semantics. The zero value is not
// usable; construct with New.
type Mover[T any] struct {
	mu   sync.Mutex
	full *sync.Cond // waiters blocked in Push on a full buffer
	empt *sync.Cond // waiters blocked in Pop on an empty buffer

	capacity  int
	ordering  Ordering
	items     []T
	draining  bool
	shutdown  bool
	pushCount uint64
	popCount  uint64

	stats *metrics.ChannelStatistics
}

// New constructs a Mover with the given capacity (0 means unbounded)
// and ordering discipline. stats may be nil.
func New[T any](capacity int, ordering Ordering, stats *metrics.ChannelStatistics) *Mover[T] {
	m := &Mover[T]{
		capacity: capacity,
		ordering: ordering,
		stats:    stats,
	}
	m.full = sync.NewCond(&m.mu)
	m.empt = sync.NewCond(&m.mu)
	return m
}

// bounded reports whether capacity is enforced.
func (m *Mover[T]) bounded() bool {
	return m.capacity > 0
}

func (m *Mover[T]) isFull() bool {
	return m.bounded() && len(m.items) >= m.capacity
}

// Push blocks while the buffer is full and neither draining nor
// shutdown, then enqueues item and wakes one sink-waiter. It returns
// fault.ErrStopped if the mover is shut down, or fault.ErrDrained if
// draining, either before or after the wait.
func (m *Mover[T]) Push(item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.isFull() && !m.draining && !m.shutdown {
		m.full.Wait()
	}
	if m.shutdown {
		return fault.ErrStopped
	}
	if m.draining {
		return fault.ErrDrained
	}

	m.enqueueLocked(item)
	m.pushCount++
	if m.stats != nil {
		m.stats.Pushes.Inc()
	}
	m.empt.Signal()
	return nil
}

// TryPush enqueues item without blocking; it fails immediately if the
// buffer is full (when bounded) or the mover is stopped.
func (m *Mover[T]) TryPush(item T) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return false, fault.ErrStopped
	}
	if m.draining {
		return false, fault.ErrDrained
	}
	if m.isFull() {
		return false, nil
	}

	m.enqueueLocked(item)
	m.pushCount++
	if m.stats != nil {
		m.stats.Pushes.Inc()
	}
	m.empt.Signal()
	return true, nil
}

// Pop blocks while the buffer is empty and the mover is not stopped,
// then dequeues and returns the oldest (FIFO) or newest (LIFO) item,
// waking one source-waiter. ok is false iff the mover is shut down, or
// draining with nothing left to deliver.
func (m *Mover[T]) Pop() (item T, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.items) == 0 && !m.shutdown && !m.draining {
		m.empt.Wait()
	}
	if m.shutdown {
		var zero T
		return zero, false
	}
	if m.draining && len(m.items) == 0 {
		var zero T
		return zero, false
	}

	item = m.dequeueLocked()
	m.popCount++
	if m.stats != nil {
		m.stats.Pops.Inc()
	}
	m.full.Signal()
	return item, true
}

// TryPop dequeues without blocking; ok is false if the buffer is empty
// or the mover is stopped.
func (m *Mover[T]) TryPop() (item T, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown || len(m.items) == 0 {
		var zero T
		return zero, false
	}

	item = m.dequeueLocked()
	m.popCount++
	if m.stats != nil {
		m.stats.Pops.Inc()
	}
	m.full.Signal()
	return item, true
}

// Drain marks the mover as draining: further pushes fail, but items
// already buffered may still be popped until the buffer is empty. All
// waiters are woken so they can observe the new state.
func (m *Mover[T]) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draining = true
	m.full.Broadcast()
	m.empt.Broadcast()
}

// Shutdown marks the mover as stopped: both push and pop fail
// immediately from now on. Calling Shutdown twice has the same
// observable effect as calling it once (invariant 4, §8).
func (m *Mover[T]) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = true
	m.full.Broadcast()
	m.empt.Broadcast()
}

// Shuttingdown reports whether Shutdown or Drain has been invoked.
func (m *Mover[T]) Shuttingdown() (draining, shutdown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draining, m.shutdown
}

// Len reports the number of items currently buffered.
func (m *Mover[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Counts reports the cumulative number of successful pushes and pops,
// used to verify the channel-conservation invariant (invariant 2, §8):
// pushes = pops + in_flight.
func (m *Mover[T]) Counts() (pushes, pops uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushCount, m.popCount
}

// SwapData atomically exchanges the underlying item sequences of two
// movers. Both movers must be quiescent (no live waiters); it is used
// once at the start of a run to move submissions into the ready queue
// (§4.A). It takes both movers' locks, in a fixed address order, to
// avoid a lock-order inversion against a concurrent swap.
func (m *Mover[T]) SwapData(other *Mover[T]) {
	first, second := m, other
	// Swap on one monotonically increasing key to avoid inversion
	// between any two movers regardless of call order.
	if uintptrOf(first) > uintptrOf(second) {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	m.items, other.items = other.items, m.items
}

func (m *Mover[T]) enqueueLocked(item T) {
	// Both FIFO and LIFO push onto the tail; they differ in which end
	// Pop removes from.
	m.items = append(m.items, item)
}

func (m *Mover[T]) dequeueLocked() T {
	var item T
	switch m.ordering {
	case LIFO:
		n := len(m.items) - 1
		item = m.items[n]
		m.items = m.items[:n]
	default: // FIFO
		item = m.items[0]
		m.items = m.items[1:]
	}
	return item
}
