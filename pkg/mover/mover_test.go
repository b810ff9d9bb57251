package mover_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagcore/scheduler/pkg/fault"
	"github.com/dagcore/scheduler/pkg/mover"
)

func TestPushPopFIFORoundTrip(t *testing.T) {
	// Round-trip invariant (§8 invariant 6): producer 0..N-1, consumer
	// collects them in order over a FIFO-backed mover.
	const n = 517 // S5 scale
	m := mover.New[int](4, mover.FIFO, nil)

	var got []int
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			require.NoError(t, m.Push(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			v, ok := m.Pop()
			require.True(t, ok)
			got = append(got, v)
		}
	}()
	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)

	pushes, pops := m.Counts()
	assert.EqualValues(t, n, pushes)
	assert.EqualValues(t, n, pops)
}

func TestLIFOPreservesSetNotOrder(t *testing.T) {
	const n = 517
	m := mover.New[int](8, mover.LIFO, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			require.NoError(t, m.Push(i))
		}
		m.Drain()
	}()

	seen := make(map[int]bool, n)
	var got []int
	for {
		v, ok := m.Pop()
		if !ok {
			break
		}
		got = append(got, v)
		seen[v] = true
	}
	wg.Wait()

	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}

	ordered := true
	for i := range got {
		if got[i] != i {
			ordered = false
			break
		}
	}
	assert.False(t, ordered, "LIFO-backed mover should not reproduce FIFO order")
}

func TestTryPushTryPopNonBlocking(t *testing.T) {
	m := mover.New[int](1, mover.FIFO, nil)
	ok, err := m.TryPush(1)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = m.TryPush(2)
	assert.False(t, ok)
	assert.NoError(t, err)

	v, ok := m.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.TryPop()
	assert.False(t, ok)
}

func TestUnboundedTryPushAlwaysSucceedsUnlessStopped(t *testing.T) {
	m := mover.New[int](0, mover.FIFO, nil)
	for i := 0; i < 1000; i++ {
		ok, err := m.TryPush(i)
		require.NoError(t, err)
		require.True(t, ok)
	}
	m.Shutdown()
	ok, err := m.TryPush(1000)
	assert.False(t, ok)
	assert.ErrorIs(t, err, fault.ErrStopped)
}

func TestShutdownDuringBlockedPop(t *testing.T) {
	// S6: a consumer blocked on Pop receives an empty result once
	// Shutdown is invoked from another goroutine.
	m := mover.New[int](1, mover.FIFO, nil)

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	m.Shutdown()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Shutdown")
	}
}

func TestDrainDeliversPendingThenStops(t *testing.T) {
	m := mover.New[int](4, mover.FIFO, nil)
	require.NoError(t, m.Push(1))
	require.NoError(t, m.Push(2))
	m.Drain()

	ok, err := m.TryPush(3)
	assert.False(t, ok)
	assert.ErrorIs(t, err, fault.ErrDrained)

	v, ok := m.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = m.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = m.Pop()
	assert.False(t, ok)
}

func TestShutdownIdempotent(t *testing.T) {
	m := mover.New[int](1, mover.FIFO, nil)
	m.Shutdown()
	m.Shutdown()

	_, err := m.TryPush(1)
	assert.ErrorIs(t, err, fault.ErrStopped)
	_, ok := m.TryPop()
	assert.False(t, ok)
}

func TestSwapData(t *testing.T) {
	a := mover.New[int](0, mover.FIFO, nil)
	b := mover.New[int](0, mover.FIFO, nil)

	require.NoError(t, a.Push(1))
	require.NoError(t, a.Push(2))

	a.SwapData(b)

	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 2, b.Len())

	v, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestChannelConservation(t *testing.T) {
	// Unbounded so Push never blocks the single test goroutine; the
	// conservation invariant (pushes = pops + in_flight) holds
	// regardless of capacity.
	m := mover.New[int](0, mover.FIFO, nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Push(i))
		if i%3 == 0 {
			_, ok := m.Pop()
			require.True(t, ok)
		}
	}
	pushes, pops := m.Counts()
	inFlight := m.Len()
	assert.EqualValues(t, pushes, pops+uint64(inFlight))
}
