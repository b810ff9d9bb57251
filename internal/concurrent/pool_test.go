package concurrent_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagcore/scheduler/internal/concurrent"
	"github.com/dagcore/scheduler/pkg/fault"
)

func TestPoolSmokeSquares(t *testing.T) {
	// S4: submit 120 tasks returning i^2; every future resolves to the
	// expected value; shutdown joins cleanly.
	pool, err := concurrent.NewPool("smoke", 4)
	require.NoError(t, err)
	defer pool.Shutdown()

	const n = 120
	futures := make([]*concurrent.Future, n)
	for i := 0; i < n; i++ {
		i := i
		futures[i] = pool.Go(context.Background(), func(ctx context.Context) (any, error) {
			return i * i, nil
		})
	}

	for i, f := range futures {
		result, err := f.Get()
		require.NoError(t, err)
		assert.Equal(t, i*i, result)
	}
}

func TestPoolConstructionRejectsInvalidSize(t *testing.T) {
	_, err := concurrent.NewPool("bad", 0)
	require.Error(t, err)
	var cfg *fault.ConfigError
	assert.ErrorAs(t, err, &cfg)

	_, err = concurrent.NewPool("bad", 1<<30)
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfg)
}

func TestPoolTaskPanicIsCapturedNotCrashed(t *testing.T) {
	pool, err := concurrent.NewPool("panicking", 2)
	require.NoError(t, err)
	defer pool.Shutdown()

	f := pool.Go(context.Background(), func(ctx context.Context) (any, error) {
		panic("boom")
	})

	_, err = f.Get()
	require.Error(t, err)
	var tf *fault.TaskFailure
	assert.ErrorAs(t, err, &tf)
}

func TestPoolTaskErrorPropagates(t *testing.T) {
	pool, err := concurrent.NewPool("erroring", 1)
	require.NoError(t, err)
	defer pool.Shutdown()

	wantErr := errors.New("failed")
	f := pool.Go(context.Background(), func(ctx context.Context) (any, error) {
		return nil, wantErr
	})

	_, err = f.Get()
	assert.ErrorIs(t, err, wantErr)
}

func TestPoolPerWorkerStealing(t *testing.T) {
	pool, err := concurrent.NewPool("stealing", 4,
		concurrent.WithQueueMode(concurrent.QueuePerWorker),
		concurrent.WithStealing(true))
	require.NoError(t, err)
	defer pool.Shutdown()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	results := make([]int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			f := pool.Go(context.Background(), func(ctx context.Context) (any, error) {
				return i, nil
			})
			v, err := f.Get()
			require.NoError(t, err)
			results[i] = v.(int)
		}()
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, i, v)
	}
}

func TestRecursivePushOffAvoidsSingleWorkerDeadlock(t *testing.T) {
	// With exactly one worker, a nested Go() call that gets queued
	// (instead of run inline) would never be picked up: the only
	// worker is busy blocking on the outer task's Get(). recursive_push
	// off must run the nested call inline on the calling goroutine so
	// this completes instead of deadlocking.
	pool, err := concurrent.NewPool("inline", 1, concurrent.WithRecursivePush(false))
	require.NoError(t, err)
	defer pool.Shutdown()

	done := make(chan error, 1)
	outer := pool.Go(context.Background(), func(ctx context.Context) (any, error) {
		inner := pool.Go(ctx, func(ctx context.Context) (any, error) {
			return 42, nil
		})
		v, err := inner.Get()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	go func() {
		_, err := outer.Get()
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("nested submission deadlocked a single-worker pool")
	}
}
