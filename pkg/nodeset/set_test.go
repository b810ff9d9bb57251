package nodeset_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagcore/scheduler/pkg/nodeset"
)

func TestInsertFindExtract(t *testing.T) {
	s := nodeset.New[int, string]()
	s.Insert(1, "a")
	s.Insert(2, "b")

	v, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	assert.Equal(t, 2, s.Size())

	v, ok = s.Extract(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, s.Size())

	_, ok = s.Find(1)
	assert.False(t, ok)
}

func TestEraseAbsentIsNoop(t *testing.T) {
	s := nodeset.New[int, string]()
	s.Erase(99)
	assert.True(t, s.Empty())
}

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	s := nodeset.New[int, int]()
	for i := 0; i < 10; i++ {
		s.Insert(i, i*10)
	}
	snap := s.Snapshot()
	require.Len(t, snap, 10)
	for i, e := range snap {
		assert.Equal(t, i, e.Key)
		assert.Equal(t, i*10, e.Value)
	}
}

func TestClear(t *testing.T) {
	s := nodeset.New[int, int]()
	s.Insert(1, 1)
	s.Clear()
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Size())
}

func TestSwap(t *testing.T) {
	a := nodeset.New[int, string]()
	b := nodeset.New[int, string]()
	a.Insert(1, "x")
	b.Insert(2, "y")

	a.Swap(b)

	_, ok := a.Find(2)
	assert.True(t, ok)
	_, ok = b.Find(1)
	assert.True(t, ok)
}

func TestConcurrentInsertExtract(t *testing.T) {
	s := nodeset.New[int, int]()
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Insert(i, i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, s.Size())

	wg.Add(n)
	var mu sync.Mutex
	extracted := 0
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, ok := s.Extract(i); ok {
				mu.Lock()
				extracted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, extracted)
	assert.True(t, s.Empty())
}
