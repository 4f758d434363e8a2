package xmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapBasics(t *testing.T) {
	m := New[string, int]()

	m.Store("a", 1)

	v, ok := m.Load("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	actual, loaded := m.LoadOrStore("a", 2)
	require.True(t, loaded)
	require.Equal(t, 1, actual)

	actual, loaded = m.LoadOrStore("b", 2)
	require.False(t, loaded)
	require.Equal(t, 2, actual)

	prev, loaded := m.LoadAndDelete("a")
	require.True(t, loaded)
	require.Equal(t, 1, prev)

	_, ok = m.Load("a")
	require.False(t, ok)

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	require.Equal(t, map[string]int{"b": 2}, seen)

	m.Clear()

	_, ok = m.Load("b")
	require.False(t, ok)
}

func TestLoadOrCreate(t *testing.T) {
	m := New[string, int]()

	require.Equal(t, 7, m.LoadOrCreate("k", func() int { return 7 }))

	// Present key never invokes create.
	require.Equal(t, 7, m.LoadOrCreate("k", func() int {
		t.Fatal("create called for present key")
		return 0
	}))
}

func TestLoadOrCreate_Concurrent(t *testing.T) {
	m := New[string, *sync.Mutex]()

	var wg sync.WaitGroup

	results := make([]*sync.Mutex, 16)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = m.LoadOrCreate("lock", func() *sync.Mutex { return &sync.Mutex{} })
		}()
	}

	wg.Wait()

	for _, got := range results {
		require.Same(t, results[0], got)
	}
}
