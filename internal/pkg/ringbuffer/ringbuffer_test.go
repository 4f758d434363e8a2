package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndGet(t *testing.T) {
	rb := New[string](3)

	rb.Push(1, "a")
	rb.Push(2, "b")

	v, ok := rb.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = rb.Get(99)
	assert.False(t, ok)

	assert.Equal(t, 2, rb.Len())
	assert.Equal(t, 3, rb.Capacity())
}

func TestPushSameTimestampUpdates(t *testing.T) {
	rb := New[string](2)

	rb.Push(1, "a")
	rb.Push(1, "a2")

	v, ok := rb.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a2", v)
	assert.Equal(t, 1, rb.Len())
}

func TestOverflowDropsOldest(t *testing.T) {
	rb := New[int](2)

	rb.Push(1, 10)
	rb.Push(2, 20)
	rb.Push(3, 30)

	_, ok := rb.Get(1)
	assert.False(t, ok, "oldest item should be evicted")

	all := rb.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].Timestamp)
	assert.Equal(t, int64(3), all[1].Timestamp)
}

func TestCleanupBefore(t *testing.T) {
	rb := New[int](4)

	rb.Push(1, 10)
	rb.Push(2, 20)
	rb.Push(3, 30)

	removed := rb.CleanupBefore(3)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, rb.Len())

	_, ok := rb.Get(2)
	assert.False(t, ok)

	v, ok := rb.Get(3)
	require.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestRangeOrder(t *testing.T) {
	rb := New[int](3)

	rb.Push(5, 50)
	rb.Push(6, 60)
	rb.Push(7, 70)
	rb.Push(8, 80) // evicts 5

	var seen []int64

	rb.Range(func(ts int64, _ int) bool {
		seen = append(seen, ts)
		return true
	})

	assert.Equal(t, []int64{6, 7, 8}, seen)

	// early stop
	seen = seen[:0]

	rb.Range(func(ts int64, _ int) bool {
		seen = append(seen, ts)
		return false
	})

	assert.Equal(t, []int64{6}, seen)
}

func TestZeroCapacity(t *testing.T) {
	rb := New[int](0)

	rb.Push(1, 1)
	assert.Equal(t, 1, rb.Len())

	rb.Push(2, 2)
	assert.Equal(t, 1, rb.Len(), "capacity clamps to 1")
}
