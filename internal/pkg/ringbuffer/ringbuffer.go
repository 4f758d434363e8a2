package ringbuffer

import (
	"sync"
)

// Item is a single buffered value keyed by timestamp.
type Item[T any] struct {
	Timestamp int64
	Value     T
}

// RingBuffer is a fixed-size circular buffer ordered by insertion, with a
// timestamp index for O(1) Get. When full, the oldest item is dropped.
type RingBuffer[T any] struct {
	mu       sync.RWMutex
	items    []Item[T]
	index    map[int64]int
	capacity int
	size     int
	head     int
	tail     int
}

// New creates a RingBuffer with the given capacity (minimum 1).
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &RingBuffer[T]{
		items:    make([]Item[T], capacity),
		index:    make(map[int64]int, capacity),
		capacity: capacity,
	}
}

// Push adds an item. An item with the same timestamp is updated in place.
// When the buffer is full the oldest item is removed.
func (rb *RingBuffer[T]) Push(timestamp int64, value T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if idx, exists := rb.index[timestamp]; exists {
		rb.items[idx].Value = value
		return
	}

	if rb.size >= rb.capacity {
		delete(rb.index, rb.items[rb.head].Timestamp)
	}

	rb.items[rb.tail] = Item[T]{
		Timestamp: timestamp,
		Value:     value,
	}
	rb.index[timestamp] = rb.tail

	rb.tail = (rb.tail + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	} else {
		rb.head = (rb.head + 1) % rb.capacity
	}
}

// Get retrieves an item by timestamp in O(1) time.
func (rb *RingBuffer[T]) Get(timestamp int64) (T, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if idx, exists := rb.index[timestamp]; exists {
		return rb.items[idx].Value, true
	}

	var zero T

	return zero, false
}

// CleanupBefore removes all items with timestamps before the cutoff and
// returns how many were removed.
func (rb *RingBuffer[T]) CleanupBefore(cutoff int64) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	removed := 0

	for rb.size > 0 {
		if rb.items[rb.head].Timestamp >= cutoff {
			break
		}

		delete(rb.index, rb.items[rb.head].Timestamp)

		rb.head = (rb.head + 1) % rb.capacity
		rb.size--
		removed++
	}

	return removed
}

// Range visits items from oldest to newest until fn returns false.
func (rb *RingBuffer[T]) Range(fn func(timestamp int64, value T) bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	for i := 0; i < rb.size; i++ {
		idx := (rb.head + i) % rb.capacity

		item := rb.items[idx]
		if !fn(item.Timestamp, item.Value) {
			break
		}
	}
}

// Len returns the current number of items in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return rb.size
}

// Capacity returns the maximum capacity of the buffer.
func (rb *RingBuffer[T]) Capacity() int {
	return rb.capacity
}

// GetAll returns all items from oldest to newest.
func (rb *RingBuffer[T]) GetAll() []Item[T] {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 {
		return nil
	}

	result := make([]Item[T], 0, rb.size)
	for i := 0; i < rb.size; i++ {
		idx := (rb.head + i) % rb.capacity
		result = append(result, rb.items[idx])
	}

	return result
}
