package watcher

import (
	"context"
	"sync"
)

// Watcher provides a best-effort in-process watch stream.
//
// It is designed for cache change signals rather than durable delivery:
// implementations may drop events when subscribers are slow. Consumers that
// miss an event re-read the store; the stream only says "something changed".
//
// Watch is reference-counted via the returned stop function; callers must call
// stop exactly once to avoid leaking the subscription.
type Watcher[T any] interface {
	// Watch subscribes to the watch stream and returns:
	//   - a channel that emits events
	//   - a stop function to unsubscribe (must be called once)
	Watch() (<-chan T, func())
}

// Notifier is a Watcher that can also publish events.
//
// Typical usage:
//   - writer side (the cache store) calls Notify after a status transition
//   - reader side (UI bindings) depends only on Watcher
type Notifier[T any] interface {
	Watcher[T]

	// Notify broadcasts the value to all subscribers.
	Notify(ctx context.Context, v T) error
}

type MemoryWatcherOptions struct {
	Buffer int
}

type memoryWatcher[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan T
	buffer int
}

// NewMemoryWatcher builds an in-process Notifier. Buffer defaults to 4; a full
// subscriber channel drops the event rather than blocking the notifier.
func NewMemoryWatcher[T any](opts MemoryWatcherOptions) Notifier[T] {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 4
	}

	return &memoryWatcher[T]{
		subs:   make(map[uint64]chan T),
		buffer: buffer,
	}
}

func (w *memoryWatcher[T]) Watch() (<-chan T, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan T, w.buffer)
	w.subs[id] = ch

	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		sub, ok := w.subs[id]
		if !ok {
			return
		}

		delete(w.subs, id)
		close(sub)
	}
}

func (w *memoryWatcher[T]) Notify(_ context.Context, v T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- v:
		default:
		}
	}

	return nil
}
