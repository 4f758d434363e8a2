package xcache

import (
	"context"
	"errors"

	"github.com/eko/gocache/lib/v4/store"
)

var ErrCacheNotConfigured = errors.New("cache is not configured")

// NewNoop returns a cache that stores nothing. Get always misses with a
// store.NotFound error so callers treat it like any other miss.
func NewNoop[T any]() Cache[T] {
	return &noopCache[T]{}
}

type noopCache[T any] struct{}

func (n *noopCache[T]) Get(ctx context.Context, key any) (T, error) {
	var zero T
	return zero, store.NotFoundWithCause(ErrCacheNotConfigured)
}

func (n *noopCache[T]) Set(ctx context.Context, key any, object T, options ...store.Option) error {
	return nil
}

func (n *noopCache[T]) Delete(ctx context.Context, key any) error {
	return nil
}

func (n *noopCache[T]) Invalidate(ctx context.Context, options ...store.InvalidateOption) error {
	return nil
}

func (n *noopCache[T]) Clear(ctx context.Context) error {
	return nil
}

func (n *noopCache[T]) GetType() string {
	return "noop"
}
