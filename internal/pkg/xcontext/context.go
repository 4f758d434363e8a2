package xcontext

import (
	"context"
	"time"
)

// Detach returns a context that keeps the values of ctx but is not cancelled
// when ctx is. Used for background work started from request-scoped contexts.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// DetachWithTimeout detaches ctx and bounds the detached work with its own
// timeout.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, timeout)

	return ctx, cancel
}
