package contexts

import (
	"context"

	"github.com/counselhub/counselhub/internal/objects"
)

// contextContainer contains all values in the context.
type contextContainer struct {
	TraceID       *string
	OperationName *string
	SchoolID      *string
	InviteToken   *string
	Counselor     *objects.Counselor
}

// getContainer retrieves the existing container from context, or creates a new
// one when the context carries none yet.
func getContainer(ctx context.Context) *contextContainer {
	if container, ok := ctx.Value(containerContextKey).(*contextContainer); ok {
		return container
	}

	return &contextContainer{}
}

// withContainer stores the container in the context (if not already stored).
func withContainer(ctx context.Context, container *contextContainer) context.Context {
	if ctx.Value(containerContextKey) == nil {
		return context.WithValue(ctx, containerContextKey, container)
	}

	return ctx
}
