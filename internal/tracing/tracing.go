package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/counselhub/counselhub/internal/contexts"
)

type Config struct {
	// TraceHeader is the header the remote backend expects the trace id in.
	TraceHeader string `conf:"trace_header" yaml:"trace_header" json:"trace_header"`
}

// GenerateTraceID generates a trace id, formatted as ch-{{uuid}}.
func GenerateTraceID() string {
	id := uuid.New()
	return fmt.Sprintf("ch-%s", id.String())
}

// WithTraceID stores the trace id to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return contexts.WithTraceID(ctx, traceID)
}

// GetTraceID gets the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	return contexts.GetTraceID(ctx)
}

// EnsureTraceID returns the context's trace id, generating and storing one if
// the context carries none.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID, ok := contexts.GetTraceID(ctx); ok {
		return ctx, traceID
	}

	traceID := GenerateTraceID()

	return contexts.WithTraceID(ctx, traceID), traceID
}

// WithOperationName stores the operation name to the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	return contexts.WithOperationName(ctx, name)
}

// GetOperationName gets the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	return contexts.GetOperationName(ctx)
}
