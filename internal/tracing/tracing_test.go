package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	assert.True(t, strings.HasPrefix(id, "ch-"))
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	require.NotEmpty(t, id)

	got, ok := GetTraceID(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	// A context that already carries a trace id keeps it.
	ctx2, id2 := EnsureTraceID(ctx)
	assert.Equal(t, id, id2)

	got2, ok := GetTraceID(ctx2)
	require.True(t, ok)
	assert.Equal(t, id, got2)
}
