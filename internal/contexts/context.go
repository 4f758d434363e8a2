package contexts

import (
	"context"

	"github.com/counselhub/counselhub/internal/objects"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithCounselor stores the signed-in counselor in the context.
func WithCounselor(ctx context.Context, counselor *objects.Counselor) context.Context {
	container := getContainer(ctx)
	container.Counselor = counselor

	return withContainer(ctx, container)
}

// GetCounselor retrieves the signed-in counselor from the context.
func GetCounselor(ctx context.Context) (*objects.Counselor, bool) {
	container := getContainer(ctx)
	return container.Counselor, container.Counselor != nil
}

// WithSchoolID stores the active school (tenant) id in the context.
func WithSchoolID(ctx context.Context, schoolID string) context.Context {
	container := getContainer(ctx)
	container.SchoolID = &schoolID

	return withContainer(ctx, container)
}

// GetSchoolID retrieves the active school id from the context. It falls back
// to the signed-in counselor's school when no explicit school id was stored.
func GetSchoolID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.SchoolID != nil {
		return *container.SchoolID, true
	}

	if container.Counselor != nil && container.Counselor.SchoolID != "" {
		return container.Counselor.SchoolID, true
	}

	return "", false
}

// WithInviteToken stores the invitation token of the current navigation in the context.
func WithInviteToken(ctx context.Context, token string) context.Context {
	container := getContainer(ctx)
	container.InviteToken = &token

	return withContainer(ctx, container)
}

// GetInviteToken retrieves the invitation token of the current navigation from the context.
func GetInviteToken(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.InviteToken != nil {
		return *container.InviteToken, true
	}

	return "", false
}
