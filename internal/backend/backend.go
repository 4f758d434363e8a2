// Package backend declares the remote collaborators the engine depends on.
// The engine never talks to the network itself; everything remote goes
// through these interfaces, and every failure they return is a typed *Error
// from this package.
package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/counselhub/counselhub/internal/objects"
)

//go:generate mockgen -source=backend.go -destination=mock/backend.go -package=mock

// DataBackend is the persistence collaborator. Payloads and results are raw
// JSON rows; codec decisions stay at the adapter edge and the engine caches
// typed values decoded by the services.
type DataBackend interface {
	// Fetch returns the row for one record or KindNotFound.
	Fetch(ctx context.Context, entity objects.Entity, id string) (json.RawMessage, error)
	// List returns the rows matching filter. Filter keys are entity fields;
	// an empty filter lists everything visible to the caller.
	List(ctx context.Context, entity objects.Entity, filter map[string]string) ([]json.RawMessage, error)
	// Create persists payload and returns the confirmed row with
	// server-assigned id and timestamps.
	Create(ctx context.Context, entity objects.Entity, payload json.RawMessage) (json.RawMessage, error)
	// Update replaces the record and returns the confirmed row. The row's
	// version must match or KindConflict is returned.
	Update(ctx context.Context, entity objects.Entity, id string, payload json.RawMessage) (json.RawMessage, error)
	// Delete removes the record. Deleting an absent record is KindNotFound.
	Delete(ctx context.Context, entity objects.Entity, id string) error
}

// CleanupCategory names a class of ephemeral records the cleanup collaborator
// can purge. Cleanup never touches entity records served by the cache.
type CleanupCategory string

const (
	CleanupInviteTokens  CleanupCategory = "invite_tokens"
	CleanupTokenSessions CleanupCategory = "token_sessions"
)

func CleanupCategories() []CleanupCategory {
	return []CleanupCategory{CleanupInviteTokens, CleanupTokenSessions}
}

// CleanupBackend purges expired ephemeral records. Idempotent: a second call
// right after a successful one reports zero deletions.
type CleanupBackend interface {
	DeleteExpired(ctx context.Context, category CleanupCategory) (int, error)
}

// Verdict is the outcome of a remote token validation. Valid=false with a
// nil error is a definitive rejection; transport problems are returned as an
// error instead, never as an invalid verdict.
type Verdict struct {
	Valid     bool                 `json:"valid"`
	Reason    string               `json:"reason,omitempty"`
	Claims    *objects.TokenClaims `json:"claims,omitempty"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// TokenBackend validates invitation tokens remotely.
type TokenBackend interface {
	Validate(ctx context.Context, token string) (*Verdict, error)
}
