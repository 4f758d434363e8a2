// Package token caches one-time invitation token validations. Records are
// ephemeral: a cached validation is never served past its TTL or past the
// token's own expiry, whichever comes sooner, and a navigation session
// decides when a cached validation may be reused at all.
package token

import (
	"time"

	"github.com/counselhub/counselhub/internal/objects"
)

// Record is one cached token validation outcome.
type Record struct {
	Token     string               `json:"token"`
	Valid     bool                 `json:"valid"`
	Reason    string               `json:"reason,omitempty"`
	Claims    *objects.TokenClaims `json:"claims,omitempty"`
	ExpiresAt time.Time            `json:"expiresAt,omitzero"`
	CachedAt  time.Time            `json:"cachedAt"`
}

// ServableAt reports whether the record may still be served at now: before
// CachedAt+ttl and before the token's own expiry, whichever is sooner.
func (r *Record) ServableAt(now time.Time, ttl time.Duration) bool {
	deadline := r.CachedAt.Add(ttl)
	if !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(deadline) {
		deadline = r.ExpiresAt
	}

	return now.Before(deadline)
}
