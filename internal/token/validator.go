package token

import (
	"context"
	"fmt"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	Backend backend.TokenBackend

	// Cache defaults to an in-memory cache with DefaultTTL.
	Cache *Cache

	// Session defaults to a fresh navigation session.
	Session *Session
}

// Validator resolves tokens to validation records, reusing cached
// validations within the navigation session.
type Validator struct {
	backend backend.TokenBackend
	cache   *Cache
	session *Session
}

func NewValidator(opts ValidatorOptions) *Validator {
	if opts.Backend == nil {
		panic("token.Validator: Backend is required")
	}

	cache := opts.Cache
	if cache == nil {
		cache = NewCache(CacheOptions{})
	}

	session := opts.Session
	if session == nil {
		session = NewSession()
	}

	return &Validator{backend: opts.Backend, cache: cache, session: session}
}

// Validate resolves token to a record. Re-entering with the session's
// current token serves a still-servable cached record without a round trip;
// any other entry validates remotely. A collaborator failure is returned as
// an error, exactly like a cache miss, and is never reported as an invalid
// token.
func (v *Validator) Validate(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, backend.ValidationFailure("token is required")
	}

	if v.session.Enter(token) {
		if record, ok := v.cache.Lookup(ctx, token); ok {
			log.Debug(ctx, "token validation served from cache", log.Bool("valid", record.Valid))
			return record, nil
		}
	}

	verdict, err := v.backend.Validate(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}

	record := &Record{
		Token:     token,
		Valid:     verdict.Valid,
		Reason:    verdict.Reason,
		Claims:    verdict.Claims,
		ExpiresAt: verdict.ExpiresAt,
		CachedAt:  xtime.UTCNow(),
	}

	if err := v.cache.Store(ctx, record); err != nil {
		log.Error(ctx, "failed to cache token validation", log.Cause(err))
	}

	return record, nil
}

// Forget drops the cached validation and resets the session for token, so
// the next entry revalidates remotely. Used once a single-use token has
// been consumed.
func (v *Validator) Forget(ctx context.Context, token string) {
	v.cache.Forget(ctx, token)
	v.session.Reset(token)
}
