package token

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/pkg/xcache"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

// DefaultTTL bounds how long a validation may be reused regardless of the
// token's own expiry.
const DefaultTTL = 5 * time.Minute

func validationKey(token string) string {
	hash := xxhash.Sum64String(token)
	return "token_validation:" + fmt.Sprintf("%d", hash)
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Cache defaults to an in-memory TTL cache.
	Cache xcache.Cache[Record]

	// TTL defaults to DefaultTTL.
	TTL time.Duration
}

// Cache holds validation records keyed by token hash. Expiry is enforced
// twice: the backing store expires entries, and Lookup re-checks the
// serve-until deadline so a lagging store cleanup can never leak a record
// past min(CachedAt+TTL, ExpiresAt).
type Cache struct {
	cache xcache.Cache[Record]
	ttl   time.Duration
}

func NewCache(opts CacheOptions) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := opts.Cache
	if c == nil {
		c = xcache.NewMemoryWithOptions[Record](ttl, 10*time.Minute)
	}

	return &Cache{cache: c, ttl: ttl}
}

// Lookup returns the cached record for token if it is still servable.
func (c *Cache) Lookup(ctx context.Context, token string) (*Record, bool) {
	record, err := c.cache.Get(ctx, validationKey(token))
	if err != nil || record.Token != token {
		return nil, false
	}

	if !record.ServableAt(xtime.UTCNow(), c.ttl) {
		if err := c.cache.Delete(ctx, validationKey(token)); err != nil {
			log.Debug(ctx, "failed to drop expired token validation", log.Cause(err))
		}

		return nil, false
	}

	return &record, true
}

// Store inserts or overwrites the record. Records already past their own
// expiry are not worth caching and are silently skipped.
func (c *Cache) Store(ctx context.Context, record *Record) error {
	if record == nil || record.Token == "" {
		return backend.Programming("token validation record requires a token")
	}

	if record.CachedAt.IsZero() {
		record.CachedAt = xtime.UTCNow()
	}

	expiration := c.ttl

	if !record.ExpiresAt.IsZero() {
		if remaining := record.ExpiresAt.Sub(record.CachedAt); remaining < expiration {
			expiration = remaining
		}
	}

	if expiration <= 0 {
		return nil
	}

	return c.cache.Set(ctx, validationKey(record.Token), *record, xcache.WithExpiration(expiration))
}

// Forget drops the cached validation for token, e.g. once a single-use
// token has been consumed.
func (c *Cache) Forget(ctx context.Context, token string) {
	_ = c.cache.Delete(ctx, validationKey(token))
}
