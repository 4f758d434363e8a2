package token

import (
	"time"

	"github.com/counselhub/counselhub/internal/pkg/xcache"
)

// Config configures the validation cache.
type Config struct {
	// TTL bounds how long a validation may be reused. Defaults to DefaultTTL.
	TTL time.Duration `conf:"ttl" yaml:"ttl" json:"ttl"`

	// Store selects the backing cache topology. Empty means a process-local
	// in-memory cache.
	Store xcache.Config `conf:"store" yaml:"store" json:"store"`
}

// NewCacheFromConfig builds the validation cache for cfg.
func NewCacheFromConfig(cfg Config) *Cache {
	opts := CacheOptions{TTL: cfg.TTL}

	if cfg.Store.Mode != "" {
		opts.Cache = xcache.NewFromConfig[Record](cfg.Store)
	}

	return NewCache(opts)
}
