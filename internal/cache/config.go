package cache

import "time"

// Config tunes the read-through fetcher. Zero values fall back to the
// FetcherOptions defaults.
type Config struct {
	// NegativeTTL is how long a not-found result suppresses reloads.
	NegativeTTL time.Duration `conf:"negative_ttl" yaml:"negative_ttl" json:"negative_ttl"`

	// NegativeSize bounds the negative-result cache.
	NegativeSize int `conf:"negative_size" yaml:"negative_size" json:"negative_size"`

	// RefreshTimeout bounds each background revalidation.
	RefreshTimeout time.Duration `conf:"refresh_timeout" yaml:"refresh_timeout" json:"refresh_timeout"`
}
