package xcache

import (
	"time"

	"github.com/counselhub/counselhub/internal/pkg/xredis"
)

const (
	ModeMemory   = "memory"
	ModeRedis    = "redis"
	ModeTwoLevel = "two-level"
)

// Config configures cache construction via NewFromConfig.
type Config struct {
	// Mode selects the cache topology: memory, redis or two-level.
	// Empty disables caching (a noop cache is returned).
	Mode string `conf:"mode" yaml:"mode" json:"mode"`

	Memory MemoryConfig  `conf:"memory" yaml:"memory" json:"memory"`
	Redis  xredis.Config `conf:"redis" yaml:"redis" json:"redis"`
}

type MemoryConfig struct {
	Expiration      time.Duration `conf:"expiration" yaml:"expiration" json:"expiration"`
	CleanupInterval time.Duration `conf:"cleanup_interval" yaml:"cleanup_interval" json:"cleanup_interval"`
}
