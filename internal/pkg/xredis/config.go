package xredis

import (
	"time"
)

// Config describes a redis connection. Either Addr or URL must be set; URL
// wins when both are present, and the explicit credential fields override
// whatever the URL carries.
type Config struct {
	Addr     string `conf:"addr" yaml:"addr" json:"addr"`
	URL      string `conf:"url" yaml:"url" json:"url"`
	Username string `conf:"username" yaml:"username" json:"username"`
	Password string `conf:"password" yaml:"password" json:"password"`
	DB       *int   `conf:"db" yaml:"db" json:"db"`

	TLS                   bool `conf:"tls" yaml:"tls" json:"tls"`
	TLSInsecureSkipVerify bool `conf:"tls_insecure_skip_verify" yaml:"tls_insecure_skip_verify" json:"tls_insecure_skip_verify"`

	// Expiration is the default TTL for entries written through this
	// connection.
	Expiration time.Duration `conf:"expiration" yaml:"expiration" json:"expiration"`
}

// Empty reports whether the config names no server at all.
func (c Config) Empty() bool {
	return c.Addr == "" && c.URL == ""
}
