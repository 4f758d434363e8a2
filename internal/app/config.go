package app

import (
	"time"

	"github.com/counselhub/counselhub/internal/backend/membackend"
	"github.com/counselhub/counselhub/internal/backend/restbackend"
)

// Backend modes accepted by BackendConfig.Mode.
const (
	BackendMemory = "memory"
	BackendREST   = "rest"
)

// Config is the application-level configuration.
type Config struct {
	// Name identifies this deployment in logs and metrics.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Debug loosens logging for development.
	Debug bool `conf:"debug" yaml:"debug" json:"debug"`

	// StopTimeout bounds graceful shutdown. Defaults to 15s.
	StopTimeout time.Duration `conf:"stop_timeout" yaml:"stop_timeout" json:"stop_timeout"`
}

// BackendConfig selects and configures the remote collaborators.
type BackendConfig struct {
	// Mode is memory or rest.
	Mode string `conf:"mode" yaml:"mode" json:"mode"`

	REST   restbackend.Config `conf:"rest" yaml:"rest" json:"rest"`
	Memory membackend.Config  `conf:"memory" yaml:"memory" json:"memory"`
}
