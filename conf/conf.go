// Package conf loads the engine configuration from file and environment.
// Sections decompose into the fx graph, so constructors depend on exactly the
// section they consume.
package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/app"
	"github.com/counselhub/counselhub/internal/backend/restbackend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/dumper"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/metrics"
	"github.com/counselhub/counselhub/internal/schedule"
	"github.com/counselhub/counselhub/internal/token"
	"github.com/counselhub/counselhub/internal/tracing"
)

// EnvConfigFile names an explicit config file. When set, the file must exist;
// otherwise the search path is the working directory, ./conf and
// /etc/counselhub.
const EnvConfigFile = "COUNSELHUB_CONFIG"

// Config is the full configuration tree. It embeds fx.Out so each section is
// provided to the graph on its own.
type Config struct {
	fx.Out `conf:"-" yaml:"-" json:"-"`

	App     app.Config         `conf:"app" yaml:"app" json:"app"`
	Log     log.Config         `conf:"log" yaml:"log" json:"log"`
	Metrics metrics.Config     `conf:"metrics" yaml:"metrics" json:"metrics"`
	Backend app.BackendConfig  `conf:"backend" yaml:"backend" json:"backend"`
	Cache   cache.Config       `conf:"cache" yaml:"cache" json:"cache"`
	Token   token.Config       `conf:"token" yaml:"token" json:"token"`
	Cleanup schedule.JobConfig `conf:"cleanup" yaml:"cleanup" json:"cleanup"`
	Dump    dumper.Config      `conf:"dump" yaml:"dump" json:"dump"`
}

// Default returns the configuration an empty file resolves to: memory
// backend, console logging, hourly cleanup, metrics off.
func Default() Config {
	return Config{
		App: app.Config{
			Name:        "counselhub",
			StopTimeout: 15 * time.Second,
		},
		Log: log.Config{
			Name:   "counselhub",
			Level:  "info",
			Format: "console",
		},
		Metrics: metrics.Config{
			Exporter:    metrics.ExporterStdout,
			Interval:    time.Minute,
			ServiceName: "counselhub",
		},
		Backend: app.BackendConfig{
			Mode: app.BackendMemory,
			REST: restbackend.Config{
				Timeout: restbackend.DefaultTimeout,
				Trace:   tracing.Config{TraceHeader: "X-Trace-Id"},
			},
		},
		Cache: cache.Config{
			NegativeTTL:    5 * time.Second,
			NegativeSize:   256,
			RefreshTimeout: 30 * time.Second,
		},
		Token: token.Config{
			TTL: token.DefaultTTL,
		},
		Cleanup: schedule.JobConfig{
			Every:   time.Hour,
			History: 32,
		},
		Dump: dumper.DefaultConfig(),
	}
}

// Load reads the configuration and fills unset fields from Default. A missing
// config file is fine; a file named via COUNSELHUB_CONFIG is not allowed to be
// missing. Environment variables use the COUNSELHUB_ prefix with underscores,
// e.g. COUNSELHUB_BACKEND_REST_BASE_URL.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("counselhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")
	v.AddConfigPath("/etc/counselhub")

	if path := os.Getenv(EnvConfigFile); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("COUNSELHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}

	return cfg, nil
}

// Unmarshal only sees keys viper knows about, so keys that may arrive via
// environment alone are bound explicitly.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"app.name",
		"app.debug",
		"log.level",
		"log.format",
		"metrics.enabled",
		"metrics.exporter",
		"metrics.endpoint",
		"backend.mode",
		"backend.rest.base_url",
		"backend.rest.api_key",
		"backend.memory.secret",
		"backend.memory.school_id",
		"cleanup.cron",
		"cleanup.every",
		"dump.enabled",
		"dump.dump_path",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
