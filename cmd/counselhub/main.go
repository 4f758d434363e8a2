package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	sdk "go.opentelemetry.io/otel/sdk/metric"

	"github.com/counselhub/counselhub/conf"
	"github.com/counselhub/counselhub/internal/app"
	"github.com/counselhub/counselhub/internal/build"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/metrics"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		case "build-info":
			showBuildInfo()
			return
		}
	}

	startEngine()
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

func startEngine() {
	app.Run(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		fx.Provide(conf.Load),
		fx.Provide(metrics.NewProvider),
		fx.Invoke(func(lc fx.Lifecycle, application *app.App, backendCfg app.BackendConfig, provider *sdk.MeterProvider) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if provider != nil {
						return metrics.SetupMetrics(provider, application.Config.Name)
					}

					return nil
				},
				OnStop: func(ctx context.Context) error {
					if provider != nil {
						return provider.Shutdown(ctx)
					}

					return nil
				},
			})
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Info(ctx, "engine running",
						log.String("name", application.Config.Name),
						log.String("backend", backendCfg.Mode),
						log.String("version", build.Version),
					)

					return nil
				},
			})
		}),
	)
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: counselhub config <preview|validate|get>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	case "get":
		configGet()
	default:
		fmt.Println("Usage: counselhub config <preview|validate|get>")
		os.Exit(1)
	}
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var output string

	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output = string(b)
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output, err = highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unsupported format: %s\n", format)
		os.Exit(1)
	}

	fmt.Println(output)
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	switch config.Backend.Mode {
	case app.BackendMemory, app.BackendREST:
	default:
		errors = append(errors, fmt.Sprintf("backend.mode must be %q or %q", app.BackendMemory, app.BackendREST))
	}

	if config.Backend.Mode == app.BackendREST && config.Backend.REST.BaseURL == "" {
		errors = append(errors, "backend.rest.base_url cannot be empty in rest mode")
	}

	if config.Log.Name == "" {
		errors = append(errors, "log.name cannot be empty")
	}

	if config.Metrics.Enabled {
		switch config.Metrics.Exporter {
		case metrics.ExporterStdout, metrics.ExporterOTLPHTTP, metrics.ExporterOTLPGRPC:
		default:
			errors = append(errors, fmt.Sprintf("metrics.exporter %q is not supported", config.Metrics.Exporter))
		}
	}

	if config.Cleanup.Every < 0 {
		errors = append(errors, "cleanup.every cannot be negative")
	}

	if config.Cache.NegativeSize < 0 {
		errors = append(errors, "cache.negative_size cannot be negative")
	}

	return errors
}

func configGet() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: counselhub config get <key>")
		fmt.Println("")
		fmt.Println("Available keys:")
		fmt.Println("  app.name               Application name")
		fmt.Println("  app.debug              Debug logging toggle")
		fmt.Println("  backend.mode           Backend mode (memory, rest)")
		fmt.Println("  backend.rest.base_url  REST backend base URL")
		fmt.Println("  log.level              Log level")
		fmt.Println("  cleanup.cron           Cleanup job cron expression")
		fmt.Println("  cleanup.every          Cleanup job fixed interval")
		fmt.Println("  token.ttl              Token validation cache TTL")
		os.Exit(1)
	}

	key := os.Args[3]

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var value any

	switch key {
	case "app.name":
		value = config.App.Name
	case "app.debug":
		value = config.App.Debug
	case "backend.mode":
		value = config.Backend.Mode
	case "backend.rest.base_url":
		value = config.Backend.REST.BaseURL
	case "log.level":
		value = config.Log.Level
	case "log.format":
		value = config.Log.Format
	case "cleanup.cron":
		value = config.Cleanup.CRON
	case "cleanup.every":
		value = config.Cleanup.Every
	case "token.ttl":
		value = config.Token.TTL
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	fmt.Println(cast.ToString(value))
}

func showHelp() {
	fmt.Println("CounselHub Data Engine")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  counselhub                    Run the engine (default)")
	fmt.Println("  counselhub config preview     Preview configuration")
	fmt.Println("  counselhub config validate    Validate configuration")
	fmt.Println("  counselhub config get <key>   Get a specific config value")
	fmt.Println("  counselhub version            Show version")
	fmt.Println("  counselhub help               Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT       Output format for config preview (yml, json)")
}

func showVersion() {
	fmt.Println(build.Version)
}
