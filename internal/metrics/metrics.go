// Package metrics builds the OpenTelemetry meter provider and the engine's
// instruments. Instruments record through the global meter provider, so they
// stay no-ops until SetupMetrics installs a real one.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/counselhub/counselhub/internal/build"
)

// scopeName is the instrumentation scope for every instrument in here.
const scopeName = "github.com/counselhub/counselhub"

// Exporter names accepted by Config.Exporter.
const (
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp_http"
	ExporterOTLPGRPC = "otlp_grpc"
)

// Config configures metric export.
type Config struct {
	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`

	// Exporter is stdout, otlp_http or otlp_grpc. Defaults to stdout.
	Exporter string `conf:"exporter" yaml:"exporter" json:"exporter"`

	// Endpoint overrides the collector URL for the otlp exporters. Empty
	// defers to the exporter's own defaults and environment.
	Endpoint string `conf:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Insecure disables transport security on the grpc exporter.
	Insecure bool `conf:"insecure" yaml:"insecure" json:"insecure"`

	// Interval between pushes. Defaults to 1m.
	Interval time.Duration `conf:"interval" yaml:"interval" json:"interval"`

	// ServiceName tags exported metrics. Defaults to counselhub.
	ServiceName string `conf:"service_name" yaml:"service_name" json:"service_name"`
}

// NewProvider builds the meter provider for cfg. Disabled metrics return a
// nil provider; callers skip setup and shutdown on nil.
func NewProvider(cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	exporter, err := newExporter(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("build metrics exporter: %w", err)
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = time.Minute
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "counselhub"
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(build.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("build metrics resource: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

func newExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case ExporterStdout, "":
		return stdoutmetric.New()

	case ExporterOTLPHTTP:
		var opts []otlpmetrichttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(cfg.Endpoint))
		}

		return otlpmetrichttp.New(ctx, opts...)

	case ExporterOTLPGRPC:
		var opts []otlpmetricgrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpointURL(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}

		return otlpmetricgrpc.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}
}

// SetupMetrics installs provider as the global meter provider and registers
// the build info gauge. Instruments created before this call start recording
// once it runs; a nil provider leaves the no-op global in place.
func SetupMetrics(provider *sdkmetric.MeterProvider, serviceName string) error {
	if provider == nil {
		return nil
	}

	otel.SetMeterProvider(provider)

	meter := provider.Meter(scopeName)

	_, err := meter.Int64ObservableGauge("counselhub.build.info",
		metric.WithDescription("Build metadata, constant 1."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(1, metric.WithAttributes(
				attribute.String("service", serviceName),
				attribute.String("version", build.Version),
				attribute.String("go_version", build.GoVersion),
			))

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("register build info gauge: %w", err)
	}

	return nil
}
