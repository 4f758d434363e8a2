package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/schedule"
)

func TestEngineMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newEngineMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := t.Context()
	key := cache.RecordKey(objects.EntityStudents, "S1")

	m.ObserveServe(ctx, key, cache.ServeFresh)
	m.ObserveServe(ctx, key, cache.ServeFresh)
	m.ObserveServe(ctx, key, cache.ServeStale)

	m.ObserveMutation(ctx, &mutation.Mutation{Entity: objects.EntityStudents, Op: objects.OpCreate}, nil)
	m.ObserveMutation(ctx, &mutation.Mutation{Entity: objects.EntityStudents, Op: objects.OpUpdate}, errors.New("conflict"))

	started := time.Now()
	m.ObserveJobRun(ctx, schedule.RunResult{
		Job:      "expired-record-cleanup",
		Started:  started,
		Finished: started.Add(120 * time.Millisecond),
		Success:  true,
	})
	m.ObserveJobRun(ctx, schedule.RunResult{Job: "expired-record-cleanup", Success: true, Skipped: true})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	require.EqualValues(t, 3, counterTotal(t, rm, "counselhub.cache.serves"))
	require.EqualValues(t, 2, counterTotal(t, rm, "counselhub.mutations"))
	require.EqualValues(t, 2, counterTotal(t, rm, "counselhub.jobs.runs"))

	require.EqualValues(t, 2, counterWith(t, rm, "counselhub.cache.serves", attribute.String("outcome", "fresh")))
	require.EqualValues(t, 1, counterWith(t, rm, "counselhub.mutations", attribute.String("result", "rolled_back")))
	require.EqualValues(t, 1, counterWith(t, rm, "counselhub.jobs.runs", attribute.String("status", "skipped")))

	// The skipped run contributes no duration sample.
	hist := histogramData(t, rm, "counselhub.jobs.duration")
	require.Len(t, hist.DataPoints, 1)
	require.EqualValues(t, 1, hist.DataPoints[0].Count)
	require.InDelta(t, 0.12, hist.DataPoints[0].Sum, 0.001)
}

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(Config{})
	require.NoError(t, err)
	require.Nil(t, provider)

	require.NoError(t, SetupMetrics(nil, "counselhub"), "nil provider keeps the no-op global")
}

func TestNewProviderUnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "statsd"})
	require.Error(t, err)
}

func TestNewProviderStdout(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: true, Exporter: ExporterStdout, Interval: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, provider)

	require.NoError(t, provider.Shutdown(t.Context()))
}

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	sum := sumData(t, rm, name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func counterWith(t *testing.T, rm metricdata.ResourceMetrics, name string, kv attribute.KeyValue) int64 {
	t.Helper()

	sum := sumData(t, rm, name)

	var total int64

	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(kv.Key); ok && v.AsString() == kv.Value.AsString() {
			total += dp.Value
		}
	}

	return total
}

func sumData(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	data, ok := metricByName(rm, name)
	require.True(t, ok, "metric %q not collected", name)

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %q is not an int64 sum", name)

	return sum
}

func histogramData(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	data, ok := metricByName(rm, name)
	require.True(t, ok, "metric %q not collected", name)

	hist, ok := data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %q is not a float64 histogram", name)

	return hist
}

func metricByName(rm metricdata.ResourceMetrics, name string) (metricdata.Aggregation, bool) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m.Data, true
			}
		}
	}

	return nil, false
}
