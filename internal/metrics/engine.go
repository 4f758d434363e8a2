package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/schedule"
)

// EngineMetrics carries the engine's instruments: read outcomes, mutation
// settlements and background job runs. Construct it once and hang its
// Observe methods on the engine's hooks.
type EngineMetrics struct {
	cacheServes metric.Int64Counter
	mutations   metric.Int64Counter
	jobRuns     metric.Int64Counter
	jobDuration metric.Float64Histogram
}

func NewEngineMetrics() (*EngineMetrics, error) {
	return newEngineMetrics(otel.Meter(scopeName))
}

func newEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	cacheServes, err := meter.Int64Counter("counselhub.cache.serves",
		metric.WithDescription("Reads served, by entity and outcome."),
		metric.WithUnit("{serve}"))
	if err != nil {
		return nil, err
	}

	mutations, err := meter.Int64Counter("counselhub.mutations",
		metric.WithDescription("Mutations settled, by entity, op and result."),
		metric.WithUnit("{mutation}"))
	if err != nil {
		return nil, err
	}

	jobRuns, err := meter.Int64Counter("counselhub.jobs.runs",
		metric.WithDescription("Background job runs, by job and status."),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram("counselhub.jobs.duration",
		metric.WithDescription("Background job run duration."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		cacheServes: cacheServes,
		mutations:   mutations,
		jobRuns:     jobRuns,
		jobDuration: jobDuration,
	}, nil
}

// ObserveServe counts one served read. Wire it into the fetcher's OnServe.
func (m *EngineMetrics) ObserveServe(ctx context.Context, key cache.Key, outcome cache.ServeOutcome) {
	m.cacheServes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", string(key.Entity)),
		attribute.String("outcome", string(outcome)),
	))
}

// ObserveMutation counts one settled mutation. Wire it into the executor's
// OnSettle.
func (m *EngineMetrics) ObserveMutation(ctx context.Context, mut *mutation.Mutation, err error) {
	result := "committed"
	if err != nil {
		result = "rolled_back"
	}

	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", string(mut.Entity)),
		attribute.String("op", string(mut.Op)),
		attribute.String("result", result),
	))
}

// ObserveJobRun records one background job result. Skipped runs count but do
// not contribute a duration.
func (m *EngineMetrics) ObserveJobRun(ctx context.Context, result schedule.RunResult) {
	status := "success"

	switch {
	case result.Skipped:
		status = "skipped"
	case !result.Success:
		status = "failure"
	}

	m.jobRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", result.Job),
		attribute.String("status", status),
	))

	if !result.Skipped {
		m.jobDuration.Record(ctx, result.Finished.Sub(result.Started).Seconds(),
			metric.WithAttributes(attribute.String("job", result.Job)))
	}
}
