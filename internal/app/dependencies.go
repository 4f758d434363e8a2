package app

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/backend/membackend"
	"github.com/counselhub/counselhub/internal/backend/restbackend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/dumper"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/metrics"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/pkg/httpclient"
	"github.com/counselhub/counselhub/internal/schedule"
	"github.com/counselhub/counselhub/internal/token"
)

var dependencies = fx.Options(
	fx.Provide(log.New),
	fx.Provide(httpclient.NewHttpClient),
	fx.Provide(NewExecutors),
	fx.Provide(metrics.NewEngineMetrics),
	fx.Provide(cache.NewStore),
	fx.Provide(mutation.NewGraph),
	fx.Provide(NewBackends),
	fx.Provide(NewFetcher),
	fx.Provide(NewMutationExecutor),
	fx.Provide(NewTokenValidator),
	fx.Provide(NewScheduler),
)

type ErrorHandler struct{}

func (h *ErrorHandler) CatchError(runnable executors.Runnable, err error) {
	log.Error(context.Background(), "run runnable error", log.Cause(err))
}

type RejectionHandler struct{}

func (h *RejectionHandler) RejectExecution(runnable executors.Runnable, e executors.Executor) error {
	log.Error(context.Background(), "runnable rejection by executor", log.String("runnable", reflect.ValueOf(runnable).String()))
	return nil
}

// NewExecutors builds the shared scheduled executor pool. The scheduler owns
// its shutdown.
func NewExecutors(logger *log.Logger) executors.ScheduledExecutor {
	return executors.NewPoolScheduleExecutor(
		executors.WithMaxConcurrent(64),
		executors.WithMaxBlockingTasks(1024),
		executors.WithErrorHandler(&ErrorHandler{}),
		executors.WithRejectionHandler(&RejectionHandler{}),
		executors.WithLogger(logger.AsSlog()),
	)
}

// Backends groups the remote collaborators one backend instance serves.
type Backends struct {
	fx.Out

	Data    backend.DataBackend
	Cleanup backend.CleanupBackend
	Tokens  backend.TokenBackend
}

// NewBackends builds the collaborators for the configured mode. Both modes
// hand the same instance back under all three contracts.
func NewBackends(cfg BackendConfig, client *httpclient.HttpClient) (Backends, error) {
	switch cfg.Mode {
	case BackendREST:
		if cfg.REST.BaseURL == "" {
			return Backends{}, fmt.Errorf("backend.rest.base_url is required in rest mode")
		}

		rest := restbackend.New(client, cfg.REST)

		return Backends{Data: rest, Cleanup: rest, Tokens: rest}, nil

	case BackendMemory, "":
		mem := membackend.New(cfg.Memory)

		return Backends{Data: mem, Cleanup: mem, Tokens: mem}, nil

	default:
		return Backends{}, fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}
}

func NewFetcher(store *cache.Store, cfg cache.Config, em *metrics.EngineMetrics) *cache.Fetcher {
	return cache.NewFetcher(cache.FetcherOptions{
		Store:          store,
		NegativeTTL:    cfg.NegativeTTL,
		NegativeSize:   cfg.NegativeSize,
		RefreshTimeout: cfg.RefreshTimeout,
		OnServe:        em.ObserveServe,
	})
}

// NewMutationExecutor wires settlement observation: every settled mutation is
// counted, and rollbacks are dumped for offline debugging when the dumper is
// enabled.
func NewMutationExecutor(store *cache.Store, graph *mutation.Graph, em *metrics.EngineMetrics, dump *dumper.Dumper) *mutation.Executor {
	return mutation.NewExecutor(mutation.ExecutorOptions{
		Store: store,
		Graph: graph,
		OnSettle: func(ctx context.Context, m *mutation.Mutation, err error) {
			em.ObserveMutation(ctx, m, err)

			if err != nil {
				dump.DumpStruct(ctx, map[string]any{
					"mutation_id": m.ID,
					"entity":      m.Entity,
					"op":          m.Op,
					"error":       err.Error(),
				}, "mutation_rollback")
			}
		},
	})
}

func NewTokenValidator(cfg token.Config, tokens backend.TokenBackend) *token.Validator {
	return token.NewValidator(token.ValidatorOptions{
		Backend: tokens,
		Cache:   token.NewCacheFromConfig(cfg),
	})
}

func NewScheduler(executor executors.ScheduledExecutor, graph *mutation.Graph) *schedule.Scheduler {
	return schedule.NewScheduler(schedule.SchedulerOptions{
		Executor: executor,
		Graph:    graph,
	})
}
