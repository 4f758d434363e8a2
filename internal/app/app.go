// Package app assembles the engine from its configuration sections: backends,
// cache, mutation executor, scheduler and services, wired together with fx.
// The CLI and embedding callers share this one composition root.
package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/biz"
	"github.com/counselhub/counselhub/internal/dumper"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/metrics"
	"github.com/counselhub/counselhub/internal/schedule"
	"github.com/counselhub/counselhub/internal/token"
	"github.com/counselhub/counselhub/internal/tracing"
)

// App is the assembled engine. Callers read and mutate through the services;
// lifecycle stays with fx.
type App struct {
	Config Config

	Engine       *biz.Engine
	Students     *biz.StudentService
	Contacts     *biz.ContactService
	Interactions *biz.InteractionService
	Categories   *biz.CategoryService
	Reports      *biz.ReportService
	Invitations  *biz.InvitationService
	Tokens       *token.Validator
	Scheduler    *schedule.Scheduler
}

type AppParams struct {
	fx.In

	Config       Config
	Engine       *biz.Engine
	Students     *biz.StudentService
	Contacts     *biz.ContactService
	Interactions *biz.InteractionService
	Categories   *biz.CategoryService
	Reports      *biz.ReportService
	Invitations  *biz.InvitationService
	Tokens       *token.Validator
	Scheduler    *schedule.Scheduler
}

func NewApp(params AppParams) *App {
	return &App{
		Config:       params.Config,
		Engine:       params.Engine,
		Students:     params.Students,
		Contacts:     params.Contacts,
		Interactions: params.Interactions,
		Categories:   params.Categories,
		Reports:      params.Reports,
		Invitations:  params.Invitations,
		Tokens:       params.Tokens,
		Scheduler:    params.Scheduler,
	}
}

// Run assembles the app and blocks until an exit signal. Callers pass extra
// options for configuration and instrumentation, typically fx.Provide(conf.Load).
func Run(opts ...fx.Option) {
	app := fx.New(
		append([]fx.Option{
			fx.NopLogger,
			Module,
		}, opts...)...,
	)

	app.Run()
}

var Module = fx.Module("app",
	dependencies,
	dumper.Module,
	biz.Module,
	fx.Provide(NewApp),
	fx.Invoke(func(appCfg Config, cfg log.Config) {
		if appCfg.Debug {
			cfg.Level = "debug"
		}

		log.SetGlobalConfig(cfg)
		tracing.SetupLogger(log.GetGlobalLogger())
		slog.SetDefault(log.GetGlobalLogger().AsSlog())
	}),
	fx.Invoke(registerCleanup),
)

func registerCleanup(
	lc fx.Lifecycle,
	appCfg Config,
	scheduler *schedule.Scheduler,
	cleanup backend.CleanupBackend,
	cfg schedule.JobConfig,
	engineMetrics *metrics.EngineMetrics,
	dump *dumper.Dumper,
) {
	scheduler.Register(schedule.NewCleanupJob(schedule.CleanupJobOptions{Backend: cleanup}), cfg)

	var stopResults func()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			results, stop := scheduler.Subscribe()
			stopResults = stop

			go func() {
				for result := range results {
					engineMetrics.ObserveJobRun(context.Background(), result)
				}
			}()

			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if appCfg.StopTimeout > 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, appCfg.StopTimeout)
				defer cancel()
			}

			err := scheduler.Stop(ctx)

			if stopResults != nil {
				stopResults()
			}

			dumpJobHistory(ctx, scheduler, dump)

			return err
		},
	})
}

// dumpJobHistory preserves each job's run history as a shutdown artifact.
// No-op unless dumping is enabled.
func dumpJobHistory(ctx context.Context, scheduler *schedule.Scheduler, dump *dumper.Dumper) {
	for _, name := range scheduler.Jobs() {
		history := scheduler.History(name)
		if len(history) == 0 {
			continue
		}

		records := make([]any, 0, len(history))
		for _, result := range history {
			records = append(records, result)
		}

		dump.DumpRecords(ctx, records, "job_history_"+name)
	}
}
