// Package schedule runs named background jobs on cron or fixed-rate
// schedules: currently the expired-record cleanup. Jobs never overlap
// themselves, their failures become run results rather than errors, and
// every completed run is retained and broadcast.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zhenzou/executors"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/pkg/ringbuffer"
	"github.com/counselhub/counselhub/internal/pkg/watcher"
	"github.com/counselhub/counselhub/internal/pkg/xcontext"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

const (
	defaultHistorySize = 32
	resultBuffer       = 16
)

// Job is one named background unit of work. Run returns per-category work
// counts; it must be idempotent, and a run right after a successful one
// reports zero work.
type Job interface {
	Name() string
	Run(ctx context.Context) (map[string]int, error)
}

// CacheKeyDeclarer is implemented by jobs that would touch cache keys.
// Background jobs and foreground mutations must work disjoint key spaces, so
// the scheduler refuses any declarer overlapping the mutation graph.
type CacheKeyDeclarer interface {
	CacheKeys() []cache.Key
}

// RunResult records one settled run of a job. Failed runs carry the error
// message; skipped runs report zero work and do not overwrite the retained
// last result.
type RunResult struct {
	Job      string         `json:"job"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Success  bool           `json:"success"`
	Skipped  bool           `json:"skipped,omitempty"`
	Error    string         `json:"error,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
}

// Total sums the per-category counts.
func (r RunResult) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}

	return total
}

// JobConfig is the schedule for one job. CRON wins when both are set;
// neither set means the job only runs via RunOnce.
type JobConfig struct {
	CRON    string        `json:"cron" yaml:"cron" conf:"cron"`
	Every   time.Duration `json:"every" yaml:"every" conf:"every"`
	History int           `json:"history" yaml:"history" conf:"history"`
}

type jobState struct {
	job     Job
	cfg     JobConfig
	running atomic.Bool
	cancel  context.CancelFunc

	mu      sync.Mutex
	last    *RunResult
	history *ringbuffer.RingBuffer[RunResult]
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Executor defaults to a single-worker pool so scheduled ticks of
	// different jobs also run one at a time.
	Executor executors.ScheduledExecutor

	// Graph, when set, lets Register refuse jobs declaring cache keys of
	// entities the mutation layer owns.
	Graph *mutation.Graph
}

// Scheduler owns the registered jobs and their run state. It is the only
// writer of per-job state; reads are served from retained results.
type Scheduler struct {
	executor executors.ScheduledExecutor
	graph    *mutation.Graph
	results  watcher.Notifier[RunResult]

	mu      sync.Mutex
	jobs    map[string]*jobState
	started bool
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	executor := opts.Executor
	if executor == nil {
		executor = executors.NewPoolScheduleExecutor(
			executors.WithMaxConcurrent(1),
			executors.WithErrorHandler(&errorHandler{}),
		)
	}

	return &Scheduler{
		executor: executor,
		graph:    opts.Graph,
		results:  watcher.NewMemoryWatcher[RunResult](watcher.MemoryWatcherOptions{Buffer: resultBuffer}),
		jobs:     make(map[string]*jobState),
	}
}

type errorHandler struct{}

func (h *errorHandler) CatchError(runnable executors.Runnable, err error) {
	log.Error(context.Background(), "scheduled runnable failed", log.Cause(err))
}

// Register adds a job. Registration happens at startup only; a duplicate
// name or a job overlapping the mutation key space is a wiring bug and
// panics.
func (s *Scheduler) Register(job Job, cfg JobConfig) {
	name := job.Name()
	if name == "" {
		panic("schedule.Scheduler: job name must not be empty")
	}

	if decl, ok := job.(CacheKeyDeclarer); ok {
		if overlap := s.overlappingKeys(decl.CacheKeys()); len(overlap) > 0 {
			log.Error(context.Background(), "job declares foreground cache keys",
				log.String("job", name),
				log.Any("keys", overlap))
			panic(backend.Programming("job %q touches the foreground mutation key space: %v", name, overlap))
		}
	}

	if cfg.History <= 0 {
		cfg.History = defaultHistorySize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		panic(fmt.Sprintf("schedule.Scheduler: job %q already registered", name))
	}

	s.jobs[name] = &jobState{
		job:     job,
		cfg:     cfg,
		history: ringbuffer.New[RunResult](cfg.History),
	}
}

func (s *Scheduler) overlappingKeys(keys []cache.Key) []string {
	if s.graph == nil {
		return nil
	}

	overlap := make([]string, 0, len(keys))

	for _, key := range keys {
		if s.graph.HasRulesFor(key.Entity) {
			overlap = append(overlap, key.String())
		}
	}

	return overlap
}

// Start arms every job with a schedule. Jobs without one stay manual-only.
// Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		log.Warn(ctx, "scheduler already started")
		return nil
	}

	for name, state := range s.jobs {
		cancel, err := s.arm(state)
		if err != nil {
			return fmt.Errorf("arm job %q: %w", name, err)
		}

		if cancel == nil {
			log.Info(ctx, "job registered without schedule, manual runs only", log.String("job", name))
			continue
		}

		state.cancel = cancel

		log.Info(ctx, "job armed",
			log.String("job", name),
			log.String("cron", state.cfg.CRON),
			log.Duration("every", state.cfg.Every))
	}

	s.started = true

	return nil
}

func (s *Scheduler) arm(state *jobState) (context.CancelFunc, error) {
	// Job bodies run on a detached context so Stop never cancels an
	// in-flight run.
	tick := func(ctx context.Context) {
		s.run(xcontext.Detach(ctx), state)
	}

	switch {
	case state.cfg.CRON != "":
		return s.executor.ScheduleAtCronRate(executors.RunnableFunc(tick), executors.CRONRule{Expr: state.cfg.CRON})
	case state.cfg.Every > 0:
		return s.executor.ScheduleAtFixRate(executors.RunnableFunc(tick), state.cfg.Every)
	default:
		return nil, nil
	}
}

// Stop disarms future runs and shuts the executor down, waiting within ctx's
// deadline. An in-flight run is left to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return nil
	}

	s.started = false

	cancels := make([]context.CancelFunc, 0, len(s.jobs))

	for _, state := range s.jobs {
		if state.cancel != nil {
			cancels = append(cancels, state.cancel)
			state.cancel = nil
		}
	}

	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	log.Info(ctx, "scheduler stopped")

	return s.executor.Shutdown(ctx)
}

// RunOnce triggers one job synchronously and returns its result. Invoking it
// while the same job is still running returns immediately with Skipped set
// and zero work reported. Failures are reported in the result, never as the
// returned error; that is reserved for unknown job names.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (RunResult, error) {
	state, ok := s.state(name)
	if !ok {
		return RunResult{}, backend.Programming("unknown job %q", name)
	}

	return s.run(ctx, state), nil
}

func (s *Scheduler) run(ctx context.Context, state *jobState) RunResult {
	name := state.job.Name()

	if !state.running.CompareAndSwap(false, true) {
		log.Debug(ctx, "job run still pending, skipping", log.String("job", name))

		now := xtime.UTCNow()

		return RunResult{Job: name, Started: now, Finished: now, Success: true, Skipped: true}
	}
	defer state.running.Store(false)

	started := xtime.UTCNow()
	counts, err := s.safeRun(ctx, state.job)

	result := RunResult{
		Job:      name,
		Started:  started,
		Finished: xtime.UTCNow(),
		Success:  err == nil,
		Counts:   counts,
	}

	if err != nil {
		result.Error = err.Error()

		log.Warn(ctx, "job run failed", log.String("job", name), log.Cause(err))
	} else {
		log.Info(ctx, "job run finished",
			log.String("job", name),
			log.Int("total", result.Total()),
			log.Duration("elapsed", result.Finished.Sub(result.Started)))
	}

	state.mu.Lock()
	state.last = &result
	state.history.Push(started.UnixNano(), result)
	state.mu.Unlock()

	_ = s.results.Notify(ctx, result)

	return result
}

// safeRun converts a panicking job into a failed run.
func (s *Scheduler) safeRun(ctx context.Context, job Job) (counts map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "job panicked", log.String("job", job.Name()), log.Any("panic", r))
			err = fmt.Errorf("job %q panicked: %v", job.Name(), r)
		}
	}()

	return job.Run(ctx)
}

func (s *Scheduler) state(name string) (*jobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.jobs[name]

	return state, ok
}

// LastResult returns the most recent completed (not skipped) result of a job.
func (s *Scheduler) LastResult(name string) (RunResult, bool) {
	state, ok := s.state(name)
	if !ok {
		return RunResult{}, false
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.last == nil {
		return RunResult{}, false
	}

	return *state.last, true
}

// History returns the retained results of a job, oldest first.
func (s *Scheduler) History(name string) []RunResult {
	state, ok := s.state(name)
	if !ok {
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	items := state.history.GetAll()
	results := make([]RunResult, 0, len(items))

	for _, item := range items {
		results = append(results, item.Value)
	}

	return results
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	return names
}

// Subscribe streams completed run results. The returned func stops the
// stream.
func (s *Scheduler) Subscribe() (<-chan RunResult, func()) {
	return s.results.Watch()
}
