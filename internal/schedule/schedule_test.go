package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zhenzou/executors"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

type fakeJob struct {
	name string
	run  func(ctx context.Context) (map[string]int, error)
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(ctx context.Context) (map[string]int, error) { return j.run(ctx) }

type declaringJob struct {
	fakeJob

	keys []cache.Key
}

func (j *declaringJob) CacheKeys() []cache.Key { return j.keys }

func TestSchedulerRunOnce(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "probe",
		run: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{"invite_tokens": 3, "token_sessions": 1}, nil
		},
	}, JobConfig{})

	results, stop := s.Subscribe()
	defer stop()

	result, err := s.RunOnce(t.Context(), "probe")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Skipped)
	require.Empty(t, result.Error)
	require.Equal(t, 4, result.Total())
	require.False(t, result.Finished.Before(result.Started))

	last, ok := s.LastResult("probe")
	require.True(t, ok)
	require.Equal(t, result, last)

	select {
	case broadcast := <-results:
		require.Equal(t, result, broadcast)
	case <-time.After(time.Second):
		t.Fatal("no result broadcast")
	}
}

func TestSchedulerRunOnceUnknownJob(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})

	_, err := s.RunOnce(t.Context(), "no-such-job")
	require.Error(t, err)
	require.True(t, backend.IsProgrammingError(err))
}

func TestSchedulerRunOnceWhilePendingSkips(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "slow",
		run: func(ctx context.Context) (map[string]int, error) {
			close(entered)
			<-release

			return map[string]int{"invite_tokens": 5}, nil
		},
	}, JobConfig{})

	firstDone := make(chan RunResult, 1)

	go func() {
		result, _ := s.RunOnce(t.Context(), "slow")
		firstDone <- result
	}()

	<-entered

	second, err := s.RunOnce(t.Context(), "slow")
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.True(t, second.Success)
	require.Zero(t, second.Total())

	close(release)
	first := <-firstDone
	require.False(t, first.Skipped)
	require.Equal(t, 5, first.Total())

	// The skipped invocation never overwrites the retained result.
	last, ok := s.LastResult("slow")
	require.True(t, ok)
	require.Equal(t, first, last)
}

func TestSchedulerJobErrorBecomesFailureResult(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "flaky",
		run: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{"invite_tokens": 2}, errors.New("token_sessions: backend unavailable")
		},
	}, JobConfig{})

	result, err := s.RunOnce(t.Context(), "flaky")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Error, "backend unavailable")

	// Work done before the failure is still reported.
	require.Equal(t, 2, result.Counts["invite_tokens"])
}

func TestSchedulerJobPanicBecomesFailureResult(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "panicky",
		run: func(ctx context.Context) (map[string]int, error) {
			panic("nil dereference in job body")
		},
	}, JobConfig{})

	require.NotPanics(t, func() {
		result, err := s.RunOnce(t.Context(), "panicky")
		require.NoError(t, err)
		require.False(t, result.Success)
		require.Contains(t, result.Error, "panicked")
	})
}

func TestSchedulerDuplicateRegistrationPanics(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	job := &fakeJob{name: "dup", run: func(ctx context.Context) (map[string]int, error) { return nil, nil }}

	s.Register(job, JobConfig{})
	require.Panics(t, func() {
		s.Register(job, JobConfig{})
	})
}

func TestSchedulerRefusesJobTouchingMutationKeySpace(t *testing.T) {
	graph := mutation.NewGraph()
	graph.Register(objects.EntityStudents, objects.OpUpdate, mutation.Rule{})

	s := NewScheduler(SchedulerOptions{Graph: graph})

	require.Panics(t, func() {
		s.Register(&declaringJob{
			fakeJob: fakeJob{name: "rogue", run: func(ctx context.Context) (map[string]int, error) { return nil, nil }},
			keys:    []cache.Key{cache.RecordKey(objects.EntityStudents, "S1")},
		}, JobConfig{})
	})

	// Declared keys outside the mutation key space are fine.
	require.NotPanics(t, func() {
		s.Register(&declaringJob{
			fakeJob: fakeJob{name: "harmless", run: func(ctx context.Context) (map[string]int, error) { return nil, nil }},
			keys:    []cache.Key{cache.RecordKey(objects.EntityReports, "R1")},
		}, JobConfig{})
	})
}

func TestSchedulerScheduledRunsNeverOverlap(t *testing.T) {
	var (
		active     atomic.Int32
		overlapped atomic.Bool
		runs       atomic.Int32
	)

	s := NewScheduler(SchedulerOptions{
		// A wide pool so any overlap would come from the scheduler, not
		// from executor back-pressure.
		Executor: executors.NewPoolScheduleExecutor(executors.WithMaxConcurrent(8)),
	})
	s.Register(&fakeJob{
		name: "overlap-probe",
		run: func(ctx context.Context) (map[string]int, error) {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			defer active.Add(-1)

			runs.Add(1)
			time.Sleep(25 * time.Millisecond)

			return nil, nil
		},
	}, JobConfig{Every: 5 * time.Millisecond})

	require.NoError(t, s.Start(t.Context()))

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	require.False(t, overlapped.Load(), "two runs of the same job were active at once")
}

func TestSchedulerStopLeavesInFlightRunFinishing(t *testing.T) {
	var (
		enterOnce sync.Once
		ctxErr    atomic.Value
	)

	entered := make(chan struct{})
	release := make(chan struct{})

	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "draining",
		run: func(ctx context.Context) (map[string]int, error) {
			enterOnce.Do(func() { close(entered) })
			<-release

			if err := ctx.Err(); err != nil {
				ctxErr.Store(err)
			}

			return map[string]int{"invite_tokens": 1}, nil
		},
	}, JobConfig{Every: 5 * time.Millisecond})

	require.NoError(t, s.Start(t.Context()))
	<-entered

	stopDone := make(chan error, 1)

	go func() {
		stopDone <- s.Stop(context.Background())
	}()

	// Give Stop a moment to disarm, then let the in-flight run finish.
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-stopDone)

	require.Eventually(t, func() bool {
		last, ok := s.LastResult("draining")
		return ok && last.Success
	}, time.Second, 5*time.Millisecond)

	// The in-flight run completed on an uncancelled context.
	require.Nil(t, ctxErr.Load())
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{name: "manual", run: func(ctx context.Context) (map[string]int, error) { return nil, nil }}, JobConfig{})

	require.NoError(t, s.Start(t.Context()))
	require.NoError(t, s.Start(t.Context()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerHistory(t *testing.T) {
	var runs atomic.Int32

	s := NewScheduler(SchedulerOptions{})
	s.Register(&fakeJob{
		name: "counted",
		run: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{"invite_tokens": int(runs.Add(1))}, nil
		},
	}, JobConfig{History: 8})

	for range 3 {
		_, err := s.RunOnce(t.Context(), "counted")
		require.NoError(t, err)
	}

	history := s.History("counted")
	require.Len(t, history, 3)

	// Oldest first.
	require.Equal(t, 1, history[0].Counts["invite_tokens"])
	require.Equal(t, 2, history[1].Counts["invite_tokens"])
	require.Equal(t, 3, history[2].Counts["invite_tokens"])

	require.Nil(t, s.History("no-such-job"))
}
