package mutation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/pkg/xmap"
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Store *cache.Store
	Graph *Graph

	// OnSettle observes every settled mutation (err nil on commit). Used for
	// metrics; may be nil.
	OnSettle func(ctx context.Context, m *Mutation, err error)
}

// Executor runs mutations against the store. Mutations touching overlapping
// keys are serialized by per-key locks held from snapshot until settlement;
// disjoint mutations proceed concurrently with no ordering guarantee.
type Executor struct {
	store *cache.Store
	graph *Graph
	locks *xmap.Map[cache.Key, *sync.Mutex]

	onSettle func(ctx context.Context, m *Mutation, err error)
}

func NewExecutor(opts ExecutorOptions) *Executor {
	if opts.Store == nil {
		panic("mutation.Executor: Store is required")
	}

	if opts.Graph == nil {
		panic("mutation.Executor: Graph is required")
	}

	return &Executor{
		store:    opts.Store,
		graph:    opts.Graph,
		locks:    xmap.New[cache.Key, *sync.Mutex](),
		onSettle: opts.OnSettle,
	}
}

// Execute runs one mutation to settlement:
//
//  1. snapshot every patched key (deep copies, for byte-identical rollback)
//  2. apply the optimistic patches
//  3. dispatch the remote operation (the only suspension point)
//  4. on success: reconcile confirmed values into the patched keys, apply
//     removals, then mark the invalidation graph's keys stale
//  5. on failure: restore every patched key to its snapshot and return the
//     typed failure; auth failures pass through unchanged
//
// Remote failures are never retried here. Invalidation is never observed
// before the commit it follows.
func (e *Executor) Execute(ctx context.Context, m *Mutation) (*Result, error) {
	if m == nil || m.Remote == nil {
		return nil, backend.Programming("mutation requires a remote operation")
	}

	m.ensureID()

	result, err := e.execute(ctx, m)

	if e.onSettle != nil {
		e.onSettle(ctx, m, err)
	}

	return result, err
}

func (e *Executor) execute(ctx context.Context, m *Mutation) (*Result, error) {
	unlock := e.lockKeys(m.Keys())
	defer unlock()

	snapshots := make(map[cache.Key]cache.Entry, len(m.Patches))

	for _, p := range m.Patches {
		if p.Apply == nil {
			return nil, backend.Programming("patch for key %q has no apply func", p.Key.String())
		}

		if _, ok := snapshots[p.Key]; ok {
			continue
		}

		snap, err := snapshotEntry(e.store.Get(p.Key))
		if err != nil {
			return nil, fmt.Errorf("snapshot key %q: %w", p.Key.String(), err)
		}

		snapshots[p.Key] = snap
	}

	applied := make([]cache.Key, 0, len(m.Patches))

	for _, p := range m.Patches {
		if _, err := e.store.Patch(p.Key, p.Apply); err != nil {
			e.rollback(ctx, m, applied, snapshots)
			return nil, fmt.Errorf("optimistic patch %q: %w", p.Key.String(), err)
		}

		applied = append(applied, p.Key)
	}

	confirmed, err := m.Remote(ctx)
	if err != nil {
		e.rollback(ctx, m, applied, snapshots)

		log.Debug(ctx, "mutation rolled back",
			log.String("mutation_id", m.ID),
			log.String("entity", string(m.Entity)),
			log.String("op", string(m.Op)),
			log.Cause(err))

		if backend.IsAuthFailure(err) {
			// Session-level logic reacts to the exact error.
			return nil, err
		}

		return nil, fmt.Errorf("%s %s: %w", m.Op, m.Entity, err)
	}

	e.commit(ctx, m, confirmed)
	e.store.Remove(m.Removals...)

	invalidated := e.invalidate(m)

	log.Debug(ctx, "mutation committed",
		log.String("mutation_id", m.ID),
		log.String("entity", string(m.Entity)),
		log.String("op", string(m.Op)),
		log.Int("invalidated", len(invalidated)))

	return &Result{MutationID: m.ID, Confirmed: confirmed, Invalidated: invalidated}, nil
}

// commit writes confirmed values into the patched keys. A reconciler error
// cannot fail the mutation (the server already committed); the key is marked
// stale instead so the next read heals it, and the violation is surfaced
// loudly.
func (e *Executor) commit(ctx context.Context, m *Mutation, confirmed any) {
	for _, p := range m.Patches {
		if p.Commit == nil {
			e.store.Set(p.Key, confirmed)
			continue
		}

		value, err := p.Commit(e.store.Get(p.Key), confirmed)
		if err != nil {
			log.Error(ctx, "commit reconciler failed, key left stale",
				log.String("mutation_id", m.ID),
				log.String("key", p.Key.String()),
				log.Cause(backend.Programming("commit reconciler for %q: %v", p.Key.String(), err)))

			e.store.Invalidate(p.Key)

			continue
		}

		e.store.Set(p.Key, value)
	}
}

// invalidate marks stale everything the graph declares for the mutation.
func (e *Executor) invalidate(m *Mutation) []cache.Key {
	rule, ok := e.graph.Rule(m.Entity, m.Op)
	if !ok {
		return nil
	}

	invalidated := e.store.Invalidate(rule.InstanceKeys(m.Instance)...)

	if len(rule.Patterns) > 0 {
		invalidated = append(invalidated, e.store.InvalidateMatching(rule.MatchFunc())...)
	}

	return invalidated
}

// rollback restores every applied key to its snapshot, newest first. A key
// without a snapshot is an engine invariant violation: fatal, never
// swallowed.
func (e *Executor) rollback(ctx context.Context, m *Mutation, applied []cache.Key, snapshots map[cache.Key]cache.Entry) {
	var violations *multierror.Error

	for i := len(applied) - 1; i >= 0; i-- {
		key := applied[i]

		snap, ok := snapshots[key]
		if !ok {
			violations = multierror.Append(violations, backend.Programming("rollback of untouched key %q", key.String()))
			continue
		}

		e.store.Restore(key, snap)
	}

	if err := violations.ErrorOrNil(); err != nil {
		log.Error(ctx, "mutation rollback invariant violated",
			log.String("mutation_id", m.ID),
			log.Cause(err))
		panic(err)
	}
}

// lockKeys acquires the per-key locks in a stable order so overlapping
// mutations cannot deadlock. The returned func releases them.
func (e *Executor) lockKeys(keys []cache.Key) func() {
	sorted := make([]cache.Key, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	held := make([]*sync.Mutex, 0, len(sorted))

	for _, key := range sorted {
		mu := e.locks.LoadOrCreate(key, func() *sync.Mutex { return &sync.Mutex{} })
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
