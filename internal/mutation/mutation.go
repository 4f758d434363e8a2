// Package mutation orchestrates optimistic writes: snapshot, speculative
// patch, remote dispatch, then commit-and-invalidate or byte-identical
// rollback. Overlapping mutations serialize per cache key; disjoint ones run
// concurrently.
package mutation

import (
	"context"

	"github.com/google/uuid"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/objects"
)

// PatchFunc is a pure transform from the prior entry to the speculative
// value shown while the remote call is in flight. It must not mutate
// prior.Value and must not touch the store.
type PatchFunc func(prior cache.Entry) (any, error)

// CommitFunc reconciles a patched entry with the server-confirmed value
// after a successful remote call: typically replacing an optimistic
// placeholder with the confirmed row. current is the entry as optimistically
// patched; the returned value becomes the committed cache value.
type CommitFunc func(current cache.Entry, confirmed any) (any, error)

// RemoteFunc performs the remote operation and returns the server-confirmed
// value. It is the mutation's only suspension point. Failures must be typed
// backend errors; they are never retried here.
type RemoteFunc func(ctx context.Context) (any, error)

// Patch is one key's optimistic change within a mutation.
type Patch struct {
	Key cache.Key

	// Apply produces the speculative value.
	Apply PatchFunc

	// Commit reconciles the confirmed value into the patched entry. When
	// nil, the confirmed value replaces the entry value wholesale.
	Commit CommitFunc
}

// Mutation describes one in-flight write. Mutations are created when a write
// is requested and discarded when it settles; they are never persisted.
type Mutation struct {
	// ID identifies the mutation in logs. Assigned on Execute when empty.
	ID string

	// Entity and Op select the invalidation rule.
	Entity objects.Entity
	Op     objects.Op

	// Instance is the mutated entity, used by dynamic invalidation rules to
	// derive per-instance keys from its foreign references.
	Instance any

	// Patches are the optimistic changes, applied in order.
	Patches []Patch

	// Removals are keys deleted outright after a successful remote call
	// (the record key of a confirmed deletion). They take part in per-key
	// serialization but are never touched on failure.
	Removals []cache.Key

	// Remote performs the write.
	Remote RemoteFunc
}

func (m *Mutation) ensureID() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
}

// Keys returns every cache key the mutation touches, deduplicated.
func (m *Mutation) Keys() []cache.Key {
	seen := make(map[cache.Key]struct{}, len(m.Patches)+len(m.Removals))
	keys := make([]cache.Key, 0, len(m.Patches)+len(m.Removals))

	for _, p := range m.Patches {
		if _, ok := seen[p.Key]; ok {
			continue
		}

		seen[p.Key] = struct{}{}
		keys = append(keys, p.Key)
	}

	for _, key := range m.Removals {
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	return keys
}

// Result is the successful outcome of a mutation.
type Result struct {
	MutationID string

	// Confirmed is the server-confirmed value returned by the remote call.
	Confirmed any

	// Invalidated lists the keys marked stale by the invalidation graph.
	Invalidated []cache.Key
}
