// Package cache holds the client-side cache engine: a keyed store of entity
// snapshots with staleness state, a subscription stream for UI bindings, and
// a read-through fetcher implementing stale-while-revalidate.
package cache

import (
	"context"
	"sync"

	"github.com/counselhub/counselhub/internal/log"
	"github.com/counselhub/counselhub/internal/pkg/watcher"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

const subscriberBuffer = 16

// Store is the single shared container of cached entries. All operations are
// synchronous, touch nothing but the store itself, and are atomic with
// respect to each other; orchestration (fetching, mutations, invalidation
// fan-out) lives in the callers.
//
// IMPORTANT: cached values must be treated as immutable after being stored.
// Callers MUST NOT mutate values returned by Get. Optimistic updates go
// through Patch with a pure transform returning a new value.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	watchMu sync.Mutex
	all     watcher.Notifier[Event]
	byKey   map[Key]watcher.Notifier[Event]
}

func NewStore() *Store {
	return &Store{
		entries: make(map[Key]Entry),
		all:     watcher.NewMemoryWatcher[Event](watcher.MemoryWatcherOptions{Buffer: subscriberBuffer}),
		byKey:   make(map[Key]watcher.Notifier[Event]),
	}
}

// Get returns the current entry for key. Absent keys yield a zero-valued
// entry with StatusAbsent; the read never blocks on in-flight work.
func (s *Store) Get(key Key) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{Status: StatusAbsent}
	}

	return entry
}

// Set replaces the value for key with a server-confirmed one and marks the
// entry fresh. Returns the stored entry.
func (s *Store) Set(key Key, value any) Entry {
	s.mu.Lock()

	prior := s.current(key)
	next := Entry{
		Value:     value,
		Version:   prior.Version + 1,
		Status:    StatusFresh,
		Origin:    OriginConfirmed,
		UpdatedAt: xtime.UTCNow(),
	}
	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return next
}

// SetOptimistic replaces the value for key with a locally assumed one. The
// entry reads as fresh but carries OriginOptimistic until a commit confirms
// or a rollback restores it.
func (s *Store) SetOptimistic(key Key, value any) Entry {
	s.mu.Lock()

	prior := s.current(key)
	next := Entry{
		Value:     value,
		Version:   prior.Version + 1,
		Status:    StatusFresh,
		Origin:    OriginOptimistic,
		UpdatedAt: xtime.UTCNow(),
	}
	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return next
}

// Patch applies a pure transform to the current entry and stores the result
// optimistically. The prior entry is returned so the caller can restore it on
// rollback. A transform error aborts the patch and leaves the store
// untouched. Patching an absent key is allowed; the transform receives a
// StatusAbsent entry and its result creates the entry.
//
// The transform runs under the store lock: it must not call back into the
// Store and must return a new value rather than mutating prior.Value.
func (s *Store) Patch(key Key, transform func(prior Entry) (any, error)) (Entry, error) {
	s.mu.Lock()

	prior := s.current(key)

	value, err := transform(prior)
	if err != nil {
		s.mu.Unlock()
		return prior, err
	}

	next := Entry{
		Value:     value,
		Version:   prior.Version + 1,
		Status:    StatusFresh,
		Origin:    OriginOptimistic,
		UpdatedAt: xtime.UTCNow(),
	}
	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return prior, nil
}

// MarkFetching flags that a read is in flight for key. The previous value is
// retained and still served. Marking an already-fetching entry is a no-op.
func (s *Store) MarkFetching(key Key) Entry {
	s.mu.Lock()

	prior := s.current(key)
	if prior.Status == StatusFetching {
		s.mu.Unlock()
		return prior
	}

	next := prior
	next.Status = StatusFetching
	next.Version = prior.Version + 1
	next.Err = nil
	next.UpdatedAt = xtime.UTCNow()
	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return next
}

// SetError records a failed load for key. The previous value is retained so
// the caller can keep rendering it alongside the error.
func (s *Store) SetError(key Key, cause error) Entry {
	s.mu.Lock()

	prior := s.current(key)
	next := prior
	next.Status = StatusError
	next.Err = cause
	next.Version = prior.Version + 1
	next.UpdatedAt = xtime.UTCNow()
	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return next
}

// Invalidate marks the given keys stale. Values are kept so stale reads stay
// servable. Only fresh entries transition; absent, fetching (an in-flight
// read supersedes the stale mark), error and already-stale entries are left
// alone. Returns the keys actually transitioned.
func (s *Store) Invalidate(keys ...Key) []Key {
	s.mu.Lock()

	affected := make([]Key, 0, len(keys))
	events := make([]entryChange, 0, len(keys))

	for _, key := range keys {
		prior, ok := s.entries[key]
		if !ok || prior.Status != StatusFresh {
			continue
		}

		next := prior
		next.Status = StatusStale
		next.Version = prior.Version + 1
		next.UpdatedAt = xtime.UTCNow()
		s.entries[key] = next

		affected = append(affected, key)
		events = append(events, entryChange{key: key, prior: prior, next: next})
	}

	s.mu.Unlock()

	for _, ev := range events {
		s.notify(ev.key, ev.prior, ev.next)
	}

	if len(affected) > 0 {
		log.Debug(context.Background(), "cache entries invalidated", log.Int("count", len(affected)))
	}

	return affected
}

// InvalidateMatching marks stale every cached key the predicate accepts.
func (s *Store) InvalidateMatching(match func(Key) bool) []Key {
	s.mu.RLock()

	matched := make([]Key, 0)

	for key := range s.entries {
		if match(key) {
			matched = append(matched, key)
		}
	}

	s.mu.RUnlock()

	return s.Invalidate(matched...)
}

// Remove deletes entries entirely. Used after confirmed deletions; a removed
// key reads as absent.
func (s *Store) Remove(keys ...Key) {
	s.mu.Lock()

	events := make([]entryChange, 0, len(keys))

	for _, key := range keys {
		prior, ok := s.entries[key]
		if !ok {
			continue
		}

		delete(s.entries, key)
		events = append(events, entryChange{key: key, prior: prior, next: Entry{
			Status:    StatusAbsent,
			Version:   prior.Version + 1,
			UpdatedAt: xtime.UTCNow(),
		}})
	}

	s.mu.Unlock()

	for _, ev := range events {
		s.notify(ev.key, ev.prior, ev.next)
	}
}

// Restore writes a rollback snapshot back. A snapshot taken on an absent key
// removes the entry again. A stale or fetching marker applied concurrently
// (an invalidation from another mutation, or a read in flight) survives the
// restore: rollback restores the value, never freshness bookkeeping it did
// not own.
func (s *Store) Restore(key Key, snapshot Entry) Entry {
	if snapshot.Status == StatusAbsent {
		s.Remove(key)
		return Entry{Status: StatusAbsent}
	}

	s.mu.Lock()

	prior := s.current(key)

	next := snapshot
	next.Version = prior.Version + 1
	next.UpdatedAt = xtime.UTCNow()

	if prior.Status == StatusStale || prior.Status == StatusFetching {
		next.Status = prior.Status
	}

	s.entries[key] = next

	s.mu.Unlock()

	s.notify(key, prior, next)

	return next
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Keys returns a snapshot of all cached keys in no particular order.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	return keys
}

// Subscribe returns an event channel for one key plus a stop function.
// Events are best-effort: a slow subscriber drops events and should re-read
// the store. Stopping never touches the cached value.
func (s *Store) Subscribe(key Key) (<-chan Event, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	w, ok := s.byKey[key]
	if !ok {
		w = watcher.NewMemoryWatcher[Event](watcher.MemoryWatcherOptions{Buffer: subscriberBuffer})
		s.byKey[key] = w
	}

	return w.Watch()
}

// SubscribeAll returns an event channel covering every key.
func (s *Store) SubscribeAll() (<-chan Event, func()) {
	return s.all.Watch()
}

type entryChange struct {
	key   Key
	prior Entry
	next  Entry
}

// current must be called with s.mu held.
func (s *Store) current(key Key) Entry {
	entry, ok := s.entries[key]
	if !ok {
		return Entry{Status: StatusAbsent}
	}

	return entry
}

func (s *Store) notify(key Key, prior, next Entry) {
	event := Event{
		Key:     key,
		Prev:    prior.Status,
		Status:  next.Status,
		Origin:  next.Origin,
		Version: next.Version,
		At:      next.UpdatedAt,
	}

	ctx := context.Background()

	_ = s.all.Notify(ctx, event)

	s.watchMu.Lock()
	w, ok := s.byKey[key]
	s.watchMu.Unlock()

	if ok {
		_ = w.Notify(ctx, event)
	}
}
