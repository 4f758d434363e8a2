package xmap

import (
	"sync"
)

// Map is a typed wrapper around sync.Map. It keeps the same concurrency
// characteristics while sparing callers the any-casts.
type Map[K comparable, V any] struct {
	m sync.Map
}

// New creates a new Map instance.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Load returns the value stored under key; ok is false when absent.
func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return value, false
	}

	//nolint:forcetypeassert // Safe to assert since we control the map.
	return v.(V), true
}

// Store sets the value for a key.
func (m *Map[K, V]) Store(key K, value V) {
	m.m.Store(key, value)
}

// LoadOrStore returns the existing value for key when present; otherwise it
// stores value and returns it. loaded is true when the value already existed.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, loaded := m.m.LoadOrStore(key, value)
	//nolint:forcetypeassert // Safe to assert since we control the map.
	return v.(V), loaded
}

// LoadOrCreate is LoadOrStore with a lazily built value: create only runs on
// the miss path, so hot lookups pay no allocation. Two racing creators may
// both run create; exactly one result wins.
func (m *Map[K, V]) LoadOrCreate(key K, create func() V) V {
	if v, ok := m.Load(key); ok {
		return v
	}

	actual, _ := m.LoadOrStore(key, create())

	return actual
}

// LoadAndDelete removes key, returning the value that was stored, if any.
func (m *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	v, loaded := m.m.LoadAndDelete(key)
	if !loaded {
		return value, false
	}

	//nolint:forcetypeassert // Safe to assert since we control the map.
	return v.(V), true
}

// Delete deletes the value for a key.
func (m *Map[K, V]) Delete(key K) {
	m.m.Delete(key)
}

// Range calls f for each entry until f returns false. Like sync.Map, it never
// snapshots: entries stored or deleted during iteration may or may not be
// visited.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		//nolint:forcetypeassert // Safe to assert since we control the map.
		return f(key.(K), value.(V))
	})
}

// Clear deletes all entries from the map.
func (m *Map[K, V]) Clear() {
	// sync.Map.Clear needs Go 1.23; delete via Range for older toolchains.
	m.m.Range(func(key, _ any) bool {
		m.m.Delete(key)
		return true
	})
}
