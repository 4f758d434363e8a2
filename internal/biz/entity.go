package biz

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xjson"
)

// entityOps is the shared engine surface parameterized by entity type. Every
// service delegates its reads and writes here; the services themselves only
// contribute key layouts, invalidation rules and input validation.
type entityOps[T any] struct {
	engine *Engine
	entity objects.Entity

	// id extracts the record id from a row.
	id func(*T) string
}

func newEntityOps[T any](engine *Engine, entity objects.Entity, id func(*T) string) *entityOps[T] {
	return &entityOps[T]{engine: engine, entity: entity, id: id}
}

func (o *entityOps[T]) recordKey(id string) cache.Key {
	return cache.RecordKey(o.entity, id)
}

func (o *entityOps[T]) listKey(filter map[string]string) cache.Key {
	return cache.ListKey(o.entity, filter)
}

// placeholderID mints the client-side id carried by an optimistic create
// until the backend assigns the real one.
func placeholderID() string {
	return "pending_" + uuid.NewString()
}

// get returns one record through the cache.
func (o *entityOps[T]) get(ctx context.Context, id string) (*T, error) {
	value, err := o.engine.Fetcher.Fetch(ctx, o.recordKey(id), func(ctx context.Context) (any, error) {
		raw, err := o.engine.Data.Fetch(ctx, o.entity, id)
		if err != nil {
			return nil, err
		}

		return xjson.To[*T](raw)
	})
	if err != nil {
		return nil, err
	}

	return o.asRow(o.recordKey(id), value)
}

// list returns the rows matching filter through the cache.
func (o *entityOps[T]) list(ctx context.Context, filter map[string]string) ([]*T, error) {
	key := o.listKey(filter)

	value, err := o.engine.Fetcher.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		raws, err := o.engine.Data.List(ctx, o.entity, filter)
		if err != nil {
			return nil, err
		}

		rows := make([]*T, 0, len(raws))

		for _, raw := range raws {
			row, err := xjson.To[*T](raw)
			if err != nil {
				return nil, err
			}

			rows = append(rows, row)
		}

		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return o.asRows(key, value)
}

// create persists placeholder as a new record. The placeholder appears
// immediately in every cached list named by lists; once the backend confirms,
// the reconciler swaps it for the server row so the list never shows both.
// instance feeds the dynamic invalidation keys of the entity's create rule.
func (o *entityOps[T]) create(ctx context.Context, placeholder *T, instance any, lists []cache.Key) (*T, error) {
	patches := make([]mutation.Patch, 0, len(lists))
	for _, key := range o.cachedOnly(lists) {
		patches = append(patches, o.appendRowPatch(key, placeholder))
	}

	result, err := o.engine.Executor.Execute(ctx, &mutation.Mutation{
		Entity:   o.entity,
		Op:       objects.OpCreate,
		Instance: instance,
		Patches:  patches,
		Remote: func(ctx context.Context) (any, error) {
			raw, err := o.engine.Data.Create(ctx, o.entity, o.payload(placeholder))
			if err != nil {
				return nil, err
			}

			return xjson.To[*T](raw)
		},
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := o.asRow(o.listKey(nil), result.Confirmed)
	if err != nil {
		return nil, err
	}

	// The confirmed row is server truth; seed its record key so a detail
	// read right after creation is a cache hit.
	o.engine.Store.Set(o.recordKey(o.id(confirmed)), confirmed)

	return confirmed, nil
}

// update replaces the record with next. The record key and every cached list
// in lists show next while the call is in flight; stale appearances under
// filters the row moved out of are covered by the caller's removals patches.
func (o *entityOps[T]) update(ctx context.Context, id string, next *T, instance any, lists []cache.Key, removals []cache.Key) (*T, error) {
	patches := []mutation.Patch{{
		Key: o.recordKey(id),
		Apply: func(cache.Entry) (any, error) {
			return next, nil
		},
	}}

	for _, key := range o.cachedOnly(lists) {
		patches = append(patches, o.upsertRowPatch(key, id, next))
	}

	for _, key := range o.cachedOnly(removals) {
		patches = append(patches, o.removeRowPatch(key, id))
	}

	result, err := o.engine.Executor.Execute(ctx, &mutation.Mutation{
		Entity:   o.entity,
		Op:       objects.OpUpdate,
		Instance: instance,
		Patches:  patches,
		Remote: func(ctx context.Context) (any, error) {
			raw, err := o.engine.Data.Update(ctx, o.entity, id, o.payload(next))
			if err != nil {
				return nil, err
			}

			return xjson.To[*T](raw)
		},
	})
	if err != nil {
		return nil, err
	}

	return o.asRow(o.recordKey(id), result.Confirmed)
}

// delete removes the record. Cached lists drop the row immediately; the
// record key itself is removed only after the backend confirms.
func (o *entityOps[T]) delete(ctx context.Context, id string, instance any, lists []cache.Key) error {
	patches := make([]mutation.Patch, 0, len(lists))
	for _, key := range o.cachedOnly(lists) {
		patches = append(patches, o.removeRowPatch(key, id))
	}

	_, err := o.engine.Executor.Execute(ctx, &mutation.Mutation{
		Entity:   o.entity,
		Op:       objects.OpDelete,
		Instance: instance,
		Patches:  patches,
		Removals: []cache.Key{o.recordKey(id)},
		Remote: func(ctx context.Context) (any, error) {
			return nil, o.engine.Data.Delete(ctx, o.entity, id)
		},
	})

	return err
}

// cachedOnly keeps the keys that currently hold a value. Optimistic patches
// only make sense against lists the client has loaded; everything else is
// covered by post-commit invalidation.
func (o *entityOps[T]) cachedOnly(keys []cache.Key) []cache.Key {
	cached := make([]cache.Key, 0, len(keys))
	seen := make(map[cache.Key]struct{}, len(keys))

	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		if o.engine.Store.Get(key).HasValue() {
			cached = append(cached, key)
		}
	}

	return cached
}

// appendRowPatch adds placeholder to the cached list. The reconciler swaps
// the placeholder for the confirmed row, or replaces an already-present
// server copy if a concurrent revalidation loaded one, so the confirmed row
// appears exactly once.
func (o *entityOps[T]) appendRowPatch(key cache.Key, placeholder *T) mutation.Patch {
	pendingID := o.id(placeholder)

	return mutation.Patch{
		Key: key,
		Apply: func(prior cache.Entry) (any, error) {
			rows, err := o.rows(key, prior)
			if err != nil {
				return nil, err
			}

			next := make([]*T, 0, len(rows)+1)
			next = append(next, rows...)
			next = append(next, placeholder)

			return next, nil
		},
		Commit: func(current cache.Entry, confirmed any) (any, error) {
			row, err := o.asRow(key, confirmed)
			if err != nil {
				return nil, err
			}

			rows, err := o.rows(key, current)
			if err != nil {
				return nil, err
			}

			next := make([]*T, 0, len(rows))
			replaced := false

			for _, r := range rows {
				switch o.id(r) {
				case pendingID, o.id(row):
					if !replaced {
						next = append(next, row)
						replaced = true
					}
				default:
					next = append(next, r)
				}
			}

			if !replaced {
				next = append(next, row)
			}

			return next, nil
		},
	}
}

// upsertRowPatch swaps the row with the given id for next in the cached
// list, appending it when the list does not hold the row yet. An update can
// move a row into a filtered list it was not part of; the caller only names
// lists the updated row belongs to.
func (o *entityOps[T]) upsertRowPatch(key cache.Key, id string, next *T) mutation.Patch {
	return mutation.Patch{
		Key: key,
		Apply: func(prior cache.Entry) (any, error) {
			return o.upsertRow(key, prior, id, next)
		},
		Commit: func(current cache.Entry, confirmed any) (any, error) {
			row, err := o.asRow(key, confirmed)
			if err != nil {
				return nil, err
			}

			return o.upsertRow(key, current, id, row)
		},
	}
}

// removeRowPatch drops the row with the given id from the cached list. The
// reconciler keeps the optimistic value: the backend confirms a deletion
// with no row to merge back.
func (o *entityOps[T]) removeRowPatch(key cache.Key, id string) mutation.Patch {
	return mutation.Patch{
		Key: key,
		Apply: func(prior cache.Entry) (any, error) {
			rows, err := o.rows(key, prior)
			if err != nil {
				return nil, err
			}

			next := make([]*T, 0, len(rows))

			for _, r := range rows {
				if o.id(r) == id {
					continue
				}

				next = append(next, r)
			}

			return next, nil
		},
		Commit: func(current cache.Entry, _ any) (any, error) {
			return current.Value, nil
		},
	}
}

func (o *entityOps[T]) upsertRow(key cache.Key, entry cache.Entry, id string, next *T) (any, error) {
	rows, err := o.rows(key, entry)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(rows)+1)
	found := false

	for _, r := range rows {
		if o.id(r) == id {
			out = append(out, next)
			found = true

			continue
		}

		out = append(out, r)
	}

	if !found {
		out = append(out, next)
	}

	return out, nil
}

func (o *entityOps[T]) payload(row *T) json.RawMessage {
	return xjson.MustMarshal(row)
}

func (o *entityOps[T]) asRow(key cache.Key, value any) (*T, error) {
	row, ok := value.(*T)
	if !ok || row == nil {
		return nil, backend.Programming("cache key %q holds %T, want %T", key.String(), value, row)
	}

	return row, nil
}

func (o *entityOps[T]) rows(key cache.Key, entry cache.Entry) ([]*T, error) {
	return o.asRows(key, entry.Value)
}

func (o *entityOps[T]) asRows(key cache.Key, value any) ([]*T, error) {
	if value == nil {
		return nil, nil
	}

	rows, ok := value.([]*T)
	if !ok {
		var want []*T
		return nil, backend.Programming("cache key %q holds %T, want %T", key.String(), value, want)
	}

	return rows, nil
}

// change carries the before and after of an updated record so dynamic
// invalidation rules can cover foreign references on both sides of a move.
type change[T any] struct {
	Old *T
	New *T
}
