package mutation

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/counselhub/counselhub/internal/cache"
)

// cloneValue deep-copies a cached value through a JSON round trip, keeping
// the concrete type. Snapshots must not alias live values: rollback restores
// exactly the bytes captured here no matter what happened to the original in
// the meantime. JSON rather than a binary codec because restored values must
// render byte-identically, and binary time decoding rezones timestamps.
func cloneValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot value: %w", err)
	}

	target := reflect.New(reflect.TypeOf(v))
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return nil, fmt.Errorf("decode snapshot value: %w", err)
	}

	return target.Elem().Interface(), nil
}

// snapshotEntry captures an entry for rollback, with the value deep-copied.
func snapshotEntry(entry cache.Entry) (cache.Entry, error) {
	value, err := cloneValue(entry.Value)
	if err != nil {
		return cache.Entry{}, err
	}

	entry.Value = value

	return entry, nil
}
