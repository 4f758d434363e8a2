package cache

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/counselhub/counselhub/internal/objects"
)

// Key addresses one cached read: a single record (Entity+ID) or a filtered
// list (Entity+Filter). Keys are immutable once constructed and comparable,
// so they can index maps directly. Filter strings are canonicalized at
// construction; two list keys built from the same filter pairs in any order
// are equal.
type Key struct {
	Entity objects.Entity
	ID     string
	Filter string
}

// RecordKey addresses the cached copy of a single record.
func RecordKey(entity objects.Entity, id string) Key {
	return Key{Entity: entity, ID: id}
}

// ListKey addresses a cached list. A nil or empty filter is the unfiltered
// list for the entity.
func ListKey(entity objects.Entity, filter map[string]string) Key {
	return Key{Entity: entity, Filter: CanonicalFilter(filter)}
}

// CanonicalFilter renders filter pairs as a stable "k=v&k=v" string sorted by
// key. Empty values are kept; an empty map yields "".
func CanonicalFilter(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}

	keys := lo.Keys(filter)
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+filter[k])
	}

	return strings.Join(parts, "&")
}

// IsList reports whether the key addresses a list rather than one record.
func (k Key) IsList() bool {
	return k.ID == ""
}

// IsZero reports whether the key is the zero value.
func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) String() string {
	sb := strings.Builder{}
	sb.WriteString(string(k.Entity))

	if k.ID != "" {
		sb.WriteString("/")
		sb.WriteString(k.ID)

		return sb.String()
	}

	if k.Filter != "" {
		sb.WriteString("?")
		sb.WriteString(k.Filter)
	}

	return sb.String()
}
