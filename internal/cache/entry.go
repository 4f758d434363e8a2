package cache

import "time"

// Status is the lifecycle state of a cached entry.
type Status string

const (
	// StatusAbsent means nothing is cached for the key.
	StatusAbsent Status = "absent"
	// StatusFetching means a read is in flight for the key. The previous
	// value, if any, is retained and still served.
	StatusFetching Status = "fetching"
	// StatusFresh means the value is current.
	StatusFresh Status = "fresh"
	// StatusStale means the value needs refetching but remains servable.
	StatusStale Status = "stale"
	// StatusError means the last load failed; Err carries the cause.
	StatusError Status = "error"
)

func (s Status) Values() []string {
	return []string{
		string(StatusAbsent),
		string(StatusFetching),
		string(StatusFresh),
		string(StatusStale),
		string(StatusError),
	}
}

// Origin records who vouched for the entry's value.
type Origin string

const (
	// OriginConfirmed means the value came from the backend.
	OriginConfirmed Origin = "confirmed"
	// OriginOptimistic means the value is locally assumed and a mutation is
	// still in flight; rollback uses this marker to identify entries it
	// introduced.
	OriginOptimistic Origin = "optimistic"
)

// Entry is one cached snapshot. Entries are owned exclusively by the Store;
// callers receive copies and must treat Value as immutable.
type Entry struct {
	Value     any
	Version   uint64
	Status    Status
	Origin    Origin
	Err       error
	UpdatedAt time.Time
}

// Exists reports whether anything is cached for the key.
func (e Entry) Exists() bool {
	return e.Status != StatusAbsent
}

// HasValue reports whether the entry carries a servable value. Stale and
// fetching entries keep their previous value so reads never block on them.
func (e Entry) HasValue() bool {
	return e.Exists() && e.Value != nil
}

// Settled reports whether no read is in flight for the entry.
func (e Entry) Settled() bool {
	return e.Status != StatusFetching
}
