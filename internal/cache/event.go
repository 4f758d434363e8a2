package cache

import "time"

// Event announces that a key's entry changed status or value. Events are a
// best-effort signal stream: slow subscribers drop events and re-read the
// store. The value itself is never carried; subscribers call Store.Get.
type Event struct {
	Key     Key
	Prev    Status
	Status  Status
	Origin  Origin
	Version uint64
	At      time.Time
}

// Transitioned reports whether the status actually changed, as opposed to a
// value-only update within the same status.
func (e Event) Transitioned() bool {
	return e.Prev != e.Status
}
