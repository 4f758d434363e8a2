// Package membackend implements the backend contracts in process. It backs
// local and demo sessions and doubles as the fixture backend in tests:
// records live in memory, invitation tokens are signed JWTs, and cleanup
// purges expired ephemeral rows.
package membackend

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

// DefaultSecret signs invitation tokens when none is configured. Local
// fixture only; a deployed instance always configures its own.
const DefaultSecret = "counselhub-local-secret"

// Config configures the in-process backend.
type Config struct {
	// Secret signs and verifies invitation tokens.
	Secret string `conf:"secret" yaml:"secret" json:"secret"`

	// SchoolID stamps rows created without one.
	SchoolID string `conf:"school_id" yaml:"school_id" json:"school_id"`

	// Latency delays every call so local sessions exercise the same
	// stale-while-revalidate paths a remote backend would. Zero disables it.
	Latency time.Duration `conf:"latency" yaml:"latency" json:"latency"`
}

// Backend holds every record in memory. Safe for concurrent use.
type Backend struct {
	mu   sync.RWMutex
	rows map[objects.Entity]map[string]json.RawMessage

	// Ephemeral rows, keyed by token or session id, valued by expiry.
	invites  map[string]time.Time
	sessions map[string]time.Time

	secret   []byte
	schoolID string
	latency  time.Duration

	now func() time.Time
}

var (
	_ backend.DataBackend    = (*Backend)(nil)
	_ backend.CleanupBackend = (*Backend)(nil)
	_ backend.TokenBackend   = (*Backend)(nil)
)

func New(cfg Config) *Backend {
	secret := cfg.Secret
	if secret == "" {
		secret = DefaultSecret
	}

	return &Backend{
		rows:     make(map[objects.Entity]map[string]json.RawMessage),
		invites:  make(map[string]time.Time),
		sessions: make(map[string]time.Time),
		secret:   []byte(secret),
		schoolID: cfg.SchoolID,
		latency:  cfg.Latency,
		now:      xtime.UTCNow,
	}
}

// Fetch implements backend.DataBackend.
func (b *Backend) Fetch(ctx context.Context, entity objects.Entity, id string) (json.RawMessage, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	row, ok := b.rows[entity][id]
	if !ok {
		return nil, backend.NotFound("%s %s", entity, id)
	}

	return slices.Clone(row), nil
}

// List implements backend.DataBackend. Rows come back ordered by id so
// repeated lists are stable.
func (b *Backend) List(ctx context.Context, entity objects.Entity, filter map[string]string) ([]json.RawMessage, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.rows[entity]))
	for id := range b.rows[entity] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]json.RawMessage, 0, len(ids))

	for _, id := range ids {
		row := b.rows[entity][id]
		if matches(row, filter) {
			out = append(out, slices.Clone(row))
		}
	}

	return out, nil
}

// Create implements backend.DataBackend. Client-minted placeholder ids are
// replaced by a server-assigned one; version and timestamps are stamped.
func (b *Backend) Create(ctx context.Context, entity objects.Entity, payload json.RawMessage) (json.RawMessage, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(payload) {
		return nil, backend.ValidationFailure("create %s: payload is not valid JSON", entity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := gjson.GetBytes(payload, "id").String()
	if id == "" || strings.HasPrefix(id, "pending_") {
		id = uuid.NewString()
	}

	rows := b.rows[entity]
	if rows == nil {
		rows = make(map[string]json.RawMessage)
		b.rows[entity] = rows
	}

	if _, exists := rows[id]; exists {
		return nil, backend.Conflict("%s %s already exists", entity, id)
	}

	now := b.now().Format(time.RFC3339Nano)

	st := stamper{row: payload}
	st.set("id", id)
	st.set("version", 1)
	st.set("createdAt", now)
	st.set("updatedAt", now)

	if b.schoolID != "" && gjson.GetBytes(payload, "schoolID").String() == "" {
		st.set("schoolID", b.schoolID)
	}

	row, err := st.done()
	if err != nil {
		return nil, backend.ValidationFailure("create %s: %v", entity, err)
	}

	rows[id] = row

	return slices.Clone(row), nil
}

// Update implements backend.DataBackend. The payload replaces the row, but
// server-owned fields survive: id, creation timestamp and tenant stamp are
// kept, and version bumps only when the caller's version matches.
func (b *Backend) Update(ctx context.Context, entity objects.Entity, id string, payload json.RawMessage) (json.RawMessage, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(payload) {
		return nil, backend.ValidationFailure("update %s %s: payload is not valid JSON", entity, id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.rows[entity][id]
	if !ok {
		return nil, backend.NotFound("%s %s", entity, id)
	}

	currentVersion := gjson.GetBytes(current, "version").Int()
	if v := gjson.GetBytes(payload, "version"); v.Exists() && v.Int() != currentVersion {
		return nil, backend.Conflict("%s %s: version %d does not match stored version %d",
			entity, id, v.Int(), currentVersion)
	}

	st := stamper{row: payload}
	st.set("id", id)
	st.set("version", currentVersion+1)
	st.set("createdAt", gjson.GetBytes(current, "createdAt").String())
	st.set("updatedAt", b.now().Format(time.RFC3339Nano))

	if schoolID := gjson.GetBytes(current, "schoolID").String(); schoolID != "" {
		st.set("schoolID", schoolID)
	}

	row, err := st.done()
	if err != nil {
		return nil, backend.ValidationFailure("update %s %s: %v", entity, id, err)
	}

	b.rows[entity][id] = row

	return slices.Clone(row), nil
}

// Delete implements backend.DataBackend.
func (b *Backend) Delete(ctx context.Context, entity objects.Entity, id string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rows[entity][id]; !ok {
		return backend.NotFound("%s %s", entity, id)
	}

	delete(b.rows[entity], id)

	return nil
}

// Put inserts or replaces a row verbatim, keeping its id when it has one.
// Version and timestamps are stamped only when absent. Demo fixtures and
// tests seed through it.
func (b *Backend) Put(entity objects.Entity, row any) (string, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return "", backend.ValidationFailure("seed %s: %v", entity, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	st := stamper{row: raw}

	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		id = uuid.NewString()
		st.set("id", id)
	}

	if gjson.GetBytes(raw, "version").Int() == 0 {
		st.set("version", 1)
	}

	if gjson.GetBytes(raw, "createdAt").String() == "" {
		now := b.now().Format(time.RFC3339Nano)
		st.set("createdAt", now)
		st.set("updatedAt", now)
	}

	raw, err = st.done()
	if err != nil {
		return "", backend.ValidationFailure("seed %s: %v", entity, err)
	}

	if b.rows[entity] == nil {
		b.rows[entity] = make(map[string]json.RawMessage)
	}
	b.rows[entity][id] = raw

	return id, nil
}

// Len reports how many rows an entity holds.
func (b *Backend) Len(entity objects.Entity) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.rows[entity])
}

func (b *Backend) delay(ctx context.Context) error {
	if b.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return backend.NetworkFailure(err, "backend call canceled")
		}

		return nil
	}

	select {
	case <-time.After(b.latency):
		return nil
	case <-ctx.Done():
		return backend.NetworkFailure(ctx.Err(), "backend call canceled")
	}
}

func matches(row json.RawMessage, filter map[string]string) bool {
	for field, want := range filter {
		if gjson.GetBytes(row, field).String() != want {
			return false
		}
	}

	return true
}

// stamper accumulates sjson writes and defers the error to done.
type stamper struct {
	row json.RawMessage
	err error
}

func (s *stamper) set(field string, value any) {
	if s.err != nil {
		return
	}

	s.row, s.err = sjson.SetBytes(s.row, field, value)
}

func (s *stamper) done() (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.row, nil
}
