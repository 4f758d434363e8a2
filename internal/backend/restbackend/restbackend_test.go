package restbackend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/httpclient"
	"github.com/counselhub/counselhub/internal/pkg/xjson"
	"github.com/counselhub/counselhub/internal/tracing"
)

func newTestBackend(t *testing.T, handler http.Handler, cfg Config) *Backend {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	return New(httpclient.NewHttpClientWithClient(srv.Client()), cfg)
}

func TestFetch(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/students/S1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Trace-Id"), "trace id travels with every call")

		_, _ = w.Write([]byte(`{"id":"S1","firstName":"Maya"}`))
	}), Config{
		APIKey: "secret",
		Trace:  tracing.Config{TraceHeader: "X-Trace-Id"},
	})

	row, err := b.Fetch(t.Context(), objects.EntityStudents, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Maya", gjson.GetBytes(row, "firstName").String())
}

func TestFetchNotFound(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"no such student"}}`))
	}), Config{})

	_, err := b.Fetch(t.Context(), objects.EntityStudents, "S404")
	require.True(t, backend.IsNotFound(err))
	assert.Contains(t, err.Error(), "no such student")
}

func TestListSendsFilterAndAcceptsBareArray(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("gradeLevel"))
		assert.Equal(t, "false", r.URL.Query().Get("archived"))

		_, _ = w.Write([]byte(`[{"id":"S1"},{"id":"S2"}]`))
	}), Config{})

	rows, err := b.List(t.Context(), objects.EntityStudents, map[string]string{
		"gradeLevel": "9",
		"archived":   "false",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S2", gjson.GetBytes(rows[1], "id").String())
}

func TestListAcceptsItemsEnvelope(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"C1"}],"total":1}`))
	}), Config{})

	rows, err := b.List(t.Context(), objects.EntityContacts, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C1", gjson.GetBytes(rows[0], "id").String())
}

func TestListRejectsNonCollection(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"S1"}`))
	}), Config{})

	_, err := b.List(t.Context(), objects.EntityStudents, nil)
	require.True(t, backend.IsValidationFailure(err))
}

func TestCreateStampsSchool(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		want := json.RawMessage(`{"firstName":"Maya","schoolID":"SCH-1"}`)
		assert.True(t, xjson.Equal(want, json.RawMessage(body)))

		_, _ = w.Write([]byte(`{"id":"S1","firstName":"Maya","schoolID":"SCH-1","version":1}`))
	}), Config{SchoolID: "SCH-1"})

	row, err := b.Create(t.Context(), objects.EntityStudents, []byte(`{"firstName":"Maya"}`))
	require.NoError(t, err)
	assert.Equal(t, "S1", gjson.GetBytes(row, "id").String())
}

func TestUpdateConflict(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/students/S1", r.URL.Path)

		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"message":"version mismatch"}}`))
	}), Config{})

	_, err := b.Update(t.Context(), objects.EntityStudents, "S1", []byte(`{"version":1}`))
	require.True(t, backend.IsConflict(err))
}

func TestDeleteAuthFailurePassesThrough(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), Config{})

	err := b.Delete(t.Context(), objects.EntityStudents, "S1")
	require.True(t, backend.IsAuthFailure(err))
}

func TestServerErrorIsNetworkFailure(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), Config{})

	_, err := b.Fetch(t.Context(), objects.EntityStudents, "S1")
	require.True(t, backend.IsNetworkFailure(err))
}

func TestUnreachableServerIsNetworkFailure(t *testing.T) {
	b := New(httpclient.NewHttpClient(), Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	})

	_, err := b.Fetch(t.Context(), objects.EntityStudents, "S1")
	require.True(t, backend.IsNetworkFailure(err))
}

func TestValidateToken(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/validate", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", gjson.GetBytes(body, "token").String())

		_, _ = w.Write([]byte(`{"valid":false,"reason":"token revoked"}`))
	}), Config{})

	verdict, err := b.Validate(t.Context(), "tok-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, "token revoked", verdict.Reason)
}

func TestDeleteExpired(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cleanup/invite_tokens", r.URL.Path)

		_, _ = w.Write([]byte(`{"deleted":7}`))
	}), Config{})

	deleted, err := b.DeleteExpired(t.Context(), backend.CleanupInviteTokens)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted)
}
