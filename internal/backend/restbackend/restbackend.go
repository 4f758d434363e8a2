// Package restbackend adapts the backend contracts onto the CounselHub REST
// API. Rows travel as raw JSON; HTTP statuses map onto typed collaborator
// errors at this edge and nowhere else.
package restbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/dumper"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/httpclient"
	"github.com/counselhub/counselhub/internal/tracing"
)

// DefaultTimeout bounds each remote call when none is configured.
const DefaultTimeout = 15 * time.Second

// Config configures the REST adapter.
type Config struct {
	// BaseURL is the API root, e.g. https://api.counselhub.example/v1.
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`

	// AuthType is bearer or api_key; bearer when empty. AuthHeader names the
	// header when AuthType is api_key.
	AuthType   string `conf:"auth_type" yaml:"auth_type" json:"auth_type"`
	APIKey     string `conf:"api_key" yaml:"api_key" json:"api_key"`
	AuthHeader string `conf:"auth_header" yaml:"auth_header" json:"auth_header"`

	// SchoolID stamps outgoing creates that carry no tenant yet.
	SchoolID string `conf:"school_id" yaml:"school_id" json:"school_id"`

	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration `conf:"timeout" yaml:"timeout" json:"timeout"`

	// Trace controls the header the trace id travels in.
	Trace tracing.Config `conf:"trace" yaml:"trace" json:"trace"`
}

// Backend talks to the remote API over one shared HTTP client.
type Backend struct {
	client *httpclient.HttpClient

	baseURL     string
	auth        *httpclient.AuthConfig
	schoolID    string
	timeout     time.Duration
	traceHeader string
}

var (
	_ backend.DataBackend    = (*Backend)(nil)
	_ backend.CleanupBackend = (*Backend)(nil)
	_ backend.TokenBackend   = (*Backend)(nil)
)

func New(client *httpclient.HttpClient, cfg Config) *Backend {
	if client == nil {
		panic("restbackend: client is required")
	}

	if cfg.BaseURL == "" {
		panic("restbackend: BaseURL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var auth *httpclient.AuthConfig
	if cfg.APIKey != "" {
		authType := cfg.AuthType
		if authType == "" {
			authType = "bearer"
		}

		auth = &httpclient.AuthConfig{
			Type:      authType,
			APIKey:    cfg.APIKey,
			HeaderKey: cfg.AuthHeader,
		}
	}

	return &Backend{
		client:      client,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		auth:        auth,
		schoolID:    cfg.SchoolID,
		timeout:     timeout,
		traceHeader: cfg.Trace.TraceHeader,
	}
}

// Fetch implements backend.DataBackend.
func (b *Backend) Fetch(ctx context.Context, entity objects.Entity, id string) (json.RawMessage, error) {
	body, err := b.do(ctx, http.MethodGet, recordPath(entity, id), nil, nil)
	if err != nil {
		return nil, classify(err, "fetch %s %s", entity, id)
	}

	return body, nil
}

// List implements backend.DataBackend. Filter keys become query parameters.
// Both a bare JSON array and an {"items": [...]} envelope are accepted.
func (b *Backend) List(ctx context.Context, entity objects.Entity, filter map[string]string) ([]json.RawMessage, error) {
	query := make(url.Values, len(filter))
	for field, value := range filter {
		query.Set(field, value)
	}

	body, err := b.do(ctx, http.MethodGet, collectionPath(entity), query, nil)
	if err != nil {
		return nil, classify(err, "list %s", entity)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		parsed = parsed.Get("items")
	}

	if !parsed.IsArray() {
		dumper.DumpBytes(ctx, body, "rest_list_response")
		return nil, backend.ValidationFailure("list %s: response is not a collection", entity)
	}

	items := parsed.Array()

	rows := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		rows = append(rows, json.RawMessage(item.Raw))
	}

	return rows, nil
}

// Create implements backend.DataBackend. Payloads without a tenant get the
// configured school stamped before they leave the process.
func (b *Backend) Create(ctx context.Context, entity objects.Entity, payload json.RawMessage) (json.RawMessage, error) {
	if b.schoolID != "" && gjson.GetBytes(payload, "schoolID").String() == "" {
		stamped, err := sjson.SetBytes(payload, "schoolID", b.schoolID)
		if err != nil {
			return nil, backend.ValidationFailure("create %s: stamp school: %v", entity, err)
		}

		payload = stamped
	}

	body, err := b.do(ctx, http.MethodPost, collectionPath(entity), nil, payload)
	if err != nil {
		return nil, classify(err, "create %s", entity)
	}

	return body, nil
}

// Update implements backend.DataBackend.
func (b *Backend) Update(ctx context.Context, entity objects.Entity, id string, payload json.RawMessage) (json.RawMessage, error) {
	body, err := b.do(ctx, http.MethodPut, recordPath(entity, id), nil, payload)
	if err != nil {
		return nil, classify(err, "update %s %s", entity, id)
	}

	return body, nil
}

// Delete implements backend.DataBackend.
func (b *Backend) Delete(ctx context.Context, entity objects.Entity, id string) error {
	if _, err := b.do(ctx, http.MethodDelete, recordPath(entity, id), nil, nil); err != nil {
		return classify(err, "delete %s %s", entity, id)
	}

	return nil
}

// DeleteExpired implements backend.CleanupBackend.
func (b *Backend) DeleteExpired(ctx context.Context, category backend.CleanupCategory) (int, error) {
	body, err := b.do(ctx, http.MethodPost, "/cleanup/"+url.PathEscape(string(category)), nil, nil)
	if err != nil {
		return 0, classify(err, "cleanup %s", category)
	}

	return int(gjson.GetBytes(body, "deleted").Int()), nil
}

// Validate implements backend.TokenBackend. The remote answers rejections
// with a 200 verdict; non-2xx statuses mean the call itself failed.
func (b *Backend) Validate(ctx context.Context, token string) (*backend.Verdict, error) {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, backend.ValidationFailure("validate token: %v", err)
	}

	body, err := b.do(ctx, http.MethodPost, "/tokens/validate", nil, payload)
	if err != nil {
		return nil, classify(err, "validate token")
	}

	var verdict backend.Verdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		dumper.DumpBytes(ctx, body, "rest_verdict_response")
		return nil, backend.ValidationFailure("validate token: decode verdict: %v", err)
	}

	return &verdict, nil
}

func (b *Backend) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	ctx, traceID := tracing.EnsureTraceID(ctx)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	headers := make(http.Header)
	if b.traceHeader != "" {
		headers.Set(b.traceHeader, traceID)
	}

	resp, err := b.client.Do(ctx, &httpclient.Request{
		Method:  method,
		URL:     b.baseURL + path,
		Headers: headers,
		Query:   query,
		Body:    body,
		Auth:    b.auth,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func collectionPath(entity objects.Entity) string {
	return "/" + url.PathEscape(string(entity))
}

func recordPath(entity objects.Entity, id string) string {
	return collectionPath(entity) + "/" + url.PathEscape(id)
}

// classify turns transport and status errors into the typed kinds the engine
// branches on. Timeouts, 429 and 5xx are transient; the rest are definitive.
func classify(err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)

	var httpErr *httpclient.Error
	if !errors.As(err, &httpErr) {
		return backend.NetworkFailure(err, "%s", op)
	}

	msg := remoteMessage(httpErr)

	switch {
	case httpErr.StatusCode == http.StatusNotFound:
		return backend.NotFound("%s: %s", op, msg)
	case httpErr.StatusCode == http.StatusConflict:
		return backend.Conflict("%s: %s", op, msg)
	case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
		return backend.AuthFailure("%s: %s", op, msg)
	case httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500:
		return backend.NetworkFailure(httpErr, "%s", op)
	default:
		return backend.ValidationFailure("%s: %s", op, msg)
	}
}

// remoteMessage digs the human-readable message out of an error body.
func remoteMessage(httpErr *httpclient.Error) string {
	for _, path := range []string{"error.message", "error", "message"} {
		if msg := gjson.GetBytes(httpErr.Body, path); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}

	return httpErr.Status
}
