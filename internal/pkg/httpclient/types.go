package httpclient

import (
	"net/http"
	"net/url"
)

// Request is a transport-agnostic description of one HTTP call.
type Request struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Headers http.Header `json:"headers,omitempty"`
	Query   url.Values  `json:"query,omitempty"`
	Body    []byte      `json:"body,omitempty"`
	Auth    *AuthConfig `json:"-"`
}

// AuthConfig describes how a request authenticates against the backend.
type AuthConfig struct {
	// Type is bearer or api_key.
	Type string `json:"type"`
	// APIKey is the credential value.
	APIKey string `json:"-"`
	// HeaderKey is the header name used when Type is api_key.
	HeaderKey string `json:"header_key,omitempty"`
}

// Response captures the full result of an executed request.
type Response struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	Request     *Request
	RawRequest  *http.Request
	RawResponse *http.Response
}
