package token

import "sync"

// Session tracks which token the current navigation flow is on. Re-entering
// with the same token may reuse a cached validation; entering with a
// different token makes it current and forces remote revalidation.
type Session struct {
	mu    sync.Mutex
	token string
}

func NewSession() *Session {
	return &Session{}
}

// Enter records token as current and reports whether a cached validation
// for it may be reused: only when it was already the current token.
func (s *Session) Enter(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != "" && s.token == token {
		return true
	}

	s.token = token

	return false
}

// Current returns the token the session is on, if any.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// Reset clears the session if token is current, so the next entry with the
// same token revalidates remotely.
func (s *Session) Reset(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == token {
		s.token = ""
	}
}
