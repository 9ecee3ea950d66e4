package api

import (
	"strings"
	"sync"
)

// TokenStore holds the bearer token attached to outgoing requests.
// Writers are login, register, logout and the 401 handler; the last
// writer wins.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewTokenStore(token string) *TokenStore {
	ts := &TokenStore{}
	ts.Set(token)
	return ts
}

func (ts *TokenStore) Token() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

// Present reports whether a token is held.
func (ts *TokenStore) Present() bool {
	return ts.Token() != ""
}

// Set stores token, dropping an optional "Bearer " prefix.
func (ts *TokenStore) Set(token string) {
	token = StripBearer(strings.TrimSpace(token))
	ts.mu.Lock()
	ts.token = token
	ts.mu.Unlock()
}

func (ts *TokenStore) Clear() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}

// StripBearer removes a leading case-insensitive "Bearer " from s.
func StripBearer(s string) string {
	if len(s) >= 7 && strings.EqualFold(s[:7], "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
