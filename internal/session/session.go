// Package session holds the operator's authorization token for a client run.
//
// A Session is created once and handed to every component that needs the
// token, so a write from the settings views is seen by the next API call.
package session

import (
	"fmt"
	"sync"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/MikhailRaia/url-mapper/internal/storage"
)

// TokenKey is the local storage entry that holds the authorization token.
const TokenKey = "authorization"

// Session reads and writes the authorization token through local storage.
type Session struct {
	store storage.LocalStorage
	mu    sync.RWMutex
}

// New creates a Session backed by store.
func New(store storage.LocalStorage) *Session {
	return &Session{store: store}
}

// Token returns the stored token, or an empty string when none is set.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, _ := s.store.Get(TokenKey)
	return token
}

// SetToken persists token. It is visible to Token immediately.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Describe reports what is known about the stored token.
func (s *Session) Describe() auth.TokenInfo {
	return auth.Inspect(s.Token())
}
