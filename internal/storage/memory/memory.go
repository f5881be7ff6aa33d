package memory

import (
	"sync"

	"github.com/MikhailRaia/url-mapper/internal/storage"
)

// Storage implements LocalStorage in memory for tests and ephemeral runs.
type Storage struct {
	entries map[string]string
	mutex   sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		entries: make(map[string]string),
	}
}

// Get returns the value stored under name.
func (s *Storage) Get(name string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, found := s.entries[name]
	return value, found
}

// Set stores value under name, replacing any previous value.
func (s *Storage) Set(name, value string) error {
	if name == "" {
		return storage.ErrEmptyName
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[name] = value
	return nil
}
