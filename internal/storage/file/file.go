package file

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikhailRaia/url-mapper/internal/storage"
)

type record struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Storage implements LocalStorage backed by an append-only JSONL file.
// Every Set appends a record; on load the last record for a name wins.
type Storage struct {
	filePath    string
	entries     map[string]string
	mu          sync.RWMutex
	fileWriteMu sync.Mutex
}

// NewStorage opens (or creates) a file-backed storage at the provided path.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		filePath: filePath,
		entries:  make(map[string]string),
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := s.entries[name]
	return value, found
}

func (s *Storage) Set(name, value string) error {
	if name == "" {
		return storage.ErrEmptyName
	}

	if err := s.saveRecordToFile(record{Name: name, Value: value}); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[name] = value
	s.mu.Unlock()

	return nil
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		s.entries[r.Name] = r.Value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (s *Storage) saveRecordToFile(r record) error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
