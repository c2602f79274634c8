package anchor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKeywordStore persists custom keywords as a JSON string list in the
// state directory. Reads degrade to an empty list on any error so a damaged
// state file never blocks detection.
type FileKeywordStore struct {
	mu   sync.Mutex
	path string
}

// NewFileKeywordStore creates a store backed by the given file path. The
// file is created on first Set.
func NewFileKeywordStore(path string) *FileKeywordStore {
	return &FileKeywordStore{path: path}
}

// Get returns the stored custom keywords, or an empty list when the file is
// missing or unreadable.
func (s *FileKeywordStore) Get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var keywords []string
	if err := json.Unmarshal(data, &keywords); err != nil {
		return nil
	}
	return keywords
}

// Set replaces the stored keyword list. The write is atomic: a temp file in
// the same directory is renamed over the target.
func (s *FileKeywordStore) Set(keywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keywords == nil {
		keywords = []string{}
	}

	data, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("cannot create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "keywords-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write keywords: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace keyword file: %w", err)
	}
	return nil
}
