package host

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Storage gives scripts a shared JSON data directory under
// <scripts dir>/json. Scripts pick their own file names (by convention
// prefixed with the script name); values round-trip through encoding/json.
type Storage struct {
	mu   sync.Mutex
	base string
}

// NewStorage creates the JSON storage rooted under scriptsDir.
func NewStorage(scriptsDir string) *Storage {
	return &Storage{base: filepath.Join(scriptsDir, "json")}
}

// Base returns the storage directory path.
func (s *Storage) Base() string {
	return s.base
}

// cleanName rejects path traversal and normalizes the extension.
func (s *Storage) cleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage file name cannot be empty")
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid storage file name: %s", name)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(s.base, name), nil
}

// Exists reports whether a storage file is present.
func (s *Storage) Exists(name string) bool {
	path, err := s.cleanName(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads a storage file into v. A missing file is not an error; v is
// left untouched and false is returned.
func (s *Storage) Load(name string, v any) (bool, error) {
	path, err := s.cleanName(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

// Save writes v to a storage file, creating the directory on first use.
func (s *Storage) Save(name string, v any) error {
	path, err := s.cleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.base, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Remove deletes a storage file. Missing files are not an error.
func (s *Storage) Remove(name string) error {
	path, err := s.cleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns the names of all storage files, sorted.
func (s *Storage) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
