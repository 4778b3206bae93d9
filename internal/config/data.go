package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Data is the dynamic key/value config store exposed to scripts.
// Values are arbitrary JSON and persist across host restarts in
// .scriptbot/data.json. Set persists synchronously so a crashing
// script never loses acknowledged writes.
type Data struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// OpenData loads (or creates) the dynamic data store under the workspace.
func OpenData(workspace string) (*Data, error) {
	path := filepath.Join(workspace, ".scriptbot", "data.json")

	d := &Data{
		path:   path,
		values: make(map[string]any),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, fmt.Errorf("failed to read data store: %w", err)
	}

	if err := json.Unmarshal(raw, &d.values); err != nil {
		return nil, fmt.Errorf("failed to parse data store: %w", err)
	}

	return d, nil
}

// Get returns the value for key, or nil if absent.
func (d *Data) Get(key string) any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.values[key]
}

// GetString returns the value for key as a string, or def if absent
// or not a string.
func (d *Data) GetString(key, def string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if s, ok := d.values[key].(string); ok {
		return s
	}
	return def
}

// GetBool returns the value for key as a bool, or def if absent or not a bool.
func (d *Data) GetBool(key string, def bool) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if b, ok := d.values[key].(bool); ok {
		return b
	}
	return def
}

// Has reports whether key is present.
func (d *Data) Has(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.values[key]
	return ok
}

// Set stores value under key and persists the store.
func (d *Data) Set(key string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = value
	return d.saveLocked()
}

// SetDefault stores value under key only if the key is absent.
// Mirrors the "initialize config defaults" loop scripts run at startup.
func (d *Data) SetDefault(key string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.values[key]; ok {
		return nil
	}
	d.values[key] = value
	return d.saveLocked()
}

// Delete removes key and persists the store.
func (d *Data) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.values, key)
	return d.saveLocked()
}

// Keys returns all stored keys.
func (d *Data) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	return keys
}

// saveLocked persists the store. Caller must hold d.mu.
func (d *Data) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	raw, err := json.MarshalIndent(d.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data store: %w", err)
	}

	if err := os.WriteFile(d.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write data store: %w", err)
	}

	return nil
}
