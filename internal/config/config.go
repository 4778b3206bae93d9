// Package config loads and persists scriptbot configuration.
// The host config lives at .scriptbot/config.json and is the single
// source of truth; scripts read and write their own keys through the
// dynamic Data store (data.go).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all scriptbot configuration from .scriptbot/config.json.
type Config struct {
	// Prefix is the command prefix messages must start with (default "!").
	Prefix string `json:"prefix,omitempty"`

	// ScriptsDir overrides the default scripts directory
	// (.scriptbot/scripts under the workspace).
	ScriptsDir string `json:"scripts_dir,omitempty"`

	// Fetch configures the remote script fetcher.
	Fetch *FetchConfig `json:"fetch,omitempty"`

	// Sync configures manifest-driven source syncing.
	Sync *SyncConfig `json:"sync,omitempty"`

	// Logging configuration (read again by internal/logging at init).
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// FetchConfig controls the HTTP fetcher for remote scripts.
type FetchConfig struct {
	// TimeoutSec is the per-request timeout in seconds (default 30).
	TimeoutSec int `json:"timeout_sec,omitempty"`

	// MaxBodyKB caps the response body size in KiB (default 1024).
	MaxBodyKB int `json:"max_body_kb,omitempty"`

	// UserAgent overrides the default request User-Agent.
	UserAgent string `json:"user_agent,omitempty"`
}

// SyncConfig controls `scriptbot sync` behavior.
type SyncConfig struct {
	// Concurrency bounds parallel fetches during sync (default 4).
	Concurrency int `json:"concurrency,omitempty"`
}

// LoggingConfig mirrors the logging section consumed by internal/logging.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
	JSONFormat bool            `json:"json_format,omitempty"`
}

// GetPrefix returns the command prefix with the default applied.
func (c *Config) GetPrefix() string {
	if c.Prefix == "" {
		return "!"
	}
	return c.Prefix
}

// GetScriptsDir returns the scripts directory for the given workspace root.
func (c *Config) GetScriptsDir(workspace string) string {
	if c.ScriptsDir != "" {
		return c.ScriptsDir
	}
	return filepath.Join(workspace, ".scriptbot", "scripts")
}

// GetFetch returns fetch settings with defaults applied.
func (c *Config) GetFetch() FetchConfig {
	cfg := FetchConfig{
		TimeoutSec: 30,
		MaxBodyKB:  1024,
		UserAgent:  "scriptbot/1.0 (+https://github.com/scriptbot)",
	}
	if c.Fetch != nil {
		if c.Fetch.TimeoutSec > 0 {
			cfg.TimeoutSec = c.Fetch.TimeoutSec
		}
		if c.Fetch.MaxBodyKB > 0 {
			cfg.MaxBodyKB = c.Fetch.MaxBodyKB
		}
		if c.Fetch.UserAgent != "" {
			cfg.UserAgent = c.Fetch.UserAgent
		}
	}
	return cfg
}

// GetSync returns sync settings with defaults applied.
func (c *Config) GetSync() SyncConfig {
	cfg := SyncConfig{Concurrency: 4}
	if c.Sync != nil && c.Sync.Concurrency > 0 {
		cfg.Concurrency = c.Sync.Concurrency
	}
	return cfg
}

// GetLogging returns logging settings with defaults applied.
func (c *Config) GetLogging() LoggingConfig {
	if c.Logging != nil {
		cfg := *c.Logging
		if cfg.Level == "" {
			cfg.Level = "info"
		}
		return cfg
	}
	return LoggingConfig{Level: "info"}
}

// applyEnvOverrides overlays SCRIPTBOT_* environment variables onto the config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCRIPTBOT_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("SCRIPTBOT_SCRIPTS_DIR"); v != "" {
		c.ScriptsDir = v
	}
	if v := os.Getenv("SCRIPTBOT_FETCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if c.Fetch == nil {
				c.Fetch = &FetchConfig{}
			}
			c.Fetch.TimeoutSec = n
		}
	}
	if v := os.Getenv("SCRIPTBOT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			if c.Logging == nil {
				c.Logging = &LoggingConfig{}
			}
			c.Logging.DebugMode = b
		}
	}
}

// DefaultPath returns the default path to .scriptbot/config.json.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".scriptbot", "config.json")
}

// FindWorkspaceRoot attempts to find the host root by looking for .scriptbot
// or go.mod, walking up from the current directory. Falls back to the current
// working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".scriptbot")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}

// Load reads configuration from the given path, applying env overrides.
// A missing file yields an empty config (defaults available via Get* methods).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to the given path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
