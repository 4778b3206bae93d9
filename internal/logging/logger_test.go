package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".scriptbot")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func resetLogging() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	configLoaded = false
	config = loggingConfig{}
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()

	writeTestConfig(t, tempDir, `{
		"logging": {
			"level": "debug",
			"debug_mode": true
		}
	}`)

	resetLogging()
	defer resetLogging()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot, CategoryFetch, CategoryScript, CategoryCommand,
		CategoryEvent, CategoryStore, CategorySched, CategoryWatcher,
	}

	for _, cat := range categories {
		Get(cat).Info("test message for %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".scriptbot", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	found := make(map[string]bool)
	for _, e := range entries {
		for _, cat := range categories {
			if strings.HasSuffix(e.Name(), string(cat)+".log") {
				found[string(cat)] = true
			}
		}
	}
	for _, cat := range categories {
		if !found[string(cat)] {
			t.Errorf("no log file created for category %s", cat)
		}
	}
}

func TestProductionModeIsNoOp(t *testing.T) {
	tempDir := t.TempDir()

	// No config file at all: production mode, nothing written.
	resetLogging()
	defer resetLogging()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if IsDebugMode() {
		t.Error("expected production mode with no config")
	}

	Script("this should go nowhere")
	Boot("neither should this")

	if _, err := os.Stat(filepath.Join(tempDir, ".scriptbot", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not be created in production mode")
	}
}

func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()

	writeTestConfig(t, tempDir, `{
		"logging": {
			"level": "debug",
			"debug_mode": true,
			"categories": {
				"fetch": true,
				"command": false
			}
		}
	}`)

	resetLogging()
	defer resetLogging()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !IsCategoryEnabled(CategoryFetch) {
		t.Error("fetch category should be enabled")
	}
	if IsCategoryEnabled(CategoryCommand) {
		t.Error("command category should be disabled")
	}
	// Unlisted categories default to enabled in debug mode.
	if !IsCategoryEnabled(CategoryScript) {
		t.Error("unlisted category should default to enabled")
	}
}

func TestLogLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()

	writeTestConfig(t, tempDir, `{
		"logging": {
			"level": "warn",
			"debug_mode": true
		}
	}`)

	resetLogging()
	defer resetLogging()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	l := Get(CategoryScript)
	l.Debug("debug message should be filtered")
	l.Info("info message should be filtered")
	l.Warn("warn message should appear")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".scriptbot", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	var logPath string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "script.log") {
			logPath = filepath.Join(tempDir, ".scriptbot", "logs", e.Name())
		}
	}
	if logPath == "" {
		t.Fatal("script log file not created")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "should be filtered") {
		t.Error("filtered messages were written")
	}
	if !strings.Contains(content, "warn message should appear") {
		t.Error("warn message missing")
	}
}
