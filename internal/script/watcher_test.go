package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scriptbot/internal/host"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

func startTestWatcher(t *testing.T, dir string) (*host.Bot, *Watcher) {
	t.Helper()
	bot, loader := newTestLoader(t)

	w, err := NewWatcher(dir, loader)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return bot, w
}

func TestWatcherStartStop(t *testing.T) {
	_, w := startTestWatcher(t, t.TempDir())

	if !w.IsWatching() {
		t.Error("IsWatching() = false after Start")
	}
	w.Stop()
	if w.IsWatching() {
		t.Error("IsWatching() = true after Stop")
	}
	// Second Stop is a no-op.
	w.Stop()
}

func TestWatcherLoadsCreatedScript(t *testing.T) {
	dir := t.TempDir()
	bot, w := startTestWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "greeter.go"), []byte(greeterSrc), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		return bot.Registry().Lookup("hello") != nil
	})
	if !ok {
		t.Fatal("created script was not loaded")
	}

	stats := w.Stats()
	if stats.Reloads == 0 {
		t.Errorf("Stats().Reloads = 0, want > 0")
	}
}

func TestWatcherUnloadsRemovedScript(t *testing.T) {
	dir := t.TempDir()
	bot, w := startTestWatcher(t, dir)

	path := filepath.Join(dir, "greeter.go")
	if err := os.WriteFile(path, []byte(greeterSrc), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool { return bot.Registry().Lookup("hello") != nil }) {
		t.Fatal("created script was not loaded")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove script: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool { return bot.Registry().Lookup("hello") == nil }) {
		t.Fatal("removed script was not unloaded")
	}

	stats := w.Stats()
	if stats.Unloads == 0 {
		t.Errorf("Stats().Unloads = 0, want > 0")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, w := startTestWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	time.Sleep(time.Second)
	stats := w.Stats()
	if stats.FilesCreated != 0 || stats.FilesModified != 0 {
		t.Errorf("non-script file counted: %+v", stats)
	}
}
