package host

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type speedResult struct {
	DownloadMbps float64 `json:"download_mbps"`
	PingMs       int     `json:"ping_ms"`
}

func TestStorageSaveLoad(t *testing.T) {
	s := NewStorage(t.TempDir())

	in := []speedResult{{DownloadMbps: 93.2, PingMs: 11}}
	if err := s.Save("speedtest_history", in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Extension is normalized, so both spellings address the same file.
	if !s.Exists("speedtest_history.json") {
		t.Error("saved file should exist")
	}

	var out []speedResult
	found, err := s.Load("speedtest_history.json", &out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("Load reported file missing")
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStorageLoadMissing(t *testing.T) {
	s := NewStorage(t.TempDir())

	var out map[string]any
	found, err := s.Load("never_saved", &out)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if found {
		t.Error("found should be false for missing file")
	}
}

func TestStorageRejectsTraversal(t *testing.T) {
	s := NewStorage(t.TempDir())

	bad := []string{
		"",
		filepath.Join("..", "escape"),
		"/etc/passwd",
		".hidden",
	}
	for _, name := range bad {
		if err := s.Save(name, map[string]int{"x": 1}); err == nil {
			t.Errorf("Save(%q) should have been rejected", name)
		}
	}
}

func TestStorageListAndRemove(t *testing.T) {
	s := NewStorage(t.TempDir())

	if err := s.Save("b_data", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("a_data", 2); err != nil {
		t.Fatal(err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"a_data.json", "b_data.json"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := s.Remove("a_data"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if s.Exists("a_data") {
		t.Error("removed file still exists")
	}
	// Removing twice is fine.
	if err := s.Remove("a_data"); err != nil {
		t.Errorf("second Remove errored: %v", err)
	}
}

func TestStorageListEmptyDir(t *testing.T) {
	s := NewStorage(t.TempDir())

	names, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir failed: %v", err)
	}
	if names != nil {
		t.Errorf("expected nil, got %v", names)
	}
}
