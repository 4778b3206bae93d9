package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/raw/greeter.go", "greeter.go"},
		{"https://example.com/raw/greeter.go?token=abc", "greeter.go"},
		{"https://example.com/raw/greeter.go#frag", "greeter.go"},
		{"https://example.com/scripts/", "scripts"},
		{"", "script"},
	}
	for _, tt := range tests {
		if got := nameFromURL(tt.url); got != tt.want {
			t.Errorf("nameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestListScriptsEmpty(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	output := captureOutput(t, func() {
		if err := listScripts(); err != nil {
			t.Fatalf("listScripts returned error: %v", err)
		}
	})

	if !strings.Contains(output, "No scripts installed") {
		t.Fatalf("expected empty-state message, got: %s", output)
	}
}

func TestSyncNoSources(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	output := captureOutput(t, func() {
		if err := syncSources(&cobra.Command{}, nil); err != nil {
			t.Fatalf("syncSources returned error: %v", err)
		}
	})

	if !strings.Contains(output, "No sources configured") {
		t.Fatalf("expected empty-manifest notice, got: %s", output)
	}
}

func TestAddAndListSources(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	if err := addSource(&cobra.Command{}, []string{"greeter", "https://example.com/greeter.go"}); err != nil {
		t.Fatalf("addSource returned error: %v", err)
	}

	output := captureOutput(t, func() {
		if err := listSources(); err != nil {
			t.Fatalf("listSources returned error: %v", err)
		}
	})

	if !strings.Contains(output, "greeter") || !strings.Contains(output, "https://example.com/greeter.go") {
		t.Fatalf("expected source in listing, got: %s", output)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
