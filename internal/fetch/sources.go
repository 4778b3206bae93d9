package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"scriptbot/internal/logging"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Source is one remote script in the sources manifest.
type Source struct {
	// Name is the local script name (and file stem) for this source.
	Name string `yaml:"name"`

	// URL is the raw script location.
	URL string `yaml:"url"`

	// Version pins the expected first-line version marker. Empty means
	// any version is accepted.
	Version string `yaml:"version,omitempty"`
}

// Manifest is the declarative list of remote script sources, stored at
// .scriptbot/sources.yaml.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// ManifestPath returns the manifest location for a workspace.
func ManifestPath(workspace string) string {
	return filepath.Join(workspace, ".scriptbot", "sources.yaml")
}

// LoadManifest reads and validates the sources manifest. A missing file
// yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read sources manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sources manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest back to disk.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Validate checks every source for a name, a URL, and name uniqueness.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Sources))
	for i, src := range m.Sources {
		if src.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrSourceInvalid, i)
		}
		if src.URL == "" {
			return fmt.Errorf("%w: %s has no url", ErrSourceInvalid, src.Name)
		}
		if seen[src.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}

// Add appends a source, rejecting duplicates.
func (m *Manifest) Add(src Source) error {
	for _, existing := range m.Sources {
		if existing.Name == src.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name)
		}
	}
	m.Sources = append(m.Sources, src)
	return m.Validate()
}

// SyncResult is the outcome of fetching one manifest source.
type SyncResult struct {
	Source Source
	Body   string
	Err    error
}

// SyncAll fetches every manifest source with bounded concurrency. Each
// source's outcome is reported independently; one bad source does not
// abort the others.
func (c *Client) SyncAll(ctx context.Context, m *Manifest, concurrency int) []SyncResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]SyncResult, len(m.Sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range m.Sources {
		i, src := i, src
		g.Go(func() error {
			res, err := c.FetchScript(ctx, src.URL, src.Version)
			if err != nil {
				results[i] = SyncResult{Source: src, Err: err}
				return nil // Per-source failures are reported, not fatal.
			}
			results[i] = SyncResult{Source: src, Body: res.Body}
			return nil
		})
	}

	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	logging.Fetch("Sync complete: %d/%d sources fetched", ok, len(m.Sources))

	return results
}
