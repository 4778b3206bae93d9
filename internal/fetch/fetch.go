// Package fetch retrieves remote script source over HTTP and validates it
// before the executor ever sees it. The contract is deliberately small:
// one GET with a timeout, a status-code branch, and an optional first-line
// version marker check. A body that passes validation is treated as
// trusted, executable source text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"scriptbot/internal/config"
	"scriptbot/internal/logging"

	"golang.org/x/net/html"
)

// versionMarkerPattern matches a version marker on the first line of a
// script, e.g. "// version: 2.1.0".
var versionMarkerPattern = regexp.MustCompile(`^//\s*version:\s*(\S+)`)

// Result is the outcome of one fetch: a status code and a body of text.
type Result struct {
	URL        string
	StatusCode int
	Body       string
}

// Client fetches remote scripts.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
	timeout   time.Duration
}

// NewClient creates a fetch client from the host fetch settings.
func NewClient(cfg config.FetchConfig) *Client {
	return &Client{
		http:      &http.Client{},
		userAgent: cfg.UserAgent,
		maxBody:   int64(cfg.MaxBodyKB) * 1024,
		timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
	}
}

// Fetch issues one GET for the script at url and returns the status code
// plus body text. Transport failures are returned wrapped; status handling
// is the caller's (Validate's) concern.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/plain, */*;q=0.8")

	timer := logging.StartTimer(logging.CategoryFetch, "GET "+url)
	resp, err := c.http.Do(req)
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Read one byte past the cap so truncation is detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s (> %d bytes)", ErrBodyTooLarge, url, c.maxBody)
	}

	logging.FetchDebug("Fetched %s: HTTP %d, %d bytes", url, resp.StatusCode, len(body))

	res := &Result{
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	if resp.StatusCode == http.StatusOK && isHTML(resp.Header.Get("Content-Type"), res.Body) {
		title := pageTitle(res.Body)
		if title != "" {
			return nil, fmt.Errorf("%w: %q (use the raw file URL)", ErrHTMLResponse, title)
		}
		return nil, fmt.Errorf("%w (use the raw file URL)", ErrHTMLResponse)
	}

	return res, nil
}

// FetchScript fetches and validates in one step: the status branch, the
// optional version pin, and a non-empty body. On success the body is
// ready for the executor.
func (c *Client) FetchScript(ctx context.Context, url, pin string) (*Result, error) {
	res, err := c.Fetch(ctx, url)
	if err != nil {
		logging.FetchError("Fetch failed: %v", err)
		return nil, err
	}

	if err := Validate(res, pin); err != nil {
		logging.FetchError("Validation failed for %s: %v", url, err)
		return nil, err
	}

	logging.Fetch("Fetched script %s (%d bytes)", url, len(res.Body))
	return res, nil
}

// Validate applies the status-code branch and the optional version marker
// check. pin is the expected version; empty means no pin.
func Validate(res *Result, pin string) error {
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrBadStatus, res.StatusCode, res.URL)
	}
	if strings.TrimSpace(res.Body) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyBody, res.URL)
	}

	if pin != "" {
		marker := VersionMarker(res.Body)
		if marker == "" {
			return fmt.Errorf("%w: %s (pinned to %s)", ErrNoVersionMarker, res.URL, pin)
		}
		if marker != pin {
			return fmt.Errorf("%w: got %s, pinned to %s", ErrVersionMismatch, marker, pin)
		}
	}

	return nil
}

// VersionMarker extracts the version marker from the first line of body,
// or returns "" if none is present.
func VersionMarker(body string) string {
	line := body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		line = body[:i]
	}
	m := versionMarkerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ""
	}
	return m[1]
}

// isHTML reports whether the response looks like an HTML page rather than
// script source.
func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// pageTitle extracts the <title> of an HTML page for error messages.
func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
