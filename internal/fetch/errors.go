package fetch

import "errors"

// Fetcher and validator errors. The three failure classes a loader can hit
// are network failure (wrapped transport errors), a bad status, and a body
// that fails validation before execution.
var (
	// ErrBadStatus is returned for any non-200 response.
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrHTMLResponse is returned when the server sent an HTML page instead
	// of raw script source (usually a repository page rather than a raw URL).
	ErrHTMLResponse = errors.New("response is an HTML page, not raw script source")

	// ErrEmptyBody is returned when a 200 response carries no content.
	ErrEmptyBody = errors.New("response body is empty")

	// ErrBodyTooLarge is returned when the body exceeds the configured cap.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrNoVersionMarker is returned when a version pin is set but the
	// first line of the body carries no marker.
	ErrNoVersionMarker = errors.New("script has no version marker")

	// ErrVersionMismatch is returned when the first-line version marker
	// does not match the pinned version.
	ErrVersionMismatch = errors.New("script version does not match pin")

	// ErrSourceInvalid is returned for malformed sources manifest entries.
	ErrSourceInvalid = errors.New("invalid script source")

	// ErrDuplicateSource is returned when two manifest entries share a name.
	ErrDuplicateSource = errors.New("duplicate script source name")
)
