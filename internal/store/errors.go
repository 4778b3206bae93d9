package store

import "errors"

// ErrNotFound is returned when no record exists for a script name.
var ErrNotFound = errors.New("script record not found")
