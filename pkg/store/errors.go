package store

import "errors"

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable wraps failures to reach the database at all, as opposed to
// errors about a particular record.
var ErrUnavailable = errors.New("store unavailable")
