package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrVersionConflict is returned when a compare-and-swap update loses to a
	// concurrent write. Callers should reload the trip and retry.
	ErrVersionConflict = errors.New("version conflict")
)
