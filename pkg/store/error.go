package store

import "errors"

var (
	// ErrNotFound is returned when a memory id does not exist in the store.
	ErrNotFound = errors.New("memory not found")

	// ErrNotSuccessful is returned when the store answers without an error
	// but reports a non-success result. It counts as a failed attempt for
	// retry purposes.
	ErrNotSuccessful = errors.New("store reported non-success")
)
