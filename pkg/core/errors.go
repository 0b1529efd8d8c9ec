package core

import "errors"

// Common errors.
var (
	// ErrNotFound is returned when an update or delete references an unknown note.
	ErrNotFound = errors.New("note not found")
	// ErrSlotEmpty is returned by Storage.Load when the key has never been written.
	ErrSlotEmpty = errors.New("storage slot is empty")
	// ErrPersistence wraps durable-storage write failures. The store never
	// returns it from a mutation; it is logged and exposed through State.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidTheme is returned when setting a theme other than light or dark.
	ErrInvalidTheme = errors.New("invalid theme")
)
