package core

import "context"

// Storage defines the contract for the durable key-value slots backing the
// store. Adhering to this interface keeps the core independent of the
// underlying mechanism (filesystem, SQLite, memory).
type Storage interface {
	// Load returns the raw bytes stored under key, or ErrSlotEmpty.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store replaces the value under key.
	Store(ctx context.Context, key string, data []byte) error
}

// Watchable defines an interface for storages that can report changes made
// to their slots from outside the process.
type Watchable interface {
	// Watch returns a channel of events for slots whose key matches pattern.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Notifier surfaces short, non-blocking confirmations and failures to the user.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Artifact is a downloadable export of a note.
type Artifact struct {
	Filename string
	MIMEType string
	Body     []byte
}

// Sink receives exported artifacts (e.g. writes them to a downloads folder).
type Sink interface {
	Deliver(ctx context.Context, a Artifact) error
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Failure(string) {}

type discardSink struct{}

func (discardSink) Deliver(context.Context, Artifact) error { return nil }
