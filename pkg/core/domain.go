// Package core holds the note domain: the Note entity, the ports to durable
// storage and to the presentation layer, and the Store that keeps them in sync.
package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
	EventExport EventType = "EXPORT"
)

// Event represents a change in the store (or in a storage slot, for watchers).
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

func newEvent(t EventType, id string, at time.Time) Event {
	return Event{Type: t, ID: id, Timestamp: at.Unix()}
}
