package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	StorageKey       string     `json:"storage_key"`
	StorageType      string     `json:"storage_type"`
	Notes            int        `json:"notes"`
	Filtered         int        `json:"filtered"`
	Query            string     `json:"query,omitempty"`
	ActiveID         string     `json:"active_id,omitempty"`
	Subscribers      int        `json:"subscribers"`
	LastPersisted    *time.Time `json:"last_persisted,omitempty"`
	LastPersistError string     `json:"last_persist_error,omitempty"`
	PersistFailures  int        `json:"persist_failures"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storageType := "unknown"
	if s.storage != nil {
		storageType = "storage"
		if comp, ok := s.storage.(introspection.Component); ok {
			storageType = comp.ComponentType()
		}
	}

	st := StoreState{
		StorageKey:      s.key,
		StorageType:     storageType,
		Notes:           len(s.notes),
		Filtered:        len(s.filtered),
		Query:           s.query,
		ActiveID:        s.activeID,
		Subscribers:     len(s.subs),
		LastPersisted:   s.lastPersisted,
		PersistFailures: s.persistFailures,
	}
	if s.lastPersistErr != nil {
		st.LastPersistError = s.lastPersistErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
