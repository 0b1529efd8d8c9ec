// Package memory provides an in-process core.Storage for ephemeral runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/voicenotes/pkg/core"
)

// Storage keeps slots in a map. Writes can be made to fail to simulate a
// full or unavailable backing store.
type Storage struct {
	mu       sync.RWMutex
	slots    map[string][]byte
	writeErr error
	writes   int
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{slots: make(map[string][]byte)}
}

// Load implements core.Storage.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.slots[key]
	if !ok {
		return nil, core.ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

// Store implements core.Storage.
func (s *Storage) Store(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.slots[key] = append([]byte(nil), data...)
	s.writes++
	return nil
}

// FailWrites makes every following Store return err. Pass nil to recover.
func (s *Storage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes returns the number of successful writes.
func (s *Storage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory"
}

var _ core.Storage = (*Storage)(nil)
