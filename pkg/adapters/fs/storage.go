// Package fs stores slots as JSON files in a data directory and watches the
// directory for changes made by other processes.
package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/voicenotes/pkg/core"
)

// SlotExtension is appended to a key to form its file name.
const SlotExtension = ".json"

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid slot key")

// Config holds the configuration for the filesystem storage.
type Config struct {
	Path   string
	Logger *slog.Logger
	// ErrorHandler receives watcher failures. Defaults to logging them.
	ErrorHandler func(error)
	// LockTimeout bounds how long a write waits for another process. Zero uses
	// DefaultLockTimeout; a negative value waits as long as the write context allows.
	LockTimeout time.Duration
	// MustExist fails Initialize when Path is missing instead of creating it.
	MustExist bool
}

// Storage implements core.Storage with one file per slot.
type Storage struct {
	Path   string
	config Config

	mu            sync.RWMutex
	digests       map[string][sha256.Size]byte
	writes        int
	lastWrite     *time.Time
	watcherActive bool
}

// NewStorage creates a storage rooted at config.Path. Call Initialize before use.
func NewStorage(config Config) *Storage {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{
		Path:    config.Path,
		config:  config,
		digests: make(map[string][sha256.Size]byte),
	}
}

// Initialize prepares the data directory.
func (s *Storage) Initialize(ctx context.Context) error {
	info, err := os.Stat(s.Path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("data path %s is not a directory", s.Path)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat data path: %w", err)
	case s.config.MustExist:
		return fmt.Errorf("data path %s does not exist", s.Path)
	}

	if err := os.MkdirAll(s.Path, dirPerm); err != nil {
		return fmt.Errorf("failed to create data path: %w", err)
	}
	s.config.Logger.Info("created data directory", "path", s.Path)
	return nil
}

// Load implements core.Storage.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := s.slotPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}

	s.mu.Lock()
	s.digests[key] = sha256.Sum256(data)
	s.mu.Unlock()
	return data, nil
}

// Store implements core.Storage. Writes hold the directory lock so other
// processes never interleave with them.
func (s *Storage) Store(ctx context.Context, key string, data []byte) error {
	path, err := s.slotPath(key)
	if err != nil {
		return err
	}

	lockCtx := ctx
	if timeout := s.lockTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	unlock, err := acquireLock(lockCtx, filepath.Join(s.Path, LockFileName))
	if err != nil {
		return err
	}
	defer unlock()

	// Remember the digest before the rename lands so the watcher recognizes
	// the resulting event as our own.
	s.mu.Lock()
	previous, hadPrevious := s.digests[key]
	s.digests[key] = sha256.Sum256(data)
	s.mu.Unlock()

	if err := writeFileAtomic(path, data, filePerm); err != nil {
		s.mu.Lock()
		if hadPrevious {
			s.digests[key] = previous
		} else {
			delete(s.digests, key)
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.writes++
	s.lastWrite = &now
	s.mu.Unlock()

	s.config.Logger.Debug("slot written", "key", key, "bytes", len(data))
	return nil
}

// Keys lists the slots present in the data directory, sorted.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list data path: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := keyFromFile(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) lockTimeout() time.Duration {
	if s.config.LockTimeout == 0 {
		return DefaultLockTimeout
	}
	return s.config.LockTimeout
}

func (s *Storage) slotPath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.Path, key+SlotExtension), nil
}

// keyFromFile maps a directory entry back to its slot key.
func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, SlotExtension) {
		return "", false
	}
	return strings.TrimSuffix(name, SlotExtension), true
}

// ownWrite reports whether data is what this storage last wrote or read for key.
func (s *Storage) ownWrite(key string, data []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	digest, ok := s.digests[key]
	return ok && digest == sha256.Sum256(data)
}

func (s *Storage) forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.digests, key)
}

var (
	_ core.Storage   = (*Storage)(nil)
	_ core.Watchable = (*Storage)(nil)
)
