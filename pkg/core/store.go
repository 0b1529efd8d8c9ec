package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultStorageKey is the slot holding the serialized note list.
	DefaultStorageKey = "voiceNotes"

	defaultEventBuffer = 100
	maxIDAttempts      = 8
)

// StoreOption defines a functional option for configuring a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets where user-facing confirmations go.
func WithNotifier(n Notifier) StoreOption {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSink sets the destination of exported notes.
func WithSink(sink Sink) StoreOption {
	return func(s *Store) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how note ids are minted.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithStorageKey changes the slot the note list is mirrored to.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer of Watch. Zero means default (100).
func WithEventBuffer(size int) StoreOption {
	return func(s *Store) {
		if size > 0 {
			s.eventBuffer = size
		}
	}
}

// Store is the single source of truth for notes. Every mutation is mirrored
// to durable storage and recomputes the filtered view.
type Store struct {
	mu sync.RWMutex

	storage     Storage
	logger      *slog.Logger
	notifier    Notifier
	sink        Sink
	now         func() time.Time
	newID       func() string
	key         string
	eventBuffer int

	notes    []Note
	activeID string
	query    string
	filtered []Note

	subs    map[int]chan Event
	nextSub int

	lastPersistErr  error
	lastPersisted   *time.Time
	persistFailures int
}

// NewStore creates an empty Store mirrored to storage. Call Load to hydrate it.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage:     storage,
		logger:      slog.New(slog.DiscardHandler),
		notifier:    discardNotifier{},
		sink:        discardSink{},
		now:         func() time.Time { return time.Now().Round(0) },
		newID:       uuid.NewString,
		key:         DefaultStorageKey,
		eventBuffer: defaultEventBuffer,
		subs:        make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the store from its slot. A missing slot starts empty; a
// corrupt one is logged and also starts empty.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil && !errors.Is(err, ErrSlotEmpty) {
		return fmt.Errorf("failed to load %s: %w", s.key, err)
	}

	var notes []Note
	if len(data) > 0 {
		if err := json.Unmarshal(data, &notes); err != nil {
			s.logger.Warn("discarding corrupt notes slot", "key", s.key, "error", err)
			notes = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = notes
	if _, ok := s.indexLocked(s.activeID); !ok {
		s.activeID = ""
	}
	s.recomputeLocked()
	s.logger.Debug("notes loaded", "key", s.key, "count", len(notes))
	return nil
}

// CreateNote prepends a new note. Empty arguments fall back to the defaults.
func (s *Store) CreateNote(ctx context.Context, title, content, language string) Note {
	if title == "" {
		title = DefaultTitle
	}
	if language == "" {
		language = DefaultLanguage
	}

	s.mu.Lock()
	now := s.now()
	n := Note{
		ID:        s.uniqueIDLocked(),
		Title:     title,
		Content:   content,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes = append([]Note{n}, s.notes...)
	s.commitLocked(ctx, newEvent(EventCreate, n.ID, now))
	s.mu.Unlock()

	s.notifier.Success("Note created")
	return n
}

// UpdateNote merges patch into the note with the given id and stamps UpdatedAt.
// Unknown ids return ErrNotFound and leave the store untouched.
func (s *Store) UpdateNote(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	i, ok := s.indexLocked(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	n := &s.notes[i]
	substantive := patch.apply(n)
	n.UpdatedAt = s.stampAfter(n.UpdatedAt)
	s.commitLocked(ctx, newEvent(EventModify, id, n.UpdatedAt))
	s.mu.Unlock()

	if substantive {
		s.notifier.Success("Note updated")
	}
	return nil
}

// DeleteNote removes the note and clears the active selection if it pointed at it.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	i, ok := s.indexLocked(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}

	s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
	}
	s.commitLocked(ctx, newEvent(EventDelete, id, s.now()))
	s.mu.Unlock()

	s.notifier.Success("Note deleted")
	return nil
}

// SearchNotes returns the notes whose title or content contains query,
// ignoring case, in store order. A blank query returns every note.
func (s *Store) SearchNotes(query string) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchLocked(query)
}

// ExportNote renders the note as plain text and hands it to the sink.
func (s *Store) ExportNote(ctx context.Context, n Note) (Artifact, error) {
	a := NewArtifact(n)
	if err := s.sink.Deliver(ctx, a); err != nil {
		s.notifier.Failure("Export failed")
		return a, fmt.Errorf("failed to export %q: %w", n.ID, err)
	}

	s.mu.Lock()
	s.publishLocked(newEvent(EventExport, n.ID, s.now()))
	s.mu.Unlock()

	s.notifier.Success("Note exported")
	return a, nil
}

// Notes returns a copy of the full list, newest first.
func (s *Store) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Note(nil), s.notes...)
}

// Get returns the note with the given id.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.indexLocked(id)
	if !ok {
		return Note{}, false
	}
	return s.notes[i], true
}

// SetActive selects the note currently open in the editor.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexLocked(id); !ok {
		return fmt.Errorf("activate %q: %w", id, ErrNotFound)
	}
	s.activeID = id
	return nil
}

// ClearActive drops the active selection.
func (s *Store) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = ""
}

// Active returns the note currently open in the editor, if any.
// The selection is by id, so it always reflects the latest merged data.
func (s *Store) Active() (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.indexLocked(s.activeID)
	if !ok {
		return Note{}, false
	}
	return s.notes[i], true
}

// SetQuery changes the search query driving Filtered.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.recomputeLocked()
}

// Query returns the current search query.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Filtered returns the notes matching the current query.
func (s *Store) Filtered() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Note(nil), s.filtered...)
}

// Watch streams store events until ctx is done. Slow subscribers lose events
// instead of blocking mutations.
func (s *Store) Watch(ctx context.Context) <-chan Event {
	ch := make(chan Event, s.eventBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// LastPersistError returns the most recent mirror failure, if the last write failed.
func (s *Store) LastPersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPersistErr
}

func (s *Store) commitLocked(ctx context.Context, e Event) {
	s.persistLocked(ctx)
	s.recomputeLocked()
	s.publishLocked(e)
}

// persistLocked mirrors the whole list. Failures never reach the caller:
// the in-memory list stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	notes := s.notes
	if notes == nil {
		notes = []Note{}
	}
	data, err := json.Marshal(notes)
	if err == nil {
		err = s.storage.Store(ctx, s.key, data)
	}
	if err != nil {
		s.lastPersistErr = fmt.Errorf("%w: %v", ErrPersistence, err)
		s.persistFailures++
		s.logger.Warn("failed to persist notes", "key", s.key, "error", err)
		return
	}
	now := s.now()
	s.lastPersistErr = nil
	s.lastPersisted = &now
}

func (s *Store) recomputeLocked() {
	s.filtered = s.searchLocked(s.query)
}

func (s *Store) publishLocked(e Event) {
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			s.logger.Debug("subscriber buffer full, dropping event", "event", e.String())
		}
	}
}

func (s *Store) searchLocked(query string) []Note {
	if strings.TrimSpace(query) == "" {
		return append([]Note(nil), s.notes...)
	}
	q := strings.ToLower(query)
	var out []Note
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) indexLocked(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// uniqueIDLocked asks the generator a bounded number of times, then falls
// back to a random UUID.
func (s *Store) uniqueIDLocked() string {
	for range maxIDAttempts {
		if id := s.newID(); id != "" && !s.takenLocked(id) {
			return id
		}
	}
	s.logger.Warn("id generator keeps colliding, falling back to random ids", "attempts", maxIDAttempts)
	for {
		if id := uuid.NewString(); !s.takenLocked(id) {
			return id
		}
	}
}

func (s *Store) takenLocked(id string) bool {
	_, taken := s.indexLocked(id)
	return taken
}

// stampAfter returns the current time, nudged forward so it is strictly
// later than prev.
func (s *Store) stampAfter(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}
