// Package editor holds the pending edit buffer of one open note. Edits are
// saved to the store after a quiet period, on demand, or when the editor
// closes, whichever comes first.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/voicenotes/pkg/core"
)

// DefaultAutoSaveInterval is the quiet period after the last edit before it is saved.
const DefaultAutoSaveInterval = 5 * time.Second

// ErrClosed is returned by operations on an editor that has been closed.
var ErrClosed = errors.New("editor closed")

// Recorder is the part of a dictation session the editor drives.
type Recorder interface {
	Start(language string) error
	Stop() error
}

// Option defines a functional option for configuring an Editor.
type Option func(*Editor)

// WithLogger sets the logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock driving auto-save.
func WithClock(c clockwork.Clock) Option {
	return func(e *Editor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithAutoSaveInterval overrides the quiet period. Zero or less disables auto-save;
// pending edits are then only written by Save and Close.
func WithAutoSaveInterval(d time.Duration) Option {
	return func(e *Editor) {
		e.interval = d
	}
}

// Editor buffers edits to one note.
type Editor struct {
	mu sync.Mutex

	ctx      context.Context
	store    *core.Store
	logger   *slog.Logger
	clock    clockwork.Clock
	interval time.Duration

	id       string
	title    string
	content  string
	language string
	dirty    bool
	closed   bool

	timer clockwork.Timer
	// timerGen discards a timer that fired while being replaced.
	timerGen uint64

	recorder  Recorder
	dictating bool
	prefix    string
}

// Open loads the note into a new editor and marks it active in the store.
// ctx is used for saves triggered by the auto-save timer.
func Open(ctx context.Context, store *core.Store, id string, opts ...Option) (*Editor, error) {
	n, ok := store.Get(id)
	if !ok {
		return nil, fmt.Errorf("open %q: %w", id, core.ErrNotFound)
	}
	if err := store.SetActive(id); err != nil {
		return nil, err
	}

	e := &Editor{
		ctx:      ctx,
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		clock:    clockwork.NewRealClock(),
		interval: DefaultAutoSaveInterval,
		id:       n.ID,
		title:    n.Title,
		content:  n.Content,
		language: n.Language,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ID returns the id of the note being edited.
func (e *Editor) ID() string { return e.id }

// Title returns the pending title.
func (e *Editor) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

// Content returns the pending content.
func (e *Editor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// Dirty reports whether there are unsaved edits.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// SetTitle replaces the pending title.
func (e *Editor) SetTitle(title string) error {
	return e.edit(func() { e.title = title })
}

// SetContent replaces the pending content.
func (e *Editor) SetContent(content string) error {
	return e.edit(func() { e.content = content })
}

// SetLanguage changes the note language saved with the next flush.
func (e *Editor) SetLanguage(language string) error {
	return e.edit(func() { e.language = language })
}

// Save writes pending edits now. It is a no-op when nothing changed.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()
	return e.flush(ctx)
}

// Dictate starts rec and appends every transcript it delivers to the content
// that existed when dictation began. rec must deliver transcripts to Transcribe.
func (e *Editor) Dictate(rec Recorder, language string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	previous := e.recorder
	e.recorder = rec
	e.dictating = true
	e.prefix = e.content
	if language != "" && language != e.language {
		e.language = language
		e.markDirtyLocked()
	}
	e.mu.Unlock()

	if previous != nil && previous != rec {
		_ = previous.Stop()
	}
	if err := rec.Start(language); err != nil {
		e.mu.Lock()
		if e.recorder == rec {
			e.recorder = nil
			e.dictating = false
		}
		e.mu.Unlock()
		return fmt.Errorf("failed to start dictation: %w", err)
	}
	e.logger.Debug("dictation attached", "note", e.id, "language", language)
	return nil
}

// StopDictation stops the attached recorder, keeping the transcript received so far.
func (e *Editor) StopDictation() error {
	e.mu.Lock()
	rec := e.recorder
	e.recorder = nil
	e.dictating = false
	e.mu.Unlock()

	if rec == nil {
		return nil
	}
	return rec.Stop()
}

// Transcribe receives the full transcript of the running dictation.
// It is meant to be passed as the session's transcript callback.
func (e *Editor) Transcribe(transcript string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.dictating {
		return
	}
	e.content = appendTranscript(e.prefix, transcript)
	e.markDirtyLocked()
}

// Close stops dictation, flushes pending edits and releases the active note.
// Calling it more than once is a no-op.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	rec := e.recorder
	e.recorder = nil
	e.dictating = false
	e.mu.Unlock()

	var errs []error
	if rec != nil {
		if err := rec.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.flush(ctx); err != nil {
		errs = append(errs, err)
	}

	e.mu.Lock()
	e.closed = true
	e.cancelTimerLocked()
	e.mu.Unlock()

	if active, ok := e.store.Active(); ok && active.ID == e.id {
		e.store.ClearActive()
	}
	e.logger.Debug("editor closed", "note", e.id)
	return errors.Join(errs...)
}

func (e *Editor) edit(apply func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	apply()
	e.markDirtyLocked()
	return nil
}

// markDirtyLocked flags the buffer and (re)starts the quiet period.
func (e *Editor) markDirtyLocked() {
	e.dirty = true
	if e.interval <= 0 {
		return
	}
	e.cancelTimerLocked()
	e.timerGen++
	gen := e.timerGen
	e.timer = e.clock.AfterFunc(e.interval, func() { e.autoSave(gen) })
}

func (e *Editor) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Editor) autoSave(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.timerGen {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.mu.Unlock()

	if err := e.flush(e.ctx); err != nil {
		e.logger.Warn("auto-save failed", "note", e.id, "error", err)
	}
}

func (e *Editor) flush(ctx context.Context) error {
	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}
	patch := core.Patch{
		Title:    core.String(e.title),
		Content:  core.String(e.content),
		Language: core.String(e.language),
	}
	e.dirty = false
	e.cancelTimerLocked()
	e.mu.Unlock()

	if err := e.store.UpdateNote(ctx, e.id, patch); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	e.logger.Debug("note saved", "note", e.id)
	return nil
}

func appendTranscript(prefix, transcript string) string {
	switch {
	case transcript == "":
		return prefix
	case prefix == "", strings.HasSuffix(prefix, " "), strings.HasSuffix(prefix, "\n"):
		return prefix + transcript
	default:
		return prefix + " " + transcript
	}
}
