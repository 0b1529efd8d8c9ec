package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Theme is the user's color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	// ThemeStorageKey is the slot holding the theme preference.
	ThemeStorageKey = "theme"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Preferences persists user settings that live outside the note list.
type Preferences struct {
	mu       sync.RWMutex
	storage  Storage
	logger   *slog.Logger
	notifier Notifier
	theme    Theme
}

// NewPreferences creates preferences backed by storage, defaulting to the light theme.
func NewPreferences(storage Storage, logger *slog.Logger, notifier Notifier) *Preferences {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &Preferences{
		storage:  storage,
		logger:   logger,
		notifier: notifier,
		theme:    ThemeLight,
	}
}

// Load reads the saved theme. Unknown values are ignored.
func (p *Preferences) Load(ctx context.Context) error {
	data, err := p.storage.Load(ctx, ThemeStorageKey)
	if errors.Is(err, ErrSlotEmpty) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", ThemeStorageKey, err)
	}

	t := Theme(strings.Trim(strings.TrimSpace(string(data)), `"`))
	if !t.Valid() {
		p.logger.Warn("ignoring unknown theme", "value", string(data))
		return nil
	}

	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()
	return nil
}

// Theme returns the current theme.
func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// SetTheme changes and persists the theme.
func (p *Preferences) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()

	p.persist(ctx, t)
	return nil
}

// Toggle flips between light and dark and announces the new mode.
func (p *Preferences) Toggle(ctx context.Context) Theme {
	p.mu.Lock()
	next := ThemeDark
	if p.theme == ThemeDark {
		next = ThemeLight
	}
	p.theme = next
	p.mu.Unlock()

	p.persist(ctx, next)
	if next == ThemeDark {
		p.notifier.Success("Dark mode activated")
	} else {
		p.notifier.Success("Light mode activated")
	}
	return next
}

func (p *Preferences) persist(ctx context.Context, t Theme) {
	if err := p.storage.Store(ctx, ThemeStorageKey, []byte(t)); err != nil {
		p.logger.Warn("failed to persist theme", "error", fmt.Errorf("%w: %v", ErrPersistence, err))
	}
}
