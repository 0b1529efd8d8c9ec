package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenotes/pkg/adapters/fs"
	lcadapter "github.com/aretw0/voicenotes/pkg/adapters/lifecycle"
	"github.com/aretw0/voicenotes/pkg/core"
	"github.com/aretw0/voicenotes/pkg/dictation"
	"github.com/aretw0/voicenotes/pkg/dictation/adapters/exec"
	"github.com/aretw0/voicenotes/pkg/editor"
)

// DefaultAutoSave is the editor quiet period when none is configured.
const DefaultAutoSave = editor.DefaultAutoSaveInterval

// ExportDirName is the export directory created inside the data directory by default.
const ExportDirName = "exports"

// App wires the note store, preferences, storage and dictation together.
type App struct {
	Store       *core.Store
	Preferences *core.Preferences
	Storage     core.Storage
	Sink        *fs.Sink
	DataDir     string

	opts         *options
	logger       *slog.Logger
	closeStorage func() error

	mu     sync.Mutex
	closed bool
}

// New opens the storage at uri (a data directory, or a database path for
// sqlite) and hydrates the store and preferences from it.
func New(ctx context.Context, uri string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	dir := uri
	if uri != ":memory:" {
		useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
		dir = ResolveDataDir(uri, useTemp)
		if useTemp && dir != uri {
			o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", dir)
		}
	}

	storage, closer, err := openStorage(ctx, dir, o)
	if err != nil {
		return nil, err
	}

	exportDir := o.exportDir
	if exportDir == "" {
		switch {
		case dir == ":memory:":
			exportDir = ExportDirName
		case o.adapter == AdapterSQLite && filepath.Ext(dir) == ".db":
			exportDir = filepath.Join(filepath.Dir(dir), ExportDirName)
		default:
			exportDir = filepath.Join(dir, ExportDirName)
		}
	}
	sink := fs.NewSink(exportDir, o.logger)

	storeOpts := []core.StoreOption{
		core.WithLogger(o.logger),
		core.WithNotifier(o.notifier),
		core.WithSink(sink),
	}
	if o.clock != nil {
		storeOpts = append(storeOpts, core.WithClock(o.clock.Now))
	}
	if o.eventBuffer > 0 {
		storeOpts = append(storeOpts, core.WithEventBuffer(o.eventBuffer))
	}

	store := core.NewStore(storage, storeOpts...)
	if err := store.Load(ctx); err != nil {
		_ = closer()
		return nil, err
	}
	prefs := core.NewPreferences(storage, o.logger, o.notifier)
	if err := prefs.Load(ctx); err != nil {
		_ = closer()
		return nil, err
	}

	o.logger.Debug("voicenotes opened", "adapter", o.adapter, "path", dir, "notes", len(store.Notes()))
	return &App{
		Store:        store,
		Preferences:  prefs,
		Storage:      storage,
		Sink:         sink,
		DataDir:      dir,
		opts:         o,
		logger:       o.logger,
		closeStorage: closer,
	}, nil
}

// Language returns the configured default language.
func (a *App) Language() string {
	return a.opts.language
}

// CreateNote creates a note in the configured default language when none is given.
func (a *App) CreateNote(ctx context.Context, title, content, language string) core.Note {
	if language == "" {
		language = a.opts.language
	}
	return a.Store.CreateNote(ctx, title, content, language)
}

// OpenEditor opens the note for editing with the configured auto-save period.
func (a *App) OpenEditor(ctx context.Context, id string) (*editor.Editor, error) {
	opts := []editor.Option{
		editor.WithLogger(a.logger),
		editor.WithAutoSaveInterval(a.opts.autosave),
	}
	if a.opts.clock != nil {
		opts = append(opts, editor.WithClock(a.opts.clock))
	}
	return editor.Open(ctx, a.Store, id, opts...)
}

// Providers lists the dictation providers in probe order: injected ones first,
// then the configured recognizer command.
func (a *App) Providers(ctx context.Context) []dictation.Provider {
	providers := append([]dictation.Provider(nil), a.opts.providers...)
	if a.opts.recognizer != "" {
		providers = append(providers, exec.NewProvider(ctx, a.opts.recognizer, a.opts.recognizerArgs, a.logger))
	}
	return providers
}

// NewSession creates a dictation session over Providers. Extra options are
// applied last and may override the provider list.
func (a *App) NewSession(ctx context.Context, onTranscript func(string), opts ...dictation.Option) *dictation.Session {
	base := []dictation.Option{
		dictation.WithProviders(a.Providers(ctx)...),
		dictation.WithLogger(a.logger),
		dictation.WithLanguage(a.opts.language),
	}
	if a.opts.clock != nil {
		base = append(base, dictation.WithClock(a.opts.clock))
	}
	return dictation.NewSession(onTranscript, append(base, opts...)...)
}

// Events merges store mutations with changes other processes make to the
// storage, when the storage can report them. External changes to the notes
// or theme slots are reloaded before they are forwarded.
func (a *App) Events(ctx context.Context) (lifecycle.Source, error) {
	inputs := []<-chan core.Event{a.Store.Watch(ctx)}

	if w, ok := a.Storage.(core.Watchable); ok {
		raw, err := w.Watch(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to watch storage: %w", err)
		}
		reloaded := make(chan core.Event)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer close(reloaded)
			for e := range raw {
				a.reload(ctx, e)
				select {
				case reloaded <- e:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
		inputs = append(inputs, reloaded)
	}

	return lcadapter.NewSource(inputs...), nil
}

func (a *App) reload(ctx context.Context, e core.Event) {
	var err error
	switch e.ID {
	case core.DefaultStorageKey:
		err = a.Store.Load(ctx)
	case core.ThemeStorageKey:
		err = a.Preferences.Load(ctx)
	default:
		return
	}
	if err != nil {
		a.logger.Warn("failed to reload after external change", "slot", e.ID, "error", err)
		return
	}
	a.logger.Info("reloaded after external change", "slot", e.ID, "type", e.Type)
}

// Close releases the storage. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.closeStorage(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
