package platform

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/voicenotes/pkg/core"
	"github.com/aretw0/voicenotes/pkg/dictation"
)

// options holds the internal configuration for an App.
type options struct {
	storage        core.Storage
	logger         *slog.Logger
	notifier       core.Notifier
	clock          clockwork.Clock
	adapter        string
	exportDir      string
	language       string
	autosave       time.Duration
	eventBuffer    int
	recognizer     string
	recognizerArgs []string
	providers      []dictation.Provider
	lockTimeout    time.Duration
	mustExist      bool
	forceTemp      bool
	devSafety      bool
	errorHandler   func(error)
}

// Option defines a functional option for configuring an App.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		language:  core.DefaultLanguage,
		autosave:  DefaultAutoSave,
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage implementation. The adapter name is then ignored.
func WithStorage(storage core.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithNotifier receives the user-facing confirmations.
func WithNotifier(n core.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithClock overrides the clock used for timestamps, auto-save and dictation delays.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithExportDir sets where exported notes are written. Defaults to "exports"
// inside the data directory.
func WithExportDir(dir string) Option {
	return func(o *options) {
		o.exportDir = dir
	}
}

// WithLanguage sets the default language for new notes and dictation.
func WithLanguage(language string) Option {
	return func(o *options) {
		if language != "" {
			o.language = language
		}
	}
}

// WithAutoSave sets the editor quiet period. Zero or less disables auto-save.
func WithAutoSave(d time.Duration) Option {
	return func(o *options) {
		o.autosave = d
	}
}

// WithLockTimeout bounds how long a write waits for another process holding
// the data directory lock (fs adapter). A negative value waits without bound.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithEventBuffer sets the per-subscriber buffer of store events.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithRecognizer configures the external speech recognizer command.
func WithRecognizer(command string, args ...string) Option {
	return func(o *options) {
		o.recognizer = command
		o.recognizerArgs = args
	}
}

// WithProviders adds dictation providers probed before the configured recognizer.
func WithProviders(providers ...dictation.Provider) Option {
	return func(o *options) {
		o.providers = append(o.providers, providers...)
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp re-roots the data directory under the system temp directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running through `go run` or
// `go test`. Enabled by default.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives runtime failures of the data directory watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
