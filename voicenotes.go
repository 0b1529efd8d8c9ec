package voicenotes

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/voicenotes/internal/platform"
	"github.com/aretw0/voicenotes/pkg/core"
	"github.com/aretw0/voicenotes/pkg/dictation"
)

// --- Types ---

// App is the wired application: store, preferences, storage and dictation.
type App = platform.App

// Config is the file and environment configuration.
type Config = platform.Config

// Note is a public alias for the domain note.
type Note = core.Note

// Patch is a public alias for a partial note update.
type Patch = core.Patch

// --- Configuration ---

// DefaultAutoSave is the editor quiet period when none is configured.
const DefaultAutoSave = platform.DefaultAutoSave

// Option defines a functional option for configuring the application.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStorage injects a custom storage implementation.
func WithStorage(storage core.Storage) Option {
	return platform.WithStorage(storage)
}

// WithNotifier receives user-facing confirmations.
func WithNotifier(n core.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) Option {
	return platform.WithClock(c)
}

// WithExportDir sets where exported notes are written.
func WithExportDir(dir string) Option {
	return platform.WithExportDir(dir)
}

// WithLanguage sets the default language for notes and dictation.
func WithLanguage(language string) Option {
	return platform.WithLanguage(language)
}

// WithAutoSave sets the editor quiet period.
func WithAutoSave(d time.Duration) Option {
	return platform.WithAutoSave(d)
}

// WithLockTimeout bounds how long a write waits for another process holding
// the data directory lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithEventBuffer sets the per-subscriber buffer of store events.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithRecognizer configures the external speech recognizer command.
func WithRecognizer(command string, args ...string) Option {
	return platform.WithRecognizer(command, args...)
}

// WithProviders adds dictation providers.
func WithProviders(providers ...dictation.Provider) Option {
	return platform.WithProviders(providers...)
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives runtime failures of the data directory watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the application over the data directory (or database path) uri.
func New(ctx context.Context, uri string, opts ...Option) (*App, error) {
	return platform.New(ctx, uri, opts...)
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// --- Safety & Utils ---

// ResolveDataDir determines the actual data directory based on safety rules.
func ResolveDataDir(userPath string, forceTemp bool) string {
	return platform.ResolveDataDir(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a directory holding voicenotes.yaml or .voicenotes.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
