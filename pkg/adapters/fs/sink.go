package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/voicenotes/pkg/core"
)

// Sink writes exported notes into a directory. A file with the same name is replaced.
type Sink struct {
	Dir    string
	logger *slog.Logger
}

// NewSink creates a sink writing into dir. The directory is created on first delivery.
func NewSink(dir string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{Dir: dir, logger: logger}
}

// Deliver implements core.Sink.
func (k *Sink) Deliver(ctx context.Context, a core.Artifact) error {
	if a.Filename == "" || a.Filename != filepath.Base(a.Filename) {
		return fmt.Errorf("invalid export filename %q", a.Filename)
	}
	if err := os.MkdirAll(k.Dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(k.Dir, a.Filename)
	if err := writeFileAtomic(path, a.Body, filePerm); err != nil {
		return err
	}
	k.logger.Info("note exported", "path", path, "bytes", len(a.Body))
	return nil
}

// PathFor returns where an artifact is written.
func (k *Sink) PathFor(a core.Artifact) string {
	return filepath.Join(k.Dir, a.Filename)
}

var _ core.Sink = (*Sink)(nil)
