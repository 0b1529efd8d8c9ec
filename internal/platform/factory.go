package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/voicenotes/pkg/adapters/fs"
	"github.com/aretw0/voicenotes/pkg/adapters/memory"
	"github.com/aretw0/voicenotes/pkg/adapters/sqlite"
	"github.com/aretw0/voicenotes/pkg/core"
)

// Storage adapter names.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// SQLiteFile is the database file created inside the data directory.
const SQLiteFile = "voicenotes.db"

// ErrUnknownAdapter is returned for adapter names that are not registered.
var ErrUnknownAdapter = errors.New("unknown adapter")

// openStorage builds the storage selected by o for the data directory dir.
// The returned closer is never nil.
func openStorage(ctx context.Context, dir string, o *options) (core.Storage, func() error, error) {
	noop := func() error { return nil }

	if o.storage != nil {
		return o.storage, noop, nil
	}

	switch o.adapter {
	case AdapterFS:
		s := fs.NewStorage(fs.Config{
			Path:         dir,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
			LockTimeout:  o.lockTimeout,
			MustExist:    o.mustExist,
		})
		if err := s.Initialize(ctx); err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case AdapterSQLite:
		path, parent := dir, dir
		if dir == ":memory:" || strings.HasSuffix(dir, ".db") {
			parent = filepath.Dir(dir)
		} else {
			path = filepath.Join(dir, SQLiteFile)
		}
		if dir != ":memory:" && !o.mustExist {
			if err := os.MkdirAll(parent, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create data path: %w", err)
			}
		}
		s, err := sqlite.Open(ctx, path, o.logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case AdapterMemory:
		return memory.NewStorage(), noop, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, o.adapter)
	}
}
