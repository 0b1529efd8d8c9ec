package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/pkg/adapters/fs"
	"github.com/aretw0/voicenotes/pkg/core"
)

func setupStorage(t *testing.T) *fs.Storage {
	t.Helper()
	s := fs.NewStorage(fs.Config{Path: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStorage_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Missing Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "data")
		require.NoError(t, fs.NewStorage(fs.Config{Path: path}).Initialize(ctx))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MustExist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent")
		err := fs.NewStorage(fs.Config{Path: path, MustExist: true}).Initialize(ctx)
		assert.Error(t, err)
	})

	t.Run("Rejects File Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		assert.Error(t, fs.NewStorage(fs.Config{Path: path}).Initialize(ctx))
	})
}

func TestStorage_LoadStore(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	t.Run("Missing Slot", func(t *testing.T) {
		_, err := s.Load(ctx, core.DefaultStorageKey)
		assert.ErrorIs(t, err, core.ErrSlotEmpty)
	})

	t.Run("Round Trip", func(t *testing.T) {
		require.NoError(t, s.Store(ctx, core.DefaultStorageKey, []byte(`[]`)))
		require.NoError(t, s.Store(ctx, core.ThemeStorageKey, []byte(`"dark"`)))

		got, err := s.Load(ctx, core.DefaultStorageKey)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))

		raw, err := os.ReadFile(filepath.Join(s.Path, "theme.json"))
		require.NoError(t, err)
		assert.Equal(t, `"dark"`, string(raw))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"theme", "voiceNotes"}, keys)
	})

	t.Run("Releases Lock", func(t *testing.T) {
		other := fs.NewStorage(fs.Config{Path: s.Path, LockTimeout: 50 * time.Millisecond})
		assert.NoError(t, other.Store(ctx, "scratch", []byte(`1`)))
	})

	t.Run("Invalid Keys", func(t *testing.T) {
		for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
			assert.ErrorIs(t, s.Store(ctx, key, []byte("x")), fs.ErrInvalidKey, key)
		}
	})

	t.Run("Leftover Lock File Does Not Block", func(t *testing.T) {
		lockPath := filepath.Join(s.Path, fs.LockFileName)
		require.NoError(t, os.WriteFile(lockPath, []byte("999"), 0644))

		store := core.NewStore(s)
		require.NoError(t, store.Load(ctx))
		done := make(chan struct{})
		go func() {
			defer close(done)
			store.CreateNote(ctx, "After crash", "", "")
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("create blocked on a lock file nobody holds")
		}
		assert.NoError(t, store.LastPersistError())
	})

	t.Run("State", func(t *testing.T) {
		st := s.State().(fs.StorageState)
		assert.Equal(t, 3, st.Writes)
		assert.NotNil(t, st.LastWrite)
		assert.Equal(t, "fs", s.ComponentType())
	})
}

func TestStorage_BacksStore(t *testing.T) {
	ctx := context.Background()
	s := setupStorage(t)

	store := core.NewStore(s)
	require.NoError(t, store.Load(ctx))
	n := store.CreateNote(ctx, "Groceries", "milk", "")

	reopened := core.NewStore(fs.NewStorage(fs.Config{Path: s.Path}))
	require.NoError(t, reopened.Load(ctx))
	got, ok := reopened.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, "milk", got.Content)
}

func TestSink_Deliver(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "exports")
	sink := fs.NewSink(dir, nil)

	a := core.NewArtifact(core.Note{Title: "Shopping List!", Content: "eggs"})
	require.NoError(t, sink.Deliver(ctx, a))

	raw, err := os.ReadFile(filepath.Join(dir, "shopping_list_.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# Shopping List!\n\neggs", string(raw))
	assert.Equal(t, filepath.Join(dir, "shopping_list_.txt"), sink.PathFor(a))

	assert.Error(t, sink.Deliver(ctx, core.Artifact{Filename: "../x.txt"}))
}
