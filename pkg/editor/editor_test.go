package editor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/pkg/adapters/memory"
	"github.com/aretw0/voicenotes/pkg/core"
	"github.com/aretw0/voicenotes/pkg/editor"
)

type fakeRecorder struct {
	started  []string
	stops    int
	startErr error
}

func (r *fakeRecorder) Start(language string) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, language)
	return nil
}

func (r *fakeRecorder) Stop() error {
	r.stops++
	return nil
}

func setupEditor(t *testing.T, content string) (*editor.Editor, *core.Store, *memory.Storage, *clockwork.FakeClock) {
	t.Helper()
	ctx := context.Background()
	storage := memory.NewStorage()
	store := core.NewStore(storage)
	require.NoError(t, store.Load(ctx))
	n := store.CreateNote(ctx, "Draft", content, "")

	fake := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	ed, err := editor.Open(ctx, store, n.ID, editor.WithClock(fake))
	require.NoError(t, err)
	return ed, store, storage, fake
}

func savedContent(t *testing.T, storage *memory.Storage, id string) string {
	t.Helper()
	reloaded := core.NewStore(storage)
	require.NoError(t, reloaded.Load(context.Background()))
	n, ok := reloaded.Get(id)
	require.True(t, ok)
	return n.Content
}

// requireNoTimers waits until the editor has no auto-save scheduled.
func requireNoTimers(t *testing.T, fake *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fake.BlockUntilContext(ctx, 0))
}

func TestEditor_Open(t *testing.T) {
	t.Run("Marks Note Active", func(t *testing.T) {
		ed, store, _, _ := setupEditor(t, "body")
		active, ok := store.Active()
		require.True(t, ok)
		assert.Equal(t, ed.ID(), active.ID)
		assert.Equal(t, "Draft", ed.Title())
		assert.Equal(t, "body", ed.Content())
		assert.False(t, ed.Dirty())
	})

	t.Run("Unknown Note", func(t *testing.T) {
		store := core.NewStore(memory.NewStorage())
		_, err := editor.Open(context.Background(), store, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestEditor_AutoSaveDebounce(t *testing.T) {
	ed, _, storage, fake := setupEditor(t, "")
	writes := storage.Writes()

	require.NoError(t, ed.SetContent("first"))
	fake.Advance(2 * time.Second)
	require.NoError(t, ed.SetContent("second"))

	fake.Advance(4*time.Second + 900*time.Millisecond)
	assert.Equal(t, writes, storage.Writes(), "nothing persists before the quiet period after the last edit")
	assert.True(t, ed.Dirty())

	fake.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return storage.Writes() == writes+1 }, time.Second, time.Millisecond)
	assert.False(t, ed.Dirty())
	assert.Equal(t, "second", savedContent(t, storage, ed.ID()))
	requireNoTimers(t, fake)
}

func TestEditor_CloseFlushes(t *testing.T) {
	ctx := context.Background()
	ed, store, storage, fake := setupEditor(t, "")

	require.NoError(t, ed.SetContent("pending"))
	fake.Advance(time.Second)
	require.NoError(t, ed.Close(ctx))

	assert.Equal(t, "pending", savedContent(t, storage, ed.ID()))
	requireNoTimers(t, fake)
	_, ok := store.Active()
	assert.False(t, ok)

	t.Run("Idempotent", func(t *testing.T) {
		writes := storage.Writes()
		require.NoError(t, ed.Close(ctx))
		assert.Equal(t, writes, storage.Writes())
	})

	t.Run("Rejects Edits After Close", func(t *testing.T) {
		assert.ErrorIs(t, ed.SetTitle("late"), editor.ErrClosed)
		assert.ErrorIs(t, ed.Save(ctx), editor.ErrClosed)
	})
}

func TestEditor_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Clean Buffer Writes Nothing", func(t *testing.T) {
		ed, _, storage, _ := setupEditor(t, "x")
		writes := storage.Writes()
		require.NoError(t, ed.Save(ctx))
		assert.Equal(t, writes, storage.Writes())
	})

	t.Run("Writes Title And Content", func(t *testing.T) {
		ed, store, _, fake := setupEditor(t, "")
		require.NoError(t, ed.SetTitle("Shopping"))
		require.NoError(t, ed.SetContent("milk"))
		require.NoError(t, ed.Save(ctx))

		n, ok := store.Get(ed.ID())
		require.True(t, ok)
		assert.Equal(t, "Shopping", n.Title)
		assert.Equal(t, "milk", n.Content)
		requireNoTimers(t, fake)
	})

	t.Run("Deleted Note", func(t *testing.T) {
		ed, store, _, _ := setupEditor(t, "")
		require.NoError(t, store.DeleteNote(ctx, ed.ID()))
		require.NoError(t, ed.SetContent("orphan"))
		assert.ErrorIs(t, ed.Save(ctx), core.ErrNotFound)
	})
}

func TestEditor_Dictate(t *testing.T) {
	ctx := context.Background()

	t.Run("Appends Transcript To Existing Content", func(t *testing.T) {
		ed, _, _, _ := setupEditor(t, "Notes:")
		rec := &fakeRecorder{}
		require.NoError(t, ed.Dictate(rec, "pt-BR"))
		assert.Equal(t, []string{"pt-BR"}, rec.started)

		ed.Transcribe("ola")
		ed.Transcribe("ola mundo")
		assert.Equal(t, "Notes: ola mundo", ed.Content())
		assert.True(t, ed.Dirty())
	})

	t.Run("Close Stops Recorder And Saves Language", func(t *testing.T) {
		ed, store, _, _ := setupEditor(t, "")
		rec := &fakeRecorder{}
		require.NoError(t, ed.Dictate(rec, "fr-FR"))
		ed.Transcribe("bonjour")

		require.NoError(t, ed.Close(ctx))
		assert.Equal(t, 1, rec.stops)

		n, _ := store.Get(ed.ID())
		assert.Equal(t, "bonjour", n.Content)
		assert.Equal(t, "fr-FR", n.Language)

		ed.Transcribe("ignored")
		assert.Equal(t, "bonjour", ed.Content())
	})

	t.Run("Transcripts Ignored After Stop", func(t *testing.T) {
		ed, _, _, _ := setupEditor(t, "")
		rec := &fakeRecorder{}
		require.NoError(t, ed.Dictate(rec, ""))
		ed.Transcribe("kept")
		require.NoError(t, ed.StopDictation())
		ed.Transcribe("kept and more")
		assert.Equal(t, "kept", ed.Content())
	})

	t.Run("Start Failure", func(t *testing.T) {
		ed, _, _, _ := setupEditor(t, "")
		rec := &fakeRecorder{startErr: errors.New("no microphone")}
		assert.Error(t, ed.Dictate(rec, "en-US"))
		ed.Transcribe("nothing")
		assert.Equal(t, "", ed.Content())
	})
}
