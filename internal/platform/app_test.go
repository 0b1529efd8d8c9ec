package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/internal/platform"
	"github.com/aretw0/voicenotes/pkg/adapters/fs"
	"github.com/aretw0/voicenotes/pkg/adapters/memory"
	"github.com/aretw0/voicenotes/pkg/core"
	"github.com/aretw0/voicenotes/pkg/dictation"
	"github.com/aretw0/voicenotes/pkg/dictation/adapters/lines"
)

func setupApp(t *testing.T, opts ...platform.Option) *platform.App {
	t.Helper()
	app, err := platform.New(context.Background(), t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNew_Adapters(t *testing.T) {
	ctx := context.Background()

	for _, adapter := range []string{platform.AdapterFS, platform.AdapterSQLite, platform.AdapterMemory} {
		t.Run(adapter, func(t *testing.T) {
			dir := t.TempDir()
			app, err := platform.New(ctx, dir, platform.WithAdapter(adapter))
			require.NoError(t, err)
			n := app.CreateNote(ctx, "hello", "world", "")
			require.NoError(t, app.Close())

			if adapter == platform.AdapterMemory {
				return
			}
			reopened, err := platform.New(ctx, dir, platform.WithAdapter(adapter))
			require.NoError(t, err)
			defer reopened.Close()
			got, ok := reopened.Store.Get(n.ID)
			require.True(t, ok)
			assert.Equal(t, "world", got.Content)
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := platform.New(ctx, t.TempDir(), platform.WithAdapter("s3"))
		assert.ErrorIs(t, err, platform.ErrUnknownAdapter)
	})

	t.Run("Injected Storage", func(t *testing.T) {
		storage := memory.NewStorage()
		app := setupApp(t, platform.WithStorage(storage))
		app.CreateNote(ctx, "", "", "")
		assert.Equal(t, 1, storage.Writes())
	})
}

func TestApp_DefaultsAndExport(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t, platform.WithLanguage("pt-BR"))

	n := app.CreateNote(ctx, "", "ola", "")
	assert.Equal(t, "pt-BR", n.Language)

	a, err := app.Store.ExportNote(ctx, n)
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(app.DataDir, platform.ExportDirName, a.Filename))
	require.NoError(t, err)
	assert.Equal(t, "# Untitled Note\n\nola", string(raw))

	st := app.State().(platform.AppState)
	assert.Equal(t, platform.AdapterFS, st.Adapter)
	assert.Contains(t, st.Components, "store")
	assert.Contains(t, st.Components, "fs")
	assert.Equal(t, "light", st.Theme)
}

func TestApp_EditorAutoSave(t *testing.T) {
	ctx := context.Background()
	fake := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	app := setupApp(t, platform.WithClock(fake), platform.WithAutoSave(time.Second))

	n := app.CreateNote(ctx, "", "", "")
	ed, err := app.OpenEditor(ctx, n.ID)
	require.NoError(t, err)

	require.NoError(t, ed.SetContent("typed"))
	fake.Advance(time.Second)

	require.Eventually(t, func() bool {
		got, _ := app.Store.Get(n.ID)
		return got.Content == "typed"
	}, time.Second, time.Millisecond)
	require.NoError(t, ed.Close(ctx))
}

func TestApp_DictationIntoEditor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := strings.NewReader("first words\nmore words\n")
	provider := lines.NewProvider(ctx, input)
	app := setupApp(t, platform.WithProviders(provider))

	n := app.CreateNote(ctx, "Dictated", "Intro.", "")
	ed, err := app.OpenEditor(ctx, n.ID)
	require.NoError(t, err)

	session := app.NewSession(ctx, ed.Transcribe)
	require.NoError(t, ed.Dictate(session, "en-US"))

	select {
	case <-provider.Exhausted():
	case <-time.After(2 * time.Second):
		t.Fatal("input not consumed")
	}
	require.Eventually(t, func() bool {
		return ed.Content() == "Intro. first words more words"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ed.Close(ctx))
	assert.Equal(t, dictation.StateIdle, session.Status(), "closing the editor stops dictation")
	got, _ := app.Store.Get(n.ID)
	assert.Equal(t, "Intro. first words more words", got.Content)
}

func TestApp_NoRecognizer(t *testing.T) {
	app := setupApp(t)
	session := app.NewSession(context.Background(), nil)
	assert.ErrorIs(t, session.Start(""), dictation.ErrUnsupportedCapability)
	assert.Equal(t, dictation.StateIdle, session.Status())
}

func TestApp_EventsReloadExternalChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app := setupApp(t)

	src, err := app.Events(ctx)
	require.NoError(t, err)
	require.NoError(t, src.Start(ctx))

	app.CreateNote(ctx, "local", "", "")
	select {
	case e := <-src.Events():
		assert.Contains(t, e.String(), string(core.EventCreate))
	case <-time.After(2 * time.Second):
		t.Fatal("no store event")
	}

	// Another process rewrites the notes slot.
	require.Eventually(t, func() bool {
		st := app.State().(platform.AppState)
		fsState, ok := st.Components["fs"].(fs.StorageState)
		return ok && fsState.WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
	external := `[{"id":"ext","title":"From elsewhere","content":"","createdAt":"2025-03-01T09:00:00Z","updatedAt":"2025-03-01T09:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(app.DataDir, core.DefaultStorageKey+".json"), []byte(external), 0644))

	require.Eventually(t, func() bool {
		_, ok := app.Store.Get("ext")
		return ok
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, app.Store.Notes(), 1)
}

func TestApp_LeftoverLockFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// A writer that was killed mid-save leaves its lock file behind.
	require.NoError(t, os.WriteFile(filepath.Join(dir, fs.LockFileName), []byte("4242\n"), 0644))

	app, err := platform.New(ctx, dir, platform.WithLockTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer app.Close()

	start := time.Now()
	n := app.CreateNote(ctx, "After crash", "", "")
	assert.Less(t, time.Since(start), time.Second)
	require.NoError(t, app.Store.LastPersistError())

	reopened, err := platform.New(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()
	_, ok := reopened.Store.Get(n.ID)
	assert.True(t, ok)
}
