package fs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/pkg/core"
)

// TestStorage_ExternalNoise writes unrelated slot files from "another process"
// while the store keeps saving, and checks the notes slot is never torn.
func TestStorage_ExternalNoise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	s := setupStorage(t)
	store := core.NewStore(s)
	require.NoError(t, store.Load(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := s.Watch(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup

	wg.Go(func() {
		for ctx.Err() == nil {
			name := fmt.Sprintf("noise-%d.json", rand.IntN(10))
			_ = os.WriteFile(filepath.Join(s.Path, name), []byte(fmt.Sprintf("noise %d", time.Now().UnixNano())), 0o644)
			time.Sleep(time.Duration(rand.IntN(10)) * time.Millisecond)
		}
	})

	wg.Go(func() {
		for i := 0; ctx.Err() == nil; i++ {
			n := store.CreateNote(context.Background(), fmt.Sprintf("Note %d", i), "", "")
			_ = store.UpdateNote(context.Background(), n.ID, core.Patch{Content: core.String("dictated words")})
			time.Sleep(time.Duration(rand.IntN(10)) * time.Millisecond)
		}
	})

	wg.Go(func() {
		for range stream {
		}
	})

	wg.Wait()

	data, err := s.Load(context.Background(), core.DefaultStorageKey)
	require.NoError(t, err)
	var notes []core.Note
	require.NoError(t, json.Unmarshal(data, &notes))
	require.Len(t, notes, len(store.Notes()))
	require.NoError(t, store.LastPersistError())
	t.Logf("survived noise with %d notes", len(notes))
}
