package fs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/pkg/core"
)

type delivered struct {
	mu     sync.Mutex
	events []core.Event
}

func (d *delivered) add(e core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *delivered) all() []core.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Event(nil), d.events...)
}

func TestDebouncer(t *testing.T) {
	t.Run("Coalesces Burst Per Slot", func(t *testing.T) {
		fake := clockwork.NewFakeClockAt(time.Unix(0, 0))
		d := newDebouncer(50*time.Millisecond, fake)
		got := &delivered{}

		d.add(core.Event{Type: core.EventCreate, ID: "voiceNotes"}, got.add)
		fake.Advance(30 * time.Millisecond)
		d.add(core.Event{Type: core.EventModify, ID: "voiceNotes"}, got.add)
		d.add(core.Event{Type: core.EventModify, ID: "theme"}, got.add)
		fake.Advance(30 * time.Millisecond)
		assert.Empty(t, got.all())

		fake.Advance(20 * time.Millisecond)
		require.Eventually(t, func() bool { return len(got.all()) == 2 }, time.Second, time.Millisecond)
		assert.ElementsMatch(t, []core.Event{
			{Type: core.EventModify, ID: "voiceNotes"},
			{Type: core.EventModify, ID: "theme"},
		}, got.all())
	})

	t.Run("Stop Drops Pending", func(t *testing.T) {
		fake := clockwork.NewFakeClockAt(time.Unix(0, 0))
		d := newDebouncer(50*time.Millisecond, fake)
		got := &delivered{}

		d.add(core.Event{Type: core.EventModify, ID: "voiceNotes"}, got.add)
		assert.True(t, d.stopAndWait(time.Second))

		fake.Advance(time.Second)
		d.add(core.Event{Type: core.EventModify, ID: "voiceNotes"}, got.add)
		fake.Advance(time.Second)
		assert.Empty(t, got.all())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, fake.BlockUntilContext(ctx, 0), "no timer left behind")
	})
}
