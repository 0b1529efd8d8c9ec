package lines_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenotes/pkg/dictation"
	"github.com/aretw0/voicenotes/pkg/dictation/adapters/lines"
)

type collector struct {
	mu    sync.Mutex
	items []string
}

func (c *collector) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, s)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.items...)
}

func waitExhausted(t *testing.T, p *lines.Provider) {
	t.Helper()
	select {
	case <-p.Exhausted():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for input to be consumed")
	}
}

func TestLines_StreamsThroughSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := lines.NewProvider(ctx, strings.NewReader("hello\nworld\n\nsecond run\n"))
	got := &collector{}
	s := dictation.NewSession(got.add, dictation.WithProviders(provider))
	defer s.Close()

	require.NoError(t, s.Start("en-US"))
	waitExhausted(t, provider)

	assert.Equal(t, []string{"hello", "hello world", "hello world second run"}, got.all())
	assert.Equal(t, "hello world second run", s.Transcript())
}

func TestLines_Unavailable(t *testing.T) {
	provider := lines.NewProvider(context.Background(), nil)
	assert.False(t, provider.Available())

	_, err := dictation.Probe(provider)
	assert.ErrorIs(t, err, dictation.ErrUnsupportedCapability)
}

type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "partial words\n"), nil
	}
	return 0, errors.New("device unplugged")
}

func TestLines_ReadErrorSurfaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := lines.NewProvider(ctx, &failingReader{})
	messages := &collector{}
	s := dictation.NewSession(nil,
		dictation.WithProviders(provider),
		dictation.WithMessageHandler(messages.add),
	)
	defer s.Close()

	require.NoError(t, s.Start(""))
	waitExhausted(t, provider)

	require.Eventually(t, func() bool {
		return s.Status() == dictation.StateIdle
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Error: " + lines.ErrorCodeRead}, messages.all())
	assert.ErrorIs(t, s.LastError(), dictation.ErrCapture)
}
