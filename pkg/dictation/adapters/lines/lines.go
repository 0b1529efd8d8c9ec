// Package lines implements a dictation capability fed by newline-delimited
// text. Each non-blank line is a final segment; a blank line ends the current
// capture run the way a platform recognizer ends a segment on silence.
package lines

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenotes/pkg/dictation"
)

// ErrorCodeRead is reported when the underlying reader fails.
const ErrorCodeRead = "audio-capture"

// Provider offers a single Capability over a reader.
type Provider struct {
	ctx  context.Context
	once sync.Once
	r    io.Reader
	c    *Capability
}

// NewProvider creates a provider reading from r until ctx is done.
func NewProvider(ctx context.Context, r io.Reader) *Provider {
	return &Provider{ctx: ctx, r: r}
}

// Name implements dictation.Provider.
func (p *Provider) Name() string { return "lines" }

// Available implements dictation.Provider.
func (p *Provider) Available() bool { return p.r != nil }

// New implements dictation.Provider. The reader can only be consumed once,
// so every call returns the same capability.
func (p *Provider) New() (dictation.Capability, error) {
	if p.r == nil {
		return nil, errors.New("no input reader")
	}
	p.once.Do(func() {
		p.c = newCapability(p.ctx, p.r)
	})
	return p.c, nil
}

// Exhausted is closed once the reader has been fully consumed.
func (p *Provider) Exhausted() <-chan struct{} {
	c, _ := p.New()
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.c.exhausted
}

// Capability replays reader lines as recognition results.
type Capability struct {
	ctx context.Context
	r   io.Reader

	readOnce  sync.Once
	lines     chan string
	readErr   error
	exhausted chan struct{}
	exhaust   sync.Once

	mu       sync.Mutex
	settings dictation.Settings
	handlers dictation.Handlers
	stop     chan struct{}
}

func newCapability(ctx context.Context, r io.Reader) *Capability {
	return &Capability{
		ctx:       ctx,
		r:         r,
		lines:     make(chan string),
		exhausted: make(chan struct{}),
	}
}

// Configure implements dictation.Capability.
func (c *Capability) Configure(s dictation.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
	return nil
}

// Handle implements dictation.Capability.
func (c *Capability) Handle(h dictation.Handlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = h
}

// Start implements dictation.Capability.
func (c *Capability) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return errors.New("capture already running")
	}
	c.readOnce.Do(c.startReader)

	stop := make(chan struct{})
	c.stop = stop
	h := c.handlers
	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		c.pump(ctx, stop, h)
		return nil
	})
	return nil
}

// Stop implements dictation.Capability.
func (c *Capability) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	return nil
}

func (c *Capability) startReader() {
	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		defer close(c.lines)
		scanner := bufio.NewScanner(c.r)
		for scanner.Scan() {
			select {
			case c.lines <- scanner.Text():
			case <-ctx.Done():
				return nil
			}
		}
		c.readErr = scanner.Err()
		return nil
	})
}

// release marks the run finished unless Stop already did.
func (c *Capability) release(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != stop {
		return false
	}
	c.stop = nil
	return true
}

func (c *Capability) pump(ctx context.Context, stop chan struct{}, h dictation.Handlers) {
	var segments []dictation.Segment
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case line, ok := <-c.lines:
			if !ok {
				c.exhaust.Do(func() { close(c.exhausted) })
				if !c.release(stop) {
					return
				}
				if c.readErr != nil && h.OnError != nil {
					h.OnError(ErrorCodeRead)
				}
				return
			}
			if strings.TrimSpace(line) == "" {
				if c.release(stop) && h.OnEnd != nil {
					h.OnEnd()
				}
				return
			}
			text := strings.TrimSpace(line)
			if len(segments) > 0 {
				text = " " + text
			}
			segments = append(segments, dictation.Segment{Transcript: text, Final: true})
			if h.OnResult != nil {
				h.OnResult(append([]dictation.Segment(nil), segments...))
			}
		}
	}
}

var _ dictation.Capability = (*Capability)(nil)
var _ dictation.Provider = (*Provider)(nil)
