// Package exec implements a dictation capability backed by an external
// recognizer process. The process receives its settings through the
// environment and writes one event per stdout line:
//
//	partial <text>   interim hypothesis for the current segment
//	final <text>     the current segment is settled
//	error <code>     the recognizer failed
//
// The process exiting on its own is an end event.
package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenotes/pkg/dictation"
)

// Environment variables passed to the recognizer process.
const (
	EnvLanguage   = "VOICENOTES_LANG"
	EnvContinuous = "VOICENOTES_CONTINUOUS"
	EnvInterim    = "VOICENOTES_INTERIM"
)

// ErrorCodeExit is reported when the recognizer exits with a failure status.
const ErrorCodeExit = "process-exit"

// Provider launches Command for each capture run.
type Provider struct {
	Command string
	Args    []string
	Logger  *slog.Logger

	ctx context.Context
}

// NewProvider creates a provider for command. Processes are killed when ctx is done.
func NewProvider(ctx context.Context, command string, args []string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{Command: command, Args: args, Logger: logger, ctx: ctx}
}

// Name implements dictation.Provider.
func (p *Provider) Name() string { return "exec" }

// Available implements dictation.Provider. The command must resolve on PATH.
func (p *Provider) Available() bool {
	if p.Command == "" {
		return false
	}
	_, err := osexec.LookPath(p.Command)
	return err == nil
}

// New implements dictation.Provider.
func (p *Provider) New() (dictation.Capability, error) {
	path, err := osexec.LookPath(p.Command)
	if err != nil {
		return nil, fmt.Errorf("recognizer %q not found: %w", p.Command, err)
	}
	return &Capability{path: path, args: p.Args, logger: p.Logger, ctx: p.ctx}, nil
}

// Capability runs one recognizer process per capture run.
type Capability struct {
	path   string
	args   []string
	logger *slog.Logger
	ctx    context.Context

	mu       sync.Mutex
	settings dictation.Settings
	handlers dictation.Handlers
	cancel   context.CancelFunc
	run      uint64
}

// Configure implements dictation.Capability.
func (c *Capability) Configure(s dictation.Settings) error {
	if s.Language == "" {
		return errors.New("language is required")
	}
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
	if c.cancel != nil {
		return errors.New("recognizer already running")
	}

	runCtx, cancel := context.WithCancel(c.ctx)
	cmd := osexec.CommandContext(runCtx, c.path, c.args...)
	cmd.Env = append(os.Environ(),
		EnvLanguage+"="+c.settings.Language,
		EnvContinuous+"="+flag(c.settings.Continuous),
		EnvInterim+"="+flag(c.settings.InterimResults),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open recognizer output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start recognizer: %w", err)
	}

	c.logger.Debug("recognizer started", "path", c.path, "args", c.args, "language", c.settings.Language)
	c.cancel = cancel
	c.run++
	run := c.run
	h := c.handlers

	lifecycle.Go(c.ctx, func(ctx context.Context) error {
		c.consume(stdout, h)
		waitErr := cmd.Wait()
		if !c.finish(run) {
			return nil
		}
		if waitErr != nil {
			c.logger.Warn("recognizer exited with error", "error", waitErr)
			if h.OnError != nil {
				h.OnError(ErrorCodeExit)
			}
			return nil
		}
		if h.OnEnd != nil {
			h.OnEnd()
		}
		return nil
	})
	return nil
}

// Stop implements dictation.Capability. The process is killed and no end
// event is reported for it.
func (c *Capability) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return nil
}

// finish clears the running process if it is still the current run.
func (c *Capability) finish(run uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != run || c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

func (c *Capability) consume(r io.Reader, h dictation.Handlers) {
	var t tracker
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev := parseLine(scanner.Text())
		switch ev.kind {
		case kindError:
			if h.OnError != nil {
				h.OnError(ev.text)
			}
		case kindPartial, kindFinal:
			if segments, changed := t.apply(ev); changed && h.OnResult != nil {
				h.OnResult(segments)
			}
		}
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

type kind int

const (
	kindSkip kind = iota
	kindPartial
	kindFinal
	kindError
)

type event struct {
	kind kind
	text string
}

// parseLine decodes one line of recognizer output. Unprefixed text counts as final.
func parseLine(line string) event {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return event{kind: kindSkip}
	}
	head, rest, _ := strings.Cut(line, " ")
	switch head {
	case "partial":
		return event{kind: kindPartial, text: rest}
	case "final":
		return event{kind: kindFinal, text: rest}
	case "error":
		code := strings.TrimSpace(rest)
		if code == "" {
			code = "unknown"
		}
		return event{kind: kindError, text: code}
	default:
		return event{kind: kindFinal, text: line}
	}
}

// tracker folds partial/final events into the cumulative segment list.
type tracker struct {
	segments []dictation.Segment
}

// apply replaces the open interim segment (if any) with the new hypothesis.
func (t *tracker) apply(ev event) ([]dictation.Segment, bool) {
	open := t.openSegment()
	if open {
		t.segments = t.segments[:len(t.segments)-1]
	}
	text := strings.TrimSpace(ev.text)
	if text == "" {
		return t.snapshot(), open
	}
	if len(t.segments) > 0 {
		text = " " + text
	}
	t.segments = append(t.segments, dictation.Segment{Transcript: text, Final: ev.kind == kindFinal})
	return t.snapshot(), true
}

func (t *tracker) snapshot() []dictation.Segment {
	return append([]dictation.Segment(nil), t.segments...)
}

func (t *tracker) openSegment() bool {
	return len(t.segments) > 0 && !t.segments[len(t.segments)-1].Final
}

var _ dictation.Capability = (*Capability)(nil)
var _ dictation.Provider = (*Provider)(nil)
