package dictation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/voicenotes/pkg/core"
)

// State is the lifecycle phase of a Session.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRecording    State = "recording"
)

const (
	// DefaultSettleDelay lets the platform release a capture before a language switch restarts it.
	DefaultSettleDelay = 300 * time.Millisecond
	// DefaultMaxRestarts bounds consecutive automatic restarts that produced no result.
	DefaultMaxRestarts = 3
)

// Option defines a functional option for configuring a Session.
type Option func(*Session)

// WithProviders sets the platform implementations probed at start, in priority order.
func WithProviders(providers ...Provider) Option {
	return func(s *Session) {
		s.providers = providers
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for the settle delay.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSettleDelay overrides the pause between stopping and restarting on a language switch.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) {
		s.settleDelay = d
	}
}

// WithMaxRestarts overrides the bound on consecutive empty restarts.
func WithMaxRestarts(n int) Option {
	return func(s *Session) {
		s.maxRestarts = n
	}
}

// WithLanguage sets the language used when Start is called without one.
func WithLanguage(language string) Option {
	return func(s *Session) {
		if language != "" {
			s.language = language
		}
	}
}

// WithMessageHandler receives human-readable failure messages.
func WithMessageHandler(fn func(msg string)) Option {
	return func(s *Session) {
		s.onMessage = fn
	}
}

// Session drives one continuous dictation interaction and streams the full
// transcript to a callback.
type Session struct {
	mu sync.Mutex

	providers    []Provider
	logger       *slog.Logger
	clock        clockwork.Clock
	settleDelay  time.Duration
	maxRestarts  int
	onTranscript func(string)
	onMessage    func(string)

	state        State
	language     string
	provider     string
	capability   Capability
	shouldRecord bool
	// generation invalidates callbacks and timers that belong to a capture
	// the session has already abandoned.
	generation uint64
	committed  string
	current    string
	restarts   int
	switching  clockwork.Timer
	lastErr    error
}

// NewSession creates an idle session delivering transcripts to onTranscript.
func NewSession(onTranscript func(transcript string), opts ...Option) *Session {
	s := &Session{
		logger:       slog.New(slog.DiscardHandler),
		clock:        clockwork.NewRealClock(),
		settleDelay:  DefaultSettleDelay,
		maxRestarts:  DefaultMaxRestarts,
		onTranscript: onTranscript,
		state:        StateIdle,
		language:     core.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins capture in the given language (or the pending default when empty).
func (s *Session) Start(language string) error {
	s.mu.Lock()
	switch s.state {
	case StateInitializing:
		s.mu.Unlock()
		return ErrBusy
	case StateRecording:
		s.mu.Unlock()
		return nil
	}
	if language != "" {
		s.language = language
	}
	language = s.language
	s.generation++
	gen := s.generation
	s.state = StateInitializing
	s.shouldRecord = true
	s.restarts = 0
	s.committed, s.current = "", ""
	s.lastErr = nil
	s.mu.Unlock()

	return s.launch(gen, language)
}

// Stop ends capture and discards the capability. Calling it while idle is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == StateIdle && s.capability == nil {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	capability := s.detachLocked()
	s.mu.Unlock()

	s.logger.Debug("dictation stopped")
	if capability != nil {
		if err := capability.Stop(); err != nil {
			return fmt.Errorf("failed to stop capture: %w", err)
		}
	}
	return nil
}

// Close stops any capture in progress. It is safe to defer on every exit path.
func (s *Session) Close() error {
	return s.Stop()
}

// SetLanguage changes the capture language. While recording, capture is
// restarted after the settle delay, keeping the transcript gathered so far.
// A change made while a capture is starting is applied once it has started.
func (s *Session) SetLanguage(language string) {
	s.mu.Lock()
	if language == "" || language == s.language {
		s.mu.Unlock()
		return
	}
	s.language = language
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	capability := s.beginSwitchLocked()
	s.mu.Unlock()

	s.finishSwitch(capability, language)
}

// beginSwitchLocked abandons the running capture and schedules a new one in
// the current language after the settle delay.
func (s *Session) beginSwitchLocked() Capability {
	s.generation++
	gen := s.generation
	capability := s.capability
	s.capability = nil
	s.committed = joinRuns(s.committed, s.current)
	s.current = ""
	s.state = StateInitializing
	s.switching = s.clock.AfterFunc(s.settleDelay, func() { s.resume(gen) })
	return capability
}

func (s *Session) finishSwitch(capability Capability, language string) {
	s.logger.Debug("switching dictation language", "language", language)
	if capability != nil {
		if err := capability.Stop(); err != nil {
			s.logger.Warn("failed to stop capture before language switch", "error", err)
		}
	}
}

// Status returns the lifecycle phase.
func (s *Session) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Language returns the language of the current or next capture.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Transcript returns the full transcript of the current (or last) session.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return joinRuns(s.committed, s.current)
}

// LastError returns the error that last sent the session back to idle.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) resume(gen uint64) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.switching = nil
	language := s.language
	s.mu.Unlock()

	_ = s.launch(gen, language)
}

// launch probes, configures and starts a capability. Capability calls happen
// outside the lock since they may re-enter the handlers.
func (s *Session) launch(gen uint64, language string) error {
	provider, err := Probe(s.providers...)
	if err != nil {
		return s.abort(gen, err)
	}
	capability, err := provider.New()
	if err != nil {
		return s.abort(gen, fmt.Errorf("%w: %v", ErrUnsupportedCapability, err))
	}

	settings := Settings{Continuous: true, InterimResults: true, Language: language}
	if err := capability.Configure(settings); err != nil {
		return s.abort(gen, fmt.Errorf("failed to configure %s: %w", provider.Name(), err))
	}
	capability.Handle(s.handlers(gen))

	s.mu.Lock()
	if s.generation != gen {
		// Stopped while initializing.
		s.mu.Unlock()
		return nil
	}
	s.capability = capability
	s.provider = provider.Name()
	s.mu.Unlock()

	if err := capability.Start(); err != nil {
		return s.abort(gen, fmt.Errorf("failed to start %s: %w", provider.Name(), err))
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		_ = capability.Stop()
		return nil
	}
	if s.state == StateInitializing {
		s.state = StateRecording
	}
	if current := s.language; current != language {
		stale := s.beginSwitchLocked()
		s.mu.Unlock()
		s.finishSwitch(stale, current)
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("dictation started", "provider", provider.Name(), "language", language)
	return nil
}

func (s *Session) abort(gen uint64, err error) error {
	s.mu.Lock()
	if s.generation == gen {
		s.generation++
		s.detachLocked()
		s.lastErr = err
	}
	s.mu.Unlock()

	s.logger.Warn("dictation failed to start", "error", err)
	s.message(err.Error())
	return err
}

func (s *Session) handlers(gen uint64) Handlers {
	return Handlers{
		OnResult: func(segments []Segment) { s.handleResult(gen, segments) },
		OnError:  func(code string) { s.handleError(gen, code) },
		OnEnd:    func() { s.handleEnd(gen) },
	}
}

func (s *Session) handleResult(gen uint64, segments []Segment) {
	s.mu.Lock()
	if s.generation != gen || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Transcript)
	}
	s.current = b.String()
	s.restarts = 0
	full := joinRuns(s.committed, s.current)
	cb := s.onTranscript
	s.mu.Unlock()

	if cb != nil {
		cb(full)
	}
}

func (s *Session) handleError(gen uint64, code string) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.generation++
	capability := s.detachLocked()
	err := &CaptureError{Code: code}
	s.lastErr = err
	s.mu.Unlock()

	s.logger.Error("speech recognition error", "code", code)
	if capability != nil {
		_ = capability.Stop()
	}
	s.message(fmt.Sprintf("Error: %s", code))
}

// handleEnd restarts capture when the capability ends a segment on its own,
// unless it keeps ending without producing anything.
func (s *Session) handleEnd(gen uint64) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	if !s.shouldRecord || s.capability == nil {
		s.detachLocked()
		s.mu.Unlock()
		return
	}

	s.committed = joinRuns(s.committed, s.current)
	s.current = ""
	s.restarts++
	if s.restarts > s.maxRestarts {
		s.generation++
		capability := s.detachLocked()
		s.lastErr = ErrRestartLimit
		s.mu.Unlock()

		s.logger.Warn("dictation restart limit reached", "restarts", s.maxRestarts)
		if capability != nil {
			_ = capability.Stop()
		}
		s.message(ErrRestartLimit.Error())
		return
	}
	capability := s.capability
	s.mu.Unlock()

	s.logger.Debug("capture ended, restarting")
	err := capability.Start()

	s.mu.Lock()
	if s.generation != gen {
		// Stopped while restarting: the stop may have landed before Start.
		s.mu.Unlock()
		if err == nil {
			_ = capability.Stop()
		}
		return
	}
	if err == nil {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.detachLocked()
	s.lastErr = fmt.Errorf("failed to restart capture: %w", err)
	s.mu.Unlock()
	s.message(err.Error())
}

// detachLocked moves the session to idle and returns the capability to stop.
func (s *Session) detachLocked() Capability {
	capability := s.capability
	s.capability = nil
	s.provider = ""
	s.state = StateIdle
	s.shouldRecord = false
	if s.switching != nil {
		s.switching.Stop()
		s.switching = nil
	}
	return capability
}

func (s *Session) message(msg string) {
	if s.onMessage != nil {
		s.onMessage(msg)
	}
}

// joinRuns concatenates transcripts of consecutive capture runs.
func joinRuns(prev, next string) string {
	switch {
	case prev == "":
		return next
	case next == "":
		return prev
	case strings.HasSuffix(prev, " ") || strings.HasPrefix(next, " "):
		return prev + next
	default:
		return prev + " " + next
	}
}
