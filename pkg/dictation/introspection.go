package dictation

import (
	"github.com/aretw0/introspection"
)

// SessionState exposes internal state for observability.
type SessionState struct {
	Status           State  `json:"status"`
	Language         string `json:"language"`
	Provider         string `json:"provider,omitempty"`
	Restarts         int    `json:"restarts"`
	TranscriptLength int    `json:"transcript_length"`
	SwitchPending    bool   `json:"switch_pending"`
	LastError        string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		Status:           s.state,
		Language:         s.language,
		Provider:         s.provider,
		Restarts:         s.restarts,
		TranscriptLength: len(joinRuns(s.committed, s.current)),
		SwitchPending:    s.switching != nil,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "dictation"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
