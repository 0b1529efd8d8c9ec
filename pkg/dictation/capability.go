// Package dictation manages continuous speech capture sessions on top of a
// platform speech-recognition capability.
package dictation

import (
	"errors"
	"fmt"
)

// Settings configures a capability before it starts.
type Settings struct {
	Continuous     bool
	InterimResults bool
	Language       string
}

// Segment is one recognized stretch of speech. Interim segments may still change.
type Segment struct {
	Transcript string
	Final      bool
}

// Handlers receive capability events. Capabilities may call them from any goroutine.
type Handlers struct {
	// OnResult receives every segment known for the current capture run.
	OnResult func(segments []Segment)
	// OnError receives a platform error code (e.g. "not-allowed", "network").
	OnError func(code string)
	// OnEnd signals that the capability stopped capturing on its own.
	OnEnd func()
}

// Capability is a speech-recognition primitive offered by the platform.
type Capability interface {
	Configure(s Settings) error
	Handle(h Handlers)
	Start() error
	Stop() error
}

// Provider is one concrete platform implementation, probed at start.
type Provider interface {
	Name() string
	Available() bool
	New() (Capability, error)
}

var (
	// ErrUnsupportedCapability is returned when no provider is available.
	ErrUnsupportedCapability = errors.New("speech recognition is not supported on this platform")
	// ErrBusy is returned when Start is called while the session is initializing.
	ErrBusy = errors.New("dictation session is initializing")
	// ErrCapture is the sentinel wrapped by every CaptureError.
	ErrCapture = errors.New("capture error")
	// ErrRestartLimit is returned when capture keeps ending without producing results.
	ErrRestartLimit = errors.New("capture ended repeatedly without results")
)

// CaptureError is a failure reported by the capability mid-session.
type CaptureError struct {
	Code string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error: %s", e.Code)
}

// Unwrap lets errors.Is match ErrCapture.
func (e *CaptureError) Unwrap() error {
	return ErrCapture
}

// Probe returns the first available provider. It fails closed.
func Probe(providers ...Provider) (Provider, error) {
	for _, p := range providers {
		if p != nil && p.Available() {
			return p, nil
		}
	}
	return nil, ErrUnsupportedCapability
}
