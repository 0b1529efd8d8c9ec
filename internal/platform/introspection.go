package platform

import (
	"github.com/aretw0/introspection"
)

// AppState aggregates the state of every introspectable component.
type AppState struct {
	Adapter    string         `json:"adapter"`
	DataDir    string         `json:"data_dir"`
	ExportDir  string         `json:"export_dir"`
	Language   string         `json:"language"`
	Theme      string         `json:"theme"`
	Recognizer string         `json:"recognizer,omitempty"`
	Components map[string]any `json:"components"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	st := AppState{
		Adapter:    a.opts.adapter,
		DataDir:    a.DataDir,
		ExportDir:  a.Sink.Dir,
		Language:   a.opts.language,
		Theme:      string(a.Preferences.Theme()),
		Recognizer: a.opts.recognizer,
		Components: make(map[string]any),
	}
	for _, c := range []any{a.Store, a.Storage} {
		inspectable, ok := c.(introspection.Introspectable)
		if !ok {
			continue
		}
		name := "unknown"
		if comp, ok := c.(introspection.Component); ok {
			name = comp.ComponentType()
		}
		st.Components[name] = inspectable.State()
	}
	return st
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)
