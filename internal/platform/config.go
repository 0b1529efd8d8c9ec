package platform

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the project root when no config path is given.
const DefaultConfigFile = "voicenotes.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VOICENOTES_"

// Config is the file and environment configuration of the application.
type Config struct {
	Adapter     string           `yaml:"adapter,omitempty"`
	DataDir     string           `yaml:"data_dir,omitempty"`
	ExportDir   string           `yaml:"export_dir,omitempty"`
	Language    string           `yaml:"language,omitempty"`
	AutoSave    *time.Duration   `yaml:"autosave,omitempty"`
	LockTimeout *time.Duration   `yaml:"lock_timeout,omitempty"`
	Recognizer  RecognizerConfig `yaml:"recognizer,omitempty"`
}

// RecognizerConfig describes the external speech recognizer.
type RecognizerConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be deferred to open time.
func (c Config) Validate() error {
	switch c.Adapter {
	case "", AdapterFS, AdapterSQLite, AdapterMemory:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAdapter, c.Adapter)
	}
	if c.AutoSave != nil && *c.AutoSave < 0 {
		return errors.New("autosave must not be negative")
	}
	return nil
}

// ApplyEnv overlays VOICENOTES_* variables found through lookup (usually os.LookupEnv).
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ADAPTER", &c.Adapter)
	str("DATA_DIR", &c.DataDir)
	str("EXPORT_DIR", &c.ExportDir)
	str("LANGUAGE", &c.Language)
	str("RECOGNIZER", &c.Recognizer.Command)
	if v, ok := lookup(EnvPrefix + "RECOGNIZER_ARGS"); ok {
		c.Recognizer.Args = strings.Fields(v)
	}
	duration := func(name string, dst **time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = &d
		return nil
	}
	if err := duration("AUTOSAVE", &c.AutoSave); err != nil {
		return c, err
	}
	if err := duration("LOCK_TIMEOUT", &c.LockTimeout); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Options converts the configuration into App options. The data directory is
// not an option; it is the URI passed to New.
func (c Config) Options() []Option {
	opts := []Option{WithAdapter(c.Adapter), WithLanguage(c.Language)}
	if c.ExportDir != "" {
		opts = append(opts, WithExportDir(c.ExportDir))
	}
	if c.AutoSave != nil {
		opts = append(opts, WithAutoSave(*c.AutoSave))
	}
	if c.LockTimeout != nil {
		opts = append(opts, WithLockTimeout(*c.LockTimeout))
	}
	if c.Recognizer.Command != "" {
		opts = append(opts, WithRecognizer(c.Recognizer.Command, c.Recognizer.Args...))
	}
	return opts
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
