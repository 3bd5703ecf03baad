// Package config loads the mgebind configuration file.
//
// The file is YAML. Single settings can be overridden with key=value
// pairs using the dotted YAML path, e.g. server.addr=0.0.0.0:9090 or
// values.window.title=demo.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"gopkg.in/yaml.v3"

	"github.com/mge-engine/reflection/middleware"
)

// Config is the root of the configuration file.
type Config struct {
	Server ServerConfig `yaml:"server" schema:"server"`
	Log    LogConfig    `yaml:"log" schema:"log"`
	Stubs  StubsConfig  `yaml:"stubs" schema:"stubs"`
	// Values is the engine configuration scripts see through the
	// configuration class.
	Values map[string]string `yaml:"values" schema:"-"`
}

// ServerConfig configures mgebind serve.
type ServerConfig struct {
	Addr               string                 `yaml:"addr" schema:"addr" validate:"required,hostname_port"`
	MaxRequestBodySize int64                  `yaml:"max_request_body_size" schema:"max_request_body_size" validate:"gte=0"`
	MaskInternalErrors bool                   `yaml:"mask_internal_errors" schema:"mask_internal_errors"`
	CORS               *middleware.CORSConfig `yaml:"cors" schema:"-"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" schema:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" schema:"format" validate:"oneof=text json"`
}

// StubsConfig configures mgebind stubs.
type StubsConfig struct {
	Out    string `yaml:"out" schema:"out" validate:"required"`
	Indent string `yaml:"indent" schema:"indent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: "localhost:8080", MaxRequestBodySize: 1 << 20},
		Log:    LogConfig{Level: "info", Format: "text"},
		Stubs:  StubsConfig{Out: "stubs", Indent: "    "},
	}
}

var (
	validate = validator.New()
	decoder  = schema.NewDecoder()
)

func init() {
	decoder.ZeroEmpty(true)
}

// Load reads path, or only applies overrides to the defaults when path is
// empty, and validates the result.
func Load(path string, overrides []string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.Apply(overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Apply sets the key=value overrides. Keys below values. go to Values
// verbatim; all other keys must name a setting.
func (c *Config) Apply(overrides []string) error {
	form := make(map[string][]string)
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok || key == "" {
			return fmt.Errorf("override %q: expected key=value", o)
		}
		if name, found := strings.CutPrefix(key, "values."); found {
			if c.Values == nil {
				c.Values = make(map[string]string)
			}
			c.Values[name] = value
			continue
		}
		form[key] = append(form[key], value)
	}
	if len(form) == 0 {
		return nil
	}
	if err := decoder.Decode(c, form); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			msgs := make([]string, len(ves))
			for i, ve := range ves {
				msgs[i] = fmt.Sprintf("%s: failed %s validation", strings.ToLower(ve.Namespace()), ve.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level named by Log.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
