// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "COUNTERVIEW_"

// Accepted values of Engine and LogFormat.
const (
	EngineWazero = "wazero"
	EngineExtism = "extism"

	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of the application.
type Config struct {
	// Addr is the listen address of the view.
	Addr string `env:"ADDR" envDefault:":8080"`
	// Module is an absolute path, file:// or http(s):// URL of the module.
	// Empty selects the embedded sample library.
	Module string `env:"MODULE"`
	// Engine selects how the module is run: wazero or extism.
	Engine      string        `env:"ENGINE" envDefault:"wazero"`
	EntryPoint  string        `env:"ENTRY_POINT" envDefault:"add"`
	WASI        bool          `env:"WASI" envDefault:"true"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	// ModuleToken is sent as a bearer token when the module is fetched over HTTP.
	ModuleToken string `env:"MODULE_TOKEN"`
	// ModuleUser and ModulePassword enable basic auth for HTTP modules.
	// They cannot be combined with ModuleToken.
	ModuleUser     string `env:"MODULE_USER"`
	ModulePassword string `env:"MODULE_PASSWORD"`
	// ModuleHeaders are extra request headers for HTTP modules, written as
	// "Name:value,Other:value".
	ModuleHeaders map[string]string `env:"MODULE_HEADERS" envKeyValSeparator:":"`
	// ModuleMaxBytes caps the size of a module fetched over HTTP. Zero uses
	// the loader default of 64 MiB.
	ModuleMaxBytes int64 `env:"MODULE_MAX_BYTES"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: addr is empty", ErrInvalid))
	}
	switch c.Engine {
	case EngineWazero, EngineExtism:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown engine %q", ErrInvalid, c.Engine))
	}
	if c.EntryPoint == "" {
		errs = append(errs, fmt.Errorf("%w: entry point is empty", ErrInvalid))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: http timeout must be positive", ErrInvalid))
	}
	if c.ModuleMaxBytes < 0 {
		errs = append(errs, fmt.Errorf("%w: module max bytes is negative", ErrInvalid))
	}
	if c.ModuleToken != "" && c.ModuleUser != "" {
		errs = append(errs, fmt.Errorf("%w: module token and module user are mutually exclusive", ErrInvalid))
	}
	if c.ModulePassword != "" && c.ModuleUser == "" {
		errs = append(errs, fmt.Errorf("%w: module password set without module user", ErrInvalid))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.LogFormat))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}
	return level, nil
}

// NewLogHandler builds the slog handler described by the config.
func (c Config) NewLogHandler(w io.Writer) (slog.Handler, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == FormatJSON {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}
