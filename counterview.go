// Package counterview wires a counter view to an external WebAssembly module.
// The helpers here build a module.Initializer from a file, bytes, URL or
// configuration, using either the wazero or the Extism engine.
package counterview

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robbyt/go-counterview/config"
	"github.com/robbyt/go-counterview/engines/extism"
	"github.com/robbyt/go-counterview/engines/wazero"
	"github.com/robbyt/go-counterview/loader"
	"github.com/robbyt/go-counterview/loader/httpauth"
	"github.com/robbyt/go-counterview/module"
	"github.com/robbyt/go-counterview/wasmdata"
)

// NewLoader picks a loader for cfg.Module: the embedded sample for the
// configured engine when empty, an HTTP loader for http(s) URLs, and a disk
// loader otherwise.
func NewLoader(cfg config.Config) (loader.Loader, error) {
	source := strings.TrimSpace(cfg.Module)
	switch {
	case source == "":
		l, err := loader.NewFromBytes(defaultModule(cfg.Engine))
		if err != nil {
			return nil, err
		}
		return l, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		opts := loader.DefaultHTTPOptions()
		if cfg.HTTPTimeout > 0 {
			opts.Timeout = cfg.HTTPTimeout
		}
		if cfg.ModuleMaxBytes > 0 {
			opts.MaxBytes = cfg.ModuleMaxBytes
		}
		for key, value := range cfg.ModuleHeaders {
			opts.Headers[key] = value
		}
		switch {
		case cfg.ModuleToken != "":
			opts.Authenticator = httpauth.NewBearerAuth(cfg.ModuleToken)
		case cfg.ModuleUser != "":
			opts.Authenticator = httpauth.NewBasicAuth(cfg.ModuleUser, cfg.ModulePassword)
		}
		l, err := loader.NewFromHTTPWithOptions(source, opts)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		l, err := loader.NewFromDisk(source)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// defaultModule is the embedded module served when none is configured.
func defaultModule(engine string) []byte {
	if engine == config.EngineExtism {
		return wasmdata.ExtismAdd
	}
	return wasmdata.SampleLib
}

// NewInitializer builds the initializer described by cfg.
func NewInitializer(cfg config.Config, handler slog.Handler) (module.Initializer, error) {
	ldr, err := NewLoader(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	switch cfg.Engine {
	case config.EngineWazero, "":
		opts := []wazero.FunctionalOption{
			wazero.WithEntryPoint(cfg.EntryPoint),
			wazero.WithWASIEnabled(cfg.WASI),
		}
		if handler != nil {
			opts = append(opts, wazero.WithLogHandler(handler))
		}
		initializer, err := wazero.New(ldr, opts...)
		if err != nil {
			return nil, err
		}
		return initializer, nil
	case config.EngineExtism:
		opts := []extism.FunctionalOption{
			extism.WithEntryPoint(cfg.EntryPoint),
			extism.WithWASIEnabled(cfg.WASI),
		}
		if handler != nil {
			opts = append(opts, extism.WithLogHandler(handler))
		}
		initializer, err := extism.New(ldr, opts...)
		if err != nil {
			return nil, err
		}
		return initializer, nil
	}
	return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalid, cfg.Engine)
}

// FromWasmFile creates a wazero initializer for a module on disk.
func FromWasmFile(path string, opts ...wazero.FunctionalOption) (*wazero.Initializer, error) {
	l, err := loader.NewFromDisk(path)
	if err != nil {
		return nil, err
	}
	return wazero.New(l, opts...)
}

// FromWasmBytes creates a wazero initializer for a module held in memory.
func FromWasmBytes(content []byte, opts ...wazero.FunctionalOption) (*wazero.Initializer, error) {
	l, err := loader.NewFromBytes(content)
	if err != nil {
		return nil, err
	}
	return wazero.New(l, opts...)
}

// FromExtismFile creates an Extism initializer for a plugin on disk.
func FromExtismFile(path string, opts ...extism.FunctionalOption) (*extism.Initializer, error) {
	l, err := loader.NewFromDisk(path)
	if err != nil {
		return nil, err
	}
	return extism.New(l, opts...)
}

// FromExtismBytes creates an Extism initializer for a plugin held in memory.
func FromExtismBytes(content []byte, opts ...extism.FunctionalOption) (*extism.Initializer, error) {
	l, err := loader.NewFromBytes(content)
	if err != nil {
		return nil, err
	}
	return extism.New(l, opts...)
}
