package wazero

import (
	"fmt"
	"log/slog"

	wazeroSDK "github.com/tetratelabs/wazero"
)

const defaultEntryPoint = "add"

// FunctionalOption configures an Initializer.
type FunctionalOption func(*Initializer) error

// WithEntryPoint sets the exported function Compute calls.
func WithEntryPoint(entryPoint string) FunctionalOption {
	return func(i *Initializer) error {
		if entryPoint == "" {
			return fmt.Errorf("entry point cannot be empty")
		}
		i.entryPoint = entryPoint
		return nil
	}
}

// WithLogHandler sets the handler used for the engine's own diagnostics.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(i *Initializer) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		i.logHandler = handler
		return nil
	}
}

// WithWASIEnabled makes wasi_snapshot_preview1 available to the module.
func WithWASIEnabled(enabled bool) FunctionalOption {
	return func(i *Initializer) error {
		i.enableWASI = enabled
		return nil
	}
}

// WithRuntimeConfig replaces the default wazero runtime configuration.
func WithRuntimeConfig(config wazeroSDK.RuntimeConfig) FunctionalOption {
	return func(i *Initializer) error {
		if config == nil {
			return fmt.Errorf("runtime config cannot be nil")
		}
		i.runtimeConfig = config
		return nil
	}
}
