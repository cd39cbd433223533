package extism

import (
	"fmt"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

const defaultEntryPoint = "add"

// FunctionalOption configures an Initializer.
type FunctionalOption func(*Initializer) error

// WithEntryPoint sets the plugin function Compute calls.
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

// WithWASIEnabled enables or disables WASI for the plugin.
func WithWASIEnabled(enabled bool) FunctionalOption {
	return func(i *Initializer) error {
		i.settings.EnableWASI = enabled
		return nil
	}
}

// WithRuntimeConfig replaces the wazero runtime configuration used by Extism.
func WithRuntimeConfig(config wazero.RuntimeConfig) FunctionalOption {
	return func(i *Initializer) error {
		if config == nil {
			return fmt.Errorf("runtime config cannot be nil")
		}
		i.settings.RuntimeConfig = config
		return nil
	}
}

// WithHostFunctions registers host functions the plugin may import.
func WithHostFunctions(funcs ...extismSDK.HostFunction) FunctionalOption {
	return func(i *Initializer) error {
		i.settings.HostFunctions = append(i.settings.HostFunctions, funcs...)
		return nil
	}
}
