package extism

import (
	"context"
	"fmt"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"

	"github.com/robbyt/go-counterview/engines/extism/adapters"
)

// Settings holds configuration for compiling a plugin.
type Settings struct {
	EnableWASI    bool
	RuntimeConfig wazero.RuntimeConfig
	HostFunctions []extismSDK.HostFunction
}

// DefaultSettings enables WASI with the default wazero runtime.
func DefaultSettings() Settings {
	return Settings{
		EnableWASI:    true,
		RuntimeConfig: wazero.NewRuntimeConfig(),
	}
}

type compileFunc func(ctx context.Context, wasmBytes []byte, settings Settings) (adapters.CompiledPlugin, error)

// compileBytes builds an Extism CompiledPlugin from raw module bytes.
func compileBytes(ctx context.Context, wasmBytes []byte, settings Settings) (adapters.CompiledPlugin, error) {
	manifest := extismSDK.Manifest{
		Wasm: []extismSDK.Wasm{
			extismSDK.WasmData{Data: wasmBytes},
		},
	}
	config := extismSDK.PluginConfig{
		EnableWasi:    settings.EnableWASI,
		RuntimeConfig: settings.RuntimeConfig,
	}

	plugin, err := extismSDK.NewCompiledPlugin(ctx, manifest, config, settings.HostFunctions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return adapters.NewCompiledPluginAdapter(plugin), nil
}
