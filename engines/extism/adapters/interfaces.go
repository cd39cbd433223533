package adapters

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
)

// CompiledPlugin abstracts extismSDK.CompiledPlugin.
type CompiledPlugin interface {
	Instance(ctx context.Context, config extismSDK.PluginInstanceConfig) (PluginInstance, error)
	Close(ctx context.Context) error
}

// PluginInstance abstracts extismSDK.Plugin.
type PluginInstance interface {
	CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error)
	FunctionExists(name string) bool
	Close(ctx context.Context) error
}
