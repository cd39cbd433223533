// Package adapters wraps the Extism SDK's concrete plugin types behind small
// interfaces so the engine can be tested with mocks.
package adapters

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

type sdkCompiledPlugin struct {
	plugin *extismSDK.CompiledPlugin
}

// NewCompiledPluginAdapter wraps plugin. A nil plugin yields a nil adapter.
func NewCompiledPluginAdapter(plugin *extismSDK.CompiledPlugin) CompiledPlugin {
	if plugin == nil {
		return nil
	}
	return &sdkCompiledPlugin{plugin: plugin}
}

func (a *sdkCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (PluginInstance, error) {
	instance, err := a.plugin.Instance(ctx, config)
	if err != nil {
		return nil, err
	}
	return &sdkPluginAdapter{instance: instance}, nil
}

func (a *sdkCompiledPlugin) Close(ctx context.Context) error {
	return a.plugin.Close(ctx)
}

type sdkPluginAdapter struct {
	instance *extismSDK.Plugin
}

func (a *sdkPluginAdapter) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	return a.instance.CallWithContext(ctx, name, data)
}

func (a *sdkPluginAdapter) FunctionExists(name string) bool {
	return a.instance.FunctionExists(name)
}

func (a *sdkPluginAdapter) Close(ctx context.Context) error {
	return a.instance.Close(ctx)
}

// NewPluginInstanceConfig returns the instance configuration used for every
// plugin: wall clock access and no start function beyond the module's own.
func NewPluginInstanceConfig() extismSDK.PluginInstanceConfig {
	return extismSDK.PluginInstanceConfig{
		ModuleConfig: wazero.NewModuleConfig().WithSysWalltime(),
	}
}
