package extism

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
	"github.com/stretchr/testify/mock"

	"github.com/robbyt/go-counterview/engines/extism/adapters"
)

type mockCompiledPlugin struct {
	mock.Mock
}

func (m *mockCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (adapters.PluginInstance, error) {
	args := m.Called(ctx, config)
	inst, _ := args.Get(0).(adapters.PluginInstance)
	return inst, args.Error(1)
}

func (m *mockCompiledPlugin) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPluginInstance struct {
	mock.Mock
}

func (m *mockPluginInstance) CallWithContext(
	ctx context.Context,
	name string,
	data []byte,
) (uint32, []byte, error) {
	args := m.Called(ctx, name, data)
	out, _ := args.Get(1).([]byte)
	return args.Get(0).(uint32), out, args.Error(2)
}

func (m *mockPluginInstance) FunctionExists(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *mockPluginInstance) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
