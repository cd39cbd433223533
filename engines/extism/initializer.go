// Package extism initializes modules built with an Extism PDK. The numeric
// function receives {"a": x, "b": y} as JSON input and writes its result as
// output, since Extism functions take no WebAssembly parameters.
package extism

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-counterview/engines/extism/adapters"
	"github.com/robbyt/go-counterview/internal/helpers"
	"github.com/robbyt/go-counterview/loader"
	"github.com/robbyt/go-counterview/module"
)

// Initializer compiles a plugin from a loader and creates one instance of it.
type Initializer struct {
	loader     loader.Loader
	entryPoint string
	settings   Settings
	compile    compileFunc
	logHandler slog.Handler
	logger     *slog.Logger
}

var _ module.Initializer = (*Initializer)(nil)

// New creates an Initializer reading the plugin from ldr.
func New(ldr loader.Loader, opts ...FunctionalOption) (*Initializer, error) {
	if ldr == nil {
		return nil, ErrLoaderNil
	}

	i := &Initializer{
		loader:     ldr,
		entryPoint: defaultEntryPoint,
		settings:   DefaultSettings(),
		compile:    compileBytes,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("error applying extism option: %w", err)
		}
	}
	i.logHandler, i.logger = helpers.SetupLogger(i.logHandler, "extism", "Initializer")
	return i, nil
}

func (i *Initializer) String() string {
	return "extism.Initializer"
}

// Initialize compiles the plugin, creates an instance and checks that the
// entry point exists. Every error wraps module.ErrModuleInit.
func (i *Initializer) Initialize(ctx context.Context) (module.Instance, error) {
	logger := i.logger.With("source", i.loader.GetSourceURL().String())

	wasmBytes, err := loader.ReadAll(ctx, i.loader)
	if err != nil {
		return nil, module.InitError(err)
	}

	plugin, err := i.compile(ctx, wasmBytes, i.settings)
	if err != nil {
		return nil, module.InitError(err)
	}
	if plugin == nil {
		return nil, module.InitError(ErrCompileFailed)
	}

	instance, err := plugin.Instance(ctx, adapters.NewPluginInstanceConfig())
	if err != nil {
		closePlugin(ctx, logger, plugin)
		return nil, module.InitError(fmt.Errorf("%w: %w", ErrInstanceFailed, err))
	}

	if !instance.FunctionExists(i.entryPoint) {
		if err := instance.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close plugin instance", "error", err)
		}
		closePlugin(ctx, logger, plugin)
		return nil, module.InitError(fmt.Errorf("%w: %s", module.ErrNotExported, i.entryPoint))
	}

	logger.DebugContext(ctx, "plugin ready", "entryPoint", i.entryPoint, "size", len(wasmBytes))
	return &Instance{
		plugin:     plugin,
		instance:   instance,
		entryPoint: i.entryPoint,
		logger:     slog.New(i.logHandler.WithGroup("Instance")),
	}, nil
}

func closePlugin(ctx context.Context, logger *slog.Logger, plugin adapters.CompiledPlugin) {
	if err := plugin.Close(ctx); err != nil {
		logger.WarnContext(ctx, "failed to close compiled plugin", "error", err)
	}
}
