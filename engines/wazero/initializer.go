// Package wazero initializes plain WebAssembly modules, such as the output
// of wasm-bindgen or TinyGo, with the wazero runtime and calls a numeric
// export directly through the WebAssembly calling convention.
package wazero

import (
	"context"
	"fmt"
	"log/slog"

	wazeroSDK "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/robbyt/go-counterview/internal/helpers"
	"github.com/robbyt/go-counterview/loader"
	"github.com/robbyt/go-counterview/module"
)

// Initializer turns the bytes of a loader into a running module.
type Initializer struct {
	loader        loader.Loader
	entryPoint    string
	enableWASI    bool
	runtimeConfig wazeroSDK.RuntimeConfig
	logHandler    slog.Handler
	logger        *slog.Logger
}

var _ module.Initializer = (*Initializer)(nil)

// New creates an Initializer reading the module from ldr. Nothing is loaded
// until Initialize is called.
func New(ldr loader.Loader, opts ...FunctionalOption) (*Initializer, error) {
	if ldr == nil {
		return nil, ErrLoaderNil
	}

	i := &Initializer{
		loader:        ldr,
		entryPoint:    defaultEntryPoint,
		enableWASI:    true,
		runtimeConfig: wazeroSDK.NewRuntimeConfig().WithCloseOnContextDone(true),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("error applying wazero option: %w", err)
		}
	}
	i.logHandler, i.logger = helpers.SetupLogger(i.logHandler, "wazero", "Initializer")
	return i, nil
}

func (i *Initializer) String() string {
	return "wazero.Initializer"
}

// Initialize loads, compiles and instantiates the module, then resolves the
// entry point. On any failure the runtime is closed and the error wraps
// module.ErrModuleInit.
func (i *Initializer) Initialize(ctx context.Context) (module.Instance, error) {
	logger := i.logger.With("source", i.loader.GetSourceURL().String())

	wasmBytes, err := loader.ReadAll(ctx, i.loader)
	if err != nil {
		return nil, module.InitError(err)
	}
	logger.DebugContext(ctx, "module loaded", "size", len(wasmBytes))

	r := wazeroSDK.NewRuntimeWithConfig(ctx, i.runtimeConfig)
	inst, err := i.instantiate(ctx, r, wasmBytes)
	if err != nil {
		if closeErr := r.Close(ctx); closeErr != nil {
			logger.WarnContext(ctx, "failed to close runtime", "error", closeErr)
		}
		return nil, module.InitError(err)
	}

	logger.DebugContext(ctx, "module ready",
		"entryPoint", i.entryPoint,
		"params", inst.signature.paramNames(),
	)
	return inst, nil
}

func (i *Initializer) instantiate(ctx context.Context, r wazeroSDK.Runtime, wasmBytes []byte) (*Instance, error) {
	if i.enableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			return nil, fmt.Errorf("%w: wasi: %w", ErrInstantiate, err)
		}
	}

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	// Reactor modules export _initialize rather than _start.
	cfg := wazeroSDK.NewModuleConfig().WithStartFunctions("_initialize")
	mod, err := r.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
	}

	fn := mod.ExportedFunction(i.entryPoint)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", module.ErrNotExported, i.entryPoint)
	}

	sig, err := newSignature(fn.Definition())
	if err != nil {
		return nil, err
	}

	return &Instance{
		runtime:    r,
		fn:         fn,
		entryPoint: i.entryPoint,
		signature:  sig,
		logger:     slog.New(i.logHandler.WithGroup("Instance")),
	}, nil
}

// signature is the validated shape of a binary numeric export.
type signature struct {
	params [2]api.ValueType
	result api.ValueType
}

func newSignature(def api.FunctionDefinition) (signature, error) {
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 2 || len(results) != 1 {
		return signature{}, fmt.Errorf(
			"%w: %s takes %d params and returns %d results, want 2 and 1",
			module.ErrSignature, def.Name(), len(params), len(results),
		)
	}
	for _, t := range []api.ValueType{params[0], params[1], results[0]} {
		if !isNumeric(t) {
			return signature{}, fmt.Errorf(
				"%w: %s uses non-numeric type %s",
				module.ErrSignature, def.Name(), api.ValueTypeName(t),
			)
		}
	}
	return signature{params: [2]api.ValueType{params[0], params[1]}, result: results[0]}, nil
}

func (s signature) paramNames() []string {
	return []string{api.ValueTypeName(s.params[0]), api.ValueTypeName(s.params[1])}
}
