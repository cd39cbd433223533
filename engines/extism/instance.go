package extism

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-counterview/engines/extism/adapters"
	"github.com/robbyt/go-counterview/module"
)

// Instance is a plugin instance with a verified entry point. Extism plugin
// instances are not safe for concurrent calls, so calls are serialized.
type Instance struct {
	plugin     adapters.CompiledPlugin
	instance   adapters.PluginInstance
	entryPoint string
	logger     *slog.Logger

	mu     sync.Mutex
	closed atomic.Bool
}

var _ module.Instance = (*Instance)(nil)

func (in *Instance) String() string {
	return "extism.Instance{" + in.entryPoint + "}"
}

// EntryPoint returns the name of the called plugin function.
func (in *Instance) EntryPoint() string {
	return in.entryPoint
}

// Compute calls the plugin function with {"a": a, "b": b}.
func (in *Instance) Compute(ctx context.Context, a, b float64) (float64, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed.Load() {
		return 0, module.ErrClosed
	}

	input, err := encodeInput(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", module.ErrCallFailed, err)
	}

	start := time.Now()
	exit, output, err := in.instance.CallWithContext(ctx, in.entryPoint, input)
	execTime := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: execution cancelled: %w", module.ErrCallFailed, ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w", module.ErrCallFailed, err)
	}
	if exit != 0 {
		return 0, fmt.Errorf("%w: %w: %d", module.ErrCallFailed, ErrNonZeroExit, exit)
	}

	result, err := decodeOutput(output)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", module.ErrCallFailed, err)
	}

	in.logger.DebugContext(ctx, "call complete",
		"entryPoint", in.entryPoint,
		"result", result,
		"execTime", execTime,
	)
	return result, nil
}

// Close releases the instance and the compiled plugin.
func (in *Instance) Close(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(in.instance.Close(ctx), in.plugin.Close(ctx))
}
