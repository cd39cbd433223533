package wazero

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	wazeroSDK "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/robbyt/go-counterview/module"
)

// Instance is an instantiated module with a resolved entry point.
// api.Function is not safe for concurrent use, so calls are serialized.
type Instance struct {
	runtime    wazeroSDK.Runtime
	fn         api.Function
	entryPoint string
	signature  signature
	logger     *slog.Logger

	mu     sync.Mutex
	closed atomic.Bool
}

var _ module.Instance = (*Instance)(nil)

func (in *Instance) String() string {
	return "wazero.Instance{" + in.entryPoint + "}"
}

// EntryPoint returns the name of the called export.
func (in *Instance) EntryPoint() string {
	return in.entryPoint
}

// Compute calls the entry point with a and b converted to its parameter types.
func (in *Instance) Compute(ctx context.Context, a, b float64) (float64, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed.Load() {
		return 0, module.ErrClosed
	}

	params := make([]uint64, 2)
	for idx, v := range []float64{a, b} {
		raw, err := encode(in.signature.params[idx], v)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", module.ErrCallFailed, err)
		}
		params[idx] = raw
	}

	results, err := in.fn.Call(ctx, params...)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: execution cancelled: %w", module.ErrCallFailed, ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w", module.ErrCallFailed, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("%w: %w: %d", module.ErrCallFailed, ErrUnexpectedResult, len(results))
	}

	result := decode(in.signature.result, results[0])
	in.logger.DebugContext(ctx, "call complete", "entryPoint", in.entryPoint, "a", a, "b", b, "result", result)
	return result, nil
}

// Close releases the runtime. Subsequent calls are no-ops.
func (in *Instance) Close(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed.CompareAndSwap(false, true) {
		return in.runtime.Close(ctx)
	}
	return nil
}
