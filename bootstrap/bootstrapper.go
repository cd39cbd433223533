// Package bootstrap runs the one-shot module startup sequence: initialize
// the external module, call its numeric function with fixed arguments and
// report the result to the log. Failures never leave this package.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-counterview/internal/helpers"
	"github.com/robbyt/go-counterview/module"
)

const (
	DefaultA = 10
	DefaultB = 5
)

var (
	ErrInitializerNil = errors.New("initializer is nil")
	ErrPanic          = errors.New("bootstrap panicked")
)

// Outcome is the recorded result of a finished sequence. Err is set when
// initialization or the call failed; Result is only meaningful otherwise.
type Outcome struct {
	Result float64
	Err    error
}

// Bootstrapper runs its sequence at most once, no matter how many times
// Start or Run are called.
type Bootstrapper struct {
	initializer module.Initializer
	a, b        float64
	logger      *slog.Logger

	started atomic.Bool
	done    chan struct{}

	mu      sync.RWMutex
	outcome Outcome
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithArgs replaces the fixed call arguments.
func WithArgs(a, b float64) Option {
	return func(bs *Bootstrapper) {
		bs.a, bs.b = a, b
	}
}

// New creates a Bootstrapper that reports to handler.
func New(initializer module.Initializer, handler slog.Handler, opts ...Option) (*Bootstrapper, error) {
	if initializer == nil {
		return nil, ErrInitializerNil
	}

	_, logger := helpers.SetupLogger(handler, "bootstrap", "")
	bs := &Bootstrapper{
		initializer: initializer,
		a:           DefaultA,
		b:           DefaultB,
		logger:      logger,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(bs)
	}
	return bs, nil
}

// Start launches the sequence in a new goroutine and returns immediately.
// Only the first call starts anything; it reports whether it did.
func (bs *Bootstrapper) Start(ctx context.Context) bool {
	if !bs.started.CompareAndSwap(false, true) {
		return false
	}
	go bs.run(ctx)
	return true
}

// Run executes the sequence in the caller's goroutine and returns its
// outcome. If the sequence was already started, Run waits for it instead.
func (bs *Bootstrapper) Run(ctx context.Context) Outcome {
	if bs.started.CompareAndSwap(false, true) {
		bs.run(ctx)
	} else {
		select {
		case <-bs.done:
		case <-ctx.Done():
			return Outcome{Err: ctx.Err()}
		}
	}
	out, _ := bs.Outcome()
	return out
}

// Started reports whether the sequence has been started.
func (bs *Bootstrapper) Started() bool {
	return bs.started.Load()
}

// Done is closed once the sequence has finished.
func (bs *Bootstrapper) Done() <-chan struct{} {
	return bs.done
}

// Outcome returns the recorded outcome and whether the sequence finished.
func (bs *Bootstrapper) Outcome() (Outcome, bool) {
	select {
	case <-bs.done:
	default:
		return Outcome{}, false
	}
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.outcome, true
}

func (bs *Bootstrapper) run(ctx context.Context) {
	var out Outcome
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("%w: %v", ErrPanic, r)}
			bs.logger.ErrorContext(ctx, "Wasm bootstrap panicked", "error", out.Err)
		}
		bs.mu.Lock()
		bs.outcome = out
		bs.mu.Unlock()
		close(bs.done)
	}()

	out = bs.sequence(ctx)
}

func (bs *Bootstrapper) sequence(ctx context.Context) Outcome {
	inst, err := bs.initializer.Initialize(ctx)
	if err != nil {
		err = module.InitError(err)
		if ctx.Err() != nil {
			// Torn down before the module became ready.
			bs.logger.DebugContext(ctx, "Wasm module initialization abandoned", "error", err)
			return Outcome{Err: err}
		}
		bs.logger.ErrorContext(ctx, "Failed to initialize Wasm module", "error", err)
		return Outcome{Err: err}
	}
	defer func() {
		if err := inst.Close(context.WithoutCancel(ctx)); err != nil {
			bs.logger.WarnContext(ctx, "Failed to close Wasm module", "error", err)
		}
	}()

	result, err := inst.Compute(ctx, bs.a, bs.b)
	if err != nil {
		bs.logger.ErrorContext(ctx, "Failed to call Wasm function",
			"function", inst.EntryPoint(),
			"error", err,
		)
		return Outcome{Err: err}
	}

	bs.logger.InfoContext(ctx,
		fmt.Sprintf("Result of %s(%v, %v):", inst.EntryPoint(), bs.a, bs.b),
		"result", result,
	)
	return Outcome{Result: result}
}
