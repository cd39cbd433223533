// Package module defines the capability an external WebAssembly module
// offers to the application: an asynchronous initialization step that
// yields an Instance, and a synchronous two-argument numeric function
// that may only be called on that Instance.
package module

import "context"

// Initializer prepares an external module for use.
//
// Initialize blocks until the module is ready or has failed. Every failure
// wraps ErrModuleInit. Initialize is not retried by its callers.
type Initializer interface {
	Initialize(ctx context.Context) (Instance, error)
}

// Instance is an initialized module.
type Instance interface {
	// Compute calls the module's numeric function with a and b.
	Compute(ctx context.Context, a, b float64) (float64, error)
	// EntryPoint names the exported function Compute calls.
	EntryPoint() string
	// Close releases the runtime resources held by the instance.
	Close(ctx context.Context) error
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc func(ctx context.Context) (Instance, error)

// Initialize calls f(ctx).
func (f InitializerFunc) Initialize(ctx context.Context) (Instance, error) {
	return f(ctx)
}
