package module

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleInit is wrapped by every failure to initialize a module.
	ErrModuleInit = errors.New("module initialization failed")

	ErrNotExported = errors.New("function not exported")
	ErrSignature   = errors.New("unsupported function signature")
	ErrCallFailed  = errors.New("function call failed")
	ErrClosed      = errors.New("instance is closed")
)

// InitError wraps cause as an initialization failure.
func InitError(cause error) error {
	if cause == nil || errors.Is(cause, ErrModuleInit) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrModuleInit, cause)
}
