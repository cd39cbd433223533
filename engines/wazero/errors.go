package wazero

import "errors"

var (
	ErrLoaderNil        = errors.New("loader is nil")
	ErrCompileFailed    = errors.New("failed to compile wasm module")
	ErrInstantiate      = errors.New("failed to instantiate wasm module")
	ErrValueOutOfRange  = errors.New("value cannot be represented by parameter type")
	ErrUnexpectedResult = errors.New("unexpected number of results")
)
