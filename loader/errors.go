package loader

import "errors"

var (
	ErrSchemeUnsupported  = errors.New("unsupported scheme")
	ErrModuleNotAvailable = errors.New("module not available")
	ErrInputEmpty         = errors.New("input is empty")
	ErrNotWasm            = errors.New("content is not a WebAssembly binary")
	ErrModuleTooLarge     = errors.New("module exceeds size limit")
)
