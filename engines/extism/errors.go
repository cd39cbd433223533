package extism

import "errors"

var (
	ErrLoaderNil        = errors.New("loader is nil")
	ErrCompileFailed    = errors.New("failed to compile extism plugin")
	ErrInstanceFailed   = errors.New("failed to create plugin instance")
	ErrNonZeroExit      = errors.New("function returned non-zero exit code")
	ErrUnexpectedOutput = errors.New("unexpected function output")
)
