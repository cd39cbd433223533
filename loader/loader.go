// Package loader provides the byte sources a WebAssembly module can be read from.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Loader yields the raw bytes of a module and identifies where they came from.
type Loader interface {
	// GetReader opens the module content. The caller must close the reader.
	GetReader(ctx context.Context) (io.ReadCloser, error)
	// GetSourceURL returns the location the module is read from.
	GetSourceURL() *url.URL
}

// ReadAll drains a loader into memory. Empty content is an error.
func ReadAll(ctx context.Context, l Loader) ([]byte, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: loader is nil", ErrModuleNotAvailable)
	}

	reader, err := l.GetReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read module content: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInputEmpty, l.GetSourceURL())
	}
	return content, nil
}
