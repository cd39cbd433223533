package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/robbyt/go-counterview/internal/helpers"
)

// wasmMagic is the preamble every WebAssembly binary starts with.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// FromBytes serves a module that is already held in memory, such as one
// embedded into the binary.
type FromBytes struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromBytes creates a Loader from a WebAssembly binary.
func NewFromBytes(content []byte) (*FromBytes, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrModuleNotAvailable)
	}
	if !IsWasm(content) {
		return nil, ErrNotWasm
	}

	u, err := url.Parse("bytes://inline/" + helpers.ShortHash(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromBytes{
		content:   content,
		sourceURL: u,
	}, nil
}

// IsWasm reports whether content starts with the WebAssembly magic number.
func IsWasm(content []byte) bool {
	return bytes.HasPrefix(content, wasmMagic)
}

func (l *FromBytes) String() string {
	return fmt.Sprintf("loader.FromBytes{Bytes: %d}", len(l.content))
}

// GetReader returns a new reader for the stored content.
func (l *FromBytes) GetReader(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

// GetSourceURL returns the synthetic bytes:// URL derived from the content hash.
func (l *FromBytes) GetSourceURL() *url.URL {
	return l.sourceURL
}
