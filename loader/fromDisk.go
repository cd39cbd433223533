package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/robbyt/go-counterview/internal/helpers"
)

// FromDisk reads a module from an absolute path on the local filesystem.
type FromDisk struct {
	path      string
	sourceURL *url.URL
}

// NewFromDisk creates a Loader for an absolute path or file:// URL.
// Relative paths and http(s) URLs are rejected.
func NewFromDisk(path string) (*FromDisk, error) {
	path = strings.TrimPrefix(path, "file://")

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, path)
	}

	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: relative paths are not supported", ErrModuleNotAvailable)
	}

	path = filepath.Clean(path)
	if path == "/" || path == "\\" {
		return nil, fmt.Errorf("%w: path is empty or invalid", ErrModuleNotAvailable)
	}

	u := &url.URL{Scheme: "file", Path: path}
	return &FromDisk{
		path:      path,
		sourceURL: u,
	}, nil
}

func (l *FromDisk) String() string {
	noChkSum := fmt.Sprintf("loader.FromDisk{Path: %s}", l.path)

	reader, err := os.Open(l.path)
	if err != nil {
		return noChkSum
	}
	defer reader.Close()

	chksum, err := helpers.SHA256Reader(reader)
	if err != nil {
		return noChkSum
	}
	return fmt.Sprintf("loader.FromDisk{Path: %s, SHA256: %s}", l.path, chksum[:8])
}

// GetReader opens the file. A missing file is reported as ErrModuleNotAvailable.
func (l *FromDisk) GetReader(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModuleNotAvailable, err)
	}
	return f, nil
}

// GetSourceURL returns the file:// URL of the module.
func (l *FromDisk) GetSourceURL() *url.URL {
	return l.sourceURL
}
