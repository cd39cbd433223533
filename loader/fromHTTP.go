package loader

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/robbyt/go-counterview/loader/httpauth"
)

const userAgent = "go-counterview/http-loader"

// DefaultMaxModuleSize caps a fetched module at 64 MiB.
const DefaultMaxModuleSize int64 = 64 << 20

// httpRequester is the subset of *http.Client used by FromHTTP.
type httpRequester interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPOptions configures the HTTP loader.
type HTTPOptions struct {
	// Timeout bounds a single fetch. Default is 30 seconds.
	Timeout time.Duration

	// TLSConfig is optional advanced TLS configuration.
	TLSConfig *tls.Config

	// InsecureSkipVerify disables certificate verification. Test environments only.
	InsecureSkipVerify bool

	// Authenticator applies credentials to each request. Default is httpauth.NoAuth.
	Authenticator httpauth.Authenticator

	// Headers are added to every request after authentication.
	Headers map[string]string

	// MaxBytes caps the response body. Zero or less means DefaultMaxModuleSize.
	MaxBytes int64
}

// DefaultHTTPOptions returns a 30 second timeout, verified TLS and no auth.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:       30 * time.Second,
		Authenticator: httpauth.NewNoAuth(),
		Headers:       make(map[string]string),
		MaxBytes:      DefaultMaxModuleSize,
	}
}

// FromHTTP fetches a module from an http or https URL, the way a browser
// fetches a compiled module next to the page that uses it.
type FromHTTP struct {
	url       string
	sourceURL *url.URL
	options   *HTTPOptions
	client    httpRequester
}

// NewFromHTTP creates an HTTP loader with DefaultHTTPOptions.
func NewFromHTTP(rawURL string) (*FromHTTP, error) {
	return NewFromHTTPWithOptions(rawURL, DefaultHTTPOptions())
}

// NewFromHTTPWithOptions creates an HTTP loader with custom options.
//
// Example with a bearer token:
//
//	options := loader.DefaultHTTPOptions()
//	options.Authenticator = httpauth.NewBearerAuth("token123")
//	l, err := loader.NewFromHTTPWithOptions("https://example.com/sample_lib_bg.wasm", options)
func NewFromHTTPWithOptions(rawURL string, options *HTTPOptions) (*FromHTTP, error) {
	sourceURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}

	if sourceURL.Scheme != "http" && sourceURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, rawURL)
	}

	if options == nil {
		options = DefaultHTTPOptions()
	}
	if options.Authenticator == nil {
		options.Authenticator = httpauth.NewNoAuth()
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = DefaultMaxModuleSize
	}

	client := &http.Client{
		Timeout: options.Timeout,
	}

	if options.InsecureSkipVerify || options.TLSConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if options.TLSConfig != nil {
			transport.TLSClientConfig = options.TLSConfig
		} else {
			transport.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // opt-in for test environments
			}
		}
		client.Transport = transport
	}

	return &FromHTTP{
		url:       rawURL,
		sourceURL: sourceURL,
		options:   options,
		client:    client,
	}, nil
}

// GetReader performs the GET request. Non-2xx responses are reported as
// ErrModuleNotAvailable. Reading more than options.MaxBytes from the body
// fails with ErrModuleTooLarge.
func (l *FromHTTP) GetReader(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if err := l.options.Authenticator.AuthenticateWithContext(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}

	for key, value := range l.options.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/wasm, application/octet-stream")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrModuleNotAvailable, resp.StatusCode, resp.Status)
	}

	limit := l.options.MaxBytes
	if resp.ContentLength > limit {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: Content-Length %d, limit is %d bytes", ErrModuleTooLarge, resp.ContentLength, limit)
	}

	return &cappedBody{ReadCloser: http.MaxBytesReader(nil, resp.Body, limit), limit: limit}, nil
}

// cappedBody reports an exceeded http.MaxBytesReader as ErrModuleTooLarge.
type cappedBody struct {
	io.ReadCloser
	limit int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return n, fmt.Errorf("%w: limit is %d bytes", ErrModuleTooLarge, b.limit)
	}
	return n, err
}

// GetSourceURL returns the source URL.
func (l *FromHTTP) GetSourceURL() *url.URL {
	return l.sourceURL
}

func (l *FromHTTP) String() string {
	return fmt.Sprintf("loader.FromHTTP{URL: %s, Auth: %s}", l.url, l.options.Authenticator.Name())
}
