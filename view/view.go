// Package view serves the counter page. Mounting the view starts the module
// bootstrap once; nothing the view renders depends on its outcome.
package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/robbyt/go-counterview/bmp"
	"github.com/robbyt/go-counterview/bootstrap"
	"github.com/robbyt/go-counterview/counter"
	"github.com/robbyt/go-counterview/internal/helpers"
)

const (
	hxRequestHeader = "HX-Request"
	shutdownTimeout = 5 * time.Second

	// maxUploadBytes bounds a bitmap upload, form overhead included.
	maxUploadBytes = 32 << 20
	bmpFormField   = "file"
)

// ErrCounterNil is returned by New when no counter is given.
var ErrCounterNil = errors.New("counter is nil")

// View is the counter page and its HTTP surface.
type View struct {
	counter      *counter.Counter
	bootstrapper *bootstrap.Bootstrapper
	logger       *slog.Logger
	mux          *http.ServeMux
}

// New creates a view over c. bs may be nil, in which case no module is
// bootstrapped on mount.
func New(c *counter.Counter, bs *bootstrap.Bootstrapper, handler slog.Handler) (*View, error) {
	if c == nil {
		return nil, ErrCounterNil
	}
	_, logger := helpers.SetupLogger(handler, "view", "View")

	v := &View{
		counter:      c,
		bootstrapper: bs,
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	v.routes()
	return v, nil
}

func (v *View) routes() {
	v.mux.HandleFunc("GET /{$}", v.handlePage)
	v.mux.HandleFunc("POST /increment", v.handleIncrement)
	v.mux.HandleFunc("GET /api/count", v.handleCount)
	v.mux.HandleFunc("POST /bmp", v.handleBMP)
	v.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	v.mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(Assets)))
}

// Handler returns the HTTP handler of the view.
func (v *View) Handler() http.Handler {
	return v.mux
}

// Mount activates the view: it starts the bootstrap sequence in the
// background. Only the first mount of a bootstrapper starts anything.
func (v *View) Mount(ctx context.Context) {
	if v.bootstrapper == nil {
		return
	}
	if v.bootstrapper.Start(ctx) {
		v.logger.DebugContext(ctx, "module bootstrap started")
	}
}

// Serve mounts the view and serves it on ln until ctx is cancelled.
func (v *View) Serve(ctx context.Context, ln net.Listener) error {
	v.Mount(ctx)

	srv := &http.Server{
		Handler:           v.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	v.logger.InfoContext(ctx, "serving counter view", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (v *View) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return v.Serve(ctx, ln)
}

func (v *View) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Page(v.counter.Value()).Render(r.Context(), w); err != nil {
		v.logger.ErrorContext(r.Context(), "failed to render page", "error", err)
	}
}

func (v *View) handleIncrement(w http.ResponseWriter, r *http.Request) {
	count := v.counter.Increment()

	if !isHTMXRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := CounterButton(count).Render(r.Context(), w); err != nil {
		v.logger.ErrorContext(r.Context(), "failed to render counter", "error", err)
	}
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (v *View) handleCount(w http.ResponseWriter, r *http.Request) {
	v.writeJSON(w, r, http.StatusOK, countResponse{Count: v.counter.Value()})
}

func isHTMXRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(hxRequestHeader), "true")
}

type bmpResponse struct {
	Name       string     `json:"name"`
	Header     bmp.Header `json:"header"`
	Width      int32      `json:"width"`
	Height     int32      `json:"height"`
	RowSize    int64      `json:"rowSize"`
	PixelBytes int        `json:"pixelBytes,omitempty"`
	PixelError string     `json:"pixelError,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleBMP reads the headers of an uploaded bitmap and checks that its pixel
// array can be read.
func (v *View) handleBMP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fh, err := r.FormFile(bmpFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			v.writeJSON(w, r, http.StatusRequestEntityTooLarge, errorResponse{Error: "upload too large"})
			return
		}
		v.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("missing %q upload", bmpFormField)})
		return
	}
	defer file.Close()

	f, err := bmp.Open(io.NewSectionReader(file, 0, fh.Size))
	if err != nil {
		v.logger.InfoContext(r.Context(), "rejected bitmap upload", "name", fh.Filename, "error", err)
		v.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	h, _ := f.Header()

	resp := bmpResponse{
		Name:    fh.Filename,
		Header:  h,
		Width:   h.Width,
		Height:  h.Height,
		RowSize: h.RowSize(),
	}
	if data, err := f.PixelData(); err != nil {
		resp.PixelError = err.Error()
	} else {
		resp.PixelBytes = len(data)
	}

	v.logger.InfoContext(r.Context(), "bitmap read",
		"name", fh.Filename,
		"width", h.Width,
		"height", h.Height,
		"bitCount", h.BitCount,
	)
	v.writeJSON(w, r, http.StatusOK, resp)
}

func (v *View) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		v.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
