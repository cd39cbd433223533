package view

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-counterview/bmp"
	"github.com/robbyt/go-counterview/bootstrap"
	"github.com/robbyt/go-counterview/counter"
	"github.com/robbyt/go-counterview/engines/mocks"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestView(t *testing.T, bs *bootstrap.Bootstrapper) (*View, *counter.Counter) {
	t.Helper()
	c := counter.New()
	v, err := New(c, bs, slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, err)
	return v, c
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func increment(t *testing.T, h http.Handler, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/increment", nil)
	if htmx {
		req.Header.Set(hxRequestHeader, "true")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.ErrorIs(t, err, ErrCounterNil)
}

func TestPage(t *testing.T) {
	t.Parallel()
	v, _ := newTestView(t, nil)

	rec := get(t, v.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "<img "))
	assert.Contains(t, body, "<h1>Go + Wasm</h1>")
	assert.Contains(t, body, "<button type=\"submit\">count is 0</button>")
	assert.Contains(t, body, "Click on the Go and WebAssembly logos to learn more")
}

func TestIncrement(t *testing.T) {
	t.Parallel()

	t.Run("three clicks", func(t *testing.T) {
		v, c := newTestView(t, nil)
		for range 3 {
			rec := increment(t, v.Handler(), false)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
		}

		assert.Equal(t, int64(3), c.Value())
		assert.Contains(t, get(t, v.Handler(), "/").Body.String(), "count is 3")
	})

	t.Run("htmx returns the button", func(t *testing.T) {
		v, _ := newTestView(t, nil)

		rec := increment(t, v.Handler(), true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), `<form id="counter"`))
		assert.Contains(t, rec.Body.String(), "count is 1")
		assert.NotContains(t, rec.Body.String(), "<html")
	})

	t.Run("get is not allowed", func(t *testing.T) {
		v, c := newTestView(t, nil)
		rec := get(t, v.Handler(), "/increment")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, int64(0), c.Value())
	})
}

func TestCountAPI(t *testing.T) {
	t.Parallel()
	v, c := newTestView(t, nil)
	c.Increment()
	c.Increment()

	rec := get(t, v.Handler(), "/api/count")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())
}

func TestStaticRoutes(t *testing.T) {
	t.Parallel()
	v, _ := newTestView(t, nil)

	assert.Equal(t, http.StatusOK, get(t, v.Handler(), "/healthz").Code)

	for _, path := range []string{"/assets/gopher.svg", "/assets/wasm.svg", "/assets/style.css"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, v.Handler(), path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, get(t, v.Handler(), "/missing").Code)
}

func TestMountBootstrapsOnce(t *testing.T) {
	t.Parallel()

	inst := new(mocks.Instance)
	inst.On("Compute", mock.Anything, 10.0, 5.0).Return(15.0, nil)
	inst.On("EntryPoint").Return("add")
	inst.On("Close", mock.Anything).Return(nil)

	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(inst, nil).Once()

	logs := &syncBuffer{}
	bs, err := bootstrap.New(initializer, slog.NewTextHandler(logs, nil))
	require.NoError(t, err)

	v, c := newTestView(t, bs)
	v.Mount(context.Background())
	for range 5 {
		increment(t, v.Handler(), false)
		v.Mount(context.Background())
	}

	select {
	case <-bs.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("bootstrap did not finish")
	}

	assert.Equal(t, int64(5), c.Value())
	initializer.AssertNumberOfCalls(t, "Initialize", 1)
	assert.Equal(t, 1, strings.Count(logs.String(), "Result of add(10, 5):"))
	assert.Contains(t, logs.String(), "result=15")
}

func TestFailedBootstrapDoesNotAffectView(t *testing.T) {
	t.Parallel()

	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(nil, errors.New("module unavailable"))

	logs := &syncBuffer{}
	bs, err := bootstrap.New(initializer, slog.NewTextHandler(logs, nil))
	require.NoError(t, err)

	v, c := newTestView(t, bs)
	v.Mount(context.Background())
	<-bs.Done()

	assert.Equal(t, int64(0), c.Value())
	assert.Equal(t, 1, strings.Count(logs.String(), "level=ERROR"))

	rec := get(t, v.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "count is 0")

	increment(t, v.Handler(), false)
	assert.Contains(t, get(t, v.Handler(), "/").Body.String(), "count is 1")
}

func TestServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	v, _ := newTestView(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- v.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Post(url+"/increment", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServeBadAddr(t *testing.T) {
	t.Parallel()
	v, _ := newTestView(t, nil)
	err := v.ListenAndServe(context.Background(), "256.0.0.1:http-nope")
	require.ErrorContains(t, err, "listen")
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "count is 0", CountLabel(0))
	assert.Equal(t, "count is 42", CountLabel(42))
}

func uploadBMP(t *testing.T, h http.Handler, field string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "sample-2.bmp")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bmp", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bitmap(t *testing.T, width, height int32, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, bmp.Header{
		Type:     bmp.Signature,
		Size:     uint32(bmp.HeaderSize + len(pixels)),
		OffBits:  bmp.HeaderSize,
		InfoSize: 40,
		Width:    width,
		Height:   height,
		Planes:   1,
		BitCount: 24,
	}))
	buf.Write(pixels)
	return buf.Bytes()
}

func TestBMPUpload(t *testing.T) {
	t.Parallel()
	v, c := newTestView(t, nil)

	t.Run("header as json", func(t *testing.T) {
		rec := uploadBMP(t, v.Handler(), "file", bitmap(t, 2, 2, make([]byte, 16)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got struct {
			Name   string         `json:"name"`
			Header map[string]any `json:"header"`
			Width  int32          `json:"width"`
			Height int32          `json:"height"`
			Row    int64          `json:"rowSize"`
			Pixels int            `json:"pixelBytes"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "sample-2.bmp", got.Name)
		assert.Equal(t, int32(2), got.Width)
		assert.Equal(t, int32(2), got.Height)
		assert.Equal(t, int64(8), got.Row)
		assert.Equal(t, 16, got.Pixels)
		assert.InDelta(t, float64(bmp.Signature), got.Header["bfType"], 0)
		assert.InDelta(t, 24.0, got.Header["biBitCount"], 0)
	})

	t.Run("pixel array missing", func(t *testing.T) {
		rec := uploadBMP(t, v.Handler(), "file", bitmap(t, 2, 2, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pixelError":"BMP data truncated`)
	})

	t.Run("not a bitmap", func(t *testing.T) {
		rec := uploadBMP(t, v.Handler(), "file", []byte("GIF89a and more"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error": "not a BMP file"}`, rec.Body.String())
	})

	t.Run("truncated header", func(t *testing.T) {
		rec := uploadBMP(t, v.Handler(), "file", bitmap(t, 2, 2, nil)[:20])
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "BMP data truncated")
	})

	t.Run("wrong field", func(t *testing.T) {
		rec := uploadBMP(t, v.Handler(), "image", bitmap(t, 2, 2, make([]byte, 16)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get not allowed", func(t *testing.T) {
		assert.Equal(t, http.StatusMethodNotAllowed, get(t, v.Handler(), "/bmp").Code)
	})

	assert.Equal(t, int64(0), c.Value())
}

func TestPageHasBMPForm(t *testing.T) {
	t.Parallel()
	v, _ := newTestView(t, nil)
	body := get(t, v.Handler(), "/").Body.String()
	assert.Contains(t, body, `action="/bmp"`)
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `name="file"`)
}
