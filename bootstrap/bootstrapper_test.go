package bootstrap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-counterview/engines/mocks"
	"github.com/robbyt/go-counterview/module"
)

// logSink collects JSON log records written by a Bootstrapper.
type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) handler() slog.Handler {
	return slog.NewJSONHandler(s, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func (s *logSink) records(t *testing.T, level slog.Level) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		if rec["level"] == level.String() {
			out = append(out, rec)
		}
	}
	return out
}

func newReadyInstance(result float64, computeErr error) *mocks.Instance {
	inst := new(mocks.Instance)
	inst.On("Compute", mock.Anything, 10.0, 5.0).Return(result, computeErr)
	inst.On("EntryPoint").Return("add")
	inst.On("Close", mock.Anything).Return(nil)
	return inst
}

func waitDone(t *testing.T, bs *Bootstrapper) Outcome {
	t.Helper()
	select {
	case <-bs.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("bootstrap did not finish")
	}
	out, ok := bs.Outcome()
	require.True(t, ok)
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil initializer", func(t *testing.T) {
		_, err := New(nil, nil)
		require.ErrorIs(t, err, ErrInitializerNil)
	})

	t.Run("defaults", func(t *testing.T) {
		bs, err := New(new(mocks.Initializer), (&logSink{}).handler())
		require.NoError(t, err)
		assert.InDelta(t, 10.0, bs.a, 0)
		assert.InDelta(t, 5.0, bs.b, 0)
		assert.False(t, bs.Started())

		_, finished := bs.Outcome()
		assert.False(t, finished)
	})

	t.Run("custom args", func(t *testing.T) {
		bs, err := New(new(mocks.Initializer), (&logSink{}).handler(), WithArgs(2, 3))
		require.NoError(t, err)
		assert.InDelta(t, 2.0, bs.a, 0)
		assert.InDelta(t, 3.0, bs.b, 0)
	})
}

func TestStartSuccess(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	inst := newReadyInstance(15, nil)
	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(inst, nil).Once()

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	require.True(t, bs.Start(context.Background()))
	out := waitDone(t, bs)
	require.NoError(t, out.Err)
	assert.InDelta(t, 15.0, out.Result, 0)

	infos := sink.records(t, slog.LevelInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, "Result of add(10, 5):", infos[0]["msg"])
	assert.InDelta(t, 15.0, infos[0]["result"], 0)
	assert.Empty(t, sink.records(t, slog.LevelError))

	initializer.AssertExpectations(t)
	inst.AssertExpectations(t)
}

func TestStartInitializationFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "wrapped failure", err: module.InitError(errors.New("module unavailable"))},
		{name: "bare failure", err: errors.New("load error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &logSink{}
			initializer := new(mocks.Initializer)
			initializer.On("Initialize", mock.Anything).Return(nil, tt.err).Once()

			bs, err := New(initializer, sink.handler())
			require.NoError(t, err)

			require.True(t, bs.Start(context.Background()))
			out := waitDone(t, bs)
			require.ErrorIs(t, out.Err, module.ErrModuleInit)

			errs := sink.records(t, slog.LevelError)
			require.Len(t, errs, 1)
			assert.Equal(t, "Failed to initialize Wasm module", errs[0]["msg"])
			assert.Contains(t, errs[0]["error"], tt.err.Error())
			assert.Empty(t, sink.records(t, slog.LevelInfo))
			initializer.AssertExpectations(t)
		})
	}
}

func TestStartComputeFailure(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	inst := newReadyInstance(0, module.ErrCallFailed)
	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(inst, nil)

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	out := bs.Run(context.Background())
	require.ErrorIs(t, out.Err, module.ErrCallFailed)

	errs := sink.records(t, slog.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Failed to call Wasm function", errs[0]["msg"])
	assert.Equal(t, "add", errs[0]["function"])
	inst.AssertCalled(t, "Close", mock.Anything)
}

func TestCloseFailureIsOnlyAWarning(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	inst := new(mocks.Instance)
	inst.On("Compute", mock.Anything, 10.0, 5.0).Return(15.0, nil)
	inst.On("EntryPoint").Return("add")
	inst.On("Close", mock.Anything).Return(errors.New("already closed"))

	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(inst, nil)

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	out := bs.Run(context.Background())
	require.NoError(t, out.Err)
	assert.Len(t, sink.records(t, slog.LevelWarn), 1)
	assert.Empty(t, sink.records(t, slog.LevelError))
}

func TestRunsAtMostOnce(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	inst := newReadyInstance(15, nil)
	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Return(inst, nil).Once()

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		startsMu sync.Mutex
		starts   int
	)
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bs.Start(context.Background()) {
				startsMu.Lock()
				starts++
				startsMu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, starts)

	out := bs.Run(context.Background())
	require.NoError(t, out.Err)
	assert.InDelta(t, 15.0, out.Result, 0)
	assert.True(t, bs.Started())
	assert.False(t, bs.Start(context.Background()))

	initializer.AssertNumberOfCalls(t, "Initialize", 1)
	inst.AssertNumberOfCalls(t, "Compute", 1)
	assert.Len(t, sink.records(t, slog.LevelInfo), 1)
}

func TestPanicIsAbsorbed(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	})

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	require.NotPanics(t, func() { bs.Start(context.Background()) })
	out := waitDone(t, bs)
	require.ErrorIs(t, out.Err, ErrPanic)
	require.ErrorContains(t, out.Err, "boom")
	assert.Len(t, sink.records(t, slog.LevelError), 1)
}

func TestCancelledBeforeReady(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	ctx, cancel := context.WithCancel(context.Background())
	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Run(func(args mock.Arguments) {
		cancel()
	}).Return(nil, context.Canceled)

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)

	out := bs.Run(ctx)
	require.ErrorIs(t, out.Err, module.ErrModuleInit)
	require.ErrorIs(t, out.Err, context.Canceled)
	assert.Empty(t, sink.records(t, slog.LevelError))
	assert.Len(t, sink.records(t, slog.LevelDebug), 1)
}

func TestRunWaitsForStartedSequence(t *testing.T) {
	t.Parallel()
	sink := &logSink{}

	release := make(chan struct{})
	inst := newReadyInstance(15, nil)
	initializer := new(mocks.Initializer)
	initializer.On("Initialize", mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(inst, nil).Once()

	bs, err := New(initializer, sink.handler())
	require.NoError(t, err)
	require.True(t, bs.Start(context.Background()))

	t.Run("caller gives up", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := bs.Run(ctx)
		require.ErrorIs(t, out.Err, context.Canceled)
	})

	close(release)
	out := bs.Run(context.Background())
	require.NoError(t, out.Err)
	assert.InDelta(t, 15.0, out.Result, 0)
}
