package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream fails every Read after the first failAfter reads. A negative
// failAfter never fails.
type fakeStream struct {
	failAfter int
	readErr   error
	startErr  error

	mu      sync.Mutex
	reads   int
	stopped int
	closed  int
}

func (f *fakeStream) Start() error { return f.startErr }

func (f *fakeStream) Read() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failAfter >= 0 && f.reads > f.failAfter {
		return f.readErr
	}
	return nil
}

func (f *fakeStream) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeStream) counts() (stopped, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped, f.closed
}

func newTestPortAudioSource(open func(buf []float32) (inputStream, error)) *PortAudioSource {
	src := NewPortAudioSource(64)
	src.open = open
	src.retryDelay = time.Millisecond
	src.maxRetryDelay = 2 * time.Millisecond
	return src
}

func receive(t *testing.T, ch <-chan Chunk) Chunk {
	t.Helper()
	select {
	case chunk, ok := <-ch:
		require.True(t, ok, "chunk channel closed")
		return chunk
	case <-time.After(5 * time.Second):
		t.Fatal("no chunk received")
		return Chunk{}
	}
}

func TestPortAudioSourceReopensAfterReadError(t *testing.T) {
	failing := &fakeStream{failAfter: 2, readErr: errors.New("device unplugged")}
	healthy := &fakeStream{failAfter: -1}

	var mu sync.Mutex
	opens := 0
	src := newTestPortAudioSource(func([]float32) (inputStream, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		switch opens {
		case 1:
			return failing, nil
		case 2:
			return nil, errors.New("device busy")
		default:
			return healthy, nil
		}
	})

	chunks, err := src.Open(context.Background())
	require.NoError(t, err)

	for range 5 {
		chunk := receive(t, chunks)
		assert.Len(t, chunk.Samples, 64)
	}

	mu.Lock()
	assert.Equal(t, 3, opens)
	mu.Unlock()
	stopped, closed := failing.counts()
	assert.Equal(t, 1, stopped)
	assert.Equal(t, 1, closed)
	assert.NoError(t, src.Err())

	require.NoError(t, src.Close())
	_, closed = healthy.counts()
	assert.Equal(t, 1, closed)

	for range chunks {
	}
}

func TestPortAudioSourceReportsOverflow(t *testing.T) {
	stream := &fakeStream{failAfter: 0, readErr: portaudio.InputOverflowed}
	src := newTestPortAudioSource(func([]float32) (inputStream, error) { return stream, nil })

	chunks, err := src.Open(context.Background())
	require.NoError(t, err)
	defer src.Close()

	chunk := receive(t, chunks)
	assert.Equal(t, StatusInputOverflow, chunk.Status)
	assert.NoError(t, src.Err())
}

func TestPortAudioSourceOpenErrors(t *testing.T) {
	src := newTestPortAudioSource(func([]float32) (inputStream, error) {
		return nil, errors.New("no default device")
	})
	_, err := src.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input stream")

	stream := &fakeStream{startErr: errors.New("start failed")}
	src = newTestPortAudioSource(func([]float32) (inputStream, error) { return stream, nil })
	_, err = src.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start input stream")
	_, closed := stream.counts()
	assert.Equal(t, 1, closed)

	assert.NoError(t, src.Close())
}

func TestPortAudioSourceStopsOnCancel(t *testing.T) {
	stream := &fakeStream{failAfter: -1}
	src := newTestPortAudioSource(func([]float32) (inputStream, error) { return stream, nil })

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := src.Open(ctx)
	require.NoError(t, err)
	receive(t, chunks)

	cancel()
	for range chunks {
	}
	stopped, closed := stream.counts()
	assert.Equal(t, 1, stopped)
	assert.Equal(t, 1, closed)
	require.NoError(t, src.Close())
}
