package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/zwfm-camwatch/internal/alert"
	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/beep"
	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
	"github.com/oszuidwest/zwfm-camwatch/internal/config"
	"github.com/oszuidwest/zwfm-camwatch/internal/metrics"
	"github.com/oszuidwest/zwfm-camwatch/internal/types"
)

type fakeCamera struct {
	mu     sync.Mutex
	frame  *camera.Frame
	closed int
}

func (c *fakeCamera) ReadFrame(dst *camera.Frame) error {
	dst.CopyFrom(c.frame)
	return nil
}

func (c *fakeCamera) Size() (int, int) { return c.frame.Rect.Dx(), c.frame.Rect.Dy() }

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

type fakeSource struct {
	ch      chan audio.Chunk
	openErr error
	closed  int
}

func (s *fakeSource) Open(context.Context) (<-chan audio.Chunk, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.ch, nil
}

func (s *fakeSource) Err() error { return nil }

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

type fakeSink struct {
	mu    sync.Mutex
	plays int
	err   error
}

func (s *fakeSink) Play(context.Context, []float32, int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	return s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

func newTestDevices() (Devices, *fakeCamera, *fakeSource, *fakeSink) {
	cam := &fakeCamera{frame: camera.NewFrame(64, 48)}
	src := &fakeSource{ch: make(chan audio.Chunk)}
	sink := &fakeSink{}
	return Devices{Camera: cam, Audio: src, Sink: sink}, cam, src, sink
}

func loudChunk() audio.Chunk {
	samples := make([]float32, audio.DefaultChunkFrames)
	for i := range samples {
		samples[i] = 0.5
	}
	return audio.Chunk{Samples: samples}
}

func TestWatcherEndToEnd(t *testing.T) {
	devs, cam, src, sink := newTestDevices()
	released := 0
	devs.Release = func() error {
		released++
		return nil
	}

	w, err := New(devs, Options{
		RenderPeriod: time.Millisecond,
		AudioBackend: "portaudio",
		BeepSink:     "portaudio",
		Metrics:      metrics.New(),
		Version:      types.VersionInfo{Version: "v1.2.3"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.StateStarting, w.Status().State)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	src.ch <- loudChunk()
	require.Eventually(t, func() bool { return sink.count() == 1 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, alert.Loud, w.Alert().Get())

	src.ch <- audio.Chunk{Samples: make([]float32, audio.DefaultChunkFrames)}
	require.Eventually(t, func() bool { return w.Alert().Get() == alert.Quiet }, 5*time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return w.Viewer().Latest() != nil }, 5*time.Second, time.Millisecond)

	status := w.Status()
	assert.Equal(t, types.StateRunning, status.State)
	assert.Equal(t, "quiet", status.Alert.Level)
	assert.Equal(t, uint64(2), status.Alert.Changes)
	assert.Equal(t, uint64(1), status.Audio.Beeps)
	assert.Equal(t, 440, status.Audio.BeepFrequencyHz)
	assert.Equal(t, int64(200), status.Audio.BeepDurationMs)
	assert.Equal(t, audio.DefaultThreshold, status.Audio.Threshold)
	assert.Equal(t, 64, status.Camera.Width)
	assert.Equal(t, "v1.2.3", status.Version.Version)
	assert.Positive(t, status.Render.Rendered)
	assert.False(t, status.Started.IsZero())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, 1, cam.closed)
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, 1, released)
	assert.Equal(t, types.StateStopped, w.Status().State)
}

func TestWatcherBeepFailureKeepsRunning(t *testing.T) {
	devs, _, src, sink := newTestDevices()
	sink.err = errors.New("device busy")

	w, err := New(devs, Options{RenderPeriod: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	go func() { _ = w.Run(ctx) }()

	src.ch <- loudChunk()
	src.ch <- loudChunk()
	require.Eventually(t, func() bool { return w.Status().Audio.BeepErrors == 2 }, 5*time.Second, time.Millisecond)

	status := w.Status()
	assert.Equal(t, 2, sink.count())
	assert.Equal(t, uint64(0), status.Audio.Beeps)
	assert.Equal(t, uint64(2), status.Audio.BeepErrors)
	assert.Equal(t, "loud", status.Alert.Level)

	cancel()
	require.NoError(t, w.Close())
}

func TestWatcherWithoutSink(t *testing.T) {
	devs, _, _, _ := newTestDevices()
	devs.Sink = nil

	w, err := New(devs, Options{})
	require.NoError(t, err)
	assert.Zero(t, w.Status().Audio.Beeps)
	require.NoError(t, w.Close())
}

func TestWatcherStartFailsWhenAudioCannotOpen(t *testing.T) {
	devs, _, src, _ := newTestDevices()
	src.openErr = errors.New("no microphone")

	w, err := New(devs, Options{})
	require.NoError(t, err)

	err = w.Start(context.Background())
	assert.ErrorIs(t, err, src.openErr)
	require.NoError(t, w.Close())
}

func TestWatcherRejectsInvalidTone(t *testing.T) {
	devs, _, _, _ := newTestDevices()
	_, err := New(devs, Options{Tone: beep.Tone{FrequencyHz: 440}})
	assert.ErrorIs(t, err, beep.ErrInvalidTone)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.New("")
	require.NoError(t, cfg.Load())

	opts, err := OptionsFromConfig(cfg.Snapshot(), types.VersionInfo{Version: "dev"})
	require.NoError(t, err)

	assert.Equal(t, beep.DefaultTone(), opts.Tone)
	assert.Equal(t, 15*time.Millisecond, opts.RenderPeriod)
	assert.Equal(t, 10, opts.BorderWidth)
	assert.Equal(t, uint8(0xff), opts.BorderColor.R)
	assert.Zero(t, opts.BorderColor.G)
	assert.Equal(t, 0.01, opts.Threshold)
	assert.Equal(t, "dev", opts.Version.Version)
}

func TestDevicesCloseSkipsNilAndJoinsErrors(t *testing.T) {
	assert.NoError(t, Devices{}.Close())

	errTerminate := errors.New("terminate failed")
	devs, cam, src, _ := newTestDevices()
	devs.Release = func() error { return errTerminate }

	err := devs.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, errTerminate)
	assert.Contains(t, err.Error(), "failed to release audio")
	assert.Equal(t, 1, cam.closed)
	assert.Equal(t, 1, src.closed)
}

func TestWatcherKeepsRenderingAfterAudioEnds(t *testing.T) {
	devs, _, src, _ := newTestDevices()
	w, err := New(devs, Options{RenderPeriod: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	src.ch <- loudChunk()
	close(src.ch)
	require.Eventually(t, func() bool { return w.Alert().Get() == alert.Quiet }, 5*time.Second, time.Millisecond)

	rendered := w.Status().Render.Rendered
	require.Eventually(t, func() bool {
		return w.Status().Render.Rendered > rendered+5
	}, 5*time.Second, time.Millisecond)

	select {
	case err := <-errCh:
		t.Fatalf("Run returned before cancellation: %v", err)
	default:
	}
	assert.Equal(t, types.StateRunning, w.Status().State)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	require.NoError(t, w.Close())
}
