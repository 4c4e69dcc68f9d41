package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/oszuidwest/zwfm-camwatch/internal/ffmpeg"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// StatusInputOverflow is reported when samples were dropped before a chunk was read.
const StatusInputOverflow = "input overflow"

// inputStream is the part of *portaudio.Stream the reader uses.
type inputStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

// PortAudioSource reads the default input device with a blocking PortAudio stream.
// portaudio.Initialize must have been called before Open.
type PortAudioSource struct {
	frames int

	open          func(buf []float32) (inputStream, error)
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	mu     sync.Mutex
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPortAudioSource creates a source delivering chunks of frames samples.
func NewPortAudioSource(frames int) *PortAudioSource {
	if frames <= 0 {
		frames = DefaultChunkFrames
	}
	return &PortAudioSource{
		frames:        frames,
		open:          openDefaultInput,
		retryDelay:    ffmpeg.InitialRetryDelay,
		maxRetryDelay: ffmpeg.MaxRetryDelay,
	}
}

// openDefaultInput opens a mono input stream on the default device.
func openDefaultInput(buf []float32) (inputStream, error) {
	return portaudio.OpenDefaultStream(Channels, 0, SampleRate, len(buf), buf)
}

// Open opens and starts the default input stream. A read error after Open
// is logged and the stream is reopened with backoff until ctx is done.
func (s *PortAudioSource) Open(ctx context.Context) (<-chan Chunk, error) {
	buf := make([]float32, s.frames)
	stream, err := s.openStream(buf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Chunk)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, stream, buf, out, done)
	return out, nil
}

// openStream opens and starts a blocking input stream reading into buf.
func (s *PortAudioSource) openStream(buf []float32) (inputStream, error) {
	stream, err := s.open(buf)
	if err != nil {
		return nil, util.WrapError("open input stream", err)
	}
	if err := stream.Start(); err != nil {
		if closeErr := stream.Close(); closeErr != nil {
			slog.Warn("failed to close input stream", "error", closeErr)
		}
		return nil, util.WrapError("start input stream", err)
	}
	return stream, nil
}

// run owns the stream; it is the only goroutine that touches it.
func (s *PortAudioSource) run(ctx context.Context, stream inputStream, buf []float32, out chan<- Chunk, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	backoff := util.NewBackoff(s.retryDelay, s.maxRetryDelay)
	for {
		started := time.Now()
		err := s.read(ctx, stream, buf, out)
		releaseStream(stream)
		if ctx.Err() != nil {
			return
		}

		s.setErr(err)
		if time.Since(started) >= ffmpeg.StableThreshold {
			backoff.Reset()
		}
		slog.Warn("audio input failed, reopening", "error", err, "retry_in", backoff.Current())

		if stream = s.reopen(ctx, buf, backoff); stream == nil {
			return
		}
		s.setErr(nil)
		slog.Info("audio input reopened")
	}
}

// reopen retries openStream with backoff. It returns nil once ctx is done.
func (s *PortAudioSource) reopen(ctx context.Context, buf []float32, backoff *util.Backoff) inputStream {
	for backoff.Wait(ctx) {
		stream, err := s.openStream(buf)
		if err == nil {
			return stream
		}
		slog.Warn("failed to reopen audio input", "error", err, "retry_in", backoff.Current())
	}
	return nil
}

// read delivers chunks until the stream fails or ctx is done.
func (s *PortAudioSource) read(ctx context.Context, stream inputStream, buf []float32, out chan<- Chunk) error {
	for ctx.Err() == nil {
		var status string
		if err := stream.Read(); err != nil {
			if !errors.Is(err, portaudio.InputOverflowed) {
				return util.WrapError("read input stream", err)
			}
			status = StatusInputOverflow
		}

		chunk := Chunk{
			Samples: make([]float32, len(buf)),
			Status:  status,
			Time:    time.Now(),
		}
		copy(chunk.Samples, buf)

		select {
		case out <- chunk:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func releaseStream(stream inputStream) {
	if err := stream.Stop(); err != nil {
		slog.Warn("failed to stop input stream", "error", err)
	}
	if err := stream.Close(); err != nil {
		slog.Warn("failed to close input stream", "error", err)
	}
}

func (s *PortAudioSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err returns the most recent read error, or nil once the stream has been reopened.
func (s *PortAudioSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the reader and waits for the stream to be released.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// portAudioDevices lists PortAudio devices that can record.
func portAudioDevices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, util.WrapError("list portaudio devices", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var devices []Device
	for _, info := range infos {
		if info.MaxInputChannels < Channels {
			continue
		}
		id := info.Name
		if info.HostApi != nil {
			id = info.HostApi.Name + ":" + info.Name
		}
		devices = append(devices, Device{
			ID:      id,
			Name:    info.Name,
			Default: info.Name == defaultName,
		})
	}
	return devices, nil
}
