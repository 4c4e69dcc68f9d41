package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/ffmpeg"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// bytesPerSample is the size of one float32 little-endian sample.
const bytesPerSample = 4

// CommandSource captures audio with the platform capture command
// (arecord on Linux, FFmpeg elsewhere) and restarts it with backoff when it exits.
type CommandSource struct {
	device     string
	ffmpegPath string
	frames     int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandSource creates a source for device. An empty device selects the platform default.
func NewCommandSource(device, ffmpegPath string, frames int) *CommandSource {
	if frames <= 0 {
		frames = DefaultChunkFrames
	}
	return &CommandSource{device: device, ffmpegPath: ffmpegPath, frames: frames}
}

// Open resolves and starts the capture command.
func (s *CommandSource) Open(ctx context.Context) (<-chan Chunk, error) {
	name, args, err := BuildCaptureCommand(s.device, s.ffmpegPath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	proc, err := ffmpeg.Start(ctx, name, args)
	if err != nil {
		cancel()
		return nil, err
	}
	slog.Info("starting audio capture", "command", name, "input", s.device)

	out := make(chan Chunk)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer close(out)

		first := proc
		ffmpeg.Supervise(ctx, name, util.NewBackoff(ffmpeg.InitialRetryDelay, ffmpeg.MaxRetryDelay), func(ctx context.Context) (string, error) {
			p := first
			first = nil
			if p == nil {
				var err error
				if p, err = ffmpeg.Start(ctx, name, args); err != nil {
					return "", err
				}
			}
			readChunks(ctx, p.Stdout, s.frames, p.TakeWarning, out)
			return p.Wait()
		})
	}()

	return out, nil
}

// readChunks decodes float32 samples from r into chunks until r ends or ctx is done.
func readChunks(ctx context.Context, r io.Reader, frames int, status func() string, out chan<- Chunk) {
	buf := make([]byte, frames*bytesPerSample)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && ctx.Err() == nil {
				slog.Warn("audio capture read failed", "error", err)
			}
			return
		}

		chunk := Chunk{
			Samples: decodeFloat32LE(buf),
			Status:  status(),
			Time:    time.Now(),
		}

		select {
		case out <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// decodeFloat32LE converts little-endian float32 PCM to samples.
func decodeFloat32LE(buf []byte) []float32 {
	samples := make([]float32, len(buf)/bytesPerSample)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*bytesPerSample:]))
	}
	return samples
}

// Err always returns nil; the capture command is restarted instead of ending the stream.
func (s *CommandSource) Err() error {
	return nil
}

// Close stops the capture command and waits for it to exit.
func (s *CommandSource) Close() error {
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
