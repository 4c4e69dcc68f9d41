package beep

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// outputBufferFrames is the PortAudio output block size.
const outputBufferFrames = 1024

// PortAudioSink plays on the default output device.
// portaudio.Initialize must have been called first.
type PortAudioSink struct{}

// Play opens a one-channel output stream, writes samples, drains and closes it.
func (PortAudioSink) Play(ctx context.Context, samples []float32, sampleRate int) error {
	buf := make([]float32, outputBufferFrames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(buf), buf)
	if err != nil {
		return util.WrapError("open output stream", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("failed to close output stream", "error", err)
		}
	}()

	if err := stream.Start(); err != nil {
		return util.WrapError("start output stream", err)
	}

	for off := 0; off < len(samples); off += len(buf) {
		if err := ctx.Err(); err != nil {
			_ = stream.Abort()
			return err
		}
		n := copy(buf, samples[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			_ = stream.Abort()
			return util.WrapError("write output stream", err)
		}
	}

	// Stop returns once buffered output has played.
	if err := stream.Stop(); err != nil {
		return util.WrapError("stop output stream", err)
	}
	return nil
}
