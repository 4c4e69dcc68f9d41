package beep

import (
	"context"
	"errors"
	"log/slog"
)

// Output sink names.
const (
	SinkPortAudio = "portaudio"
	SinkSpeaker   = "speaker"
	SinkNone      = "none"
)

// ErrUnknownSink is returned by NewSink for an unsupported sink name.
var ErrUnknownSink = errors.New("unknown beep sink")

// Sink plays mono samples and blocks until they have been delivered.
// It opens the output device per call and releases it before returning.
type Sink interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// NewSink returns the output backend named by name. SinkNone yields a nil Sink.
func NewSink(name string) (Sink, error) {
	switch name {
	case SinkPortAudio, "":
		return PortAudioSink{}, nil
	case SinkSpeaker:
		return &SpeakerSink{}, nil
	case SinkNone:
		return nil, nil
	default:
		return nil, ErrUnknownSink
	}
}

// Player plays a fixed tone on a sink.
type Player struct {
	tone    Tone
	samples []float32
	sink    Sink
}

// NewPlayer synthesizes tone once and returns a player for sink.
func NewPlayer(tone Tone, sink Sink) (*Player, error) {
	samples, err := tone.Samples()
	if err != nil {
		return nil, err
	}
	slog.Debug("alert tone ready", "frequency_hz", tone.FrequencyHz, "duration", tone.Duration, "samples", len(samples))
	return &Player{tone: tone, samples: samples, sink: sink}, nil
}

// Play blocks until the tone has been delivered to the sink.
// Sink open failures, such as a busy device, are returned.
func (p *Player) Play(ctx context.Context) error {
	return p.sink.Play(ctx, p.samples, p.tone.SampleRate)
}

// Tone returns the tone the player was built with.
func (p *Player) Tone() Tone {
	return p.tone
}
