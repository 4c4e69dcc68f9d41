// Package beep synthesizes the alert tone and plays it on an audio output.
package beep

import (
	"errors"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/generators"

	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Tone defaults.
const (
	DefaultFrequencyHz = 440
	DefaultDuration    = 200 * time.Millisecond
	DefaultSampleRate  = 44100
	DefaultAmplitude   = 0.5
)

// streamBufferFrames is the block size used when rendering a streamer.
const streamBufferFrames = 512

// ErrInvalidTone is returned when a tone has no audible samples.
var ErrInvalidTone = errors.New("invalid tone")

// Tone describes a fixed sine tone.
type Tone struct {
	FrequencyHz int
	Duration    time.Duration
	SampleRate  int
	Amplitude   float64
}

// DefaultTone returns the 440 Hz, 0.2 s alert tone at half amplitude.
func DefaultTone() Tone {
	return Tone{
		FrequencyHz: DefaultFrequencyHz,
		Duration:    DefaultDuration,
		SampleRate:  DefaultSampleRate,
		Amplitude:   DefaultAmplitude,
	}
}

// Len returns the number of samples in the tone.
func (t Tone) Len() int {
	return beep.SampleRate(t.SampleRate).N(t.Duration)
}

// Samples synthesizes the tone as mono samples.
func (t Tone) Samples() ([]float32, error) {
	if t.SampleRate <= 0 || t.Amplitude <= 0 || t.Len() <= 0 {
		return nil, ErrInvalidTone
	}

	sr := beep.SampleRate(t.SampleRate)
	sine, err := generators.SinTone(sr, t.FrequencyHz)
	if err != nil {
		return nil, util.WrapError("generate sine tone", err)
	}

	// Volume scales by Base^Volume, so log2 of the amplitude gives a linear gain.
	scaled := &effects.Volume{
		Streamer: beep.Take(t.Len(), sine),
		Base:     2,
		Volume:   math.Log2(t.Amplitude),
	}

	return render(scaled, t.Len()), nil
}

// render drains s and keeps the left channel.
func render(s beep.Streamer, sizeHint int) []float32 {
	out := make([]float32, 0, sizeHint)
	buf := make([][2]float64, streamBufferFrames)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, float32(frame[0]))
		}
		if !ok {
			return out
		}
	}
}

// streamSamples returns a streamer that plays mono samples on both channels.
func streamSamples(samples []float32) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < len(samples) {
			v := float64(samples[pos])
			buf[n][0], buf[n][1] = v, v
			n++
			pos++
		}
		return n, true
	})
}
