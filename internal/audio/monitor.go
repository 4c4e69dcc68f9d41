package audio

import (
	"cmp"
	"context"
	"log/slog"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/alert"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Recorder receives per-chunk measurements, typically for metrics.
type Recorder interface {
	ObserveChunk(energy float64, loud bool)
	ObserveStatus(status string)
	ObserveBeep(elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveChunk(float64, bool)       {}
func (nopRecorder) ObserveStatus(string)             {}
func (nopRecorder) ObserveBeep(time.Duration, error) {}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	// Threshold is the energy above which a chunk is loud. Zero means
	// DefaultThreshold, so a threshold of exactly 0 cannot be expressed.
	Threshold float64
	// PeakHold is how long the status peak is held. Zero means DefaultPeakHoldDuration.
	PeakHold time.Duration
	// Recorder receives measurements. Nil disables recording.
	Recorder Recorder
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Monitor scores audio chunks and publishes the result to the alert state.
// A loud chunk sets the state to loud and plays the beep on the monitor's
// goroutine, so chunks that arrive meanwhile wait in the source.
type Monitor struct {
	source    Source
	state     *alert.State
	beeper    Beeper
	threshold float64
	peaks     *PeakHolder
	recorder  Recorder
	log       *slog.Logger

	chunks <-chan Chunk
}

// NewMonitor creates a Monitor. A nil beeper disables the tone.
func NewMonitor(source Source, state *alert.State, beeper Beeper, opts MonitorOptions) *Monitor {
	var recorder Recorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	peaks := NewPeakHolder()
	if opts.PeakHold > 0 {
		peaks.SetHoldDuration(opts.PeakHold)
	}
	return &Monitor{
		source:    source,
		state:     state,
		beeper:    beeper,
		threshold: cmp.Or(opts.Threshold, DefaultThreshold),
		peaks:     peaks,
		recorder:  recorder,
		log:       cmp.Or(opts.Logger, slog.Default()),
	}
}

// Start opens the input stream. An error here means the microphone is unusable.
func (m *Monitor) Start(ctx context.Context) error {
	chunks, err := m.source.Open(ctx)
	if err != nil {
		return util.WrapError("open audio input", err)
	}
	m.chunks = chunks
	m.log.Info("audio monitor started", "sample_rate", SampleRate, "threshold", m.threshold)
	return nil
}

// Run processes chunks until ctx is cancelled. If the input stream ends
// early, the loop logs it and idles until ctx is done, so an audio failure
// never stops the caller's other loops.
func (m *Monitor) Run(ctx context.Context) error {
	if m.chunks == nil {
		return ErrNotStarted
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-m.chunks:
			if !ok {
				if ctx.Err() == nil {
					m.log.Warn("audio input ended, monitoring stopped",
						"error", cmp.Or(m.source.Err(), ErrStreamEnded))
					m.state.Set(alert.Quiet)
					<-ctx.Done()
				}
				return nil
			}
			m.Process(ctx, chunk)
		}
	}
}

// Process scores a single chunk, updates the alert state and beeps when loud.
func (m *Monitor) Process(ctx context.Context, chunk Chunk) alert.Level {
	if chunk.Status != "" {
		m.log.Warn("audio input status", "status", chunk.Status)
		m.recorder.ObserveStatus(chunk.Status)
	}

	now := chunk.Time
	if now.IsZero() {
		now = time.Now()
	}

	energy := Energy(chunk.Samples)
	loud := IsLoud(energy, m.threshold)
	m.peaks.Update(energy, loud, now)
	m.recorder.ObserveChunk(energy, loud)

	if !loud {
		m.state.Set(alert.Quiet)
		return alert.Quiet
	}

	m.state.Set(alert.Loud)
	if m.beeper != nil {
		start := time.Now()
		err := m.beeper.Play(ctx)
		m.recorder.ObserveBeep(time.Since(start), err)
		if err != nil && ctx.Err() == nil {
			m.log.Warn("beep failed", "error", err)
		}
	}
	return alert.Loud
}

// Levels returns the most recent loudness measurement.
func (m *Monitor) Levels() Levels {
	return m.peaks.Levels()
}

// Threshold returns the loudness threshold in use.
func (m *Monitor) Threshold() float64 {
	return m.threshold
}

// Close releases the input stream.
func (m *Monitor) Close() error {
	return m.source.Close()
}
