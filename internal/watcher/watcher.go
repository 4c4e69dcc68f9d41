// Package watcher owns the monitor's devices and runs the audio and render loops.
package watcher

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oszuidwest/zwfm-camwatch/internal/alert"
	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/beep"
	"github.com/oszuidwest/zwfm-camwatch/internal/display"
	"github.com/oszuidwest/zwfm-camwatch/internal/logging"
	"github.com/oszuidwest/zwfm-camwatch/internal/metrics"
	"github.com/oszuidwest/zwfm-camwatch/internal/render"
	"github.com/oszuidwest/zwfm-camwatch/internal/types"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Camera is a frame source that can be released.
type Camera interface {
	render.Camera
	Close() error
}

// captureStats is implemented by cameras that count received frames.
type captureStats interface {
	Frames() uint64
	Restarts() uint64
}

// Devices are the hardware collaborators. Sink may be nil for a silent monitor.
type Devices struct {
	Camera Camera
	Audio  audio.Source
	Sink   beep.Sink
	// Release is called last on Close, after every device has been closed.
	Release func() error
}

// Close releases the camera, the audio input and finally the audio library.
// Nil devices are skipped.
func (d Devices) Close() error {
	var errs []error
	if d.Camera != nil {
		if err := d.Camera.Close(); err != nil {
			errs = append(errs, util.WrapError("close camera", err))
		}
	}
	if d.Audio != nil {
		if err := d.Audio.Close(); err != nil {
			errs = append(errs, util.WrapError("close audio input", err))
		}
	}
	if d.Release != nil {
		if err := d.Release(); err != nil {
			errs = append(errs, util.WrapError("release audio", err))
		}
	}
	return errors.Join(errs...)
}

// Options configures a Watcher. Zero values select the defaults.
type Options struct {
	AudioBackend   string
	BeepSink       string
	ChunkFrames    int
	Threshold      float64
	PeakHold       time.Duration
	Tone           beep.Tone
	RenderPeriod   time.Duration
	BorderWidth    int
	BorderColor    color.RGBA
	TimestampColor color.RGBA
	JPEGQuality    int
	Clock          func() time.Time
	Version        types.VersionInfo
	Metrics        *metrics.Metrics
}

// Watcher wires the alert state between the audio monitor and the renderer.
type Watcher struct {
	opts    Options
	devices Devices

	state    *alert.State
	beeper   *countingBeeper
	monitor  *audio.Monitor
	renderer *render.Renderer
	viewer   *display.Viewer

	status    atomic.Value // types.MonitorState
	startedAt atomic.Int64 // unix nanoseconds, zero before Run
	closeOnce sync.Once
	closeErr  error
}

// New builds the loops around devs. It does not open the audio stream; call Start.
func New(devs Devices, opts Options) (*Watcher, error) {
	if opts.Tone == (beep.Tone{}) {
		opts.Tone = beep.DefaultTone()
	}
	if opts.ChunkFrames == 0 {
		opts.ChunkFrames = audio.DefaultChunkFrames
	}
	if opts.RenderPeriod == 0 {
		opts.RenderPeriod = render.DefaultPeriod
	}

	w := &Watcher{
		opts:    opts,
		devices: devs,
		state:   alert.New(),
		viewer:  display.NewViewer(opts.JPEGQuality),
	}
	w.status.Store(types.StateStarting)

	var audioRecorder audio.Recorder
	var renderRecorder render.Recorder
	if opts.Metrics != nil {
		audioRecorder = opts.Metrics
		renderRecorder = opts.Metrics
		w.viewer.OnClientsChanged(opts.Metrics.SetViewers)
	}

	// A nil *countingBeeper must not reach the monitor as a non-nil interface.
	var beeper audio.Beeper
	if devs.Sink != nil {
		player, err := beep.NewPlayer(opts.Tone, devs.Sink)
		if err != nil {
			return nil, util.WrapError("prepare alert tone", err)
		}
		w.beeper = &countingBeeper{player: player}
		beeper = w.beeper
	}

	w.monitor = audio.NewMonitor(devs.Audio, w.state, beeper, audio.MonitorOptions{
		Threshold: opts.Threshold,
		PeakHold:  opts.PeakHold,
		Recorder:  audioRecorder,
		Logger:    logging.L("audio"),
	})

	w.renderer = render.New(devs.Camera, w.state, w.viewer, render.Options{
		Period:         opts.RenderPeriod,
		BorderWidth:    opts.BorderWidth,
		BorderColor:    opts.BorderColor,
		TimestampColor: opts.TimestampColor,
		Clock:          opts.Clock,
		Recorder:       renderRecorder,
		Logger:         logging.L("render"),
	})

	return w, nil
}

// Start opens the audio input stream.
func (w *Watcher) Start(ctx context.Context) error {
	return w.monitor.Start(ctx)
}

// Run runs the audio and render loops until ctx is cancelled or one of them fails.
func (w *Watcher) Run(ctx context.Context) error {
	w.startedAt.Store(time.Now().UnixNano())
	w.status.Store(types.StateRunning)
	slog.Info("monitor running", "threshold", w.monitor.Threshold(), "render_period", w.opts.RenderPeriod)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.monitor.Run(ctx) })
	g.Go(func() error { return w.renderer.Run(ctx) })

	err := g.Wait()
	w.status.Store(types.StateStopping)
	return err
}

// Close releases the camera, the audio stream and the audio library, in that
// order. It is idempotent.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.status.Store(types.StateStopping)
		w.closeErr = w.devices.Close()
		w.status.Store(types.StateStopped)
		slog.Info("devices released")
	})
	return w.closeErr
}

// Viewer returns the display surface frames are published to.
func (w *Watcher) Viewer() *display.Viewer {
	return w.viewer
}

// Alert returns the shared alert state.
func (w *Watcher) Alert() *alert.State {
	return w.state
}

// Status returns a snapshot of the monitor.
func (w *Watcher) Status() types.Status {
	levels := w.monitor.Levels()
	stats := w.renderer.Stats()
	width, height := w.devices.Camera.Size()

	s := types.Status{
		State: w.status.Load().(types.MonitorState),
		Alert: types.AlertStatus{
			Level:   w.state.Get().String(),
			Changes: w.state.Changes(),
		},
		Audio: types.AudioStatus{
			Backend:     w.opts.AudioBackend,
			SampleRate:  audio.SampleRate,
			ChunkFrames: w.opts.ChunkFrames,
			Threshold:   w.monitor.Threshold(),
			Energy:      levels.Energy,
			EnergyDB:    levels.EnergyDB,
			PeakDB:      levels.PeakDB,
			Chunks:      levels.Chunks,
			BeepSink:    w.opts.BeepSink,
		},
		Camera: types.CameraStatus{
			Width:  width,
			Height: height,
		},
		Render: types.RenderStatus{
			PeriodMs: w.opts.RenderPeriod.Milliseconds(),
			Rendered: stats.Rendered,
			Skipped:  stats.Skipped,
		},
		Viewers:  w.viewer.Clients(),
		Platform: runtime.GOOS,
		Version:  w.opts.Version,
	}

	if w.beeper != nil {
		tone := w.beeper.player.Tone()
		s.Audio.BeepFrequencyHz = tone.FrequencyHz
		s.Audio.BeepDurationMs = tone.Duration.Milliseconds()
		s.Audio.Beeps, s.Audio.BeepErrors = w.beeper.counts()
	}
	if cs, ok := w.devices.Camera.(captureStats); ok {
		s.Camera.Frames = cs.Frames()
		s.Camera.Restarts = cs.Restarts()
	}
	if ns := w.startedAt.Load(); ns != 0 {
		s.Started = time.Unix(0, ns)
		s.Uptime = util.FormatDuration(time.Since(s.Started).Milliseconds())
	}
	return s
}

// countingBeeper counts played and failed tones.
type countingBeeper struct {
	player *beep.Player
	played atomic.Uint64
	failed atomic.Uint64
}

func (b *countingBeeper) Play(ctx context.Context) error {
	if err := b.player.Play(ctx); err != nil {
		b.failed.Add(1)
		return err
	}
	b.played.Add(1)
	return nil
}

func (b *countingBeeper) counts() (played, failed uint64) {
	return b.played.Load(), b.failed.Load()
}
