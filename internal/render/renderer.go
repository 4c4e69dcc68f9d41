// Package render runs the fixed-cadence capture, overlay and display loop.
package render

import (
	"cmp"
	"context"
	"image"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/alert"
	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
)

// DefaultPeriod is the render tick interval.
const DefaultPeriod = 15 * time.Millisecond

// Camera provides the latest captured frame.
type Camera interface {
	ReadFrame(dst *camera.Frame) error
	Size() (width, height int)
}

// Surface displays rendered images. Show must not retain img after it returns.
type Surface interface {
	Show(img *image.RGBA)
}

// Recorder receives per-tick measurements, typically for metrics.
type Recorder interface {
	ObserveFrame(elapsed time.Duration, loud bool)
	ObserveSkip()
}

type nopRecorder struct{}

func (nopRecorder) ObserveFrame(time.Duration, bool) {}
func (nopRecorder) ObserveSkip()                     {}

// Options configures a Renderer. Zero values select the defaults.
type Options struct {
	Period         time.Duration
	BorderWidth    int
	BorderColor    color.RGBA
	TimestampColor color.RGBA
	// Clock returns the time burned into each frame. Defaults to time.Now.
	Clock    func() time.Time
	Recorder Recorder
	Logger   *slog.Logger
}

// Stats counts render ticks.
type Stats struct {
	Rendered uint64 `json:"frames_rendered"`
	Skipped  uint64 `json:"frames_skipped"`
}

// Renderer captures, annotates and displays one frame per tick.
// Ticks never overlap; a slow tick delays the next one.
type Renderer struct {
	camera   Camera
	state    *alert.State
	surface  Surface
	period   time.Duration
	overlay  *Overlay
	pool     *Pool
	clock    func() time.Time
	recorder Recorder
	log      *slog.Logger

	frame *camera.Frame

	rendered atomic.Uint64
	skipped  atomic.Uint64
}

// New creates a Renderer.
func New(cam Camera, state *alert.State, surface Surface, opts Options) *Renderer {
	var zero color.RGBA
	borderColor := opts.BorderColor
	if borderColor == zero {
		borderColor = DefaultBorderColor
	}
	timestampColor := opts.TimestampColor
	if timestampColor == zero {
		timestampColor = DefaultTimestampColor
	}

	var recorder Recorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	width, height := cam.Size()
	return &Renderer{
		camera:   cam,
		state:    state,
		surface:  surface,
		period:   cmp.Or(opts.Period, DefaultPeriod),
		overlay:  NewOverlay(timestampColor, borderColor, cmp.Or(opts.BorderWidth, DefaultBorderWidth)),
		pool:     NewPool(),
		clock:    clock,
		recorder: recorder,
		log:      cmp.Or(opts.Logger, slog.Default()),
		frame:    camera.NewFrame(width, height),
	}
}

// Run ticks until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	r.log.Info("renderer started", "period", r.period)

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("renderer stopped", "rendered", r.rendered.Load(), "skipped", r.skipped.Load())
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick renders a single frame. It reports false when the capture failed and
// the tick was skipped.
func (r *Renderer) Tick() bool {
	start := time.Now()

	if err := r.camera.ReadFrame(r.frame); err != nil {
		r.skipped.Add(1)
		r.recorder.ObserveSkip()
		r.log.Debug("frame capture failed, skipping tick", "error", err)
		return false
	}

	r.overlay.DrawTimestamp(r.frame, r.clock())

	loud := r.state.Get() == alert.Loud
	if loud {
		r.overlay.DrawBorder(r.frame)
	}

	b := r.frame.Bounds()
	img := r.pool.Get(b.Dx(), b.Dy())
	BGRToRGBA(img, r.frame)

	r.surface.Show(img)
	r.pool.Put(img)

	r.rendered.Add(1)
	r.recorder.ObserveFrame(time.Since(start), loud)
	return true
}

// Stats returns the tick counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Rendered: r.rendered.Load(),
		Skipped:  r.skipped.Load(),
	}
}
