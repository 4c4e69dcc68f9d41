package camera

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oszuidwest/zwfm-camwatch/internal/ffmpeg"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

var (
	// ErrNoFrame is returned by ReadFrame when no frame has arrived since the last (re)start.
	ErrNoFrame = errors.New("no frame captured")
	// ErrNoCamera is returned when no camera device is available.
	ErrNoCamera = errors.New("no camera device found")
)

// DefaultFrameRate is the requested capture frame rate.
const DefaultFrameRate = 30

// Options configures a Capture.
type Options struct {
	Device      string // Empty selects the platform default
	FrameRate   int
	FFmpegPath  string
	FFprobePath string
}

// Capture reads frames from an FFmpeg rawvideo subprocess and keeps only the latest.
type Capture struct {
	width, height int
	slot          *latestSlot
	frames        atomic.Uint64
	restarts      atomic.Uint64

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Open probes the camera size and starts capturing. A failure here means the
// camera is unusable.
func Open(ctx context.Context, opts Options) (*Capture, error) {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}

	cfg := getPlatformConfig()
	device, err := resolveDevice(cfg, opts.Device, opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	width, height, err := Probe(ctx, opts.FFprobePath, cfg.InputFormat, device)
	if err != nil {
		return nil, util.WrapError("probe camera", err)
	}

	args := cfg.BuildArgs(device, opts.FrameRate)

	ctx, cancel := context.WithCancel(ctx)
	proc, err := ffmpeg.Start(ctx, opts.FFmpegPath, args)
	if err != nil {
		cancel()
		return nil, util.WrapError("start camera capture", err)
	}

	slog.Info("camera capture started", "device", device, "width", width, "height", height, "frame_rate", opts.FrameRate)

	c := &Capture{
		width:  width,
		height: height,
		slot:   newLatestSlot(width, height),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(c.done)

		first := proc
		ffmpeg.Supervise(ctx, "camera", util.NewBackoff(ffmpeg.InitialRetryDelay, ffmpeg.MaxRetryDelay), func(ctx context.Context) (string, error) {
			c.slot.invalidate()
			p := first
			first = nil
			if p == nil {
				c.restarts.Add(1)
				var err error
				if p, err = ffmpeg.Start(ctx, opts.FFmpegPath, args); err != nil {
					return "", err
				}
			}
			c.readFrames(ctx, p.Stdout)
			return p.Wait()
		})
	}()

	return c, nil
}

// readFrames fills the latest slot from r until r ends or ctx is done.
func (c *Capture) readFrames(ctx context.Context, r io.Reader) {
	for {
		dst := c.slot.writable()
		if _, err := io.ReadFull(r, dst.Pix); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && ctx.Err() == nil {
				slog.Warn("camera read failed", "error", err)
			}
			return
		}
		c.slot.publish()
		c.frames.Add(1)
	}
}

// ReadFrame copies the latest frame into dst.
func (c *Capture) ReadFrame(dst *Frame) error {
	if _, ok := c.slot.copyTo(dst); !ok {
		return ErrNoFrame
	}
	return nil
}

// Size returns the frame dimensions.
func (c *Capture) Size() (width, height int) {
	return c.width, c.height
}

// Frames returns the number of frames received from the camera.
func (c *Capture) Frames() uint64 {
	return c.frames.Load()
}

// Restarts returns how often the capture process has been restarted.
func (c *Capture) Restarts() uint64 {
	return c.restarts.Load()
}

// Close stops the capture process and waits for it to exit. It is idempotent.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
	})
	return nil
}

//nolint:gocritic // hugeParam: platform config is small and built once
func resolveDevice(cfg CaptureConfig, device, ffmpegPath string) (string, error) {
	if device == "" {
		device = cfg.DefaultDevice
	}
	if device == "" && cfg.Devices != nil {
		devices := cfg.Devices(ffmpegPath)
		if len(devices) == 0 {
			return "", ErrNoCamera
		}
		device = devices[0].ID
	}
	if device == "" {
		return "", ErrNoCamera
	}
	return device, nil
}
