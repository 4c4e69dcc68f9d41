package render

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"

	"github.com/oszuidwest/zwfm-camwatch/internal/alert"
	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

const testWidth, testHeight = 320, 240

// fakeCamera serves a fixed test pattern and can fail selected reads.
type fakeCamera struct {
	mu    sync.Mutex
	src   *camera.Frame
	fails []bool
	reads int
}

func newFakeCamera(fails ...bool) *fakeCamera {
	src := camera.NewFrame(testWidth, testHeight)
	for i := range src.Pix {
		src.Pix[i] = byte(i % 97)
	}
	return &fakeCamera{src: src, fails: fails}
}

func (c *fakeCamera) ReadFrame(dst *camera.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.reads
	c.reads++
	if i < len(c.fails) && c.fails[i] {
		return camera.ErrNoFrame
	}
	dst.CopyFrom(c.src)
	return nil
}

func (c *fakeCamera) Size() (int, int) { return testWidth, testHeight }

// fakeSurface keeps copies because Show must not retain the image.
type fakeSurface struct {
	mu     sync.Mutex
	images []*image.RGBA
}

func (s *fakeSurface) Show(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := image.NewRGBA(img.Rect)
	copy(c.Pix, img.Pix)
	s.images = append(s.images, c)
}

func (s *fakeSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testTime = time.Date(2024, 5, 17, 13, 45, 9, 0, time.Local)

// textBox returns the pixels the timestamp for t may touch, with a small margin.
func textBox(face font.Face, t time.Time) image.Rectangle {
	bounds, _ := font.BoundString(face, util.FormatTimestamp(t))
	return image.Rect(
		TimestampX+bounds.Min.X.Floor()-2, TimestampY+bounds.Min.Y.Floor()-2,
		TimestampX+bounds.Max.X.Ceil()+2, TimestampY+bounds.Max.Y.Ceil()+2,
	)
}

func TestBGRToRGBA(t *testing.T) {
	src := camera.NewFrame(2, 1)
	copy(src.Pix, []byte{10, 20, 30, 40, 50, 60})
	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))

	BGRToRGBA(dst, src)

	assert.Equal(t, []byte{30, 20, 10, 255, 60, 50, 40, 255}, dst.Pix)
}

func TestPoolReusesBySize(t *testing.T) {
	p := NewPool()
	img := p.Get(4, 3)
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Rect)
	p.Put(img)
	p.Put(nil)

	other := p.Get(8, 8)
	assert.Equal(t, image.Rect(0, 0, 8, 8), other.Rect)
}

func TestDrawBorder(t *testing.T) {
	f := camera.NewFrame(40, 30)
	o := NewOverlay(DefaultTimestampColor, DefaultBorderColor, 10)

	o.DrawBorder(f)

	red := color.RGBA{R: 255, A: 255}
	black := color.RGBA{A: 255}
	for _, p := range []image.Point{{0, 0}, {39, 29}, {9, 15}, {30, 15}, {20, 9}, {20, 20}} {
		assert.Equal(t, red, f.BGRAt(p.X, p.Y), "border pixel %v", p)
	}
	for _, p := range []image.Point{{10, 10}, {29, 19}, {20, 15}} {
		assert.Equal(t, black, f.BGRAt(p.X, p.Y), "interior pixel %v", p)
	}
}

func TestDrawBorderOnTinyFrame(t *testing.T) {
	f := camera.NewFrame(4, 4)
	NewOverlay(DefaultTimestampColor, DefaultBorderColor, 10).DrawBorder(f)
	for y := range 4 {
		for x := range 4 {
			assert.Equal(t, color.RGBA{R: 255, A: 255}, f.BGRAt(x, y))
		}
	}
}

func TestDrawTimestampStaysNearOrigin(t *testing.T) {
	f := camera.NewFrame(testWidth, testHeight)
	o := NewOverlay(DefaultTimestampColor, DefaultBorderColor, 10)

	o.DrawTimestamp(f, testTime)

	text := textBox(o.face, testTime)

	var lit int
	for y := 0; y < testHeight; y++ {
		for x := 0; x < testWidth; x++ {
			if f.BGRAt(x, y) == (color.RGBA{A: 255}) {
				continue
			}
			lit++
			assert.True(t, image.Pt(x, y).In(text), "pixel (%d,%d) outside text box %v", x, y, text)
		}
	}
	assert.Positive(t, lit, "timestamp drew something")
}

func TestTickSkipsFailedCapture(t *testing.T) {
	cam := newFakeCamera(true, false)
	surface := &fakeSurface{}
	r := New(cam, alert.New(), surface, Options{Clock: fixedClock(testTime)})

	assert.False(t, r.Tick(), "first read fails")
	assert.Equal(t, 0, surface.count())

	assert.True(t, r.Tick(), "next tick resumes")
	assert.Equal(t, 1, surface.count())
	assert.Equal(t, Stats{Rendered: 1, Skipped: 1}, r.Stats())
}

func TestTickIsDeterministic(t *testing.T) {
	surface := &fakeSurface{}
	r := New(newFakeCamera(), alert.New(), surface, Options{Clock: fixedClock(testTime)})

	require.True(t, r.Tick())
	require.True(t, r.Tick())

	require.Equal(t, 2, surface.count())
	assert.Equal(t, surface.images[0].Pix, surface.images[1].Pix)
}

func TestTickDiffersOnlyInTimestamp(t *testing.T) {
	now := testTime
	surface := &fakeSurface{}
	r := New(newFakeCamera(), alert.New(), surface, Options{Clock: func() time.Time { return now }})

	require.True(t, r.Tick())
	now = now.Add(time.Second)
	require.True(t, r.Tick())

	text := textBox(r.overlay.face, testTime).Union(textBox(r.overlay.face, now))

	a, b := surface.images[0], surface.images[1]
	assert.NotEqual(t, a.Pix, b.Pix)
	for y := 0; y < testHeight; y++ {
		for x := 0; x < testWidth; x++ {
			if image.Pt(x, y).In(text) {
				continue
			}
			require.Equal(t, a.RGBAAt(x, y), b.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestTickDrawsBorderWhenLoud(t *testing.T) {
	state := alert.New()
	surface := &fakeSurface{}
	r := New(newFakeCamera(), state, surface, Options{Clock: fixedClock(testTime)})

	require.True(t, r.Tick())
	state.Set(alert.Loud)
	require.True(t, r.Tick())
	state.Set(alert.Quiet)
	require.True(t, r.Tick())

	red := color.RGBA{R: 255, A: 255}
	corner := image.Pt(testWidth-1, testHeight-1)
	assert.NotEqual(t, red, surface.images[0].RGBAAt(corner.X, corner.Y))
	assert.Equal(t, red, surface.images[1].RGBAAt(corner.X, corner.Y))
	assert.Equal(t, red, surface.images[1].RGBAAt(9, testHeight/2))
	assert.NotEqual(t, red, surface.images[1].RGBAAt(testWidth/2, testHeight/2))
	assert.Equal(t, surface.images[0].Pix, surface.images[2].Pix, "border gone once quiet")
}

type fakeRecorder struct {
	mu      sync.Mutex
	frames  int
	loud    int
	skipped int
}

func (f *fakeRecorder) ObserveFrame(_ time.Duration, loud bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	if loud {
		f.loud++
	}
}

func (f *fakeRecorder) ObserveSkip() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped++
}

func TestRunTicksUntilCancelled(t *testing.T) {
	surface := &fakeSurface{}
	rec := &fakeRecorder{}
	r := New(newFakeCamera(true), alert.New(), surface, Options{Period: time.Millisecond, Recorder: rec})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return surface.count() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Skipped)
	assert.GreaterOrEqual(t, stats.Rendered, uint64(3))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.skipped)
	assert.Equal(t, int(stats.Rendered), rec.frames)
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(newFakeCamera(), alert.New(), &fakeSurface{}, Options{})
	assert.Equal(t, DefaultPeriod, r.period)
	assert.Equal(t, DefaultBorderWidth, r.overlay.borderWidth)
	assert.Equal(t, DefaultBorderColor, r.overlay.borderColor)
	assert.NotNil(t, r.clock)
}
