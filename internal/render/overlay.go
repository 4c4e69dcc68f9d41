package render

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Overlay defaults.
const (
	DefaultBorderWidth = 10
	DefaultFontSize    = 22
	TimestampX         = 10
	TimestampY         = 30
	defaultFontDPI     = 72
)

var (
	// DefaultBorderColor is the alert border color.
	DefaultBorderColor = color.RGBA{R: 0xff, A: 0xff}
	// DefaultTimestampColor is the timestamp text color.
	DefaultTimestampColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Overlay burns the timestamp and alert border into frames.
// It is not safe for concurrent use; font faces keep glyph caches.
type Overlay struct {
	face           font.Face
	timestampColor color.RGBA
	borderColor    color.RGBA
	borderWidth    int
}

// NewOverlay creates an overlay using the Go Mono face, falling back to a
// fixed bitmap face if the font cannot be loaded.
func NewOverlay(timestampColor, borderColor color.RGBA, borderWidth int) *Overlay {
	return &Overlay{
		face:           loadFace(DefaultFontSize),
		timestampColor: timestampColor,
		borderColor:    borderColor,
		borderWidth:    borderWidth,
	}
}

func loadFace(size float64) font.Face {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		slog.Warn("using bitmap font", "error", util.WrapError("parse font", err))
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     defaultFontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		slog.Warn("using bitmap font", "error", util.WrapError("create font face", err))
		return basicfont.Face7x13
	}
	return face
}

// DrawTimestamp writes t with its baseline starting at (TimestampX, TimestampY).
func (o *Overlay) DrawTimestamp(dst *camera.Frame, t time.Time) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.timestampColor),
		Face: o.face,
		Dot:  fixed.P(TimestampX, TimestampY),
	}
	d.DrawString(util.FormatTimestamp(t))
}

// DrawBorder paints a solid border of the configured width along all four edges.
func (o *Overlay) DrawBorder(dst *camera.Frame) {
	b := dst.Bounds()
	w := min(o.borderWidth, b.Dx(), b.Dy())
	if w <= 0 {
		return
	}

	fill := func(r image.Rectangle) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				dst.SetBGR(x, y, o.borderColor)
			}
		}
	}

	fill(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+w))     // top
	fill(image.Rect(b.Min.X, b.Max.Y-w, b.Max.X, b.Max.Y))     // bottom
	fill(image.Rect(b.Min.X, b.Min.Y+w, b.Min.X+w, b.Max.Y-w)) // left
	fill(image.Rect(b.Max.X-w, b.Min.Y+w, b.Max.X, b.Max.Y-w)) // right
}
