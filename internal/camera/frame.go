// Package camera captures webcam frames as packed BGR images.
package camera

import (
	"image"
	"image/color"
)

// bytesPerPixel is the size of one BGR24 pixel.
const bytesPerPixel = 3

// Frame is a packed BGR24 image. It implements draw.Image so overlays can be
// drawn onto it in place.
type Frame struct {
	// Pix holds the pixels in B, G, R order.
	Pix []byte
	// Stride is the distance in bytes between vertically adjacent pixels.
	Stride int
	Rect   image.Rectangle
}

// NewFrame returns a black frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*bytesPerPixel),
		Stride: width * bytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return f.Rect }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x-f.Rect.Min.X)*bytesPerPixel
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	return f.BGRAt(x, y)
}

// BGRAt returns the opaque color at (x, y).
func (f *Frame) BGRAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(f.Rect)) {
		return color.RGBA{}
	}
	i := f.PixOffset(x, y)
	return color.RGBA{R: f.Pix[i+2], G: f.Pix[i+1], B: f.Pix[i], A: 0xff}
}

// Set implements draw.Image. Alpha is discarded.
func (f *Frame) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(f.Rect)) {
		return
	}
	i := f.PixOffset(x, y)
	r, g, b, _ := c.RGBA()
	f.Pix[i] = uint8(b >> 8)
	f.Pix[i+1] = uint8(g >> 8)
	f.Pix[i+2] = uint8(r >> 8)
}

// SetBGR sets the pixel at (x, y) without going through color.Color.
func (f *Frame) SetBGR(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(f.Rect)) {
		return
	}
	i := f.PixOffset(x, y)
	f.Pix[i] = c.B
	f.Pix[i+1] = c.G
	f.Pix[i+2] = c.R
}

// CopyFrom copies src into f, reallocating f if the sizes differ.
func (f *Frame) CopyFrom(src *Frame) {
	if f.Rect != src.Rect || f.Stride != src.Stride || len(f.Pix) != len(src.Pix) {
		f.Pix = make([]byte, len(src.Pix))
		f.Stride = src.Stride
		f.Rect = src.Rect
	}
	copy(f.Pix, src.Pix)
}
