package camera

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameStoresBGR(t *testing.T) {
	f := NewFrame(4, 2)
	assert.Len(t, f.Pix, 4*2*3)
	assert.Equal(t, image.Rect(0, 0, 4, 2), f.Bounds())

	f.Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	i := f.PixOffset(1, 1)
	assert.Equal(t, []byte{30, 20, 10}, f.Pix[i:i+3])
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, f.At(1, 1))

	f.SetBGR(0, 0, color.RGBA{R: 1, G: 2, B: 3})
	assert.Equal(t, []byte{3, 2, 1}, f.Pix[0:3])
}

func TestFrameIgnoresOutOfBounds(t *testing.T) {
	f := NewFrame(2, 2)
	f.Set(5, 5, color.White)
	f.SetBGR(-1, 0, color.RGBA{R: 255})
	assert.Equal(t, make([]byte, 12), f.Pix)
	assert.Equal(t, color.RGBA{}, f.At(2, 0))
}

func TestFrameIsDrawable(t *testing.T) {
	f := NewFrame(3, 3)
	var _ draw.Image = f

	draw.Draw(f, image.Rect(0, 0, 3, 1), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, f.At(2, 0))
	assert.Equal(t, color.RGBA{A: 255}, f.At(0, 1))
}

func TestFrameCopyFrom(t *testing.T) {
	src := NewFrame(2, 1)
	src.Pix[0] = 7

	dst := &Frame{}
	dst.CopyFrom(src)
	assert.Equal(t, src.Rect, dst.Rect)
	assert.Equal(t, src.Pix, dst.Pix)

	dst.Pix[0] = 9
	assert.Equal(t, byte(7), src.Pix[0], "copy does not share pixels")
}
