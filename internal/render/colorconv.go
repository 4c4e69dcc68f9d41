package render

import (
	"image"

	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
)

// BGRToRGBA converts src into dst, which must have the same bounds.
func BGRToRGBA(dst *image.RGBA, src *camera.Frame) {
	b := src.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w*3]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			d[x*4+0] = s[x*3+2]
			d[x*4+1] = s[x*3+1]
			d[x*4+2] = s[x*3+0]
			d[x*4+3] = 0xff
		}
	}
}
