package testsupport

import (
	"image"
	"image/color"
)

// Checkerboard returns an opaque black and white frame with square cells.
func Checkerboard(width, height, cell int) *image.NRGBA {
	if cell <= 0 {
		cell = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// Solid returns a frame filled with c.
func Solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Sequence returns n checkerboard frames whose cell size varies per frame so
// each frame is distinguishable.
func Sequence(n, width, height int) []*image.NRGBA {
	out := make([]*image.NRGBA, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Checkerboard(width, height, 2+i%5))
	}
	return out
}
