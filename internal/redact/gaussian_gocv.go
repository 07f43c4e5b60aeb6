//go:build gocv

package redact

import (
	"image"

	"gocv.io/x/gocv"
)

// gaussian blurs src into dst with OpenCV's GaussianBlur and reflect-101
// borders. Channels are blurred independently, so the NRGBA byte order is
// passed through unchanged. A frame that cannot be wrapped in a Mat falls
// back to convolve.
func gaussian(dst, src *image.NRGBA, k Kernel, weights []float64) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if src.Stride != 4*w {
		convolve(dst, src, weights)
		return
	}
	in, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, src.Pix[:4*w*h])
	if err != nil {
		convolve(dst, src, weights)
		return
	}
	defer in.Close()

	out := gocv.NewMat()
	defer out.Close()
	size := k.Size()
	gocv.GaussianBlur(in, &out, image.Pt(size, size), k.Sigma, k.Sigma, gocv.BorderReflect101)
	if out.Empty() {
		convolve(dst, src, weights)
		return
	}
	copy(dst.Pix, out.ToBytes())
}
