//go:build !gocv

package redact

import "image"

// gaussian blurs src into dst with the precomputed separable weights.
func gaussian(dst, src *image.NRGBA, _ Kernel, weights []float64) {
	convolve(dst, src, weights)
}
