package redact

import (
	"fmt"
	"image"
	"math"
)

// Kernel is a square Gaussian blur window of 2*Radius+1 pixels. A Sigma of 0
// derives the deviation from the window size the way OpenCV does for
// GaussianBlur with sigma 0.
type Kernel struct {
	Radius int
	Sigma  float64
}

var (
	// DefaultGuidedKernel matches a 101x101 Gaussian with derived sigma.
	DefaultGuidedKernel = Kernel{Radius: 50, Sigma: 0}
	// DefaultAutoKernel is smaller but stronger, for detector boxes.
	DefaultAutoKernel = Kernel{Radius: 25, Sigma: 30}
)

// Size returns the window width in pixels.
func (k Kernel) Size() int {
	return 2*k.Radius + 1
}

// EffectiveSigma returns the configured sigma or the size-derived one.
func (k Kernel) EffectiveSigma() float64 {
	if k.Sigma > 0 {
		return k.Sigma
	}
	return 0.3*(float64(k.Size()-1)*0.5-1) + 0.8
}

// Validate reports whether the kernel can be applied.
func (k Kernel) Validate() error {
	if k.Radius <= 0 {
		return fmt.Errorf("blur radius must be positive, got %d", k.Radius)
	}
	if k.Sigma < 0 || math.IsNaN(k.Sigma) || math.IsInf(k.Sigma, 0) {
		return fmt.Errorf("blur sigma must be a non-negative number, got %v", k.Sigma)
	}
	return nil
}

func (k Kernel) weights() []float64 {
	sigma := k.EffectiveSigma()
	w := make([]float64, k.Size())
	var sum float64
	for i := range w {
		d := float64(i - k.Radius)
		w[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// convolve blurs src in two separable passes and writes the result to dst.
// Both images must share the same size and be anchored at the origin. Edges
// reflect without repeating the border pixel, so only pixels of src
// contribute.
func convolve(dst, src *image.NRGBA, weights []float64) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	radius := len(weights) / 2
	tmp := make([]float64, w*h*4)

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var r, g, b, a float64
			for i, wt := range weights {
				sx := reflect101(x+i-radius, w) * 4
				r += wt * float64(row[sx])
				g += wt * float64(row[sx+1])
				b += wt * float64(row[sx+2])
				a += wt * float64(row[sx+3])
			}
			o := (y*w + x) * 4
			tmp[o], tmp[o+1], tmp[o+2], tmp[o+3] = r, g, b, a
		}
	}

	for y := 0; y < h; y++ {
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			var r, g, b, a float64
			for i, wt := range weights {
				o := (reflect101(y+i-radius, h)*w + x) * 4
				r += wt * tmp[o]
				g += wt * tmp[o+1]
				b += wt * tmp[o+2]
				a += wt * tmp[o+3]
			}
			p := x * 4
			out[p], out[p+1], out[p+2], out[p+3] = clamp8(r), clamp8(g), clamp8(b), clamp8(a)
		}
	}
}

// reflect101 maps an out-of-range index back into [0, n) as gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
