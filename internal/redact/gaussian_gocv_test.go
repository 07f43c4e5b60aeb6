//go:build gocv

package redact

import (
	"image"
	"math/rand/v2"
	"testing"
)

func TestGaussianMatchesSeparableConvolution(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	src := image.NewNRGBA(image.Rect(0, 0, 37, 23))
	for i := range src.Pix {
		src.Pix[i] = uint8(rng.IntN(256))
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}

	for _, k := range []Kernel{{Radius: 5, Sigma: 0}, {Radius: 3, Sigma: 2}} {
		want := image.NewNRGBA(src.Rect)
		convolve(want, src, k.weights())
		got := image.NewNRGBA(src.Rect)
		gaussian(got, src, k, k.weights())

		for i := range want.Pix {
			diff := int(want.Pix[i]) - int(got.Pix[i])
			if diff < -2 || diff > 2 {
				t.Fatalf("kernel %+v: byte %d differs: convolve %d, opencv %d", k, i, want.Pix[i], got.Pix[i])
			}
		}
	}
}
