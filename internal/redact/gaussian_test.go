//go:build !gocv

package redact

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGaussianUsesSeparableConvolution(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 9, 5))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	k := Kernel{Radius: 2, Sigma: 1.5}

	want := image.NewNRGBA(src.Rect)
	convolve(want, src, k.weights())
	got := image.NewNRGBA(src.Rect)
	gaussian(got, src, k, k.weights())

	if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
		t.Fatalf("gaussian mismatch (-want +got):\n%s", diff)
	}
}
