package redact

import (
	"math"
	"testing"
)

func TestEffectiveSigma(t *testing.T) {
	tests := []struct {
		kernel Kernel
		want   float64
	}{
		{kernel: Kernel{Radius: 50}, want: 15.5},
		{kernel: Kernel{Radius: 1}, want: 0.8},
		{kernel: Kernel{Radius: 25, Sigma: 30}, want: 30},
	}
	for _, tc := range tests {
		if got := tc.kernel.EffectiveSigma(); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("kernel %+v: expected sigma %v, got %v", tc.kernel, tc.want, got)
		}
	}
}

func TestWeightsNormalizedAndSymmetric(t *testing.T) {
	w := DefaultGuidedKernel.weights()
	if len(w) != 101 {
		t.Fatalf("expected 101 taps, got %d", len(w))
	}
	var sum float64
	for i := range w {
		sum += w[i]
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-15 {
			t.Fatalf("weights not symmetric at %d", i)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("weights sum to %v", sum)
	}
	if w[50] <= w[49] {
		t.Fatal("expected centre tap to dominate")
	}
}

func TestKernelValidate(t *testing.T) {
	if err := (Kernel{Radius: 0}).Validate(); err == nil {
		t.Fatal("expected zero radius to fail")
	}
	if err := (Kernel{Radius: 3, Sigma: -1}).Validate(); err == nil {
		t.Fatal("expected negative sigma to fail")
	}
	if err := (Kernel{Radius: 3, Sigma: math.NaN()}).Validate(); err == nil {
		t.Fatal("expected NaN sigma to fail")
	}
	if err := DefaultAutoKernel.Validate(); err != nil {
		t.Fatalf("default auto kernel invalid: %v", err)
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{i: 0, n: 5, want: 0},
		{i: 4, n: 5, want: 4},
		{i: -1, n: 5, want: 1},
		{i: -2, n: 5, want: 2},
		{i: 5, n: 5, want: 3},
		{i: 6, n: 5, want: 2},
		{i: -7, n: 5, want: 1},
		{i: 13, n: 5, want: 3},
		{i: -3, n: 1, want: 0},
		{i: 2, n: 2, want: 0},
		{i: -1, n: 2, want: 1},
	}
	for _, tc := range tests {
		if got := reflect101(tc.i, tc.n); got != tc.want {
			t.Fatalf("reflect101(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestClamp8(t *testing.T) {
	if clamp8(-3) != 0 || clamp8(300) != 255 || clamp8(127.5) != 128 || clamp8(199.9999) != 200 {
		t.Fatal("clamp8 rounding mismatch")
	}
}
