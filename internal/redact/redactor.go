package redact

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"seen/internal/detect"
	"seen/internal/track"
)

// Redactor blurs rectangular regions of a frame in place.
type Redactor struct {
	guided        Kernel
	auto          Kernel
	guidedWeights []float64
	autoWeights   []float64
}

// NewRedactor validates both kernels and precomputes their weights.
func NewRedactor(guided, auto Kernel) (*Redactor, error) {
	if err := guided.Validate(); err != nil {
		return nil, fmt.Errorf("guided kernel: %w", err)
	}
	if err := auto.Validate(); err != nil {
		return nil, fmt.Errorf("auto kernel: %w", err)
	}
	return &Redactor{
		guided:        guided,
		auto:          auto,
		guidedWeights: guided.weights(),
		autoWeights:   auto.weights(),
	}, nil
}

// DefaultRedactor uses DefaultGuidedKernel and DefaultAutoKernel.
func DefaultRedactor() *Redactor {
	r, err := NewRedactor(DefaultGuidedKernel, DefaultAutoKernel)
	if err != nil {
		panic(err)
	}
	return r
}

// GuidedKernel returns the kernel applied to keyframe-tracked regions.
func (r *Redactor) GuidedKernel() Kernel { return r.guided }

// AutoKernel returns the kernel applied to detector boxes.
func (r *Redactor) AutoKernel() Kernel { return r.auto }

// BlurRegion blurs the part of rect that lies inside frame. It reports whether
// any pixel was touched; a rect fully outside the frame is a no-op.
func (r *Redactor) BlurRegion(frame *image.NRGBA, rect track.Rect) bool {
	if rect.Size <= 0 {
		return false
	}
	return blurArea(frame, rect.Region(), r.guided, r.guidedWeights)
}

// BlurDetectedRegions blurs every detector box with the auto kernel and
// returns how many boxes intersected the frame.
func (r *Redactor) BlurDetectedRegions(frame *image.NRGBA, boxes []detect.Box) int {
	applied := 0
	for _, box := range boxes {
		if blurArea(frame, box.Rectangle(), r.auto, r.autoWeights) {
			applied++
		}
	}
	return applied
}

func blurArea(frame *image.NRGBA, area image.Rectangle, k Kernel, weights []float64) bool {
	if frame == nil {
		return false
	}
	area = area.Intersect(frame.Bounds())
	if area.Empty() {
		return false
	}
	src := imaging.Crop(frame, area)
	dst := image.NewNRGBA(src.Rect)
	gaussian(dst, src, k, weights)
	draw.Draw(frame, area, dst, image.Point{}, draw.Src)
	return true
}
