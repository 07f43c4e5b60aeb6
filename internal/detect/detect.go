package detect

import (
	"errors"
	"image"
	"slices"
)

// ErrUnsupported is returned by NewCascade when the binary was built without
// OpenCV support.
var ErrUnsupported = errors.New("detect: cascade detector not compiled in (build with -tags gocv)")

// Box is an axis-aligned region reported by a detector.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle returns the box as a pixel area. Non-positive dimensions yield an
// empty rectangle.
func (b Box) Rectangle() image.Rectangle {
	if b.Width <= 0 || b.Height <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// FromRectangle converts an image rectangle to a Box.
func FromRectangle(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Detector locates regions to redact in a frame.
type Detector interface {
	Detect(frame image.Image) ([]Box, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(frame image.Image) ([]Box, error)

// Detect calls f.
func (f Func) Detect(frame image.Image) ([]Box, error) {
	return f(frame)
}

// None reports no regions.
type None struct{}

// Detect always returns an empty result.
func (None) Detect(image.Image) ([]Box, error) {
	return nil, nil
}

// Static returns the same boxes for every frame.
type Static []Box

// Detect returns a copy of the configured boxes.
func (s Static) Detect(image.Image) ([]Box, error) {
	return slices.Clone(s), nil
}

// Close releases detector resources when the implementation holds any.
func Close(d Detector) error {
	if c, ok := d.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
