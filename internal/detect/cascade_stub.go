//go:build !gocv

package detect

import "image"

// CascadeSupported reports whether NewCascade can load a classifier.
const CascadeSupported = false

// Cascade is unavailable without the gocv build tag.
type Cascade struct{}

// NewCascade reports ErrUnsupported.
func NewCascade(string) (*Cascade, error) {
	return nil, ErrUnsupported
}

// Detect reports ErrUnsupported.
func (*Cascade) Detect(image.Image) ([]Box, error) {
	return nil, ErrUnsupported
}

// Close is a no-op.
func (*Cascade) Close() error {
	return nil
}
