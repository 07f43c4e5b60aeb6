//go:build gocv

package detect

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// CascadeSupported reports whether NewCascade can load a classifier.
const CascadeSupported = true

// Cascade detects faces with an OpenCV Haar cascade classifier.
type Cascade struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascade loads a Haar cascade definition from path.
func NewCascade(path string) (*Cascade, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("detect: cascade file: %w", err)
	}
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("detect: load cascade %q", path)
	}
	return &Cascade{classifier: classifier}, nil
}

// Detect runs multi-scale detection on frame.
func (c *Cascade) Detect(frame image.Image) ([]Box, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("detect: convert frame: %w", err)
	}
	defer mat.Close()

	c.mu.Lock()
	rects := c.classifier.DetectMultiScale(mat)
	c.mu.Unlock()

	boxes := make([]Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, FromRectangle(r))
	}
	return boxes, nil
}

// Close releases the classifier.
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}
