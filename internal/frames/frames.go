package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrExhausted signals the normal end of a frame stream.
var ErrExhausted = errors.New("frames: stream exhausted")

// StreamInfo describes the geometry and timing of a stream.
type StreamInfo struct {
	Width     int
	Height    int
	FrameRate float64
	// FrameCount is the container's frame count when known, otherwise 0.
	FrameCount int
}

// Bounds returns the frame rectangle anchored at the origin.
func (i StreamInfo) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Width, i.Height)
}

// Validate reports whether the stream can carry frames.
func (i StreamInfo) Validate() error {
	if i.Width <= 0 || i.Height <= 0 {
		return fmt.Errorf("frames: invalid dimensions %dx%d", i.Width, i.Height)
	}
	if i.FrameRate <= 0 {
		return fmt.Errorf("frames: invalid frame rate %v", i.FrameRate)
	}
	return nil
}

// Source yields decoded frames in ascending order.
type Source interface {
	Info() StreamInfo
	// Next returns the next frame or ErrExhausted at end of stream.
	Next(ctx context.Context) (*image.NRGBA, error)
	Close() error
}

// Sink receives processed frames in order.
type Sink interface {
	Write(frame *image.NRGBA) error
	Close() error
}

// Clone returns a deep copy of img as an NRGBA anchored at the origin.
func Clone(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// SliceSource serves frames from memory. Each call to Next returns a copy so
// the originals stay intact for comparison.
type SliceSource struct {
	info   StreamInfo
	frames []*image.NRGBA
	next   int
	err    error
	errAt  int
}

// NewSliceSource builds a source over frames. Stream info is taken from the
// first frame and the given frame rate.
func NewSliceSource(frameRate float64, frames ...*image.NRGBA) *SliceSource {
	info := StreamInfo{FrameRate: frameRate, FrameCount: len(frames)}
	if len(frames) > 0 {
		b := frames[0].Bounds()
		info.Width, info.Height = b.Dx(), b.Dy()
	}
	return &SliceSource{info: info, frames: frames, errAt: -1}
}

// FailAt makes Next return err instead of the frame at index.
func (s *SliceSource) FailAt(index int, err error) *SliceSource {
	s.errAt = index
	s.err = err
	return s
}

// Info implements Source.
func (s *SliceSource) Info() StreamInfo {
	return s.info
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next == s.errAt {
		return nil, s.err
	}
	if s.next >= len(s.frames) {
		return nil, ErrExhausted
	}
	frame := Clone(s.frames[s.next])
	s.next++
	return frame, nil
}

// Close implements Source.
func (s *SliceSource) Close() error {
	return nil
}

// Collector is a Sink that keeps copies of every frame written.
type Collector struct {
	Frames []*image.NRGBA
	Closed bool
	err    error
	errAt  int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{errAt: -1}
}

// FailAt makes the write of the frame at index return err.
func (c *Collector) FailAt(index int, err error) *Collector {
	c.errAt = index
	c.err = err
	return c
}

// Write implements Sink.
func (c *Collector) Write(frame *image.NRGBA) error {
	if c.Closed {
		return errors.New("frames: write to closed collector")
	}
	if len(c.Frames) == c.errAt {
		return c.err
	}
	c.Frames = append(c.Frames, Clone(frame))
	return nil
}

// Close implements Sink.
func (c *Collector) Close() error {
	c.Closed = true
	return nil
}
