package redact

import (
	"errors"
	"fmt"
	"image"

	"seen/internal/detect"
	"seen/internal/track"
)

// Mode is the redaction strategy a Processor runs.
type Mode string

const (
	ModeGuided Mode = "guided"
	ModeAuto   Mode = "auto"
)

// ErrNoDetector is returned when auto mode is requested without a detector.
var ErrNoDetector = errors.New("redact: auto mode requires a detector")

// ErrDetector marks failures reported by the detector collaborator.
var ErrDetector = errors.New("redact: detector failed")

// FrameReport summarizes the work done on one frame.
type FrameReport struct {
	// Regions counts the regions that intersected the frame and were blurred.
	Regions int
}

// Processor applies one redaction mode to each frame.
type Processor struct {
	mode     Mode
	tracks   track.TrackSet
	detector detect.Detector
	redactor *Redactor
}

// Option customizes a Processor.
type Option func(*Processor)

// WithRedactor replaces the default kernels.
func WithRedactor(r *Redactor) Option {
	return func(p *Processor) {
		if r != nil {
			p.redactor = r
		}
	}
}

// NewProcessor chooses guided mode when guide is non-nil and auto mode
// otherwise. A guide with no tracks is rejected; so is auto mode without a
// detector.
func NewProcessor(guide *track.TrackSet, detector detect.Detector, opts ...Option) (*Processor, error) {
	p := &Processor{redactor: DefaultRedactor()}
	for _, opt := range opts {
		opt(p)
	}
	if guide != nil {
		if guide.Len() == 0 {
			return nil, &track.ValidationError{Reason: "guide data contains no tracks"}
		}
		p.mode = ModeGuided
		p.tracks = *guide
		return p, nil
	}
	if detector == nil {
		return nil, ErrNoDetector
	}
	p.mode = ModeAuto
	p.detector = detector
	return p, nil
}

// Mode reports the strategy chosen at construction.
func (p *Processor) Mode() Mode {
	return p.mode
}

// ProcessFrame redacts frame in place. Only detector failures return an error.
func (p *Processor) ProcessFrame(frame *image.NRGBA, frameIndex int) (FrameReport, error) {
	var report FrameReport
	switch p.mode {
	case ModeGuided:
		for _, placement := range track.ActiveRects(p.tracks, frameIndex) {
			if p.redactor.BlurRegion(frame, placement.Rect) {
				report.Regions++
			}
		}
	case ModeAuto:
		boxes, err := p.detector.Detect(frame)
		if err != nil {
			return report, fmt.Errorf("%w: frame %d: %w", ErrDetector, frameIndex, err)
		}
		report.Regions = p.redactor.BlurDetectedRegions(frame, boxes)
	}
	return report, nil
}
