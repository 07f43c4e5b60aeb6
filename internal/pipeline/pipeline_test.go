package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"seen/internal/detect"
	"seen/internal/frames"
	"seen/internal/pipeline"
	"seen/internal/redact"
	"seen/internal/testsupport"
	"seen/internal/track"
)

func guidedProcessor(t *testing.T) *redact.Processor {
	t.Helper()
	tr, err := track.NewBuilder("a").
		Add(0, track.Rect{X: 10, Y: 10, Size: 20}).
		Add(10, track.Rect{X: 110, Y: 10, Size: 20}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	set, err := track.NewTrackSet(tr)
	if err != nil {
		t.Fatalf("NewTrackSet: %v", err)
	}
	p, err := redact.NewProcessor(&set, nil)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func TestRunGuided(t *testing.T) {
	input := testsupport.Sequence(15, 160, 48)
	src := frames.NewSliceSource(25, input...)
	sink := frames.NewCollector()

	var progress []pipeline.Progress
	var regions []int
	res, err := pipeline.Run(context.Background(), src, sink, guidedProcessor(t),
		pipeline.WithProgress(func(p pipeline.Progress) { progress = append(progress, p) }),
		pipeline.WithFrameObserver(func(r redact.FrameReport) { regions = append(regions, r.Regions) }))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Frames != 15 || res.Redacted != 11 || res.Fatal || res.Canceled {
		t.Fatalf("unexpected result %+v", res)
	}
	if !sink.Closed {
		t.Fatal("expected sink to be closed")
	}
	if len(sink.Frames) != 15 {
		t.Fatalf("expected 15 frames written, got %d", len(sink.Frames))
	}
	for i := 11; i < 15; i++ {
		if !bytes.Equal(sink.Frames[i].Pix, input[i].Pix) {
			t.Fatalf("frame %d after the track ends should be untouched", i)
		}
	}
	// Frame 5 is redacted at the interpolated midpoint {60,10,20}.
	if bytes.Equal(sink.Frames[5].Pix, input[5].Pix) {
		t.Fatal("expected frame 5 to be redacted")
	}
	if sink.Frames[5].NRGBAAt(5, 40) != input[5].NRGBAAt(5, 40) {
		t.Fatal("pixel outside the interpolated rect changed")
	}
	if len(regions) != 15 || regions[0] != 1 || regions[10] != 1 || regions[11] != 0 {
		t.Fatalf("unexpected frame reports %v", regions)
	}
	if len(progress) != 15 || progress[14].Percent() != 100 {
		t.Fatalf("unexpected progress reports: %+v", progress[len(progress)-1])
	}
}

func TestRunAutoWithEmptyDetectorIsIdentity(t *testing.T) {
	input := testsupport.Sequence(6, 32, 32)
	sink := frames.NewCollector()
	proc, err := redact.NewProcessor(nil, detect.None{})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	res, err := pipeline.Run(context.Background(), frames.NewSliceSource(30, input...), sink, proc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Redacted != 0 || res.Frames != 6 {
		t.Fatalf("unexpected result %+v", res)
	}
	for i := range input {
		if !bytes.Equal(sink.Frames[i].Pix, input[i].Pix) {
			t.Fatalf("frame %d differs", i)
		}
	}
}

func TestRunEmptySource(t *testing.T) {
	sink := frames.NewCollector()
	res, err := pipeline.Run(context.Background(), frames.NewSliceSource(30), sink, guidedProcessor(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Frames != 0 || !sink.Closed {
		t.Fatalf("unexpected result %+v closed=%v", res, sink.Closed)
	}
}

func TestRunReadFailureIsFatal(t *testing.T) {
	readErr := errors.New("corrupt packet")
	src := frames.NewSliceSource(30, testsupport.Sequence(5, 16, 16)...).FailAt(3, readErr)
	sink := frames.NewCollector()

	res, err := pipeline.Run(context.Background(), src, sink, guidedProcessor(t))
	if !errors.Is(err, pipeline.ErrIO) || !errors.Is(err, readErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if !pipeline.IsFatal(err) || !res.Fatal {
		t.Fatal("expected fatal result")
	}
	if res.Frames != 3 || len(sink.Frames) != 3 {
		t.Fatalf("expected 3 frames before failure, got %d", res.Frames)
	}
	if !sink.Closed {
		t.Fatal("sink must be closed after a fatal error")
	}
}

func TestRunWriteFailureIsFatal(t *testing.T) {
	writeErr := errors.New("disk full")
	sink := frames.NewCollector().FailAt(2, writeErr)
	res, err := pipeline.Run(context.Background(), frames.NewSliceSource(30, testsupport.Sequence(5, 16, 16)...), sink, guidedProcessor(t))
	if !errors.Is(err, writeErr) || !res.Fatal {
		t.Fatalf("expected fatal write error, got %v (%+v)", err, res)
	}
	if res.Frames != 2 {
		t.Fatalf("expected 2 frames written, got %d", res.Frames)
	}
}

func TestRunDetectorFailureIsFatal(t *testing.T) {
	proc, err := redact.NewProcessor(nil, detect.Func(func(image.Image) ([]detect.Box, error) {
		return nil, errors.New("no model")
	}))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	sink := frames.NewCollector()
	res, err := pipeline.Run(context.Background(), frames.NewSliceSource(30, testsupport.Sequence(3, 8, 8)...), sink, proc)
	if !errors.Is(err, pipeline.ErrIO) || !errors.Is(err, redact.ErrDetector) {
		t.Fatalf("expected detector failure classified as i/o, got %v", err)
	}
	if !res.Fatal || res.Frames != 0 || !sink.Closed {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunCancellationAtFrameBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := frames.NewCollector()
	res, err := pipeline.Run(ctx, frames.NewSliceSource(30, testsupport.Sequence(10, 16, 16)...), sink, guidedProcessor(t),
		pipeline.WithProgress(func(p pipeline.Progress) {
			if p.Frame == 4 {
				cancel()
			}
		}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if pipeline.IsFatal(err) || res.Fatal || !res.Canceled {
		t.Fatalf("cancellation must not be fatal: %+v", res)
	}
	if res.Frames != 4 || len(sink.Frames) != 4 {
		t.Fatalf("expected the in-flight frame to be written before stopping, got %d", res.Frames)
	}
	if !sink.Closed {
		t.Fatal("expected sink to be closed on cancellation")
	}
}

func TestIsFatal(t *testing.T) {
	if pipeline.IsFatal(nil) || pipeline.IsFatal(context.Canceled) {
		t.Fatal("nil and cancellation are not fatal")
	}
	if !pipeline.IsFatal(&track.ValidationError{Reason: "x"}) {
		t.Fatal("validation errors are fatal")
	}
}

func TestProgressPercentUnknownTotal(t *testing.T) {
	if got := (pipeline.Progress{Frame: 3}).Percent(); got != -1 {
		t.Fatalf("expected -1 for unknown total, got %v", got)
	}
}
