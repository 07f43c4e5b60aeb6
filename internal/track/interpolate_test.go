package track_test

import (
	"testing"

	"seen/internal/track"
)

func TestActiveRectMidpoint(t *testing.T) {
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 0, Rect: track.Rect{X: 10, Y: 10, Size: 20}},
		track.Keyframe{FrameIndex: 10, Rect: track.Rect{X: 110, Y: 10, Size: 20}},
	)

	got, ok := track.ActiveRect(tr, 5)
	if !ok {
		t.Fatal("expected active rect at frame 5")
	}
	want := track.Rect{X: 60, Y: 10, Size: 20}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestActiveRectExactKeyframes(t *testing.T) {
	r0 := track.Rect{X: 7, Y: 3, Size: 33}
	r1 := track.Rect{X: 91, Y: 250, Size: 17}
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 13, Rect: r0},
		track.Keyframe{FrameIndex: 41, Rect: r1},
	)

	if got, ok := track.ActiveRect(tr, 13); !ok || got != r0 {
		t.Fatalf("frame 13: expected %v, got %v (ok=%v)", r0, got, ok)
	}
	if got, ok := track.ActiveRect(tr, 41); !ok || got != r1 {
		t.Fatalf("frame 41: expected %v, got %v (ok=%v)", r1, got, ok)
	}
}

func TestActiveRectWithinBounds(t *testing.T) {
	r0 := track.Rect{X: -40, Y: 300, Size: 12}
	r1 := track.Rect{X: 25, Y: -7, Size: 90}
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 2, Rect: r0},
		track.Keyframe{FrameIndex: 39, Rect: r1},
	)

	for frame := 3; frame < 39; frame++ {
		got, ok := track.ActiveRect(tr, frame)
		if !ok {
			t.Fatalf("frame %d: expected active rect", frame)
		}
		checkWithin(t, frame, "x", got.X, r0.X, r1.X)
		checkWithin(t, frame, "y", got.Y, r0.Y, r1.Y)
		checkWithin(t, frame, "size", got.Size, r0.Size, r1.Size)
	}
}

func checkWithin(t *testing.T, frame int, name string, value, a, b int) {
	t.Helper()
	lo, hi := min(a, b), max(a, b)
	if value < lo || value > hi {
		t.Fatalf("frame %d: %s=%d outside [%d, %d]", frame, name, value, lo, hi)
	}
}

func TestActiveRectTruncatesTowardZero(t *testing.T) {
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 1, Rect: track.Rect{X: 0, Y: 0, Size: 10}},
		track.Keyframe{FrameIndex: 4, Rect: track.Rect{X: 10, Y: -10, Size: 11}},
	)

	// scalar 1/3: x=3.33 -> 3, y=-3.33 -> -3, size=10.33 -> 10
	got, ok := track.ActiveRect(tr, 2)
	if !ok {
		t.Fatal("expected active rect")
	}
	want := track.Rect{X: 3, Y: -3, Size: 10}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestActiveRectOutsideSpan(t *testing.T) {
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 5, Rect: track.Rect{X: 1, Y: 1, Size: 4}},
		track.Keyframe{FrameIndex: 9, Rect: track.Rect{X: 9, Y: 9, Size: 4}},
	)

	for _, frame := range []int{-1, 0, 1, 4, 10, 1000} {
		if got, ok := track.ActiveRect(tr, frame); ok {
			t.Fatalf("frame %d: expected no rect, got %v", frame, got)
		}
	}
}

func TestActiveRectFrameZeroBoundary(t *testing.T) {
	late := mustTrack(t, "late",
		track.Keyframe{FrameIndex: 3, Rect: track.Rect{X: 1, Y: 1, Size: 4}},
	)
	if _, ok := track.ActiveRect(late, 0); ok {
		t.Fatal("frame 0 must not be covered without a keyframe at 0")
	}

	atZero := mustTrack(t, "zero",
		track.Keyframe{FrameIndex: 0, Rect: track.Rect{X: 4, Y: 4, Size: 4}},
		track.Keyframe{FrameIndex: 8, Rect: track.Rect{X: 12, Y: 4, Size: 4}},
	)
	if got, ok := track.ActiveRect(atZero, 0); !ok || got != (track.Rect{X: 4, Y: 4, Size: 4}) {
		t.Fatalf("expected exact keyframe at 0, got %v (ok=%v)", got, ok)
	}
}

func TestActiveRectSingleKeyframe(t *testing.T) {
	tr := mustTrack(t, "a", track.Keyframe{FrameIndex: 6, Rect: track.Rect{X: 2, Y: 2, Size: 2}})

	if _, ok := track.ActiveRect(tr, 6); !ok {
		t.Fatal("expected exact match on single keyframe")
	}
	for _, frame := range []int{5, 7} {
		if _, ok := track.ActiveRect(tr, frame); ok {
			t.Fatalf("frame %d: single keyframe must not spread", frame)
		}
	}
}

func TestActiveRectMultiSegment(t *testing.T) {
	tr := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 0, Rect: track.Rect{X: 0, Y: 0, Size: 10}},
		track.Keyframe{FrameIndex: 10, Rect: track.Rect{X: 100, Y: 0, Size: 10}},
		track.Keyframe{FrameIndex: 20, Rect: track.Rect{X: 100, Y: 100, Size: 30}},
	)

	tests := []struct {
		frame int
		want  track.Rect
	}{
		{frame: 5, want: track.Rect{X: 50, Y: 0, Size: 10}},
		{frame: 10, want: track.Rect{X: 100, Y: 0, Size: 10}},
		{frame: 15, want: track.Rect{X: 100, Y: 50, Size: 20}},
		{frame: 19, want: track.Rect{X: 100, Y: 90, Size: 28}},
	}
	for _, tc := range tests {
		got, ok := track.ActiveRect(tr, tc.frame)
		if !ok || got != tc.want {
			t.Fatalf("frame %d: expected %v, got %v (ok=%v)", tc.frame, tc.want, got, ok)
		}
	}
}

func TestActiveRectsOrderAndOmission(t *testing.T) {
	a := mustTrack(t, "a",
		track.Keyframe{FrameIndex: 0, Rect: track.Rect{X: 0, Y: 0, Size: 10}},
		track.Keyframe{FrameIndex: 10, Rect: track.Rect{X: 10, Y: 0, Size: 10}},
	)
	b := mustTrack(t, "b",
		track.Keyframe{FrameIndex: 4, Rect: track.Rect{X: 5, Y: 5, Size: 10}},
		track.Keyframe{FrameIndex: 6, Rect: track.Rect{X: 5, Y: 5, Size: 10}},
	)
	set, err := track.NewTrackSet(a, b)
	if err != nil {
		t.Fatalf("NewTrackSet: %v", err)
	}

	got := track.ActiveRects(set, 5)
	if len(got) != 2 || got[0].TrackID != "a" || got[1].TrackID != "b" {
		t.Fatalf("expected both tracks in declaration order, got %+v", got)
	}

	got = track.ActiveRects(set, 8)
	if len(got) != 1 || got[0].TrackID != "a" {
		t.Fatalf("expected only track a at frame 8, got %+v", got)
	}

	if got := track.ActiveRects(set, 11); len(got) != 0 {
		t.Fatalf("expected no rects after both tracks end, got %+v", got)
	}
}
