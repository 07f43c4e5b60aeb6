package track_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seen/internal/track"
)

func TestNewTrackSortsKeyframes(t *testing.T) {
	tr, err := track.NewTrack("face", []track.Keyframe{
		{FrameIndex: 20, Rect: track.Rect{X: 3, Y: 3, Size: 3}},
		{FrameIndex: 0, Rect: track.Rect{X: 1, Y: 1, Size: 1}},
		{FrameIndex: 10, Rect: track.Rect{X: 2, Y: 2, Size: 2}},
	})
	if err != nil {
		t.Fatalf("NewTrack returned error: %v", err)
	}

	got := tr.Keyframes()
	want := []track.Keyframe{
		{FrameIndex: 0, Rect: track.Rect{X: 1, Y: 1, Size: 1}},
		{FrameIndex: 10, Rect: track.Rect{X: 2, Y: 2, Size: 2}},
		{FrameIndex: 20, Rect: track.Rect{X: 3, Y: 3, Size: 3}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keyframes mismatch (-want +got):\n%s", diff)
	}
	first, last, ok := tr.Span()
	if !ok || first != 0 || last != 20 {
		t.Fatalf("unexpected span: %d %d %v", first, last, ok)
	}
}

func TestNewTrackDoesNotAliasInput(t *testing.T) {
	input := []track.Keyframe{{FrameIndex: 5, Rect: track.Rect{X: 1, Y: 1, Size: 4}}}
	tr, err := track.NewTrack("a", input)
	if err != nil {
		t.Fatalf("NewTrack returned error: %v", err)
	}
	input[0].Rect.X = 99

	if got, _ := track.ActiveRect(tr, 5); got.X != 1 {
		t.Fatalf("track mutated through caller slice: %+v", got)
	}
}

func TestNewTrackValidation(t *testing.T) {
	tests := []struct {
		name      string
		keyframes []track.Keyframe
	}{
		{name: "empty", keyframes: nil},
		{
			name: "duplicate index",
			keyframes: []track.Keyframe{
				{FrameIndex: 4, Rect: track.Rect{Size: 10}},
				{FrameIndex: 4, Rect: track.Rect{Size: 12}},
			},
		},
		{
			name:      "zero size",
			keyframes: []track.Keyframe{{FrameIndex: 1, Rect: track.Rect{Size: 0}}},
		},
		{
			name:      "negative size",
			keyframes: []track.Keyframe{{FrameIndex: 1, Rect: track.Rect{Size: -4}}},
		},
		{
			name:      "negative index",
			keyframes: []track.Keyframe{{FrameIndex: -1, Rect: track.Rect{Size: 4}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := track.NewTrack("t", tc.keyframes)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var vErr *track.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if vErr.ErrorKind() != "validation" {
				t.Fatalf("unexpected error kind %q", vErr.ErrorKind())
			}
		})
	}
}

func TestBuilderRevalidates(t *testing.T) {
	b := track.NewBuilder("plate").
		Add(30, track.Rect{X: 30, Y: 0, Size: 8}).
		Add(10, track.Rect{X: 10, Y: 0, Size: 8})

	tr, err := b.Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if first, last, _ := tr.Span(); first != 10 || last != 30 {
		t.Fatalf("expected sorted span 10..30, got %d..%d", first, last)
	}

	b.Add(10, track.Rect{X: 1, Y: 1, Size: 1})
	if _, err := b.Build(); err == nil {
		t.Fatal("expected duplicate index to fail on rebuild")
	}
}

func TestNewTrackSet(t *testing.T) {
	a := mustTrack(t, "", track.Keyframe{FrameIndex: 0, Rect: track.Rect{Size: 1}})
	b := mustTrack(t, "", track.Keyframe{FrameIndex: 3, Rect: track.Rect{Size: 1}})

	set, err := track.NewTrackSet(a, b)
	if err != nil {
		t.Fatalf("NewTrackSet returned error: %v", err)
	}
	tracks := set.Tracks()
	if tracks[0].ID() != "1" || tracks[1].ID() != "2" {
		t.Fatalf("expected positional ids, got %q %q", tracks[0].ID(), tracks[1].ID())
	}
	if set.LastFrame() != 3 {
		t.Fatalf("expected last frame 3, got %d", set.LastFrame())
	}

	if _, err := track.NewTrackSet(); err == nil {
		t.Fatal("expected empty track set to fail")
	}
	named := mustTrack(t, "x", track.Keyframe{FrameIndex: 0, Rect: track.Rect{Size: 1}})
	if _, err := track.NewTrackSet(named, named); err == nil {
		t.Fatal("expected duplicate track ids to fail")
	}
	if _, err := track.NewTrackSet(track.Track{}); err == nil {
		t.Fatal("expected zero track to fail")
	}
}

func mustTrack(t *testing.T, id string, keyframes ...track.Keyframe) track.Track {
	t.Helper()
	tr, err := track.NewTrack(id, keyframes)
	if err != nil {
		t.Fatalf("NewTrack(%q): %v", id, err)
	}
	return tr
}
