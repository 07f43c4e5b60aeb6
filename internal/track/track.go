package track

import (
	"fmt"
	"image"
	"slices"
	"strconv"
	"strings"
)

// Rect is a square redaction region anchored at its top-left corner.
type Rect struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Size int `json:"size"`
}

// Region returns the half-open pixel area [X, X+Size) x [Y, Y+Size).
func (r Rect) Region() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Size, r.Y+r.Size)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d size %d)", r.X, r.Y, r.Size)
}

// Keyframe is an authoritative rect sample at a frame index.
type Keyframe struct {
	FrameIndex int  `json:"frameId"`
	Rect       Rect `json:"rect"`
}

// Track is one region's keyframes sorted by frame index. The zero value is
// not usable; build tracks with NewTrack or Builder.
type Track struct {
	id        string
	keyframes []Keyframe
}

// NewTrack validates and sorts keyframes into a Track. The input slice is
// copied, so callers may reuse it.
func NewTrack(id string, keyframes []Keyframe) (Track, error) {
	id = strings.TrimSpace(id)
	if len(keyframes) == 0 {
		return Track{}, newValidationError(id, "track has no keyframes")
	}

	sorted := slices.Clone(keyframes)
	slices.SortStableFunc(sorted, func(a, b Keyframe) int {
		return a.FrameIndex - b.FrameIndex
	})

	for i, kf := range sorted {
		if kf.FrameIndex < 0 {
			return Track{}, newValidationError(id, fmt.Sprintf("keyframe index %d is negative", kf.FrameIndex))
		}
		if kf.Rect.Size <= 0 {
			return Track{}, newValidationError(id, fmt.Sprintf("keyframe %d has non-positive size %d", kf.FrameIndex, kf.Rect.Size))
		}
		if i > 0 && sorted[i-1].FrameIndex == kf.FrameIndex {
			return Track{}, newValidationError(id, fmt.Sprintf("duplicate keyframe index %d", kf.FrameIndex))
		}
	}

	return Track{id: id, keyframes: sorted}, nil
}

// ID returns the track identifier.
func (t Track) ID() string {
	return t.id
}

// Len reports the number of keyframes.
func (t Track) Len() int {
	return len(t.keyframes)
}

// Keyframes returns a copy of the sorted keyframes.
func (t Track) Keyframes() []Keyframe {
	return slices.Clone(t.keyframes)
}

// Span returns the first and last keyframe indices. ok is false for the zero Track.
func (t Track) Span() (first, last int, ok bool) {
	if len(t.keyframes) == 0 {
		return 0, 0, false
	}
	return t.keyframes[0].FrameIndex, t.keyframes[len(t.keyframes)-1].FrameIndex, true
}

// Builder accumulates keyframes for a track in any order. Build sorts and
// validates; the builder itself never exposes an unvalidated track.
type Builder struct {
	id        string
	keyframes []Keyframe
}

// NewBuilder starts a builder for the given track identifier.
func NewBuilder(id string) *Builder {
	return &Builder{id: id}
}

// Add appends a keyframe.
func (b *Builder) Add(frameIndex int, rect Rect) *Builder {
	b.keyframes = append(b.keyframes, Keyframe{FrameIndex: frameIndex, Rect: rect})
	return b
}

// Build returns the validated track.
func (b *Builder) Build() (Track, error) {
	return NewTrack(b.id, b.keyframes)
}

// TrackSet is the read-only collection of tracks for one run.
type TrackSet struct {
	tracks []Track
}

// NewTrackSet groups tracks in declaration order. An empty set or a repeated
// track ID is a validation error. Tracks with an empty ID are assigned their
// 1-based position so log output can still reference them.
func NewTrackSet(tracks ...Track) (TrackSet, error) {
	if len(tracks) == 0 {
		return TrackSet{}, newValidationError("", "guide data contains no tracks")
	}
	seen := make(map[string]struct{}, len(tracks))
	out := make([]Track, 0, len(tracks))
	for i, t := range tracks {
		if len(t.keyframes) == 0 {
			return TrackSet{}, newValidationError(t.id, "track has no keyframes")
		}
		if t.id == "" {
			t.id = strconv.Itoa(i + 1)
		}
		if _, dup := seen[t.id]; dup {
			return TrackSet{}, newValidationError(t.id, "duplicate track id")
		}
		seen[t.id] = struct{}{}
		out = append(out, t)
	}
	return TrackSet{tracks: out}, nil
}

// Tracks returns the tracks in declaration order.
func (s TrackSet) Tracks() []Track {
	return slices.Clone(s.tracks)
}

// Len reports the number of tracks.
func (s TrackSet) Len() int {
	return len(s.tracks)
}

// LastFrame returns the highest keyframe index across all tracks.
func (s TrackSet) LastFrame() int {
	last := 0
	for _, t := range s.tracks {
		if _, end, ok := t.Span(); ok && end > last {
			last = end
		}
	}
	return last
}
