package track

// Placement is a rect contributed by a named track for one frame.
type Placement struct {
	TrackID string
	Rect    Rect
}

// ActiveRect resolves the rect a track covers at frameIndex.
//
// Exact keyframe matches win. Frame 0 is a track-start boundary: it is only
// covered by a keyframe at 0, never by interpolation. Frames before the first
// keyframe or after the last are not covered.
func ActiveRect(t Track, frameIndex int) (Rect, bool) {
	if frameIndex < 0 {
		return Rect{}, false
	}
	for i, kf := range t.keyframes {
		if kf.FrameIndex == frameIndex {
			return kf.Rect, true
		}
		if frameIndex == 0 {
			return Rect{}, false
		}
		if kf.FrameIndex > frameIndex {
			if i == 0 {
				return Rect{}, false
			}
			return between(t.keyframes[i-1], kf, frameIndex), true
		}
	}
	return Rect{}, false
}

// ActiveRects resolves every track in declaration order, omitting tracks that
// are inactive at frameIndex. Overlapping rects are kept as-is.
func ActiveRects(s TrackSet, frameIndex int) []Placement {
	var out []Placement
	for _, t := range s.tracks {
		if rect, ok := ActiveRect(t, frameIndex); ok {
			out = append(out, Placement{TrackID: t.id, Rect: rect})
		}
	}
	return out
}

// between linearly blends a and b; each component is truncated toward zero.
func between(a, b Keyframe, frameIndex int) Rect {
	scalar := float64(frameIndex-a.FrameIndex) / float64(b.FrameIndex-a.FrameIndex)
	return Rect{
		X:    lerp(a.Rect.X, b.Rect.X, scalar),
		Y:    lerp(a.Rect.Y, b.Rect.Y, scalar),
		Size: lerp(a.Rect.Size, b.Rect.Size, scalar),
	}
}

func lerp(from, to int, scalar float64) int {
	return int(float64(from) + float64(to-from)*scalar)
}
