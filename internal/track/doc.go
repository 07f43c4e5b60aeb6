// Package track models operator-authored keyframe tracks and resolves the
// redaction rectangle each track contributes to a given frame.
//
// A Track is an immutable, index-sorted list of keyframes describing one
// square region over time. Construction validates the input (non-empty, no
// duplicate frame indices, positive sizes) and reports problems as a
// *ValidationError before any frame is processed. A TrackSet groups the
// independent tracks of one run in declaration order.
//
// ActiveRect and ActiveRects implement the interpolation rules: exact keyframe
// matches are returned verbatim, frames strictly between two keyframes are
// linearly interpolated with truncation toward zero, and frames outside the
// track's span (including frame 0 without a keyframe at 0) yield nothing.
package track
