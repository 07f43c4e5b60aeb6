// Package redact blurs regions of video frames.
//
// Redactor applies a fixed Gaussian kernel to the part of a region that lies
// inside the frame. Regions that fall entirely outside are ignored without
// error. The kernel is independent of the region size; guided regions and
// detector boxes each get their own kernel so auto mode can use a tighter,
// stronger blur.
//
// Processor selects the mode once, at construction: guided when keyframe
// tracks are supplied, auto (detector driven) otherwise. It never changes mode
// mid-run.
package redact
