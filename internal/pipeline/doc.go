// Package pipeline drives a redaction run: read a frame, redact it, write it,
// repeat until the source is exhausted.
//
// Run is single threaded and processes frames in ascending order. It observes
// context cancellation only between frames, so the frame in flight is always
// written before the run stops. Any read, write, or detector failure is fatal
// and marked with ErrIO; the sink is still closed so partial output is
// flushed. Result reports how the run ended.
package pipeline
