// Package frames moves decoded video frames between the redaction pipeline and
// the outside world.
//
// Frames are *image.NRGBA buffers with a fixed size for the whole session. A
// Source yields them in ascending order and signals the end of the stream with
// ErrExhausted, which callers must treat as normal termination rather than a
// read failure. A Sink accepts frames in the same order; Close flushes and
// finalizes the output and is safe to call once after any error.
//
// Buffer ownership: the frame returned by Source.Next is valid until the next
// call to Next. Sinks must not retain the frame after Write returns; Collector
// copies it.
//
// Implementations:
//   - FFmpegSource / FFmpegSink: rawvideo RGBA pipes to an ffmpeg process
//   - SliceSource / Collector: in-memory frames for tests and tooling
package frames
