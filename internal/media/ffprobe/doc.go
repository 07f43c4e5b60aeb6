// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: video stream geometry, frame rate, and frame count
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes captured ffprobe JSON
//
// Frame rates are reported by ffprobe as rationals ("30000/1001"); Stream.FrameRate
// converts them and treats malformed values as unknown.
package ffprobe
