// Package normalizing transcodes uploads into a uniform H.264 MP4.
//
// Uploads arrive in whatever container and codec the browser produced. The
// normalizer re-encodes them with ffmpeg so every later stage decodes the same
// kind of file, then probes the result for dimensions, frame rate, and frame
// count. A job moves from pending to normalized.
package normalizing
