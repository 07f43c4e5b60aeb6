// Package redacting implements the stage that turns an annotated job into a
// redacted video.
//
// Guided jobs decode the stored guide into keyframe tracks; auto jobs build
// the face cascade detector. Either way the normalized file is decoded frame
// by frame, redacted, and re-encoded next to it in the job directory. Progress
// is persisted as frames are written so the API and CLI can follow along.
package redacting
