// Package sampling writes the annotation workbench frames for a job.
//
// The operator annotates a decimated subset of the normalized video: every
// SampleEvery(fps, hz)-th frame is saved as "<frame index>.jpg", scaled down
// to fit the workbench. Guide keyframes reference these indices, so the
// decimation contract must match what the redaction stage interpolates over.
// A job moves from normalized to sampled.
package sampling
