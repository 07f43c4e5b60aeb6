// Package services defines shared utilities consumed by the workflow stage
// handlers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, lanes, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures so
//     the queue can record why a job failed.
//
// Use these helpers when wiring new stage logic so operational behaviour stays
// uniform across the pipeline.
package services
