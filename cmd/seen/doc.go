// Package main hosts the seen CLI.
//
// Local commands (redact, sample) run the redaction pipeline directly against
// files on disk. Queue commands open the job database without going through
// the daemon, so they work whether or not seend is running. Upload, annotate,
// autoblur, download, and status talk to the daemon's HTTP API.
package main
