// Package daemon hosts the long-running seen service.
//
// A Daemon owns the single-instance lock, the workflow manager that drives
// jobs through normalization, sampling, and redaction, and the HTTP API that
// clients use to upload videos, fetch workbench frames, submit guides, and
// download results. Downloads are served only to the client address that
// uploaded the video.
package daemon
