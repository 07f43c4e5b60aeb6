// Package logs reads per-job log files for the daemon's log endpoint.
//
// Tail returns either the last N lines of a file or everything written after a
// byte offset, and can wait for new lines so clients can follow a running job
// by passing back the offset from the previous call.
package logs
