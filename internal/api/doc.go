// Package api defines the wire-format types shared by the daemon's HTTP
// handlers and the CLI client. It translates internal queue models into
// transport-friendly DTOs so consumers never couple to queue internals.
//
// # Key Types
//
// QueueItem: transport representation of a job with progress, stream details,
// and redaction results.
//
// WorkflowStatus / DaemonStatus: runtime state, queue stats, stage health, and
// dependency availability.
//
// WorkbenchResponse: the sampled frames a client annotates, base64 encoded.
//
// AnnotateRequest: a guide submission. Field names match case-insensitively,
// so both {"id","guides":[...]} and the legacy {"Id","GuidesJson":"..."}
// bodies decode.
//
// # Converters
//
// FromQueueItem, FromQueueItems, FromStatusSummary, StageHealthSlice.
//
// # Client
//
// Client wraps the HTTP endpoints for CLI commands that talk to a running
// daemon.
package api
