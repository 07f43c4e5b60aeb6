// Package workflow advances jobs through the configured processing stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// jobs into registered stage handlers (normalizer, sampler, redactor) while
// capturing progress and failure metadata. It also aggregates queue stats,
// calls stage health checks, records stage metrics, and emits notifications
// when a job is ready for annotation, finishes, fails, or when the queue
// drains.
//
// The workflow runs two independent lanes: intake (normalize and sample an
// upload) and redaction (blur the annotated job). Each lane polls for jobs
// matching its statuses and processes them independently, so a long redaction
// never delays the workbench frames of a fresh upload.
//
// Every stage run logs to a per-job file under <log_dir>/jobs so operators can
// follow a single upload end to end.
package workflow
