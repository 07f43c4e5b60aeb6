// Package metrics exposes Prometheus collectors for the redaction daemon.
//
// Collectors are registered on the default registry at init time and served
// by the daemon API under /metrics.
package metrics
