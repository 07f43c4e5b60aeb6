// Package notifications delivers job lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Event types cover
// the milestones an operator cares about: a job waiting for annotation, a job
// finished or failed, and the queue draining.
//
// Workflow code depends only on the Service interface.
package notifications
