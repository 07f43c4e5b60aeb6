package queue

import "errors"

// ErrorClassifier allows errors to declare their classification. The kind is
// persisted with a failed job so clients can tell bad input from broken tooling.
type ErrorClassifier interface {
	ErrorKind() string
}

var (
	// ErrNotFound is returned when a job lookup by public ID matches nothing.
	ErrNotFound = errors.New("job not found")
	// ErrNotAnnotatable is returned when a guide is submitted while the job is
	// still being processed.
	ErrNotAnnotatable = errors.New("job cannot be annotated in its current state")
)
