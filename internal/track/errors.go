package track

import "fmt"

// ValidationError reports malformed keyframe or guide data. It is fatal for a
// run and is always raised before the first frame is processed.
type ValidationError struct {
	TrackID string
	Reason  string
}

func newValidationError(trackID, reason string) *ValidationError {
	return &ValidationError{TrackID: trackID, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("invalid guide data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid track %q: %s", e.TrackID, e.Reason)
}

// ErrorKind classifies the error for queue status mapping.
func (e *ValidationError) ErrorKind() string {
	return "validation"
}
