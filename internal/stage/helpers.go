package stage

import (
	"strings"

	"seen/internal/guide"
	"seen/internal/services"
	"seen/internal/track"
)

// ParseGuide decodes the JSON guide stored on a job.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseGuide(raw string) (track.TrackSet, error) {
	set, err := guide.Decode(strings.NewReader(raw), guide.FormatJSON)
	if err != nil {
		return track.TrackSet{}, services.Wrap(
			services.ErrValidation, "stage", "parse guide",
			"Guide data missing or invalid; resubmit the annotation", err)
	}
	return set, nil
}
