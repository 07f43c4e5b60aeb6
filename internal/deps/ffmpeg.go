package deps

import (
	"fmt"
	"os"
	"strings"

	"seen/internal/config"
	"seen/internal/detect"
)

// Requirements lists the external binaries the configured workflow executes.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Decodes uploads and encodes redacted output",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Reads stream dimensions and frame rate",
		},
	}
}

// Check evaluates every requirement for cfg, including the optional face
// cascade used by automatic redaction.
func Check(cfg *config.Config) []Status {
	results := CheckBinaries(Requirements(cfg))
	if cfg != nil {
		results = append(results, checkCascade(cfg.Redaction.CascadePath))
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(results []Status) []Status {
	var missing []Status
	for _, status := range results {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func checkCascade(path string) Status {
	status := Status{
		Name:        "Face cascade",
		Command:     strings.TrimSpace(path),
		Description: "Haar cascade for automatic face redaction",
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "cascade_path not configured; automatic redaction disabled"
		return status
	}
	info, err := os.Stat(status.Command)
	switch {
	case !detect.CascadeSupported:
		status.Detail = "built without face detection; rebuild with -tags gocv"
	case err != nil:
		status.Detail = fmt.Sprintf("cascade %q not readable: %v", status.Command, err)
	case info.IsDir():
		status.Detail = fmt.Sprintf("cascade %q is a directory", status.Command)
	default:
		status.Available = true
	}
	return status
}
