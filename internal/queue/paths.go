package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"seen/internal/textutil"
)

// WorkDir returns the per-job directory rooted at base. The public ID is used
// when present; otherwise it falls back to job-{ID}.
func (i Item) WorkDir(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := strings.TrimSpace(i.PublicID)
	if segment == "" {
		segment = fmt.Sprintf("job-%d", i.ID)
	}
	return filepath.Join(base, textutil.SanitizeToken(segment))
}

// OutputName returns the download file name offered to clients.
func (i Item) OutputName() string {
	stem := textutil.Stem(i.SourceName)
	if stem == "unknown" {
		stem = "video"
	}
	return stem + "-redacted.mp4"
}
