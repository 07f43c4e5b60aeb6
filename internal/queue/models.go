package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusNormalizing Status = "normalizing"
	StatusNormalized  Status = "normalized"
	StatusSampling    Status = "sampling"
	StatusSampled     Status = "sampled"
	StatusAnnotated   Status = "annotated"
	StatusRedacting   Status = "redacting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusNormalizing,
	StatusNormalized,
	StatusSampling,
	StatusSampled,
	StatusAnnotated,
	StatusRedacting,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusNormalizing: {},
	StatusSampling:    {},
	StatusRedacting:   {},
}

// annotatableStatuses lists the states from which a guide may be (re)submitted.
var annotatableStatuses = []Status{
	StatusNormalized,
	StatusSampled,
	StatusCompleted,
	StatusFailed,
}

// Mode selects how a job's frames are redacted.
type Mode string

const (
	ModeNone   Mode = ""
	ModeGuided Mode = "guided"
	ModeAuto   Mode = "auto"
)


// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Awaiting   int
	Failed     int
	Completed  int
}

// Item represents a redaction job persisted in SQLite.
type Item struct {
	ID       int64
	PublicID string
	// SourceName is the sanitized file name the client uploaded.
	SourceName string
	SourcePath string
	// ClientAddr is the uploading client's address; downloads are limited to it.
	ClientAddr     string
	Status         Status
	Mode           Mode
	NormalizedFile string
	FramesDir      string
	OutputFile     string
	// GuideData holds the submitted guide document as JSON.
	GuideData       string
	Width           int
	Height          int
	FrameRate       float64
	FrameCount      int
	RedactedFrames  int
	SampleHz        float64
	SampleEvery     int
	SampledFrames   int
	ErrorMessage    string
	ErrorKind       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// HasRedactionPlan reports whether the job carries enough to run redaction
// without another submission.
func (i Item) HasRedactionPlan() bool {
	switch i.Mode {
	case ModeAuto:
		return i.NormalizedFile != ""
	case ModeGuided:
		return i.NormalizedFile != "" && strings.TrimSpace(i.GuideData) != ""
	default:
		return false
	}
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
	i.ErrorKind = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message and kind.
func (i *Item) SetFailed(message, kind string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ErrorKind = kind
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "uploaded"
	case StatusSampled:
		return "awaiting_annotation"
	case StatusCompleted:
		return "final"
	case StatusNormalizing,
		StatusNormalized,
		StatusSampling,
		StatusAnnotated,
		StatusRedacting,
		StatusFailed:
		return string(s)
	default:
		return ""
	}
}

// ProcessingLane partitions the workflow into intake work (normalize and
// sample an upload) and redaction work.
type ProcessingLane string

const (
	LaneIntake    ProcessingLane = "intake"
	LaneRedaction ProcessingLane = "redaction"
)

// LaneForItem maps a job to its processing lane for observability purposes.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneIntake
	}
	switch item.Status {
	case StatusPending, StatusNormalizing, StatusNormalized, StatusSampling, StatusSampled:
		return LaneIntake
	case StatusAnnotated, StatusRedacting, StatusCompleted:
		return LaneRedaction
	case StatusFailed:
		if item.Mode != ModeNone {
			return LaneRedaction
		}
		return LaneIntake
	default:
		return LaneIntake
	}
}
