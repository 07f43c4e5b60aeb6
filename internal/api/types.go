package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a job in a transport-friendly format.
type QueueItem struct {
	ID             int64         `json:"id"`
	PublicID       string        `json:"publicId"`
	SourceName     string        `json:"sourceName"`
	Status         string        `json:"status"`
	StageLabel     string        `json:"stageLabel"`
	ProcessingLane string        `json:"processingLane"`
	Mode           string        `json:"mode,omitempty"`
	Progress       QueueProgress `json:"progress"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	ErrorKind      string        `json:"errorKind,omitempty"`
	Width          int           `json:"width,omitempty"`
	Height         int           `json:"height,omitempty"`
	FrameRate      float64       `json:"frameRate,omitempty"`
	FrameCount     int           `json:"frameCount,omitempty"`
	SampleHz       float64       `json:"sampleHz,omitempty"`
	SampleEvery    int           `json:"sampleEvery,omitempty"`
	SampledFrames  int           `json:"sampledFrames,omitempty"`
	RedactedFrames int           `json:"redactedFrames,omitempty"`
	OutputName     string        `json:"outputName,omitempty"`
	DownloadReady  bool          `json:"downloadReady"`
	CreatedAt      string        `json:"createdAt,omitempty"`
	UpdatedAt      string        `json:"updatedAt,omitempty"`
}

// QueueProgress captures stage progress information for a job.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Lanes       []string       `json:"lanes,omitempty"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueListResponse wraps a collection of jobs.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single job.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// UploadResponse is returned after a video is accepted.
type UploadResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// WorkbenchFrame is one sampled frame, JPEG bytes in base64.
type WorkbenchFrame struct {
	FrameID int    `json:"frameId"`
	Image   string `json:"image"`
}

// WorkbenchResponse carries everything a client needs to place keyframes.
// Frame IDs index the full-rate video; Scale maps workbench pixels back to
// video pixels.
type WorkbenchResponse struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	SampleHz    float64          `json:"sampleHz"`
	SampleEvery int              `json:"sampleEvery"`
	FrameRate   float64          `json:"frameRate"`
	FrameCount  int              `json:"frameCount"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Scale       float64          `json:"scale"`
	Frames      []WorkbenchFrame `json:"frames"`
}

// AnnotateRequest submits guide data for a job. Guides holds the track list
// (or a {"guides": [...]} document); GuidesJSON carries the same content as a
// string for older clients.
type AnnotateRequest struct {
	ID         string          `json:"id"`
	Guides     json.RawMessage `json:"guides,omitempty"`
	GuidesJSON string          `json:"guidesJson,omitempty"`
}

// ActionResponse reports the job state after an action.
type ActionResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// JobLogResponse carries log lines for one job. Offset is passed back to
// continue reading where this response ended.
type JobLogResponse struct {
	ID     string   `json:"id"`
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NotifyResponse reports the outcome of a test notification.
type NotifyResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
