package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"seen/internal/config"
	"seen/internal/logging"
	"seen/internal/queue"
	"seen/internal/textutil"
)

// JobLogger manages dedicated log files for individual jobs.
type JobLogger struct {
	baseDir string
	cfg     *config.Config
}

// NewJobLogger creates a job logger rooted at dir, or <log_dir>/jobs when dir
// is empty.
func NewJobLogger(cfg *config.Config, dir string) *JobLogger {
	if strings.TrimSpace(dir) == "" && cfg != nil && cfg.Paths.LogDir != "" {
		dir = JobLogDir(cfg)
	}
	return &JobLogger{baseDir: dir, cfg: cfg}
}

// JobLogDir returns the directory holding per-job log files.
func JobLogDir(cfg *config.Config) string {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "jobs")
}

// JobLogPath returns the log file for a job under dir.
func JobLogPath(dir string, item *queue.Item) string {
	if item == nil {
		return ""
	}
	name := fmt.Sprintf("job-%d", item.ID)
	if strings.TrimSpace(item.PublicID) != "" {
		name = textutil.SanitizeToken(item.PublicID)
	}
	return filepath.Join(dir, name+".log")
}

// Ensure prepares the log directory and returns the file path for a job.
func (j *JobLogger) Ensure(item *queue.Item) (string, error) {
	if item == nil {
		return "", fmt.Errorf("queue item is nil")
	}
	if strings.TrimSpace(j.baseDir) == "" {
		return "", fmt.Errorf("job log directory not configured")
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure job log directory: %w", err)
	}
	return JobLogPath(j.baseDir, item), nil
}

// CreateHandler builds a slog.Handler appending JSON records to path. The
// returned closer releases the file once the stage finishes.
func (j *JobLogger) CreateHandler(path string) (slog.Handler, io.Closer, error) {
	level := "info"
	if j.cfg != nil && strings.TrimSpace(j.cfg.Logging.Level) != "" {
		level = j.cfg.Logging.Level
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open job log: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: "json",
		Writer: file,
	})
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return logger.Handler(), file, nil
}
