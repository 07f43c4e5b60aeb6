package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"seen/internal/logging"
	"seen/internal/queue"
	"seen/internal/services"
)

func (m *Manager) baseLogger() *slog.Logger {
	if m == nil || m.logger == nil {
		return logging.NewNop()
	}
	return m.logger
}

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	name := lane.name
	if name == "" {
		name = string(lane.kind)
	}
	return logging.NewComponentLogger(m.baseLogger(), fmt.Sprintf("workflow-%s-runner", name)).
		With(logging.String(logging.FieldLane, name))
}

// stageLoggerForJob returns a logger writing to the job's own log file. When
// the file cannot be opened the lane logger is used instead. The closer must
// be called once the stage finishes.
func (m *Manager) stageLoggerForJob(ctx context.Context, laneLogger *slog.Logger, item *queue.Item) (*slog.Logger, io.Closer) {
	base := laneLogger
	if base == nil {
		base = m.baseLogger()
	}
	var closer io.Closer = nopCloser{}

	if item != nil && m.jobLogs != nil {
		path, err := m.jobLogs.Ensure(item)
		if err != nil {
			base.Warn("job log unavailable", logging.Error(err))
		} else if handler, c, logErr := m.jobLogs.CreateHandler(path); logErr != nil {
			base.Warn("failed to create job log writer", logging.Error(logErr))
		} else {
			base = slog.New(handler).With(logging.String(logging.FieldPublicID, item.PublicID))
			closer = c
		}
	}

	return logging.WithContext(ctx, base), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func withStageContext(ctx context.Context, lane *laneState, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithJobID(ctx, item.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if lane != nil {
		laneLabel := strings.TrimSpace(lane.name)
		if laneLabel == "" {
			laneLabel = string(lane.kind)
		}
		ctx = services.WithLane(ctx, laneLabel)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

// deriveStageLabel turns a status into the human label shown as progress stage.
func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}
