package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"seen/internal/logging"
	"seen/internal/queue"
	"seen/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stageName string, item *queue.Item, stageErr error) {
	logger := stageLogger
	if logger == nil {
		logger = logging.WithContext(ctx, m.baseLogger())
	}
	logger = logging.NewComponentLogger(logger, "workflow-manager")

	message := classifyStageFailure(stageName, stageErr)
	kind := services.Kind(stageErr)
	item.SetFailed(message, kind)

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("resolved_status", string(services.FailureStatus(stageErr))),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.String("error_kind", kind),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	m.notifyStageError(ctx, stageName, item, stageErr)
	m.checkQueueCompletion(ctx)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = stageFailureMessage(stageName, "failed")
	}
	return message
}

func stageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

func failureHint(kind string) string {
	switch kind {
	case "validation":
		return "fix the guide data and resubmit the annotation"
	case "configuration":
		return "check config.toml and restart the daemon"
	case "external_tool":
		return "check ffmpeg output in the job log, then run seen queue retry"
	case "not_found":
		return "the uploaded file is missing; upload it again"
	default:
		return "run seen queue retry once the cause is resolved"
	}
}
