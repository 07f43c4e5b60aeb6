package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seen/internal/logging"
	"seen/internal/notifications"
	"seen/internal/queue"
)

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, logging.NewComponentLogger(m.baseLogger(), "workflow-manager"))
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification", logging.String("event", string(event)))
		} else {
			logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
		}
	}
}

func (m *Manager) notifyStageError(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	if stageErr == nil {
		return
	}
	m.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"error":   stageErr,
		"context": fmt.Sprintf("%s (job #%d)", stageName, item.ID),
		"source":  item.SourceName,
		"id":      item.PublicID,
	})
}

func (m *Manager) notifyStageDone(ctx context.Context, item *queue.Item) {
	switch item.Status {
	case queue.StatusSampled:
		m.publish(ctx, notifications.EventAwaitingAnnotation, notifications.Payload{
			"source": item.SourceName,
			"id":     item.PublicID,
		})
	case queue.StatusCompleted:
		m.publish(ctx, notifications.EventJobCompleted, notifications.Payload{
			"source":   item.SourceName,
			"id":       item.PublicID,
			"output":   item.OutputFile,
			"redacted": item.RedactedFrames,
		})
	}
}

func (m *Manager) onItemStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(m.baseLogger(), "queue stats unavailable for start notification; notification skipped", "queue_stats_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "start notification will not be sent"),
			)
		}
		return
	}
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.mu.Unlock()

	m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": countActiveItems(stats)})
}

func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(m.baseLogger(), "queue stats unavailable for completion notification; notification skipped", "queue_stats_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "completion notification will not be sent"),
			)
		}
		return
	}
	if active := countActiveItems(stats); active > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": stats[queue.StatusCompleted],
		"failed":    stats[queue.StatusFailed],
		"duration":  duration,
	})
}

// countActiveItems counts jobs the workflow can advance without operator
// input. Sampled jobs wait for an annotation and do not keep the queue busy.
func countActiveItems(stats map[queue.Status]int) int {
	activeStatuses := []queue.Status{
		queue.StatusPending,
		queue.StatusNormalizing,
		queue.StatusNormalized,
		queue.StatusSampling,
		queue.StatusAnnotated,
		queue.StatusRedacting,
	}
	total := 0
	for _, status := range activeStatuses {
		total += stats[status]
	}
	return total
}
