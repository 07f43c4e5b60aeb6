package queue

import (
	"context"
	"fmt"
	"time"
)

// rollbackCase maps each in-flight status to the resting status that precedes it.
const rollbackCase = `CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END`

func rollbackArgs() []any {
	return []any{
		StatusNormalizing, StatusPending,
		StatusSampling, StatusNormalized,
		StatusRedacting, StatusAnnotated,
	}
}

func inFlightArgs() []any {
	return []any{StatusNormalizing, StatusSampling, StatusRedacting}
}

// ResetStuckProcessing returns in-flight jobs to the start of their current stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	args := rollbackArgs()
	args = append(args, now())
	args = append(args, inFlightArgs()...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = `+rollbackCase+`,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	timestamp := now()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		timestamp,
		timestamp,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns in-flight jobs whose heartbeat expired to the
// start of their current stage. With no statuses every in-flight status is
// considered; non-processing statuses are ignored.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	filter := make([]Status, 0, len(processingStatuses))
	if len(statuses) == 0 {
		filter = append(filter, StatusNormalizing, StatusSampling, StatusRedacting)
	}
	for _, status := range statuses {
		if IsProcessingStatus(status) {
			filter = append(filter, status)
		}
	}
	if len(filter) == 0 {
		return 0, nil
	}

	args := rollbackArgs()
	args = append(args, now())
	args = append(args, statusArgs(filter)...)
	args = append(args, cutoff.UTC().Format(timestampLayout))
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
        SET status = `+rollbackCase+`,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+makePlaceholders(len(filter))+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back into the workflow. Jobs that already
// carry a redaction plan resume at redaction; the rest restart from intake.
// With no ids every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
        SET status = CASE
                WHEN normalized_file IS NOT NULL AND (mode = ? OR (mode = ? AND guide_data IS NOT NULL)) THEN ?
                ELSE ?
            END,
            progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, error_kind = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{ModeAuto, ModeGuided, StatusAnnotated, StatusPending, now(), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
