package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload describes a newly received video.
type Upload struct {
	// PublicID is generated when empty.
	PublicID   string
	SourceName string
	SourcePath string
	ClientAddr string
	SampleHz   float64
}

// NewUpload inserts a job for an uploaded video awaiting normalization.
func (s *Store) NewUpload(ctx context.Context, upload Upload) (*Item, error) {
	if strings.TrimSpace(upload.SourcePath) == "" {
		return nil, errors.New("upload source path is required")
	}
	publicID := strings.TrimSpace(upload.PublicID)
	if publicID == "" {
		publicID = uuid.NewString()
	}
	timestamp := now()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            public_id, source_name, source_path, client_addr, status, sample_hz,
            created_at, updated_at, progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		publicID,
		nullableString(upload.SourceName),
		upload.SourcePath,
		nullableString(upload.ClientAddr),
		StatusPending,
		upload.SampleHz,
		timestamp,
		timestamp,
		"Uploaded",
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by row identifier. A missing job yields nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByPublicID fetches a job by the identifier handed to clients. A missing
// job yields nil, nil.
func (s *Store) GetByPublicID(ctx context.Context, publicID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE public_id = ?`, strings.TrimSpace(publicID))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by public id: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET source_name = ?, source_path = ?, client_addr = ?, status = ?, mode = ?,
             normalized_file = ?, frames_dir = ?, output_file = ?, guide_data = ?,
             width = ?, height = ?, frame_rate = ?, frame_count = ?, redacted_frames = ?,
             sample_hz = ?, sample_every = ?, sampled_frames = ?,
             error_message = ?, error_kind = ?, updated_at = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(item.SourceName),
		nullableString(item.SourcePath),
		nullableString(item.ClientAddr),
		item.Status,
		nullableString(string(item.Mode)),
		nullableString(item.NormalizedFile),
		nullableString(item.FramesDir),
		nullableString(item.OutputFile),
		nullableString(item.GuideData),
		item.Width,
		item.Height,
		item.FrameRate,
		item.FrameCount,
		item.RedactedFrames,
		item.SampleHz,
		item.SampleEvery,
		item.SampledFrames,
		nullableString(item.ErrorMessage),
		nullableString(item.ErrorKind),
		item.UpdatedAt.Format(timestampLayout),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableTime(item.LastHeartbeat),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateProgress persists only the progress fields of a job, leaving status
// and stage results untouched.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(timestampLayout),
		item.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Annotate records a redaction plan for a job and queues it for redaction.
// guideData must be empty for auto mode. The job must be in a resting state:
// normalized, sampled, completed, or failed.
func (s *Store) Annotate(ctx context.Context, publicID, guideData string, mode Mode) (*Item, error) {
	switch mode {
	case ModeGuided:
		if strings.TrimSpace(guideData) == "" {
			return nil, errors.New("guided redaction requires guide data")
		}
	case ModeAuto:
		guideData = ""
	default:
		return nil, fmt.Errorf("unknown redaction mode %q", mode)
	}

	args := []any{
		StatusAnnotated, mode, nullableString(guideData), now(),
		strings.TrimSpace(publicID),
	}
	args = append(args, statusArgs(annotatableStatuses)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, mode = ?, guide_data = ?, output_file = NULL, redacted_frames = 0,
             error_message = NULL, error_kind = NULL, progress_stage = 'Queued for redaction',
             progress_percent = 0, progress_message = NULL, updated_at = ?
         WHERE public_id = ? AND status IN (`+makePlaceholders(len(annotatableStatuses))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("annotate item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	item, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if affected == 0 {
		return item, fmt.Errorf("%w: %s", ErrNotAnnotatable, item.Status)
	}
	return item, nil
}

// ItemsByStatus returns jobs matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns jobs filtered by status set (or all jobs when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest job matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + makePlaceholders(len(statuses)) + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, statusArgs(statuses)...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed jobs from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all jobs from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed jobs from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}
