package api

import (
	"context"
	"os"

	"seen/internal/queue"
)

// QueueActionService captures queue operations needed by per-job retry and
// removal workflows.
type QueueActionService interface {
	Describe(ctx context.Context, id int64) (*QueueItem, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

type RetryItemOutcome string

const (
	RetryItemUpdated   RetryItemOutcome = "retried"
	RetryItemNotFound  RetryItemOutcome = "not_found"
	RetryItemNotFailed RetryItemOutcome = "not_failed"
)

type RetryItemResult struct {
	ID        int64            `json:"id"`
	Outcome   RetryItemOutcome `json:"outcome"`
	NewStatus string           `json:"new_status,omitempty"`
}

type RetryItemsResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Items        []RetryItemResult `json:"items"`
}

type RemoveItemOutcome string

const (
	RemoveItemRemoved    RemoveItemOutcome = "removed"
	RemoveItemNotFound   RemoveItemOutcome = "not_found"
	RemoveItemProcessing RemoveItemOutcome = "processing"
)

type RemoveItemResult struct {
	ID          int64             `json:"id"`
	Outcome     RemoveItemOutcome `json:"outcome"`
	PriorStatus string            `json:"prior_status,omitempty"`
}

// RetryFailedItemsByID validates IDs and retries only failed jobs. A retried
// job resumes at annotated when it already carries a redaction plan.
func RetryFailedItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RetryItemsResult, error) {
	result := RetryItemsResult{Items: make([]RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		item, err := service.Describe(ctx, id)
		if err != nil {
			return RetryItemsResult{}, err
		}
		if item == nil {
			result.Items = append(result.Items, RetryItemResult{ID: id, Outcome: RetryItemNotFound})
			continue
		}
		status, ok := queue.ParseStatus(item.Status)
		if !ok || status != queue.StatusFailed {
			result.Items = append(result.Items, RetryItemResult{ID: id, Outcome: RetryItemNotFailed})
			continue
		}
		updated, err := service.Retry(ctx, []int64{id})
		if err != nil {
			return RetryItemsResult{}, err
		}
		if updated == 0 {
			result.Items = append(result.Items, RetryItemResult{ID: id, Outcome: RetryItemNotFailed})
			continue
		}
		result.UpdatedCount += updated
		entry := RetryItemResult{ID: id, Outcome: RetryItemUpdated}
		if after, err := service.Describe(ctx, id); err == nil && after != nil {
			entry.NewStatus = after.Status
		}
		result.Items = append(result.Items, entry)
	}
	return result, nil
}

// RemoveItemsByID deletes jobs that are not currently being processed.
func RemoveItemsByID(ctx context.Context, service QueueActionService, ids []int64) ([]RemoveItemResult, error) {
	out := make([]RemoveItemResult, 0, len(ids))
	for _, id := range ids {
		item, err := service.Describe(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			out = append(out, RemoveItemResult{ID: id, Outcome: RemoveItemNotFound})
			continue
		}
		if queue.IsProcessingStatus(queue.Status(item.Status)) {
			out = append(out, RemoveItemResult{ID: id, Outcome: RemoveItemProcessing, PriorStatus: item.Status})
			continue
		}
		removed, err := service.Remove(ctx, id)
		if err != nil {
			return nil, err
		}
		outcome := RemoveItemRemoved
		if !removed {
			outcome = RemoveItemNotFound
		}
		out = append(out, RemoveItemResult{ID: id, Outcome: outcome, PriorStatus: item.Status})
	}
	return out, nil
}

// StoreActions implements QueueActionService directly on a queue store.
// Removing a job also deletes its working directory under StorageDir.
type StoreActions struct {
	Store      *queue.Store
	StorageDir string
}

func (a StoreActions) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	return NewQueueService(a.Store).Describe(ctx, id)
}

func (a StoreActions) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.Store.RetryFailed(ctx, ids...)
}

func (a StoreActions) Remove(ctx context.Context, id int64) (bool, error) {
	item, err := a.Store.GetByID(ctx, id)
	if err != nil || item == nil {
		return false, err
	}
	removed, err := a.Store.Remove(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	if dir := item.WorkDir(a.StorageDir); dir != "" {
		_ = os.RemoveAll(dir)
	}
	return true, nil
}
