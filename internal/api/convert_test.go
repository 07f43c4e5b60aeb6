package api

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"seen/internal/queue"
	"seen/internal/stage"
	"seen/internal/workflow"
)

func TestFromQueueItem(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := &queue.Item{
		ID:              7,
		PublicID:        "abc",
		SourceName:      "Street Walk.mov",
		Status:          queue.StatusCompleted,
		Mode:            queue.ModeGuided,
		OutputFile:      "/jobs/abc/street-redacted.mp4",
		RedactedFrames:  42,
		FrameCount:      100,
		ProgressStage:   "Completed",
		ProgressPercent: 100,
		CreatedAt:       created,
	}

	got := FromQueueItem(item)
	if got.Status != "completed" || got.StageLabel != "Final" {
		t.Fatalf("unexpected status fields: %q %q", got.Status, got.StageLabel)
	}
	if got.ProcessingLane != string(queue.LaneRedaction) {
		t.Fatalf("unexpected lane %q", got.ProcessingLane)
	}
	if !got.DownloadReady || got.OutputName != "street_walk-redacted.mp4" {
		t.Fatalf("expected download ready with output name, got %v %q", got.DownloadReady, got.OutputName)
	}
	if got.CreatedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected created timestamp %q", got.CreatedAt)
	}
	if got.UpdatedAt != "" {
		t.Fatalf("expected empty updated timestamp, got %q", got.UpdatedAt)
	}

	pending := FromQueueItem(&queue.Item{Status: queue.StatusSampled})
	if pending.DownloadReady || pending.OutputName != "" {
		t.Fatal("sampled job must not offer a download")
	}
	if (FromQueueItem(nil) != QueueItem{}) {
		t.Fatal("nil item should convert to zero value")
	}
}

func TestStageLabel(t *testing.T) {
	tests := map[queue.Status]string{
		queue.StatusPending:   "Uploaded",
		queue.StatusSampled:   "Awaiting Annotation",
		queue.StatusRedacting: "Redacting",
		queue.Status(""):      "",
		queue.Status("bogus"): "",
	}
	for status, want := range tests {
		if got := StageLabel(status); got != want {
			t.Fatalf("StageLabel(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:    true,
		Lanes:      []string{"intake", "redaction"},
		LastError:  "boom",
		LastItem:   &queue.Item{ID: 3, Status: queue.StatusFailed},
		QueueStats: map[queue.Status]int{queue.StatusPending: 2, queue.StatusFailed: 1},
		StageHealth: map[string]stage.Health{
			"sampler":    stage.Healthy("sampler"),
			"normalizer": stage.Unhealthy("normalizer", "binary \"ffmpeg\" not found"),
		},
	}

	got := FromStatusSummary(summary)
	want := WorkflowStatus{
		Running:    true,
		Lanes:      []string{"intake", "redaction"},
		QueueStats: map[string]int{"pending": 2, "failed": 1},
		LastError:  "boom",
		LastItem:   &QueueItem{ID: 3, Status: "failed", StageLabel: "Failed", ProcessingLane: string(queue.LaneIntake)},
		StageHealth: []StageHealth{
			{Name: "normalizer", Ready: false, Detail: "binary \"ffmpeg\" not found"},
			{Name: "sampler", Ready: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestSortQueueItemsNewestFirst(t *testing.T) {
	items := []QueueItem{
		{ID: 1, CreatedAt: "2026-01-01T00:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-01-02T00:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-01-02T00:00:00.000Z"},
		{ID: 4},
	}
	got := SortQueueItemsNewestFirst(items)
	ids := []int64{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	if diff := cmp.Diff([]int64{3, 2, 1, 4}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if items[0].ID != 1 {
		t.Fatal("input slice must not be reordered")
	}
}
