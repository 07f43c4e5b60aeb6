package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"seen/internal/logging"
	"seen/internal/notifications"
	"seen/internal/queue"
	"seen/internal/services"
	"seen/internal/stage"
	"seen/internal/testsupport"
	"seen/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health

	mu    sync.Mutex
	calls int
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func (s *stubStage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) count(event notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func newManager(t *testing.T, set workflow.StageSet) (*workflow.Manager, *queue.Store, *recordingNotifier, func() *queue.Item) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithOptions(cfg, store, logging.NewNop(), notifier,
		workflow.WithPollInterval(10*time.Millisecond))
	mgr.ConfigureStages(set)
	upload := func() *queue.Item {
		return testsupport.NewUpload(t, store, cfg, "clip.mp4")
	}
	return mgr, store, notifier, upload
}

func startManager(t *testing.T, mgr *workflow.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := mgr.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		mgr.Stop()
		cancel()
	})
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(20 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("timed out waiting for %s, job is %#v", want, item)
	return nil
}

func TestManagerRunsIntakeLane(t *testing.T) {
	normalizer := newStubStage("normalizer")
	normalizer.executeHook = func(item *queue.Item) {
		item.NormalizedFile = filepath.Join(filepath.Dir(item.SourcePath), "normalized.mp4")
		item.Width, item.Height, item.FrameRate = 64, 48, 25
	}
	sampler := newStubStage("sampler")
	sampler.executeHook = func(item *queue.Item) {
		item.SampledFrames = 3
	}

	mgr, store, notifier, upload := newManager(t, workflow.StageSet{Normalizer: normalizer, Sampler: sampler})
	item := upload()
	startManager(t, mgr)

	done := waitForStatus(t, store, item.ID, queue.StatusSampled)
	if done.NormalizedFile == "" || done.SampledFrames != 3 {
		t.Fatalf("stage results not persisted: %#v", done)
	}
	if done.ProgressPercent != 100 || done.LastHeartbeat != nil {
		t.Fatalf("expected completed progress without heartbeat, got %v %v", done.ProgressPercent, done.LastHeartbeat)
	}
	if normalizer.callCount() != 1 || sampler.callCount() != 1 {
		t.Fatalf("expected one call per stage, got %d/%d", normalizer.callCount(), sampler.callCount())
	}

	deadline := time.Now().Add(5 * time.Second)
	for notifier.count(notifications.EventQueueCompleted) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if notifier.count(notifications.EventAwaitingAnnotation) != 1 {
		t.Fatalf("expected awaiting-annotation notification, got %v", notifier.events)
	}
	if notifier.count(notifications.EventQueueStarted) != 1 || notifier.count(notifications.EventQueueCompleted) != 1 {
		t.Fatalf("expected one queue start and completion, got %v", notifier.events)
	}
}

func TestManagerRedactsAnnotatedJobs(t *testing.T) {
	normalizer := newStubStage("normalizer")
	normalizer.executeHook = func(item *queue.Item) { item.NormalizedFile = item.SourcePath }
	sampler := newStubStage("sampler")
	redactor := newStubStage("redactor")
	redactor.executeHook = func(item *queue.Item) {
		item.OutputFile = item.SourcePath + ".redacted.mp4"
		item.RedactedFrames = 12
	}

	mgr, store, notifier, upload := newManager(t, workflow.StageSet{Normalizer: normalizer, Sampler: sampler, Redactor: redactor})
	item := upload()
	startManager(t, mgr)

	waitForStatus(t, store, item.ID, queue.StatusSampled)
	if redactor.callCount() != 0 {
		t.Fatal("redactor must wait for an annotation")
	}
	if _, err := store.Annotate(context.Background(), item.PublicID, "", queue.ModeAuto); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.RedactedFrames != 12 || done.OutputFile == "" {
		t.Fatalf("redaction results not persisted: %#v", done)
	}
	if done.ProgressStage != "Completed" {
		t.Fatalf("expected Completed progress stage, got %q", done.ProgressStage)
	}
	deadline := time.Now().Add(5 * time.Second)
	for notifier.count(notifications.EventJobCompleted) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if notifier.count(notifications.EventJobCompleted) != 1 {
		t.Fatalf("expected job completed notification, got %v", notifier.events)
	}
}

func TestManagerRecordsStageFailure(t *testing.T) {
	normalizer := newStubStage("normalizer")
	normalizer.executeErr = services.Wrap(services.ErrExternalTool, "normalizer", "transcode", "ffmpeg exited", nil)

	mgr, store, notifier, upload := newManager(t, workflow.StageSet{Normalizer: normalizer, Sampler: newStubStage("sampler")})
	item := upload()
	startManager(t, mgr)

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ErrorKind != "external_tool" {
		t.Fatalf("expected external_tool kind, got %q", failed.ErrorKind)
	}
	if failed.ErrorMessage == "" || failed.ProgressStage != "Failed" {
		t.Fatalf("expected failure details, got %#v", failed)
	}

	deadline := time.Now().Add(5 * time.Second)
	for notifier.count(notifications.EventJobFailed) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if notifier.count(notifications.EventJobFailed) != 1 {
		t.Fatalf("expected job failed notification, got %v", notifier.events)
	}
	mgr.Stop()

	summary := mgr.Status(context.Background())
	if summary.LastError == "" {
		t.Fatal("expected last error in status summary")
	}
	if summary.LastItem == nil || summary.LastItem.Status != queue.StatusFailed {
		t.Fatalf("expected last item to be the failed job, got %#v", summary.LastItem)
	}
}

func TestManagerWritesJobLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logDir := t.TempDir()
	mgr := workflow.NewManagerWithOptions(cfg, store, logging.NewNop(), &recordingNotifier{},
		workflow.WithPollInterval(10*time.Millisecond),
		workflow.WithJobLogDir(logDir))
	mgr.ConfigureStages(workflow.StageSet{Normalizer: newStubStage("normalizer")})

	item := testsupport.NewUpload(t, store, cfg, "logged.mp4")
	startManager(t, mgr)
	waitForStatus(t, store, item.ID, queue.StatusNormalized)
	mgr.Stop()

	data, err := os.ReadFile(workflow.JobLogPath(logDir, item))
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected stage records in job log")
	}
}

func TestManagerStatusReportsHealth(t *testing.T) {
	redactor := newStubStage("redactor")
	redactor.health = stage.Unhealthy("redactor", "cascade missing")
	mgr, _, _, _ := newManager(t, workflow.StageSet{Normalizer: newStubStage("normalizer"), Redactor: redactor})

	summary := mgr.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not be running before Start")
	}
	if len(summary.Lanes) != 2 || summary.Lanes[0] != "intake" || summary.Lanes[1] != "redaction" {
		t.Fatalf("unexpected lanes %v", summary.Lanes)
	}
	if h := summary.StageHealth["redactor"]; h.Ready || h.Detail != "cascade missing" {
		t.Fatalf("unexpected redactor health %#v", h)
	}
	if !summary.StageHealth["normalizer"].Ready {
		t.Fatal("expected normalizer to be healthy")
	}
}

func TestManagerStartValidation(t *testing.T) {
	mgr, _, _, _ := newManager(t, workflow.StageSet{})
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error when no stages are configured")
	}

	mgr, _, _, _ = newManager(t, workflow.StageSet{Sampler: newStubStage("sampler")})
	startManager(t, mgr)
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error when already running")
	}
}
