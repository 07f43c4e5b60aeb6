package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"seen/internal/api"
	"seen/internal/queue"
	"seen/internal/testsupport"
	"seen/internal/workflow"
)

func TestCLIQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewUpload(t, env.store, env.cfg, "alpha.mov")
	failed := testsupport.NewUpload(t, env.store, env.cfg, "beta.mov")
	failed.Status = queue.StatusFailed
	failed.ErrorMessage = "probe failed"
	failed.ErrorKind = "external_tool"
	if err := env.store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	for _, want := range []string{"alpha.mov", "beta.mov", "external_tool"} {
		if !strings.Contains(out, want) {
			t.Fatalf("queue list output missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	if strings.Contains(out, "alpha.mov") || !strings.Contains(out, "beta.mov") {
		t.Fatalf("expected only failed job, got:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown status to fail")
	}

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(out, "STATUS") || !strings.Contains(out, "COUNT") || !strings.Contains(out, "Failed") {
		t.Fatalf("unexpected queue status output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	if !strings.Contains(out, "Retried 1 failed jobs") {
		t.Fatalf("unexpected retry output %q", out)
	}
	retried, err := env.store.GetByID(ctx, failed.ID)
	if err != nil || retried == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if retried.Status == queue.StatusFailed {
		t.Fatal("expected job to leave failed status")
	}

	out, _, err = runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if !strings.Contains(out, "Integrity check: yes") || !strings.Contains(out, "Missing columns: none") {
		t.Fatalf("unexpected health output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 2 jobs") {
		t.Fatalf("unexpected clear output %q", out)
	}

	if _, _, err := runCLI(t, []string{"queue", "clear", "--completed", "--failed"}, env.configPath); err == nil {
		t.Fatal("expected conflicting clear flags to fail")
	}
}

func TestCLIQueueRetryByIDReportsOutcomes(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	pending := testsupport.NewUpload(t, env.store, env.cfg, "alpha.mov")
	failed := testsupport.NewUpload(t, env.store, env.cfg, "beta.mov")
	failed.Status = queue.StatusFailed
	if err := env.store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry", itoa(pending.ID), itoa(failed.ID), "999"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry ids: %v", err)
	}
	for _, want := range []string{
		"Job " + itoa(pending.ID) + ": not failed",
		"Job " + itoa(failed.ID) + ": retried",
		"Job 999: not found",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("retry output missing %q:\n%s", want, out)
		}
	}

	if _, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestCLIQueueRemoveDeletesWorkDir(t *testing.T) {
	env := setupCLITestEnv(t)
	item := testsupport.NewUpload(t, env.store, env.cfg, "alpha.mov")
	workDir := item.WorkDir(env.cfg.Paths.StorageDir)
	testsupport.WriteFile(t, filepath.Join(workDir, "upload.mov"), 16)

	out, _, err := runCLI(t, []string{"queue", "remove", itoa(item.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if !strings.Contains(out, "removed") {
		t.Fatalf("unexpected remove output %q", out)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, stat err %v", err)
	}
}

func TestCLIAddQueuesLocalFile(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "Street Walk.MOV")
	testsupport.WriteFile(t, src, 2048)

	out, _, err := runCLI(t, []string{"add", src}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Queued Street Walk.MOV as job #") {
		t.Fatalf("unexpected add output %q", out)
	}

	items, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Status != queue.StatusPending {
		t.Fatalf("expected one pending job, got %+v", items)
	}
	if filepath.Base(items[0].SourcePath) != "upload.mov" {
		t.Fatalf("expected copy stored as upload.mov, got %s", items[0].SourcePath)
	}

	if _, _, err := runCLI(t, []string{"add", filepath.Join(env.baseDir, "missing.mp4")}, env.configPath); err == nil {
		t.Fatal("expected missing file to fail")
	}
}

func TestCLIRedactWithGuide(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRawMedia(4, 4, "4/1", 4))
	input := filepath.Join(env.baseDir, "in.mp4")
	testsupport.WriteFile(t, input, 64)
	output := filepath.Join(env.baseDir, "out", "in-redacted.mp4")

	out, _, err := runCLI(t, []string{
		"redact", "--input", input, "--output", output,
		"--guide", writeGuide(t, env.baseDir), "--no-audio",
	}, env.configPath)
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if !strings.Contains(out, "4 frames, 3 redacted") {
		t.Fatalf("unexpected redact output %q", out)
	}
	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != 4*4*4*4 {
		t.Fatalf("expected %d bytes written, got %d", 4*4*4*4, info.Size())
	}
}

func TestCLIRedactRequiresGuideOrCascade(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRawMedia(4, 4, "4/1", 4))
	input := filepath.Join(env.baseDir, "in.mp4")
	testsupport.WriteFile(t, input, 64)

	_, _, err := runCLI(t, []string{"redact", "--input", input, "--output", filepath.Join(env.baseDir, "out.mp4")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--guide") {
		t.Fatalf("expected missing guide error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"redact", "--input", input, "--output", input, "--guide", writeGuide(t, env.baseDir)}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "differ") {
		t.Fatalf("expected same-path error, got %v", err)
	}
}

func TestCLISampleWritesFrames(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRawMedia(4, 4, "4/1", 4))
	input := filepath.Join(env.baseDir, "in.mp4")
	testsupport.WriteFile(t, input, 64)
	outDir := filepath.Join(env.baseDir, "frames")

	out, _, err := runCLI(t, []string{"sample", "--input", input, "--out-dir", outDir, "--hz", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !strings.Contains(out, "Saved 2 of 4 frames (every 2)") {
		t.Fatalf("unexpected sample output %q", out)
	}
	for _, name := range []string{"0.jpg", "2.jpg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCLIConfigInitAndShow(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "conf", "seen.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected existing config to be refused without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[paths]", "[redaction]", "sample_hz"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestCLIRemoteWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.withDaemon(t)
	ctx := context.Background()

	src := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, src, 4096)

	out, _, err := runCLI(t, []string{"--json", "upload", src}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var uploaded api.UploadResponse
	if err := json.Unmarshal([]byte(out), &uploaded); err != nil {
		t.Fatalf("decode upload output %q: %v", out, err)
	}
	if uploaded.ID == "" || uploaded.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected upload response %+v", uploaded)
	}

	out, _, err = runCLI(t, []string{"status", uploaded.ID}, env.configPath)
	if err != nil {
		t.Fatalf("status job: %v", err)
	}
	if !strings.Contains(out, uploaded.ID) || !strings.Contains(out, "clip.mp4") {
		t.Fatalf("unexpected job status output:\n%s", out)
	}

	guidePath := writeGuide(t, env.baseDir)
	if _, _, err := runCLI(t, []string{"annotate", uploaded.ID, guidePath}, env.configPath); err == nil {
		t.Fatal("expected annotate on a pending job to fail")
	}

	item, err := env.store.GetByPublicID(ctx, uploaded.ID)
	if err != nil || item == nil {
		t.Fatalf("GetByPublicID: %v", err)
	}
	item.Status = queue.StatusSampled
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err = runCLI(t, []string{"annotate", uploaded.ID, guidePath}, env.configPath)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if !strings.Contains(out, "queued for redaction (1 tracks)") {
		t.Fatalf("unexpected annotate output %q", out)
	}

	if _, _, err := runCLI(t, []string{"download", uploaded.ID}, env.configPath); err == nil {
		t.Fatal("expected download before completion to fail")
	}

	output := filepath.Join(item.WorkDir(env.cfg.Paths.StorageDir), "clip-redacted.mp4")
	testsupport.WriteFile(t, output, 512)
	item, _ = env.store.GetByPublicID(ctx, uploaded.ID)
	item.Status = queue.StatusCompleted
	item.OutputFile = output
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	dest := filepath.Join(env.baseDir, "downloads", "result.mp4")
	out, _, err = runCLI(t, []string{"download", uploaded.ID, "--output", dest}, env.configPath)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !strings.Contains(out, "Saved "+dest) {
		t.Fatalf("unexpected download output %q", out)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() != 512 {
		t.Fatalf("expected 512 byte download, got %v (%v)", info, err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"System Status", "Dependencies", "Queue Status"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "ntfy topic not configured") {
		t.Fatalf("unexpected test-notify output %q", out)
	}
}

func TestCLIAutoBlurWithoutCascade(t *testing.T) {
	env := setupCLITestEnv(t)
	env.withDaemon(t)
	item := testsupport.NewUpload(t, env.store, env.cfg, "alpha.mov")

	_, _, err := runCLI(t, []string{"autoblur", item.PublicID}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 without cascade, got %v", err)
	}
}

func TestCLIClientConnectionRefused(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIBind = "127.0.0.1:1"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "seen daemon") {
		t.Fatalf("expected connection hint, got %v", err)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestCLILogsPrintsJobLog(t *testing.T) {
	env := setupCLITestEnv(t)
	env.withDaemon(t)
	item := testsupport.NewUpload(t, env.store, env.cfg, "alpha.mov")

	logPath := workflow.JobLogPath(workflow.JobLogDir(env.cfg), item)
	testsupport.WriteText(t, logPath, "normalizing\nsampling\nsampled\n")

	out, _, err := runCLI(t, []string{"logs", item.PublicID, "--lines", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "sampling\nsampled\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
