package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"seen/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "seen", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStorage := filepath.Join(tempHome, ".local", "share", "seen", "jobs")
	if cfg.Paths.StorageDir != wantStorage {
		t.Fatalf("unexpected storage dir: got %q want %q", cfg.Paths.StorageDir, wantStorage)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Redaction.GuidedRadius != 50 || cfg.Redaction.GuidedSigma != 0 {
		t.Fatalf("unexpected guided kernel: %+v", cfg.Redaction)
	}
	if cfg.Redaction.AutoRadius != 25 || cfg.Redaction.AutoSigma != 30 {
		t.Fatalf("unexpected auto kernel: %+v", cfg.Redaction)
	}
	if cfg.Sampling.SampleHz != 1 {
		t.Fatalf("unexpected sample rate: %v", cfg.Sampling.SampleHz)
	}
	if cfg.QueueDBPath() != filepath.Join(wantStorage, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.QueueDBPath())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "seen.toml")
	payload := struct {
		Paths     map[string]string `toml:"paths"`
		Redaction map[string]any    `toml:"redaction"`
		Logging   map[string]any    `toml:"logging"`
	}{
		Paths: map[string]string{
			"storage_dir": "~/jobs",
			"log_dir":     "~/logs",
		},
		Redaction: map[string]any{
			"guided_radius": 20,
			"cascade_path":  "~/cascades/face.xml",
		},
		Logging: map[string]any{
			"format": "JSON",
			"level":  "Warning",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Paths.StorageDir != filepath.Join(tempHome, "jobs") {
		t.Fatalf("unexpected storage dir %q", cfg.Paths.StorageDir)
	}
	if cfg.Redaction.GuidedRadius != 20 {
		t.Fatalf("expected guided radius override, got %d", cfg.Redaction.GuidedRadius)
	}
	if cfg.Redaction.AutoRadius != 25 {
		t.Fatalf("expected auto radius default to survive, got %d", cfg.Redaction.AutoRadius)
	}
	if cfg.Redaction.CascadePath != filepath.Join(tempHome, "cascades", "face.xml") {
		t.Fatalf("unexpected cascade path %q", cfg.Redaction.CascadePath)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "seen.toml")
	if err := os.WriteFile(configPath, []byte("[sampling]\nsample_hz = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SEEN_SAMPLING_SAMPLE_HZ", "4")
	t.Setenv("SEEN_PATHS_API_BIND", "0.0.0.0:9000")
	t.Setenv("SEEN_NOTIFICATIONS_NTFY_TOPIC", " https://ntfy.example/jobs ")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sampling.SampleHz != 4 {
		t.Fatalf("expected env to win over file, got %v", cfg.Sampling.SampleHz)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("unexpected api bind %q", cfg.Paths.APIBind)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/jobs" {
		t.Fatalf("expected trimmed topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "seen.toml")
	if err := os.WriteFile(configPath, []byte("[redaction]\nblur_strength = 9\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "guided radius", mutate: func(c *config.Config) { c.Redaction.GuidedRadius = 0 }, wantErr: "guided_radius"},
		{name: "auto sigma", mutate: func(c *config.Config) { c.Redaction.AutoSigma = -1 }, wantErr: "auto_sigma"},
		{name: "sample hz", mutate: func(c *config.Config) { c.Sampling.SampleHz = 0 }, wantErr: "sample_hz"},
		{name: "jpeg quality", mutate: func(c *config.Config) { c.Sampling.JPEGQuality = 101 }, wantErr: "jpeg_quality"},
		{
			name: "heartbeat ordering",
			mutate: func(c *config.Config) {
				c.Workflow.HeartbeatInterval = 30
				c.Workflow.HeartbeatTimeout = 30
			},
			wantErr: "heartbeat_timeout",
		},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.StorageDir = t.TempDir()
			cfg.Paths.LogDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Sampling.WorkbenchWidth != 1400 || cfg.Sampling.WorkbenchHeight != 1000 {
		t.Fatalf("unexpected workbench size %dx%d", cfg.Sampling.WorkbenchWidth, cfg.Sampling.WorkbenchHeight)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "jobs")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StorageDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
