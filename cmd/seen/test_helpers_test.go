package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"seen/internal/config"
	"seen/internal/daemon"
	"seen/internal/queue"
	"seen/internal/stage"
	"seen/internal/testsupport"
	"seen/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	env := &cliTestEnv{
		cfg:     cfg,
		store:   testsupport.MustOpenStore(t, cfg),
		baseDir: base,
	}
	env.configPath = filepath.Join(base, "config.toml")
	writeTestConfig(t, env.configPath, cfg)
	return env
}

// withDaemon serves the daemon API over httptest and points the CLI config
// at it.
func (e *cliTestEnv) withDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	mgr := workflow.NewManagerWithOptions(e.cfg, e.store, nil, nil, workflow.WithPollInterval(10*time.Millisecond))
	mgr.ConfigureStages(workflow.StageSet{Redactor: noopStage{}})
	d, err := daemon.New(e.cfg, e.store, nil, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	e.cfg.Paths.APIBind = srv.URL
	writeTestConfig(t, e.configPath, e.cfg)
	return d
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeGuide(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "guide.json")
	body := `{"guides":[{"id":"face","keyFrames":[{"frameId":0,"x":0,"y":0,"size":2},{"frameId":2,"x":2,"y":2,"size":2}]}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write guide: %v", err)
	}
	return path
}
