package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"seen/internal/config"
	"seen/internal/daemon"
	"seen/internal/deps"
	"seen/internal/logging"
	"seen/internal/normalizing"
	"seen/internal/notifications"
	"seen/internal/queue"
	"seen/internal/redacting"
	"seen/internal/sampling"
	"seen/internal/workflow"
)

// PIDFileName is written inside the log directory while the daemon runs.
const PIDFileName = "seend.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the seen daemon and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("seen-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	jobLogDir := workflow.JobLogDir(cfg)
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "seen-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: jobLogDir, Pattern: "*.log"},
	)
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithOptions(cfg, store, logger, notifier, workflow.WithJobLogDir(jobLogDir))
	registerStages(manager, cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager, notifier)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check the api bind address and that no other seend is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("seen daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	mgr.ConfigureStages(workflow.StageSet{
		Normalizer: normalizing.NewNormalizer(cfg, logger),
		Sampler:    sampling.NewSampler(cfg, store, logger),
		Redactor:   redacting.NewRedactor(cfg, store, logger),
	})
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range deps.Check(cfg) {
		attrs = append(attrs, logging.Group(status.Name,
			logging.Bool("available", status.Available),
			logging.String("command", status.Command),
		))
	}
	attrs = append(attrs,
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Float64("sample_hz", cfg.Sampling.SampleHz),
	)
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
