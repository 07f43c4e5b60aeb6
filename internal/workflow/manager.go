package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"seen/internal/config"
	"seen/internal/notifications"
	"seen/internal/queue"
)

// Manager coordinates queue processing using registered stage functions.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor
	jobLogs   *JobLogger

	lanes     map[laneKind]*laneState
	laneOrder []laneKind

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item

	queueActive bool
	queueStart  time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	pollInterval time.Duration
	jobLogDir    string
}

// WithPollInterval overrides the configured queue poll interval.
func WithPollInterval(interval time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.pollInterval = interval
	}
}

// WithJobLogDir overrides where per-job log files are written.
func WithJobLogDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		o.jobLogDir = dir
	}
}

// NewManagerWithOptions constructs a workflow manager with full configuration.
func NewManagerWithOptions(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, opts ...ManagerOption) *Manager {
	options := &managerOptions{
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: options.pollInterval,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		jobLogs: NewJobLogger(cfg, options.jobLogDir),
		lanes:   make(map[laneKind]*laneState),
	}
}
