package workflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// Manager coordinates ingest runs over a fixed, ordered stage list.
type Manager struct {
	cfg    *config.Config
	stager staging.Stager
	events *events.Manager
	logger *slog.Logger

	newExecutor func() Executor

	mu       sync.RWMutex
	stages   []pipelineStage
	running  bool
	executor Executor
	runCtx   context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	stats      runStats
	lastErr    error
	lastResult *Result
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithExecutor replaces the worker pool built from the ingest config. The
// factory is called on every Start.
func WithExecutor(factory func() Executor) ManagerOption {
	return func(m *Manager) {
		if factory != nil {
			m.newExecutor = factory
		}
	}
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, stager staging.Stager, evs *events.Manager, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		stager: stager,
		events: evs,
		logger: logging.NewComponentLogger(logger, "workflow"),
	}
	m.newExecutor = func() Executor {
		workers, queueSize := 1, 0
		if cfg != nil {
			workers, queueSize = cfg.Ingest.WorkerCount, cfg.Ingest.QueueSize
		}
		return NewWorkerPool(workers, queueSize)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
