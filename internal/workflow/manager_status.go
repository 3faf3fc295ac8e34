package workflow

import (
	"context"
	"sync/atomic"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
)

type runStats struct {
	queued    atomic.Int64
	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Queued      int64
	Active      int64
	Completed   int64
	Failed      int64
	LastError   string
	LastResult  *Result
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastResult := m.lastResult
	stages := append([]pipelineStage(nil), m.stages...)
	m.mu.RUnlock()

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{
		Running:     running,
		Queued:      m.stats.queued.Load(),
		Active:      m.stats.active.Load(),
		Completed:   m.stats.completed.Load(),
		Failed:      m.stats.failed.Load(),
		StageHealth: health,
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastResult != nil {
		res := *lastResult
		res.Executed = append([]string(nil), lastResult.Executed...)
		summary.LastResult = &res
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
