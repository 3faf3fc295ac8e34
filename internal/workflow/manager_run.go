package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
)

// Start begins accepting submissions through StartIngest.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		return errors.New("workflow stages not configured")
	}

	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.executor = m.newExecutor()
	m.running = true
	m.logger.Info("workflow started",
		logging.Int("stages", len(m.stages)),
		logging.String(logging.FieldEventType, "workflow_start"),
	)
	return nil
}

// Stop stops accepting submissions, waits for queued and running ingests to
// finish and releases the executor.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	executor, cancel := m.executor, m.cancel
	m.executor, m.cancel = nil, nil
	m.mu.Unlock()

	m.inflight.Wait()
	executor.Shutdown()
	cancel()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))
}

// StartIngest enqueues a staged submission and returns without waiting for it
// to run. Progress is observable through the event manager and the stager.
// With a bounded queue this blocks while the queue is full.
func (m *Manager) StartIngest(ctx context.Context, sipID string) error {
	if sipID == "" {
		return services.Wrap(services.ErrValidation, "", "start ingest", "submission id is empty", nil)
	}
	m.mu.RLock()
	if !m.running {
		m.mu.RUnlock()
		return errors.New("workflow not running")
	}
	executor, runCtx := m.executor, m.runCtx
	m.inflight.Add(1)
	m.mu.RUnlock()

	m.stats.queued.Add(1)
	err := executor.Submit(ctx, func() {
		defer m.inflight.Done()
		m.stats.queued.Add(-1)
		m.Run(runCtx, sipID)
	})
	if err != nil {
		m.stats.queued.Add(-1)
		m.inflight.Done()
		return fmt.Errorf("enqueue %s: %w", sipID, err)
	}
	return nil
}

// Wait blocks until every submission passed to StartIngest so far has reached
// a terminal state.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// Run executes the full stage list for one submission on the calling
// goroutine and returns its result.
func (m *Manager) Run(ctx context.Context, sipID string) Result {
	ctx = services.WithSubmissionID(ctx, sipID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	m.stats.active.Add(1)
	defer m.stats.active.Add(-1)

	started := time.Now()
	result := Result{SubmissionID: sipID}

	start, err := m.recordStart(ctx, sipID)
	if err != nil {
		m.fail(ctx, &result, startStageName, err, nil)
		return m.finish(result)
	}

	logger.Info("ingest started",
		logging.Int("entities", len(start.Targets())),
		logging.String(logging.FieldEventType, "ingest_start"),
	)

	for _, stg := range m.stageSnapshot() {
		result.Executed = append(result.Executed, stg.name)
		if err := m.executeStage(ctx, stg, sipID); err != nil {
			m.fail(ctx, &result, stg.name, err, start.Targets())
			return m.finish(result)
		}
	}

	result.Outcome = OutcomeCompleted
	logger.Info("ingest completed",
		logging.Int("stages", len(result.Executed)),
		logging.Duration("duration", time.Since(started)),
		logging.String(logging.FieldEventType, "ingest_complete"),
	)
	return m.finish(result)
}

func (m *Manager) recordStart(ctx context.Context, sipID string) (model.Event, error) {
	pkg, err := m.stager.GetSIP(ctx, sipID)
	if err != nil {
		return model.Event{}, fmt.Errorf("load submission: %w", err)
	}
	if pkg == nil {
		return model.Event{}, stage.Fail("submission not staged", fmt.Errorf("submission %s: %w", sipID, services.ErrNotFound))
	}
	ev := m.events.NewEvent(model.EventIngestStart)
	ev.SetTargets(pkg.EntityIDs())
	if err := m.events.AddEvent(ctx, sipID, ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (m *Manager) finish(result Result) Result {
	if result.Outcome == OutcomeCompleted {
		m.stats.completed.Add(1)
	} else {
		m.stats.failed.Add(1)
	}
	m.mu.Lock()
	r := result
	m.lastResult = &r
	m.mu.Unlock()
	return result
}
