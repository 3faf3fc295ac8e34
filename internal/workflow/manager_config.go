package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
)

// ConfigureStages registers the ordered stage list applied to every
// submission. Stages cannot change while the manager is running.
func (m *Manager) ConfigureStages(handlers ...stage.Handler) error {
	stages := make([]pipelineStage, 0, len(handlers))
	seen := make(map[string]struct{}, len(handlers))
	for i, handler := range handlers {
		if handler == nil {
			return fmt.Errorf("stage %d: handler is nil", i)
		}
		name := strings.TrimSpace(handler.Name())
		if name == "" {
			return fmt.Errorf("stage %d: name is empty", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("stage %q registered twice", name)
		}
		seen[name] = struct{}{}
		stages = append(stages, pipelineStage{name: name, handler: handler})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("cannot reconfigure stages while workflow is running")
	}
	m.stages = stages
	return nil
}

// StageNames returns the configured stage names in execution order.
func (m *Manager) StageNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.stages))
	for _, stg := range m.stages {
		names = append(names, stg.name)
	}
	return names
}

func (m *Manager) stageSnapshot() []pipelineStage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pipelineStage(nil), m.stages...)
}
