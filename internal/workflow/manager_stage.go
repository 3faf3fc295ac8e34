package workflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// panicError carries a recovered stage panic and the stack at the panic site.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func (m *Manager) executeStage(ctx context.Context, stg pipelineStage, sipID string) (err error) {
	ctx = services.WithStage(ctx, stg.name)
	stageLogger := logging.WithContext(ctx, logging.StageLogger(m.logger, m.cfg, stg.name))

	stageStart := time.Now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	defer func() {
		if recovered := recover(); recovered != nil {
			err = &panicError{value: recovered, stack: debug.Stack()}
		}
	}()

	if prepErr := stg.handler.Prepare(ctx, sipID); prepErr != nil {
		return prepErr
	}
	if execErr := stg.handler.Execute(ctx, sipID); execErr != nil {
		return execErr
	}

	stageLogger.Info("stage completed",
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return nil
}
