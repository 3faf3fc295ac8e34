package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
)

// fail classifies stageErr, fills result and records the ingest.fail event.
func (m *Manager) fail(ctx context.Context, result *Result, stageName string, stageErr error, targets []string) {
	result.Outcome = OutcomeFailed

	var detail string
	if stage.IsLogical(stageErr) {
		detail = stage.Message(stageErr)
		result.Expected = &ExpectedFailure{Stage: stageName, Message: detail}
	} else {
		detail = diagnostic(stageErr)
		result.Unexpected = &UnexpectedFailure{Stage: stageName, Diagnostic: detail}
	}

	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, m.logger)
	attrs := []logging.Attr{
		logging.Alert("stage_failure"),
		logging.Bool("expected", result.Expected != nil),
		logging.String(logging.FieldEventType, "stage_failure"),
	}
	attrs = append(attrs, logging.ErrorAttrs(stageErr)...)
	logger.Error("stage failed", logging.Args(attrs...)...)
	m.setLastError(fmt.Errorf("%s: stage %s: %w", result.SubmissionID, stageName, stageErr))

	ev := m.events.NewEvent(model.EventIngestFail)
	ev.Outcome = stageName
	ev.Detail = detail
	ev.SetTargets(targets)
	if err := m.events.AddEvent(ctx, result.SubmissionID, ev); err != nil {
		logging.ErrorWithContext(logger, "failed to record ingest failure", "ingest_fail_unrecorded",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging database access"),
		)
	}
}

// diagnostic renders the full error chain and a stack trace. For recovered
// panics the stack is the one captured at the panic site.
func diagnostic(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", err)
	depth := 0
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		fmt.Fprintf(&b, "  [%d] %T: %s\n", depth, cur, cur)
		depth++
	}
	var p *panicError
	if errors.As(err, &p) {
		b.WriteString("panic stack:\n")
		b.Write(p.stack)
	} else {
		b.WriteString("stack:\n")
		b.Write(debug.Stack())
	}
	return b.String()
}
