package staging

import (
	"context"
	"log/slog"
	"time"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// CleanStaleResult contains the outcome of a stale submission cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a submission id with its cleanup error.
type CleanupError struct {
	ID    string
	Error error
}

// CleanStale removes submissions that were abandoned: their ingest failed
// more than maxAge ago, or they never started ingest and have not been
// touched for maxAge. Running or recently failed submissions are kept.
func CleanStale(ctx context.Context, stager Stager, mgr *events.Manager, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	summaries, err := stager.List(ctx)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, sum := range summaries {
		stale, age, err := isStale(ctx, mgr, sum, cutoff)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{ID: sum.ID, Error: err})
			continue
		}
		if !stale {
			continue
		}
		if err := stager.RemoveSIP(ctx, sum.ID); err != nil {
			result.Errors = append(result.Errors, CleanupError{ID: sum.ID, Error: err})
			logger.Warn("failed to remove stale submission",
				logging.Submission(sum.ID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging database permissions"),
				logging.String(logging.FieldImpact, "stale submission remains staged"),
			)
			continue
		}
		result.Removed = append(result.Removed, sum.ID)
		logger.Info("removed stale submission",
			logging.Submission(sum.ID),
			logging.Duration("age", age),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}

	return result
}

func isStale(ctx context.Context, mgr *events.Manager, sum Summary, cutoff time.Time) (bool, time.Duration, error) {
	var start, fail *model.Event
	for ev, err := range mgr.All(ctx, sum.ID) {
		if err != nil {
			return false, 0, err
		}
		switch ev.Type {
		case model.EventIngestStart:
			start, fail = &ev, nil
		case model.EventIngestFail:
			fail = &ev
		}
	}
	// Only a failure recorded after the latest start ends a run.
	if fail != nil {
		return fail.Date.Before(cutoff), time.Since(fail.Date), nil
	}
	if start != nil {
		return false, 0, nil
	}
	return sum.UpdatedAt.Before(cutoff), time.Since(sum.UpdatedAt), nil
}
