package ingest

import (
	"context"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
)

// Retirer removes a completed submission from staging. Its events remain in
// the event log.
type Retirer struct {
	base
}

func NewRetirer(d Deps) *Retirer {
	return &Retirer{base: newBase(StageRetire, d)}
}

func (r *Retirer) Execute(ctx context.Context, sipID string) error {
	if r.deps.Config != nil && !r.deps.Config.Ingest.RetireCompleted {
		r.log(ctx).Debug("retirement disabled; submission kept in staging")
		return nil
	}
	if err := r.deps.Stager.RemoveSIP(ctx, sipID); err != nil {
		return err
	}
	r.log(ctx).Info("submission retired", logging.String(logging.FieldEventType, "submission_retired"))
	return nil
}
