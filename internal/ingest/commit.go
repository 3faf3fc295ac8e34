package ingest

import (
	"context"
	"errors"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// ArchiveCommitter merges the submission's recorded events into its package,
// adds an archive event and commits the result.
type ArchiveCommitter struct {
	base
}

func NewArchiveCommitter(d Deps) *ArchiveCommitter {
	return &ArchiveCommitter{base: newBase(StageArchiveCommit, d)}
}

func (a *ArchiveCommitter) Prepare(ctx context.Context, _ string) error {
	return a.HealthCheck(ctx).Err()
}

func (a *ArchiveCommitter) HealthCheck(ctx context.Context) stage.Health {
	if a.deps.Archive == nil {
		return stage.Missing(a.name, "archive")
	}
	return a.base.HealthCheck(ctx)
}

func (a *ArchiveCommitter) Execute(ctx context.Context, sipID string) error {
	pkg, err := staging.Load(ctx, a.deps.Stager, sipID)
	if err != nil {
		return err
	}

	recorded, err := a.deps.Events.Events(ctx, sipID)
	if err != nil {
		return err
	}
	ids := pkg.EntityIDs()
	for _, ev := range recorded {
		if _, present := pkg.Find(ev.ID); !present {
			pkg.Add(ev)
		}
	}

	archived := a.deps.Events.NewEvent(model.EventArchive)
	archived.Outcome = "archived"
	archived.SetTargets(ids)
	pkg.Add(archived)

	if err := a.deps.Archive.PutPackage(ctx, pkg); err != nil {
		if errors.Is(err, services.ErrMalformedPackage) {
			return stage.Fail("archive rejected package", err)
		}
		return err
	}
	if err := a.deps.Events.AddEvent(ctx, sipID, archived); err != nil {
		return err
	}
	a.log(ctx).Info("package archived",
		logging.Int("entities", pkg.Len()),
		logging.String(logging.FieldEventType, "archive_commit"),
	)
	return nil
}
