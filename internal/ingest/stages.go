package ingest

import (
	"context"
	"log/slog"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/archive"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// Stage names.
const (
	StageAssignIdentifiers = "assign-identifiers"
	StageValidation        = "package-validation"
	StageFixity            = "fixity"
	StageCharacterization  = "characterization"
	StageArchiveCommit     = "archive-commit"
	StageRetire            = "retire"
)

// Deps carries the services the stages share.
type Deps struct {
	Config   *config.Config
	Stager   staging.Stager
	Events   *events.Manager
	Resolver *content.Resolver
	Archive  *archive.Store
	Logger   *slog.Logger
}

// DefaultStages returns the standard ingest pipeline.
func DefaultStages(d Deps) []stage.Handler {
	return []stage.Handler{
		NewIdentifierAssigner(d),
		NewValidator(d),
		NewFixityChecker(d),
		NewCharacterizer(d),
		NewArchiveCommitter(d),
		NewRetirer(d),
	}
}

// base holds what every stage needs.
type base struct {
	name   string
	deps   Deps
	logger *slog.Logger
}

func newBase(name string, d Deps) base {
	return base{name: name, deps: d, logger: logging.NewComponentLogger(d.Logger, "ingest")}
}

func (b base) Name() string { return b.name }

func (b base) HealthCheck(context.Context) stage.Health {
	if b.deps.Stager == nil || b.deps.Events == nil {
		return stage.Missing(b.name, "stager", "event manager")
	}
	return stage.Healthy(b.name)
}

func (b base) Prepare(ctx context.Context, _ string) error {
	return b.HealthCheck(ctx).Err()
}

func (b base) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, b.logger)
}

// record creates and appends an event of eventType.
func (b base) record(ctx context.Context, sipID, eventType, outcome, detail string, targets ...string) error {
	ev := b.deps.Events.NewEvent(eventType)
	ev.Outcome = outcome
	ev.Detail = detail
	ev.SetTargets(targets)
	return b.deps.Events.AddEvent(ctx, sipID, ev)
}
