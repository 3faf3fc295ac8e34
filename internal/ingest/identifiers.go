package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// IdentifierAssigner gives every entity submitted without an id a fresh
// archive id of the form <id_prefix><uuid>.
type IdentifierAssigner struct {
	base
	newID func() string
}

func NewIdentifierAssigner(d Deps) *IdentifierAssigner {
	prefix := ""
	if d.Config != nil {
		prefix = d.Config.Ingest.IDPrefix
	}
	return &IdentifierAssigner{
		base:  newBase(StageAssignIdentifiers, d),
		newID: func() string { return prefix + uuid.NewString() },
	}
}

func (a *IdentifierAssigner) Execute(ctx context.Context, sipID string) error {
	var assigned []string
	err := staging.Mutate(ctx, a.deps.Stager, sipID, func(pkg *model.Package) error {
		assigned = assigned[:0]
		mint := func(id *string) {
			if *id == "" {
				*id = a.newID()
				assigned = append(assigned, *id)
			}
		}
		for i := range pkg.Collections {
			mint(&pkg.Collections[i].ID)
		}
		for i := range pkg.DeliverableUnits {
			mint(&pkg.DeliverableUnits[i].ID)
		}
		for i := range pkg.Manifestations {
			mint(&pkg.Manifestations[i].ID)
		}
		for i := range pkg.Files {
			mint(&pkg.Files[i].ID)
		}
		for i := range pkg.Events {
			mint(&pkg.Events[i].ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(assigned) == 0 {
		return nil
	}

	a.log(ctx).Info("identifiers assigned", logging.Int("count", len(assigned)))
	return a.record(ctx, sipID, model.EventIdentifierAssignment, "assigned",
		fmt.Sprintf("assigned %d identifiers", len(assigned)), assigned...)
}
