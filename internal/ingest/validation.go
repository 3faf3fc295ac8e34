package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// Validator normalizes manifestation paths and checks that every reference
// resolves, within the package or against the archive.
type Validator struct {
	base
}

func NewValidator(d Deps) *Validator {
	return &Validator{base: newBase(StageValidation, d)}
}

func (v *Validator) Execute(ctx context.Context, sipID string) error {
	var ids []string
	err := staging.Mutate(ctx, v.deps.Stager, sipID, func(pkg *model.Package) error {
		pkg.Normalize()
		var lookup model.Lookup
		if v.deps.Archive != nil {
			lookup = v.deps.Archive.Lookup
		}
		if err := pkg.ValidateWith(lookup); err != nil {
			return err
		}
		ids = pkg.EntityIDs()
		return nil
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return stage.Failf("package validation failed: %s", strings.Join(verr.Problems, "; "))
		}
		return err
	}
	return v.record(ctx, sipID, model.EventValidation, "valid", "", ids...)
}
