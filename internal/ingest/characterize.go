package ingest

import (
	"context"
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// Characterizer detects the media type of each extant file and adds it to
// the file's formats.
type Characterizer struct {
	base
}

func NewCharacterizer(d Deps) *Characterizer {
	return &Characterizer{base: newBase(StageCharacterization, d)}
}

func (c *Characterizer) Prepare(ctx context.Context, _ string) error {
	return c.HealthCheck(ctx).Err()
}

func (c *Characterizer) HealthCheck(ctx context.Context) stage.Health {
	if c.deps.Resolver == nil {
		return stage.Missing(c.name, "content resolver")
	}
	return c.base.HealthCheck(ctx)
}

func (c *Characterizer) Execute(ctx context.Context, sipID string) error {
	detected := map[string]string{}
	err := staging.Mutate(ctx, c.deps.Stager, sipID, func(pkg *model.Package) error {
		clear(detected)
		for i := range pkg.Files {
			file := &pkg.Files[i]
			if !file.Extant {
				continue
			}
			format, err := c.detect(file)
			if err != nil {
				return err
			}
			if !slices.Contains(file.Formats, format) {
				file.Formats = append(file.Formats, format)
			}
			detected[file.ID] = format
		}
		return nil
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(detected))
	for id := range detected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := c.record(ctx, sipID, model.EventCharacterization, "identified", detected[id], id); err != nil {
			return err
		}
	}
	c.log(ctx).Info("formats identified", logging.Int("files", len(ids)))
	return nil
}

func (c *Characterizer) detect(file *model.File) (string, error) {
	src, err := c.deps.Resolver.Open(file.Source)
	if err != nil {
		return "", stage.Fail(fmt.Sprintf("file %s content unavailable", file.ID), err)
	}
	defer src.Close()
	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect format of %s: %w", file.ID, err)
	}
	return mt.String(), nil
}
