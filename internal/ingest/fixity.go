package ingest

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

// FixityAlgorithm is the digest recorded for every extant file.
const FixityAlgorithm = "sha256"

// FixityChecker streams each extant file, records its sha256 digest and size
// and rejects files whose declared digest or size disagrees.
type FixityChecker struct {
	base
}

func NewFixityChecker(d Deps) *FixityChecker {
	return &FixityChecker{base: newBase(StageFixity, d)}
}

func (f *FixityChecker) Prepare(ctx context.Context, _ string) error {
	return f.HealthCheck(ctx).Err()
}

func (f *FixityChecker) HealthCheck(ctx context.Context) stage.Health {
	if f.deps.Resolver == nil {
		return stage.Missing(f.name, "content resolver")
	}
	return f.base.HealthCheck(ctx)
}

type fixityResult struct {
	fileID string
	digest digest.Digest
}

func (f *FixityChecker) Execute(ctx context.Context, sipID string) error {
	var results []fixityResult
	err := staging.Mutate(ctx, f.deps.Stager, sipID, func(pkg *model.Package) error {
		results = results[:0]
		for i := range pkg.Files {
			file := &pkg.Files[i]
			if !file.Extant {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			dgst, size, err := f.measure(file)
			if err != nil {
				return err
			}
			if declared, ok := file.FixityValue(FixityAlgorithm); ok && declared != dgst.Encoded() {
				return stage.Failf("file %s: %s mismatch: declared %s, computed %s", file.ID, FixityAlgorithm, declared, dgst.Encoded())
			}
			if file.SizeBytes > 0 && file.SizeBytes != size {
				return stage.Failf("file %s: size mismatch: declared %d, computed %d", file.ID, file.SizeBytes, size)
			}
			file.SizeBytes = size
			if _, ok := file.FixityValue(FixityAlgorithm); !ok {
				file.Fixity = append(file.Fixity, model.Fixity{Algorithm: FixityAlgorithm, Value: dgst.Encoded()})
			}
			results = append(results, fixityResult{fileID: file.ID, digest: dgst})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if err := f.record(ctx, sipID, model.EventDigestCalculation, "computed", r.digest.String(), r.fileID); err != nil {
			return err
		}
	}
	f.log(ctx).Info("fixity recorded", logging.Int("files", len(results)))
	return nil
}

func (f *FixityChecker) measure(file *model.File) (digest.Digest, int64, error) {
	src, err := f.deps.Resolver.Open(file.Source)
	if err != nil {
		return "", 0, stage.Fail(fmt.Sprintf("file %s content unavailable", file.ID), err)
	}
	defer src.Close()

	digester := digest.SHA256.Digester()
	size, err := io.Copy(digester.Hash(), src)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", file.Source, err)
	}
	return digester.Digest(), size, nil
}
