package archive_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/archive"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/testsupport"
)

func newMemoryArchive(t *testing.T) (*archive.Store, *content.Resolver) {
	t.Helper()
	fs := memfs.New()
	resolver := content.NewResolver(fs, "/in")
	for name, data := range map[string]string{
		"/in/f.csv":      "a,b\n1,2\n",
		"/in/du.xml":     "<du/>",
		"/in/other.bin":  "other",
		"/in/second.csv": "c,d\n",
	} {
		require.NoError(t, util.WriteFile(fs, name, []byte(data), 0o644))
	}
	store, err := archive.NewMemory(resolver, "sha256", logging.NewNop())
	require.NoError(t, err)
	return store, resolver
}

func event(id string, targets ...string) model.Event {
	ev := model.Event{ID: id, Type: "test.event", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Outcome: "ok"}
	ev.SetTargets(targets)
	return ev
}

// closurePackage is D with manifestation M holding F, and events E1
// targeting {F, D, M} and E2 targeting {D}.
func closurePackage() *model.Package {
	pkg := &model.Package{}
	pkg.Add(
		model.DeliverableUnit{ID: "D", Title: "dataset"},
		model.Manifestation{ID: "M", DeliverableUnit: "D", Files: []model.ManifestationFile{{FileRef: "F", Path: "data/f.csv"}}},
		model.File{ID: "F", Name: "f.csv", Source: "f.csv", Extant: true},
		event("E1", "F", "D", "M"),
		event("E2", "D"),
	)
	return pkg
}

func ids(pkg *model.Package) []string {
	return pkg.EntityIDs()
}

func TestRoundTripEveryEntity(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	pkg := testsupport.SamplePackage("rt", "/in")
	pkg.Files[0].Source = "f.csv"
	pkg.Files[1].Source = "du.xml"
	pkg.Add(event("rt-ev", "rt-du"))

	require.NoError(t, store.PutPackage(ctx, pkg))

	for _, e := range pkg.Entities() {
		got, err := store.GetPackage(ctx, e.EntityID())
		require.NoError(t, err)
		require.Equal(t, 1, got.Len())

		want := &model.Package{}
		want.Add(e)
		assert.True(t, want.Equal(got), "entity %s changed on round trip", e.EntityID())
	}
}

func TestClosureOfDeliverableUnit(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	unrelated := &model.Package{}
	unrelated.Add(
		model.DeliverableUnit{ID: "D2"},
		model.File{ID: "F2", Source: "other.bin", Extant: true},
		event("E3", "D2", "F2"),
	)
	require.NoError(t, store.PutPackage(ctx, unrelated))

	full, err := store.GetFullPackage(ctx, "D")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "M", "F", "E1", "E2"}, ids(full))

	fileOnly, err := store.GetFullPackage(ctx, "F")
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, ids(fileOnly))

	man, err := store.GetFullPackage(ctx, "M")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"M", "F"}, ids(man))
}

func TestClosureIncludesMetadataFilesAndCollectionEvents(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()

	pkg := &model.Package{}
	pkg.Add(
		model.Collection{ID: "C", MetadataRefs: []string{"C-meta"}},
		model.File{ID: "C-meta", Source: "du.xml", Extant: true, MetadataRefs: []string{"C-meta-meta"}},
		model.File{ID: "C-meta-meta", Source: "du.xml", Extant: true},
		model.DeliverableUnit{ID: "D", Collections: []string{"C"}},
		model.File{ID: "ev-meta", Source: "du.xml", Extant: true},
	)
	ev := event("EC", "C")
	ev.MetadataRefs = []string{"ev-meta"}
	pkg.Add(ev)
	require.NoError(t, store.PutPackage(ctx, pkg))

	full, err := store.GetFullPackage(ctx, "C")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C", "C-meta", "C-meta-meta", "EC", "ev-meta"}, ids(full),
		"collections pull in events and metadata but not their deliverable units")
}

func TestClosureTerminatesOnCycles(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()

	pkg := &model.Package{}
	pkg.Add(
		model.DeliverableUnit{ID: "D", MetadataRefs: []string{"A"}},
		model.File{ID: "A", MetadataRefs: []string{"B"}},
		model.File{ID: "B", MetadataRefs: []string{"A"}},
	)
	require.NoError(t, store.PutPackage(ctx, pkg))

	full, err := store.GetFullPackage(ctx, "D")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "A", "B"}, ids(full))
}

func TestRetrievalErrors(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	_, err := store.GetPackage(ctx, "missing")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	_, err = store.GetFullPackage(ctx, "missing")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	_, err = store.GetContent(ctx, "missing")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	_, err = store.GetContent(ctx, "D")
	assert.True(t, errors.Is(err, services.ErrWrongType))

	rc, err := store.GetContent(ctx, "F")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))

	info, err := store.ContentInfo(ctx, "F")
	require.NoError(t, err)
	assert.EqualValues(t, 8, info.Size)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, info.Digest)
}

func TestNonExtantFileHasNoContent(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	pkg := &model.Package{}
	pkg.Add(model.File{ID: "ghost"})
	require.NoError(t, store.PutPackage(ctx, pkg))

	_, err := store.GetContent(ctx, "ghost")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestListEntities(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	assert.Equal(t, []string{"D", "E1", "E2", "F", "M"}, store.ListEntities(ctx, ""))
	assert.Equal(t, []string{"E1", "E2"}, store.ListEntities(ctx, model.TypeEvent))
	assert.Empty(t, store.ListEntities(ctx, model.TypeCollection))
}

func TestPutPackageRejectsMalformedPackagesAtomically(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()

	dangling := closurePackage()
	dangling.Add(model.Manifestation{ID: "M2", DeliverableUnit: "nowhere"})
	err := store.PutPackage(ctx, dangling)
	assert.True(t, errors.Is(err, services.ErrMalformedPackage))
	assert.Empty(t, store.ListEntities(ctx, ""))

	missingContent := closurePackage()
	missingContent.Files[0].Source = "no-such-file.csv"
	err = store.PutPackage(ctx, missingContent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.Empty(t, store.ListEntities(ctx, ""), "a failed commit leaves nothing visible")

	assert.True(t, errors.Is(store.PutPackage(ctx, &model.Package{}), services.ErrMalformedPackage))
}

func TestRecommitIsIdempotentButEntriesAreImmutable(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))
	require.NoError(t, store.PutPackage(ctx, closurePackage()))
	assert.Len(t, store.ListEntities(ctx, ""), 5)

	changed := closurePackage()
	changed.DeliverableUnits[0].Title = "rewritten"
	err := store.PutPackage(ctx, changed)
	assert.True(t, errors.Is(err, services.ErrMalformedPackage))

	got, err := store.GetPackage(ctx, "D")
	require.NoError(t, err)
	assert.Equal(t, "dataset", got.DeliverableUnits[0].Title)
}

func TestPutPackageResolvesReferencesAgainstArchive(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	later := &model.Package{}
	later.Add(
		model.Manifestation{ID: "M-v2", DeliverableUnit: "D", Files: []model.ManifestationFile{{FileRef: "F-v2", Path: "data/second.csv"}}},
		model.File{ID: "F-v2", Source: "second.csv", Extant: true},
		event("E-v2", "D", "M-v2"),
	)
	require.NoError(t, store.PutPackage(ctx, later))

	full, err := store.GetFullPackage(ctx, "D")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "M", "F", "E1", "E2", "M-v2", "F-v2", "E-v2"}, ids(full))

	wrongType := &model.Package{}
	wrongType.Add(model.Manifestation{ID: "M-bad", DeliverableUnit: "F"})
	assert.True(t, errors.Is(store.PutPackage(ctx, wrongType), services.ErrMalformedPackage))
}

func TestRemove(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	require.NoError(t, store.Remove(ctx, "E2"))
	full, err := store.GetFullPackage(ctx, "D")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D", "M", "F", "E1"}, ids(full))

	require.NoError(t, store.Remove(ctx, "F"))
	_, err = store.GetContent(ctx, "F")
	assert.True(t, errors.Is(err, services.ErrNotFound))

	assert.True(t, errors.Is(store.Remove(ctx, "F"), services.ErrNotFound))
}

func TestConcurrentCommitsAndReads(t *testing.T) {
	store, _ := newMemoryArchive(t)
	ctx := context.Background()
	require.NoError(t, store.PutPackage(ctx, closurePackage()))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			pkg := &model.Package{}
			pkg.Add(
				model.DeliverableUnit{ID: fmt.Sprintf("du-%d", i)},
				event(fmt.Sprintf("ev-%d", i), fmt.Sprintf("du-%d", i), "D"),
			)
			errs <- store.PutPackage(ctx, pkg)
		}()
		go func() {
			defer wg.Done()
			full, err := store.GetFullPackage(ctx, "D")
			if err == nil && full.Len() < 5 {
				err = fmt.Errorf("closure shrank to %d entities", full.Len())
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	full, err := store.GetFullPackage(ctx, "D")
	require.NoError(t, err)
	assert.Equal(t, 5+16, full.Len())
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Archive.Backend = "tape"
	_, err := archive.Open(context.Background(), cfg, nil, logging.NewNop())
	assert.True(t, errors.Is(err, services.ErrConfiguration))
	assert.Equal(t, []string{config.ArchiveBackendFS, config.ArchiveBackendMemory}, archive.Backends())
}

func TestFilesystemBackendPersistsAcrossReopen(t *testing.T) {
	for _, compression := range []string{config.CompressionNone, config.CompressionZstd, config.CompressionLZ4} {
		t.Run(compression, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithArchiveLayout(config.DigestBLAKE3, 3, 1, compression))
			src := filepath.Join(testsupport.BaseDir(cfg), "in")
			testsupport.WriteFile(t, filepath.Join(src, "f.csv"), []byte("a,b\n1,2\n"))
			resolver := content.NewOSResolver(src)
			ctx := context.Background()

			store, err := archive.Open(ctx, cfg, resolver, logging.NewNop())
			require.NoError(t, err)
			require.NoError(t, store.PutPackage(ctx, closurePackage()))

			_, err = archive.Open(ctx, cfg, resolver, logging.NewNop())
			require.Error(t, err, "second writer must not open a locked archive")
			require.NoError(t, store.Close())

			reopened, err := archive.Open(ctx, cfg, resolver, logging.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { reopened.Close() })

			assert.Equal(t, []string{"D", "E1", "E2", "F", "M"}, reopened.ListEntities(ctx, ""))
			full, err := reopened.GetFullPackage(ctx, "D")
			require.NoError(t, err)
			assert.True(t, closurePackage().Equal(full))

			rc, err := reopened.GetContent(ctx, "F")
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "a,b\n1,2\n", string(data))
		})
	}
}
