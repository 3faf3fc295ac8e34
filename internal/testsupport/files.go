package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SamplePackage returns a small well-formed package whose ids carry prefix:
// one collection, one deliverable unit with a metadata file, one
// manifestation holding one data file, and no events. File sources point at
// sourceDir/<prefix>-data.csv and sourceDir/<prefix>-du.xml.
func SamplePackage(prefix, sourceDir string) *model.Package {
	pkg := &model.Package{}
	pkg.Add(
		model.Collection{ID: prefix + "-col", Title: prefix + " collection"},
		model.DeliverableUnit{
			ID:           prefix + "-du",
			Title:        prefix + " dataset",
			Collections:  []string{prefix + "-col"},
			MetadataRefs: []string{prefix + "-meta"},
		},
		model.Manifestation{
			ID:              prefix + "-man",
			DeliverableUnit: prefix + "-du",
			Files:           []model.ManifestationFile{{FileRef: prefix + "-file", Path: "data/" + prefix + ".csv"}},
		},
		model.File{ID: prefix + "-file", Name: prefix + ".csv", Source: filepath.Join(sourceDir, prefix+"-data.csv"), Extant: true},
		model.File{ID: prefix + "-meta", Name: prefix + ".xml", Source: filepath.Join(sourceDir, prefix+"-du.xml"), Extant: true},
	)
	return pkg
}

// SampleEvent returns an event with fixed id, type and date.
func SampleEvent(id, eventType string, targets ...string) model.Event {
	ev := model.Event{ID: id, Type: eventType, Date: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Outcome: "ok"}
	ev.SetTargets(targets)
	return ev
}
