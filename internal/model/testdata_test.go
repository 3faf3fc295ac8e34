package model

import "time"

func samplePackage() *Package {
	pkg := &Package{}
	pkg.Add(
		Collection{ID: "col-1", Title: "Hydrology"},
		DeliverableUnit{ID: "du-1", Title: "Survey", Collections: []string{"col-1"}, MetadataRefs: []string{"file-meta"}},
		Manifestation{ID: "man-1", DeliverableUnit: "du-1", Files: []ManifestationFile{{FileRef: "file-1", Path: "data/readings.csv"}}},
		File{ID: "file-1", Name: "readings.csv", Source: "/in/readings.csv", Extant: true},
		File{ID: "file-meta", Name: "du.xml", Source: "/in/du.xml", Extant: true},
	)
	ev := Event{ID: "ev-1", Type: EventIngestStart, Date: time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC)}
	ev.SetTargets([]string{"du-1", "man-1", "file-1"})
	pkg.Add(ev)
	return pkg
}
