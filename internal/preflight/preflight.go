package preflight

import (
	"path/filepath"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Staging.Backend == config.StagingBackendSQLite {
		results = append(results, CheckDirectoryAccess("Staging database directory", filepath.Dir(cfg.Staging.DBPath)))
		results = append(results, CheckFileAccess("Staging database", cfg.Staging.DBPath))
	}

	if cfg.Archive.Backend == config.ArchiveBackendFS {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Archive.Dir))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
