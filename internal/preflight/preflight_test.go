package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	assert.True(t, result.Passed, result.Detail)
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Detail)
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	assert.False(t, CheckDirectoryAccess("test", f).Passed)
}

func TestCheckFileAccess(t *testing.T) {
	dir := t.TempDir()
	r := CheckFileAccess("db", filepath.Join(dir, "missing.db"))
	assert.True(t, r.Passed, "missing file should pass: %s", r.Detail)
	assert.False(t, CheckFileAccess("db", dir).Passed, "expected failure for directory")

	f := filepath.Join(dir, "staging.db")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	r = CheckFileAccess("db", f)
	assert.True(t, r.Passed, r.Detail)
}

func TestRunAllSkipsMemoryBackends(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = base
	cfg.Staging.Backend = config.StagingBackendMemory
	cfg.Archive.Backend = config.ArchiveBackendMemory

	results := RunAll(&cfg)
	require.Len(t, results, 2)
	assert.Empty(t, Failed(results))

	cfg.Archive.Backend = config.ArchiveBackendFS
	cfg.Archive.Dir = filepath.Join(base, "missing-archive")
	failed := Failed(RunAll(&cfg))
	require.Len(t, failed, 1)
	assert.Equal(t, "Archive directory", failed[0].Name)
}
