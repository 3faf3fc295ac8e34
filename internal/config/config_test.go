package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists, "expected config file to be absent in temp HOME")

	wantData := filepath.Join(tempHome, ".local", "share", "seadva")
	assert.Equal(t, wantData, cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(wantData, "logs"), cfg.Paths.LogDir)
	assert.Equal(t, filepath.Join(wantData, "staging.db"), cfg.Staging.DBPath)
	assert.Equal(t, filepath.Join(wantData, "archive"), cfg.Archive.Dir)
	assert.Equal(t, config.DigestSHA256, cfg.Archive.DigestAlgorithm)
	assert.Equal(t, config.Default().Ingest.WorkerCount, cfg.Ingest.WorkerCount)
	assert.True(t, cfg.Ingest.RetireCompleted, "completed submissions are retired by default")
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload := struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Ingest struct {
			WorkerCount int `toml:"worker_count"`
			QueueSize   int `toml:"queue_size"`
		} `toml:"ingest"`
		Archive struct {
			Backend         string `toml:"backend"`
			DigestAlgorithm string `toml:"digest_algorithm"`
			Compression     string `toml:"compression"`
		} `toml:"archive"`
		Logging struct {
			Level          string            `toml:"level"`
			StageOverrides map[string]string `toml:"stage_overrides"`
		} `toml:"logging"`
	}{}
	payload.Paths.DataDir = "~/archive-data"
	payload.Ingest.WorkerCount = 8
	payload.Ingest.QueueSize = 16
	payload.Archive.Backend = "FS"
	payload.Archive.DigestAlgorithm = "BLAKE3"
	payload.Archive.Compression = "zstd"
	payload.Logging.Level = "debug"
	payload.Logging.StageOverrides = map[string]string{"Fixity": "WARN"}

	data, err := toml.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, filepath.Join(tempHome, "archive-data"), cfg.Paths.DataDir)
	assert.Equal(t, config.ArchiveBackendFS, cfg.Archive.Backend, "backend is lower-cased")
	assert.Equal(t, config.DigestBLAKE3, cfg.Archive.DigestAlgorithm)
	assert.Equal(t, config.CompressionZstd, cfg.Archive.Compression)
	assert.Equal(t, 8, cfg.Ingest.WorkerCount)
	assert.Equal(t, 16, cfg.Ingest.QueueSize)

	level, ok := cfg.StageLogLevel("fixity")
	assert.True(t, ok)
	assert.Equal(t, "warn", level)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[archive]\nbogus = 1\n"), 0o644))
	_, _, _, err := config.Load(path)
	assert.Error(t, err)
}

func TestEnvironmentFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	archiveDir := filepath.Join(tempHome, "vault")
	t.Setenv("SEADVA_ARCHIVE_DIR", archiveDir)
	t.Setenv("SEADVA_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, archiveDir, cfg.Archive.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"worker count":   func(c *config.Config) { c.Ingest.WorkerCount = 0 },
		"queue size":     func(c *config.Config) { c.Ingest.QueueSize = -1 },
		"digest":         func(c *config.Config) { c.Archive.DigestAlgorithm = "md5" },
		"compression":    func(c *config.Config) { c.Archive.Compression = "gzip" },
		"fanout width":   func(c *config.Config) { c.Archive.FanoutWidth = 0 },
		"staging engine": func(c *config.Config) { c.Staging.Backend = "redis" },
		"archive engine": func(c *config.Config) { c.Archive.Backend = "s3" },
		"log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"stage override": func(c *config.Config) { c.Logging.StageOverrides = map[string]string{"fixity": "loud"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Staging.DBPath = "/tmp/staging.db"
			cfg.Archive.Dir = "/tmp/archive"
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[archive]")

	_, _, _, err = config.Load(path)
	assert.NoError(t, err, "sample config failed to load")
}

func TestEnsureDirectoriesCreatesLayout(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfg.Staging.DBPath = filepath.Join(base, "db", "staging.db")
	cfg.Archive.Dir = filepath.Join(base, "archive")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Staging.DBPath), cfg.Archive.Dir} {
		assert.DirExists(t, dir)
	}
}
