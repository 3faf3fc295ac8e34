package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Staging.DBPath = filepath.Join(base, "staging.db")
	cfgVal.Archive.Dir = filepath.Join(base, "archive")
	cfgVal.Ingest.WorkerCount = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMemoryBackends selects the in-memory stager and archive.
func WithMemoryBackends() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Staging.Backend = config.StagingBackendMemory
		b.cfg.Archive.Backend = config.ArchiveBackendMemory
	}
}

// WithWorkers overrides the ingest worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.WorkerCount = n
	}
}

// WithArchiveLayout overrides the content-addressing settings.
func WithArchiveLayout(algorithm string, depth, width int, compression string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.DigestAlgorithm = algorithm
		b.cfg.Archive.FanoutDepth = depth
		b.cfg.Archive.FanoutWidth = width
		b.cfg.Archive.Compression = compression
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
