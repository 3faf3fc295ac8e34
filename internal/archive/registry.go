package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/cas"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

const (
	contentBucket  = "content"
	metadataBucket = "metadata"
)

// Factory opens an archive backend.
type Factory func(ctx context.Context, cfg *config.Config, resolver *content.Resolver, logger *slog.Logger) (*Store, error)

var backends = map[string]Factory{
	config.ArchiveBackendMemory: openMemory,
	config.ArchiveBackendFS:     openFS,
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open resolves cfg.Archive.Backend against the registry and returns a
// loaded store.
func Open(ctx context.Context, cfg *config.Config, resolver *content.Resolver, logger *slog.Logger) (*Store, error) {
	factory, ok := backends[cfg.Archive.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: unknown archive backend %q", services.ErrConfiguration, cfg.Archive.Backend)
	}
	return factory(ctx, cfg, resolver, logger)
}

// NewMemory returns an empty in-process archive.
func NewMemory(resolver *content.Resolver, digestAlgorithm string, logger *slog.Logger) (*Store, error) {
	return New(newMemoryBlobs(), newMemoryBlobs(), resolver, digestAlgorithm, logger)
}

func openMemory(_ context.Context, cfg *config.Config, resolver *content.Resolver, logger *slog.Logger) (*Store, error) {
	return NewMemory(resolver, cfg.Archive.DigestAlgorithm, logger)
}

func openFS(ctx context.Context, cfg *config.Config, resolver *content.Resolver, logger *slog.Logger) (*Store, error) {
	layout, err := cas.NewLayout(cfg.Archive.DigestAlgorithm, cfg.Archive.FanoutDepth, cfg.Archive.FanoutWidth)
	if err != nil {
		return nil, err
	}
	compression, err := cas.ParseCompression(cfg.Archive.Compression)
	if err != nil {
		return nil, err
	}
	objects, err := cas.OpenDir(cfg.Archive.Dir, layout, compression, logger)
	if err != nil {
		return nil, err
	}
	store, err := New(objects.Bucket(contentBucket), objects.Bucket(metadataBucket), resolver, cfg.Archive.DigestAlgorithm, logger)
	if err != nil {
		objects.Close()
		return nil, err
	}
	store.closer = objects.Close
	if err := store.Load(ctx); err != nil {
		objects.Close()
		return nil, err
	}
	return store, nil
}
