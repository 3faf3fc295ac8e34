package staging

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/sipstore"
)

// Backend bundles a stager with the event log that lives beside it.
type Backend struct {
	Stager Stager
	Log    events.EventLog
	close  func() error
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// EventManager returns an event manager over the backend's log that checks
// every event against the backend's staged packages.
func (b *Backend) EventManager(logger *slog.Logger, opts ...events.Option) *events.Manager {
	opts = append([]events.Option{events.WithPackageSource(b.Stager)}, opts...)
	return events.NewManager(b.Log, logger, opts...)
}

// Factory opens a staging backend.
type Factory func(cfg *config.Config) (*Backend, error)

var backends = map[string]Factory{
	config.StagingBackendSQLite: openSQLite,
	config.StagingBackendMemory: openMemory,
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

// Open resolves cfg.Staging.Backend against the registry.
func Open(cfg *config.Config) (*Backend, error) {
	factory, ok := backends[cfg.Staging.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: unknown staging backend %q", services.ErrConfiguration, cfg.Staging.Backend)
	}
	return factory(cfg)
}

func openSQLite(cfg *config.Config) (*Backend, error) {
	store, err := sipstore.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{Stager: store, Log: store, close: store.Close}, nil
}

func openMemory(*config.Config) (*Backend, error) {
	return &Backend{Stager: NewMemoryStager(), Log: events.NewMemoryLog()}, nil
}
