package staging

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/sipstore"
)

// Summary describes a staged submission.
type Summary = sipstore.Summary

// Stager is a keyed store of in-flight packages. GetSIP returns nil without
// error for unknown ids; RemoveSIP of an unknown id is a no-op.
type Stager interface {
	AddSIP(ctx context.Context, pkg *model.Package) (string, error)
	GetSIP(ctx context.Context, id string) (*model.Package, error)
	UpdateSIP(ctx context.Context, pkg *model.Package, id string) error
	RemoveSIP(ctx context.Context, id string) error
	Keys(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]Summary, error)
}

type memoryEntry struct {
	pkg     *model.Package
	created time.Time
	updated time.Time
}

// MemoryStager keeps staged packages in process memory. Packages are cloned on
// the way in and out so callers never share state with the store.
type MemoryStager struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStager returns an empty MemoryStager.
func NewMemoryStager() *MemoryStager {
	return &MemoryStager{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStager) AddSIP(_ context.Context, pkg *model.Package) (string, error) {
	if pkg == nil {
		return "", fmt.Errorf("%w: package is nil", services.ErrValidation)
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	s.mu.Lock()
	s.entries[id] = memoryEntry{pkg: pkg.Clone(), created: now, updated: now}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStager) GetSIP(_ context.Context, id string) (*model.Package, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return entry.pkg.Clone(), nil
}

// UpdateSIP replaces the stored package. Unknown ids are inserted.
func (s *MemoryStager) UpdateSIP(_ context.Context, pkg *model.Package, id string) error {
	if pkg == nil {
		return fmt.Errorf("%w: package is nil", services.ErrValidation)
	}
	if id == "" {
		return fmt.Errorf("%w: submission id is empty", services.ErrValidation)
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		entry.created = now
	}
	entry.pkg = pkg.Clone()
	entry.updated = now
	s.entries[id] = entry
	return nil
}

func (s *MemoryStager) RemoveSIP(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStager) Keys(ctx context.Context) ([]string, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		keys = append(keys, sum.ID)
	}
	return keys, nil
}

// List returns summaries oldest first.
func (s *MemoryStager) List(context.Context) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.entries))
	for id, entry := range s.entries {
		out = append(out, Summary{ID: id, EntityCount: entry.pkg.Len(), CreatedAt: entry.created, UpdatedAt: entry.updated})
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

// Mutate loads the submission, applies fn and stores the result. An unknown
// id yields services.ErrNotFound; an error from fn aborts without writing.
func Mutate(ctx context.Context, stager Stager, id string, fn func(*model.Package) error) error {
	pkg, err := stager.GetSIP(ctx, id)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", id, err)
	}
	if pkg == nil {
		return fmt.Errorf("submission %s: %w", id, services.ErrNotFound)
	}
	if err := fn(pkg); err != nil {
		return err
	}
	if err := stager.UpdateSIP(ctx, pkg, id); err != nil {
		return fmt.Errorf("store submission %s: %w", id, err)
	}
	return nil
}

// Load returns the staged package or services.ErrNotFound.
func Load(ctx context.Context, stager Stager, id string) (*model.Package, error) {
	pkg, err := stager.GetSIP(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load submission %s: %w", id, err)
	}
	if pkg == nil {
		return nil, fmt.Errorf("submission %s: %w", id, services.ErrNotFound)
	}
	return pkg, nil
}
