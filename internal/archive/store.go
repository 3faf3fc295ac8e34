package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/cas"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// Store is the archive. It is safe for concurrent use; PutPackage, Remove
// and Load are serialized against each other and against readers of the
// index.
type Store struct {
	entities EntityStore
	metadata MetadataStore
	resolver *content.Resolver
	digest   string
	logger   *slog.Logger
	closer   func() error

	mu    sync.RWMutex
	index *index
}

// New returns a store over the given primitives. Content for extant files is
// read through resolver and fingerprinted with digestAlgorithm. Call Load to
// index entries already present in metadata.
func New(entities EntityStore, metadata MetadataStore, resolver *content.Resolver, digestAlgorithm string, logger *slog.Logger) (*Store, error) {
	if _, err := cas.NewHash(digestAlgorithm); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = content.NewOSResolver("")
	}
	return &Store{
		entities: entities,
		metadata: metadata,
		resolver: resolver,
		digest:   digestAlgorithm,
		logger:   logging.NewComponentLogger(logger, "archive"),
		index:    newIndex(),
	}, nil
}

// Close releases backend resources.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Load rebuilds the relationship index from the metadata store.
func (s *Store) Load(ctx context.Context) error {
	ix := newIndex()
	err := s.metadata.Walk(func(r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, e, err := decodeRecord(data)
		if err != nil {
			return err
		}
		ix.add(e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load archive index: %w", err)
	}

	s.mu.Lock()
	s.index = ix
	s.mu.Unlock()
	s.logger.Info("archive index loaded", logging.Int("entries", len(ix.types)))
	return nil
}

// Lookup reports the type of a committed entity.
func (s *Store) Lookup(id string) (model.EntityType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.lookup(id)
}

// PutPackage validates pkg and commits every entity in it. References may
// resolve to entities committed earlier. Re-committing an identical entity
// is a no-op; committing different content under an existing id fails with
// services.ErrMalformedPackage. Entries become visible together once the
// whole package is written; on error none of them do.
func (s *Store) PutPackage(ctx context.Context, pkg *model.Package) error {
	if pkg == nil || pkg.Len() == 0 {
		return fmt.Errorf("%w: empty package", services.ErrMalformedPackage)
	}
	pkg = pkg.Clone()
	pkg.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := pkg.ValidateWith(s.index.lookup); err != nil {
		return err
	}

	type pending struct {
		entity model.Entity
		record record
	}
	var fresh []pending
	for _, e := range pkg.Entities() {
		rec, err := newRecord(e)
		if err != nil {
			return fmt.Errorf("%w: %v", services.ErrMalformedPackage, err)
		}
		if _, exists := s.index.lookup(e.EntityID()); exists {
			if err := s.checkUnchanged(e.EntityID(), rec); err != nil {
				return err
			}
			continue
		}
		fresh = append(fresh, pending{entity: e, record: rec})
	}

	var written []string
	rollback := func() {
		for _, id := range written {
			_ = s.entities.Delete(id)
			_ = s.metadata.Delete(id)
		}
	}

	for i := range fresh {
		if err := ctx.Err(); err != nil {
			rollback()
			return err
		}
		p := &fresh[i]
		id := p.entity.EntityID()
		written = append(written, id)
		if f, ok := p.entity.(model.File); ok && f.Extant {
			info, err := s.putContent(f)
			if err != nil {
				rollback()
				return err
			}
			p.record.Content = info
		}
		data, err := codec.Marshal(p.record)
		if err != nil {
			rollback()
			return fmt.Errorf("encode %s: %w", id, err)
		}
		if _, err := s.metadata.Put(id, bytes.NewReader(data)); err != nil {
			rollback()
			return fmt.Errorf("write metadata %s: %w", id, err)
		}
	}

	for _, p := range fresh {
		s.index.add(p.entity)
	}
	s.logger.Info("package committed",
		logging.Int("entities", pkg.Len()),
		logging.Int("new_entries", len(fresh)),
		logging.String(logging.FieldEventType, "archive_commit"),
	)
	return nil
}

func (s *Store) checkUnchanged(id string, rec record) error {
	stored, _, err := s.readRecord(id)
	if err != nil {
		return err
	}
	a, err := stored.body()
	if err != nil {
		return err
	}
	b, err := rec.body()
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) {
		return fmt.Errorf("%w: entity %q is already archived with different metadata", services.ErrMalformedPackage, id)
	}
	return nil
}

func (s *Store) putContent(f model.File) (*ContentInfo, error) {
	src, err := s.resolver.Open(f.Source)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", f.ID, err)
	}
	defer src.Close()

	h, err := cas.NewHash(s.digest)
	if err != nil {
		return nil, err
	}
	n, err := s.entities.Put(f.ID, io.TeeReader(src, h))
	if err != nil {
		return nil, fmt.Errorf("write content %s: %w", f.ID, err)
	}
	return &ContentInfo{Size: n, Digest: cas.Digest(s.digest, h.Sum(nil))}, nil
}

// ListEntities returns the ids of committed entities of type t, or of every
// type when t is empty, in lexical order.
func (s *Store) ListEntities(_ context.Context, t model.EntityType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.index.types))
	for id, et := range s.index.types {
		if t == "" || et == t {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// GetContent returns the bytes of a file entry.
func (s *Store) GetContent(_ context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.index.lookup(id)
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, services.ErrNotFound)
	}
	if t != model.TypeFile {
		return nil, fmt.Errorf("entity %q is a %s: %w", id, t, services.ErrWrongType)
	}
	rc, err := s.entities.Open(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, fmt.Errorf("file %q has no archived content: %w", id, services.ErrNotFound)
		}
		return nil, err
	}
	return rc, nil
}

// ContentInfo returns the recorded size and digest of a file entry's bytes.
func (s *Store) ContentInfo(_ context.Context, id string) (*ContentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.index.lookup(id); !ok {
		return nil, fmt.Errorf("entity %q: %w", id, services.ErrNotFound)
	}
	rec, _, err := s.readRecord(id)
	if err != nil {
		return nil, err
	}
	return rec.Content, nil
}

// GetPackage returns a package holding only the entity id.
func (s *Store) GetPackage(_ context.Context, id string) (*model.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.index.lookup(id); !ok {
		return nil, fmt.Errorf("entity %q: %w", id, services.ErrNotFound)
	}
	_, e, err := s.readRecord(id)
	if err != nil {
		return nil, err
	}
	pkg := &model.Package{}
	pkg.Add(e)
	return pkg, nil
}

// GetFullPackage returns id together with its significantly related
// entities: for every entity its metadata files; for collections and
// deliverable units the events targeting them; for deliverable units their
// manifestations; for manifestations their files. Expansion is recursive
// and visits each entity once.
func (s *Store) GetFullPackage(ctx context.Context, id string) (*model.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.index.lookup(id); !ok {
		return nil, fmt.Errorf("entity %q: %w", id, services.ErrNotFound)
	}

	pkg := &model.Package{}
	visited := map[string]struct{}{}
	queue := []string{id}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		if _, ok := s.index.lookup(next); !ok {
			continue
		}
		_, e, err := s.readRecord(next)
		if err != nil {
			return nil, err
		}
		pkg.Add(e)
		queue = append(queue, s.index.related(next)...)
	}
	return pkg, nil
}

// Remove deletes a committed entry. Entries referring to it are left as
// they are.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index.lookup(id); !ok {
		return fmt.Errorf("entity %q: %w", id, services.ErrNotFound)
	}
	_, e, err := s.readRecord(id)
	if err != nil {
		return err
	}
	if err := s.entities.Delete(id); err != nil {
		return err
	}
	if err := s.metadata.Delete(id); err != nil {
		return err
	}
	s.index.remove(e)
	s.logger.Info("archive entry removed",
		logging.Entity(id),
		logging.String(logging.FieldEventType, "archive_remove"),
	)
	return nil
}

func (s *Store) readRecord(id string) (record, model.Entity, error) {
	rc, err := s.metadata.Open(id)
	if err != nil {
		return record{}, nil, fmt.Errorf("read metadata %s: %w", id, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return record{}, nil, fmt.Errorf("read metadata %s: %w", id, err)
	}
	return decodeRecord(data)
}
