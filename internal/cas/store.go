package cas

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/preflight"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

const (
	lockFileName = ".seadva.lock"
	tempPrefix   = ".tmp-"
)

// ErrLocked is returned when another process holds the archive directory.
var ErrLocked = errors.New("archive directory locked by another process")

// Store keeps objects in named buckets under one root filesystem.
type Store struct {
	fs          billy.Filesystem
	layout      Layout
	compression Compression
	lock        *flock.Flock
	logger      *slog.Logger
}

// New returns a store over fs without taking a directory lock.
func New(fs billy.Filesystem, layout Layout, compression Compression, logger *slog.Logger) *Store {
	return &Store{
		fs:          fs,
		layout:      layout,
		compression: compression,
		logger:      logging.NewComponentLogger(logger, "cas"),
	}
}

// OpenDir opens a store rooted at dir on the host filesystem and takes an
// exclusive lock on it for the lifetime of the store.
func OpenDir(dir string, layout Layout, compression Compression, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	if check := preflight.CheckDirectoryAccess("archive directory", dir); !check.Passed {
		return nil, fmt.Errorf("%w: %s", services.ErrConfiguration, check.Detail)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}

	s := New(osfs.New(dir), layout, compression, logger)
	s.lock = lock
	s.logger.Debug("archive directory opened",
		logging.String("dir", dir),
		logging.String("algorithm", layout.Algorithm),
		logging.String("compression", compression.String()),
	)
	return s, nil
}

// Close releases the directory lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release archive lock: %w", err)
	}
	return nil
}

// Layout returns the store's path layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Bucket returns the object namespace stored under name.
func (s *Store) Bucket(name string) *Bucket {
	return &Bucket{store: s, dir: name}
}

// Bucket is one namespace of objects. Keys are hashed into paths, so a bucket
// cannot list its keys; Walk visits object payloads instead.
type Bucket struct {
	store *Store
	dir   string
}

// Path returns the bucket-relative object path for key.
func (b *Bucket) Path(key string) string {
	return path.Join(b.dir, b.store.layout.RelPath(key))
}

// Put writes r as the object for key, replacing any existing object. The
// object becomes visible only once fully written.
func (b *Bucket) Put(key string, r io.Reader) (int64, error) {
	fs := b.store.fs
	target := b.Path(key)
	if err := fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := fs.TempFile(path.Dir(target), tempPrefix)
	if err != nil {
		return 0, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write([]byte{byte(b.store.compression)}); err != nil {
		return 0, fmt.Errorf("write object header: %w", err)
	}
	w, err := compressWriter(tmp, b.store.compression)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(w, r)
	if err != nil {
		return 0, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("flush object %s: %w", key, err)
	}
	if syncer, ok := tmp.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return 0, fmt.Errorf("sync object %s: %w", key, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close object %s: %w", key, err)
	}
	if err := fs.Rename(tmpName, target); err != nil {
		return 0, fmt.Errorf("commit object %s: %w", key, err)
	}
	committed = true
	return written, nil
}

// Open returns the decompressed payload for key.
func (b *Bucket) Open(key string) (io.ReadCloser, error) {
	return b.openPath(b.Path(key), key)
}

// Exists reports whether an object is stored for key.
func (b *Bucket) Exists(key string) (bool, error) {
	_, err := b.store.fs.Stat(b.Path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat object %s: %w", key, err)
	}
}

// Delete removes the object for key. Missing objects are not an error.
func (b *Bucket) Delete(key string) error {
	err := b.store.fs.Remove(b.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Walk calls fn with the payload of every object in the bucket. Walking stops
// at the first error fn returns.
func (b *Bucket) Walk(fn func(r io.Reader) error) error {
	if _, err := b.store.fs.Stat(b.dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return util.Walk(b.store.fs, b.dir, func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
			return nil
		}
		rc, err := b.openPath(name, info.Name())
		if err != nil {
			return err
		}
		defer rc.Close()
		return fn(rc)
	})
}

func (b *Bucket) openPath(name, key string) (io.ReadCloser, error) {
	f, err := b.store.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", key, services.ErrNotFound)
		}
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	var tag [1]byte
	if _, err := io.ReadFull(f, tag[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("read object header %s: %w", key, err)
	}
	return decompressReader(f, Compression(tag[0]))
}
