// Package content resolves a File entity's source reference to its bytes.
//
// Sources are plain paths or file:// URLs. Relative paths resolve against the
// resolver's base directory, which for the CLI is the directory holding the
// package description.
package content

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

const fileScheme = "file://"

// Resolver opens file content through a billy filesystem.
type Resolver struct {
	fs   billy.Filesystem
	base string
}

// NewResolver returns a resolver over fs. Relative sources are joined to base.
func NewResolver(fs billy.Filesystem, base string) *Resolver {
	return &Resolver{fs: fs, base: base}
}

// NewOSResolver returns a resolver over the host filesystem.
func NewOSResolver(base string) *Resolver {
	return NewResolver(osfs.New("/"), base)
}

// Base returns the directory relative sources resolve against.
func (r *Resolver) Base() string {
	return r.base
}

// WithBase returns a copy of the resolver using a different base directory.
func (r *Resolver) WithBase(base string) *Resolver {
	return &Resolver{fs: r.fs, base: base}
}

// Open returns a reader for source. Missing content reports
// services.ErrNotFound.
func (r *Resolver) Open(source string) (io.ReadCloser, error) {
	name, err := r.resolve(source)
	if err != nil {
		return nil, err
	}
	f, err := r.fs.Open(name)
	if err != nil {
		return nil, r.wrap("open", source, err)
	}
	return f, nil
}

// Size returns the content length of source in bytes.
func (r *Resolver) Size(source string) (int64, error) {
	name, err := r.resolve(source)
	if err != nil {
		return 0, err
	}
	info, err := r.fs.Stat(name)
	if err != nil {
		return 0, r.wrap("stat", source, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: content source %q is a directory", services.ErrValidation, source)
	}
	return info.Size(), nil
}

// Exists reports whether source names readable content.
func (r *Resolver) Exists(source string) bool {
	_, err := r.Size(source)
	return err == nil
}

func (r *Resolver) resolve(source string) (string, error) {
	name := strings.TrimSpace(source)
	name = strings.TrimPrefix(name, fileScheme)
	if name == "" {
		return "", fmt.Errorf("%w: empty content source", services.ErrValidation)
	}
	name = strings.ReplaceAll(name, "\\", "/")
	if !path.IsAbs(name) && r.base != "" {
		name = path.Join(strings.ReplaceAll(r.base, "\\", "/"), name)
	}
	return path.Clean(name), nil
}

func (r *Resolver) wrap(op, source string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s content %q: %w: %w", op, source, services.ErrNotFound, err)
	}
	return fmt.Errorf("%s content %q: %w", op, source, err)
}
