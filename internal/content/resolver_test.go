package content_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

func TestResolverReadsAbsoluteRelativeAndFileURLSources(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/deposits/pkg/data/a.csv", []byte("x,y\n1,2\n"), 0o644))

	r := content.NewResolver(fs, "/deposits/pkg")
	for _, source := range []string{"/deposits/pkg/data/a.csv", "data/a.csv", "file:///deposits/pkg/data/a.csv", `data\a.csv`} {
		rc, err := r.Open(source)
		require.NoError(t, err, source)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "x,y\n1,2\n", string(data), source)
	}

	size, err := r.Size("data/a.csv")
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)
	assert.True(t, r.Exists("data/a.csv"))
}

func TestResolverReportsMissingContent(t *testing.T) {
	r := content.NewResolver(memfs.New(), "/")

	_, err := r.Open("/nope")
	assert.True(t, errors.Is(err, services.ErrNotFound), "got %v", err)
	_, err = r.Size("/nope")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.False(t, r.Exists("/nope"))

	_, err = r.Open("  ")
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestOSResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hello"), 0o644))

	r := content.NewOSResolver(dir)
	rc, err := r.Open("f.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, "/elsewhere", r.WithBase("/elsewhere").Base())
}
