package cas_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/cas"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

func TestLayoutIsStableAndFansOut(t *testing.T) {
	l, err := cas.NewLayout("sha256", 2, 2)
	require.NoError(t, err)

	key := l.Key("sead:file-1")
	assert.Len(t, key, 64)
	assert.Equal(t, key, l.Key("sead:file-1"))
	assert.NotEqual(t, key, l.Key("sead:file-2"))
	assert.Equal(t, key[0:2]+"/"+key[2:4]+"/"+key, l.RelPath("sead:file-1"))

	// Known vector: sha256("abc").
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", l.Key("abc"))

	flat, err := cas.NewLayout("sha256", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, key, flat.RelPath("sead:file-1"))
}

func TestLayoutAlgorithms(t *testing.T) {
	assert.Equal(t, []string{"blake3", "sha256", "sha512"}, cas.Algorithms())

	for alg, hexLen := range map[string]int{"sha256": 64, "sha512": 128, "BLAKE3": 64} {
		l, err := cas.NewLayout(alg, 3, 1)
		require.NoError(t, err, alg)
		assert.Len(t, l.Key("x"), hexLen, alg)
	}

	_, err := cas.NewLayout("md5", 2, 2)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
	_, err = cas.NewLayout("sha256", 40, 2)
	assert.Error(t, err)
	_, err = cas.NewLayout("sha256", 1, 0)
	assert.Error(t, err)
}

func TestDigestFormatting(t *testing.T) {
	assert.Equal(t, "sha256:00ff", cas.Digest("sha256", []byte{0x00, 0xff}))
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]cas.Compression{"": cas.CompressionNone, "none": cas.CompressionNone, "lz4": cas.CompressionLZ4, "zstd": cas.CompressionZstd} {
		got, err := cas.ParseCompression(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := cas.ParseCompression("gzip")
	assert.Error(t, err)
	assert.Equal(t, "zstd", cas.CompressionZstd.String())
}

func newStore(t *testing.T, compression cas.Compression) *cas.Store {
	t.Helper()
	l, err := cas.NewLayout("sha256", 2, 2)
	require.NoError(t, err)
	return cas.New(memfs.New(), l, compression, logging.NewNop())
}

func TestBucketRoundTripForEveryCompression(t *testing.T) {
	payload := []byte(strings.Repeat("temperature,depth\n12.5,3\n", 200))
	for _, c := range []cas.Compression{cas.CompressionNone, cas.CompressionLZ4, cas.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			b := newStore(t, c).Bucket("content")

			n, err := b.Put("file-1", bytes.NewReader(payload))
			require.NoError(t, err)
			assert.EqualValues(t, len(payload), n)

			ok, err := b.Exists("file-1")
			require.NoError(t, err)
			assert.True(t, ok)

			rc, err := b.Open("file-1")
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, payload, got)
		})
	}
}

func TestBucketMissingAndDelete(t *testing.T) {
	b := newStore(t, cas.CompressionNone).Bucket("meta")

	_, err := b.Open("absent")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	ok, err := b.Exists("absent")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, b.Delete("absent"))

	_, err = b.Put("k", strings.NewReader("v"))
	require.NoError(t, err)
	require.NoError(t, b.Delete("k"))
	ok, err = b.Exists("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBucketsAreSeparateNamespaces(t *testing.T) {
	s := newStore(t, cas.CompressionNone)
	_, err := s.Bucket("a").Put("k", strings.NewReader("from a"))
	require.NoError(t, err)

	_, err = s.Bucket("b").Open("k")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.NotEqual(t, s.Bucket("a").Path("k"), s.Bucket("b").Path("k"))
}

func TestBucketWalkVisitsEveryObject(t *testing.T) {
	s := newStore(t, cas.CompressionZstd)
	b := s.Bucket("meta")

	var seen []string
	require.NoError(t, b.Walk(func(r io.Reader) error {
		seen = append(seen, "unexpected")
		return nil
	}))
	assert.Empty(t, seen)

	for _, v := range []string{"one", "two", "three"} {
		_, err := b.Put(v, strings.NewReader(v))
		require.NoError(t, err)
	}
	require.NoError(t, b.Walk(func(r io.Reader) error {
		data, err := io.ReadAll(r)
		seen = append(seen, string(data))
		return err
	}))
	assert.ElementsMatch(t, []string{"one", "two", "three"}, seen)

	stop := errors.New("stop")
	assert.ErrorIs(t, b.Walk(func(io.Reader) error { return stop }), stop)
}

func TestOpenDirLocksDirectory(t *testing.T) {
	dir := t.TempDir()
	l, err := cas.NewLayout("blake3", 1, 3)
	require.NoError(t, err)

	first, err := cas.OpenDir(dir, l, cas.CompressionLZ4, logging.NewNop())
	require.NoError(t, err)

	_, err = cas.OpenDir(dir, l, cas.CompressionLZ4, logging.NewNop())
	assert.True(t, errors.Is(err, cas.ErrLocked), "got %v", err)

	_, err = first.Bucket("content").Put("f", strings.NewReader("persisted"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := cas.OpenDir(dir, l, cas.CompressionNone, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	rc, err := second.Bucket("content").Open("f")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(data), "objects keep their own compression tag")
}
