package cas

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"path"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

const (
	AlgorithmSHA256 = "sha256"
	AlgorithmSHA512 = "sha512"
	AlgorithmBLAKE3 = "blake3"
)

var hashers = map[string]func() hash.Hash{
	AlgorithmSHA256: digest.SHA256.Hash,
	AlgorithmSHA512: digest.SHA512.Hash,
	AlgorithmBLAKE3: func() hash.Hash { return blake3.New() },
}

// Algorithms lists the supported digest algorithm names.
func Algorithms() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewHash returns a fresh hash for algorithm.
func NewHash(algorithm string) (hash.Hash, error) {
	newHash, ok := hashers[strings.ToLower(algorithm)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported digest algorithm %q", services.ErrConfiguration, algorithm)
	}
	return newHash(), nil
}

// Layout derives storage paths from keys.
type Layout struct {
	Algorithm string
	Depth     int
	Width     int
}

// NewLayout validates and returns a layout.
func NewLayout(algorithm string, depth, width int) (Layout, error) {
	l := Layout{Algorithm: strings.ToLower(algorithm), Depth: depth, Width: width}
	h, err := NewHash(l.Algorithm)
	if err != nil {
		return Layout{}, err
	}
	if depth < 0 || width < 1 {
		return Layout{}, fmt.Errorf("%w: fanout depth %d width %d", services.ErrConfiguration, depth, width)
	}
	if depth*width > h.Size()*2 {
		return Layout{}, fmt.Errorf("%w: fanout %dx%d exceeds %s digest length", services.ErrConfiguration, depth, width, l.Algorithm)
	}
	return l, nil
}

// Key returns the hex digest of key.
func (l Layout) Key(key string) string {
	h, err := NewHash(l.Algorithm)
	if err != nil {
		// NewLayout rejects unknown algorithms.
		panic(err)
	}
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// RelPath returns the slash-separated object path for key.
func (l Layout) RelPath(key string) string {
	return l.pathFor(l.Key(key))
}

func (l Layout) pathFor(sum string) string {
	parts := make([]string, 0, l.Depth+1)
	for i := range l.Depth {
		parts = append(parts, sum[i*l.Width:(i+1)*l.Width])
	}
	parts = append(parts, sum)
	return path.Join(parts...)
}

// Digest renders a content digest in algorithm:hex form.
func Digest(algorithm string, sum []byte) string {
	return string(digest.NewDigestFromEncoded(digest.Algorithm(algorithm), hex.EncodeToString(sum)))
}
