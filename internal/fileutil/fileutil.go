package fileutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/cas"
)

// WriteVerified streams r into dst and checks the written bytes against the
// expected size and algorithm:hex digest. dst is only replaced when both
// match; a mismatch leaves no file behind. A negative size skips the size
// check and an empty digest skips the digest check.
func WriteVerified(r io.Reader, dst string, size int64, digest string) error {
	var (
		alg  string
		want string
	)
	if digest != "" {
		var ok bool
		alg, want, ok = strings.Cut(digest, ":")
		if !ok || alg == "" || want == "" {
			return fmt.Errorf("malformed digest %q", digest)
		}
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	var w io.Writer = tmp
	var sum func() []byte
	if alg != "" {
		h, err := cas.NewHash(alg)
		if err != nil {
			return err
		}
		w = io.MultiWriter(tmp, h)
		sum = func() []byte { return h.Sum(nil) }
	}

	written, err := io.Copy(w, r)
	if err != nil {
		return err
	}
	if size >= 0 && written != size {
		return fmt.Errorf("copy size mismatch: expected %d bytes, copied %d bytes", size, written)
	}
	if sum != nil {
		if got := hex.EncodeToString(sum()); !strings.EqualFold(got, want) {
			return fmt.Errorf("copy digest mismatch: expected %s, got %s:%s", digest, alg, got)
		}
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return err
	}
	committed = true
	return nil
}
