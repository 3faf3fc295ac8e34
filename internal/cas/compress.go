package cas

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// Compression identifies the codec applied to an object payload. The tag is
// written as the first byte of every object; the values are part of the
// on-disk format.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configured compression name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression %q", services.ErrConfiguration, name)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", c)
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// decompressReader wraps src according to tag. Closing the result closes src.
func decompressReader(src io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionLZ4:
		return readCloser{Reader: lz4.NewReader(src), close: src.Close}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return src.Close()
		}}, nil
	default:
		src.Close()
		return nil, fmt.Errorf("unsupported compression tag: %d", c)
	}
}
