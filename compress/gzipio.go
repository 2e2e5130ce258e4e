// Package compress holds the engine's two compression concerns: RFC 1952
// gzip framing (output pipeline, FsEvents pages) and the Microsoft
// LZ77/XPRESS scheme used by Prefetch and BITS.
package compress

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

// MaxDecompressedSize bounds every decompression call per spec §5
// ("Decompression output is capped at 2 GiB").
const MaxDecompressedSize = 2 << 30

// ErrTooLarge is returned when decompression would exceed MaxDecompressedSize.
var ErrTooLarge = errors.New("compress: decompressed size exceeds limit")

// Gzip compresses data using standard gzip framing.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gunzip decompresses a gzip stream, refusing to materialize more than
// MaxDecompressedSize bytes.
func Gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	limited := io.LimitReader(r, MaxDecompressedSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressedSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
