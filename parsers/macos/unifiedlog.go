// UnifiedLog decodes the chunk-header layer of macOS's Unified Log
// tracev3 files (§4.2.13): a stream of {tag, subtag, size} chunks
// (Header, Catalog, Chunkset, ...), with Chunkset payloads holding
// zlib-compressed runs of Firehose/Oversig/StateDump/Simpledump
// records. Full string-resolution against UUIDText/dsc/timesync files
// is beyond what this engine needs; it surfaces the chunk stream with
// Chunkset payloads inflated but their records left undecoded. Per-chunk
// decompression runs on a bounded worker pool, since a large tracev3
// file can carry thousands of chunksets and resolving them serially
// would dominate collection time.
package macos

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrTracev3TooShort = errors.New("unifiedlog: buffer too short")
)

// ChunkTag values (§4.2.13).
const (
	TagHeader      uint32 = 0x1000
	TagCatalog     uint32 = 0x600b
	TagChunkset    uint32 = 0x600d
	TagFirehose    uint32 = 0x6001
	TagOversize    uint32 = 0x6002
	TagStatedump   uint32 = 0x6003
	TagSimpledump  uint32 = 0x6004
)

// ChunkHeader is the 16-byte prefix of every tracev3 chunk.
type ChunkHeader struct {
	Tag     uint32
	Subtag  uint32
	DataSize uint64
}

// Chunk is one decoded top-level tracev3 chunk. Chunkset chunks have
// their payload already zlib-inflated into Payload; all others carry
// their raw bytes.
type Chunk struct {
	Header  ChunkHeader
	Payload []byte
}

// ParseChunks walks every top-level chunk in a tracev3 file, inflating
// Chunkset payloads concurrently across a worker pool bounded to
// GOMAXPROCS, since that's the dominant cost for a multi-megabyte log.
func ParseChunks(ctx context.Context, data []byte) ([]Chunk, error) {
	type slot struct {
		hdr ChunkHeader
		raw []byte
	}
	var slots []slot
	for off := 0; off+16 <= len(data); {
		h := ChunkHeader{
			Tag:      binary.LittleEndian.Uint32(data[off : off+4]),
			Subtag:   binary.LittleEndian.Uint32(data[off+4 : off+8]),
			DataSize: binary.LittleEndian.Uint64(data[off+8 : off+16]),
		}
		start := off + 16
		end := start + int(h.DataSize)
		if end > len(data) || end <= start && h.DataSize != 0 {
			break
		}
		if end > len(data) {
			end = len(data)
		}
		slots = append(slots, slot{hdr: h, raw: data[start:end]})
		// chunks are padded to 8-byte alignment
		adv := int(h.DataSize)
		if pad := adv % 8; pad != 0 {
			adv += 8 - pad
		}
		off = start + adv
	}

	out := make([]Chunk, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range slots {
		i, s := i, s
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			payload := s.raw
			if s.hdr.Tag == TagChunkset {
				if inflated, err := zlibInflate(s.raw); err == nil {
					payload = inflated
				}
			}
			out[i] = Chunk{Header: s.hdr, Payload: payload}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func zlibInflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// FirehosePreamble is the fixed leading section of a Firehose tracepoint
// record embedded in an inflated Chunkset payload.
type FirehosePreamble struct {
	ProcID1   uint64
	ProcID2   uint32
	TTL       uint8
	Type      uint8
	ContinuousTime uint64
}

// SplitFirehoseRecords decodes the preamble of each Firehose sub-chunk
// in an inflated Chunkset payload. The bytes after each preamble are
// not returned (format-string resolution needs the matching
// UUIDText/dsc files this engine doesn't assume are present).
func SplitFirehoseRecords(payload []byte) []FirehosePreamble {
	var out []FirehosePreamble
	for off := 0; off+16 <= len(payload); {
		tag := binary.LittleEndian.Uint32(payload[off : off+4])
		size := binary.LittleEndian.Uint64(payload[off+8 : off+16])
		if tag != TagFirehose {
			break
		}
		body := payload[off+16:]
		if len(body) < 24 {
			break
		}
		p := FirehosePreamble{
			ProcID1:        binary.LittleEndian.Uint64(body[0:8]),
			ProcID2:        binary.LittleEndian.Uint32(body[8:12]),
			TTL:            body[12],
			Type:           body[13],
			ContinuousTime: binary.LittleEndian.Uint64(body[16:24]),
		}
		out = append(out, p)
		adv := int(size)
		if pad := adv % 8; pad != 0 {
			adv += 8 - pad
		}
		off += 16 + adv
		if adv == 0 {
			break
		}
	}
	return out
}
