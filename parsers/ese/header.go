// Package ese parses Extensible Storage Engine (ESE/JET) databases:
// the file header, page/B-tree structure, catalog, and per-table
// column decode -- the format behind SRUM.dat, WebCacheV01.dat, and
// Windows Search's index.
package ese

import (
	"encoding/binary"
	"errors"
)

// ErrBadMagic is returned when the file header's magic doesn't match
// ESE's 0xEF 0xCD 0xAB 0x89.
var ErrBadMagic = errors.New("ese: bad file signature")

// ErrTruncatedHeader is returned when fewer than 2048 bytes are supplied.
var ErrTruncatedHeader = errors.New("ese: truncated file header")

const headerSize = 2048

// DBState values, per the header's "DB state" field.
const (
	StateJustCreated uint32 = 1
	StateDirtyShutdown uint32 = 2
	StateCleanShutdown uint32 = 3
)

// FileHeader is the 2KB ESE file header, per spec §4.2.5.
type FileHeader struct {
	Version  uint32
	FileType uint32
	DBState  uint32
	PageSize uint32
	RootPage uint32
}

// ParseFileHeader decodes the fixed fields of an ESE database header.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < headerSize {
		return FileHeader{}, ErrTruncatedHeader
	}
	magic := binary.LittleEndian.Uint32(data[4:8])
	if magic != 0x89ABCDEF {
		return FileHeader{}, ErrBadMagic
	}
	h := FileHeader{
		Version:  binary.LittleEndian.Uint32(data[8:12]),
		FileType: binary.LittleEndian.Uint32(data[12:16]),
		DBState:  binary.LittleEndian.Uint32(data[28:32]),
	}
	// page size lives at a version-dependent offset; 0 means the
	// original fixed 4KB page size predating the field's introduction.
	if ps := binary.LittleEndian.Uint32(data[236:240]); ps != 0 {
		h.PageSize = ps
	} else {
		h.PageSize = 4096
	}
	h.RootPage = 1
	return h, nil
}
