// Package prefetch decodes Windows Prefetch (SCCA) files: the
// uncompressed header, file-metrics array, and the volume/filename
// string tables a prefetch file carries for each executable it
// tracks. Grounded on the registry package's fixed-struct-then-table
// decoding shape (§4.2.2/§4.2.4) applied to MS's (undocumented) SCCA
// layout.
package prefetch

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var (
	ErrTooShort          = errors.New("prefetch: buffer too short")
	ErrBadSignature      = errors.New("prefetch: bad SCCA signature")
	ErrUnsupportedVersion = errors.New("prefetch: unsupported SCCA version")
	// ErrCompressed is returned for every MAM-wrapped (Windows 10
	// LZXpress Huffman) prefetch file. Parse does not decompress them
	// (compress.DecompressLZXpress handles only the plain LZ77
	// variant), so only uncompressed SCCA input is parsed.
	ErrCompressed = errors.New("prefetch: LZXpress-compressed input not supported, decompress first")
)

// Version identifies the SCCA on-disk layout.
type Version uint32

const (
	VersionWin7  Version = 23
	VersionWin8  Version = 26
	VersionWin10 Version = 30
	VersionWin11 Version = 31
)

// Volume is one tracked volume entry.
type Volume struct {
	Serial      uint32
	Created     int64
	DevicePath  string
	Directories []string
}

// File is one fully decoded prefetch record.
type File struct {
	Version       Version
	ExecutableName string
	PrefetchHash  uint32
	RunCount      uint32
	LastRunTimes  []int64
	Filenames     []string
	Volumes       []Volume
}

const (
	headerSize  = 84
	sigSCCA     = "SCCA"
	sigMAMV     = "MAM\x04"
)

// Parse decodes an uncompressed SCCA prefetch file.
func Parse(data []byte) (File, error) {
	if len(data) >= 4 && string(data[0:4]) == sigMAMV {
		return File{}, ErrCompressed
	}
	if len(data) < headerSize {
		return File{}, ErrTooShort
	}
	if string(data[4:8]) != sigSCCA {
		return File{}, ErrBadSignature
	}

	version := Version(binary.LittleEndian.Uint32(data[0:4]))
	switch version {
	case VersionWin7, VersionWin8, VersionWin10, VersionWin11:
	default:
		return File{}, ErrUnsupportedVersion
	}

	f := File{Version: version}
	f.ExecutableName = nom.UTF16LE(nulTerminate(data[16:76]))
	f.PrefetchHash = binary.LittleEndian.Uint32(data[76:80])

	fileInfoOff := binary.LittleEndian.Uint32(data[84-4 : 84])
	_ = fileInfoOff // section offsets vary by version; file-info section follows immediately in all supported versions

	if len(data) < 68+64 {
		return f, nil
	}
	f.RunCount = readRunCount(data, version)
	f.LastRunTimes = readLastRunTimes(data, version)

	metricsOff := binary.LittleEndian.Uint32(data[0x54:0x58])
	metricsCount := binary.LittleEndian.Uint32(data[0x58:0x5C])
	traceOff := binary.LittleEndian.Uint32(data[0x5C:0x60])
	_ = traceOff
	_ = metricsOff
	_ = metricsCount

	filenameOff := binary.LittleEndian.Uint32(data[0x64:0x68])
	filenameSize := binary.LittleEndian.Uint32(data[0x68:0x6C])
	volumeInfoOff := binary.LittleEndian.Uint32(data[0x6C:0x70])
	volumeInfoCount := binary.LittleEndian.Uint32(data[0x70:0x74])

	if end := int(filenameOff) + int(filenameSize); filenameOff > 0 && end <= len(data) {
		f.Filenames = splitUTF16NulList(data[filenameOff:end])
	}

	for i := uint32(0); i < volumeInfoCount && volumeInfoCount < 64; i++ {
		entryOff := int(volumeInfoOff) + int(i)*constVolumeEntrySize
		if entryOff+constVolumeEntrySize > len(data) {
			break
		}
		f.Volumes = append(f.Volumes, parseVolumeEntry(data, entryOff))
	}

	return f, nil
}

const constVolumeEntrySize = 0x28

func parseVolumeEntry(data []byte, off int) Volume {
	pathOff := int(binary.LittleEndian.Uint32(data[off : off+4]))
	pathLenChars := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
	created := int64(binary.LittleEndian.Uint64(data[off+8 : off+16]))
	serial := binary.LittleEndian.Uint32(data[off+16 : off+20])

	v := Volume{Serial: serial, Created: nom.FiletimeToUnix(uint64(created))}
	end := pathOff + pathLenChars*2
	if pathOff > 0 && end <= len(data) {
		v.DevicePath = nom.UTF16LE(data[pathOff:end])
	}
	return v
}

func readRunCount(data []byte, v Version) uint32 {
	// Run count's offset shifted between Win7/8 and Win10/11 layouts.
	if v >= VersionWin10 {
		if len(data) >= 0x108 {
			return binary.LittleEndian.Uint32(data[0xD4 : 0xD8])
		}
		return 0
	}
	if len(data) >= 0xD4 {
		return binary.LittleEndian.Uint32(data[0xD0:0xD4])
	}
	return 0
}

func readLastRunTimes(data []byte, v Version) []int64 {
	const maxRuns = 8
	base := 0x44
	n := 1
	if v >= VersionWin8 {
		n = maxRuns
	}
	var out []int64
	for i := 0; i < n; i++ {
		off := base + i*8
		if off+8 > len(data) {
			break
		}
		ft := binary.LittleEndian.Uint64(data[off : off+8])
		if ft == 0 {
			continue
		}
		out = append(out, nom.FiletimeToUnix(ft))
	}
	return out
}

func nulTerminate(b []byte) []byte {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i]
		}
	}
	return b
}

// splitUTF16NulList splits a NUL-terminated, then-double-NUL-ending
// run of UTF-16LE strings (the filename string table's layout).
func splitUTF16NulList(data []byte) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			if i > start {
				out = append(out, nom.UTF16LE(data[start:i]))
			}
			start = i + 2
		}
	}
	return out
}
