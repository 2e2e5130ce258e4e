// Package registry parses Windows Registry hive files: the 4KB base
// block, the hive-bin/cell body, and the NK/VK/LF/LH/RI/LI/SK cell
// types that make up a key tree.
package registry

import (
	"encoding/binary"
	"errors"
)

const baseBlockSize = 4096

var (
	// ErrBadHiveSignature is returned when the base block doesn't open
	// with "regf".
	ErrBadHiveSignature = errors.New("registry: bad hive signature (want \"regf\")")
	// ErrTruncatedHive is returned when the supplied bytes are shorter
	// than the base block.
	ErrTruncatedHive = errors.New("registry: truncated hive header")
)

// HiveHeader is the base block's fields of interest, per spec §4.2.4.
type HiveHeader struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	ModifiedFiletime  uint64
	Version           [4]uint32
	RootCellOffset    uint32
	HiveBinsSize      uint32
	ClusterFactor     uint32
	FileName          string
	Checksum          uint32
	ComputedChecksum  uint32
	Dirty             bool
}

// ParseHiveHeader decodes the first 4096 bytes of a hive file and
// validates its checksum, per spec §4.2.4: "XOR of the first 127
// little-endian dwords must equal the stored checksum".
func ParseHiveHeader(data []byte) (HiveHeader, error) {
	if len(data) < baseBlockSize {
		return HiveHeader{}, ErrTruncatedHive
	}
	if string(data[0:4]) != "regf" {
		return HiveHeader{}, ErrBadHiveSignature
	}

	h := HiveHeader{
		PrimarySequence:   binary.LittleEndian.Uint32(data[4:8]),
		SecondarySequence: binary.LittleEndian.Uint32(data[8:12]),
		ModifiedFiletime:  binary.LittleEndian.Uint64(data[12:20]),
		Version: [4]uint32{
			binary.LittleEndian.Uint32(data[20:24]),
			binary.LittleEndian.Uint32(data[24:28]),
			binary.LittleEndian.Uint32(data[28:32]),
			binary.LittleEndian.Uint32(data[32:36]),
		},
		RootCellOffset: binary.LittleEndian.Uint32(data[36:40]),
		HiveBinsSize:   binary.LittleEndian.Uint32(data[40:44]),
		ClusterFactor:  binary.LittleEndian.Uint32(data[44:48]),
		Checksum:       binary.LittleEndian.Uint32(data[508:512]),
	}
	h.FileName = decodeHiveFileName(data[48:112])
	h.ComputedChecksum = checksum(data[:508])
	h.Dirty = h.PrimarySequence != h.SecondarySequence
	return h, nil
}

// Valid reports whether the stored checksum matches the computed one.
func (h HiveHeader) Valid() bool {
	return h.Checksum == h.ComputedChecksum
}

// checksum XORs the first 127 little-endian dwords of the base block
// (bytes 0..508), the algorithm the NT kernel itself uses to validate
// a hive's base block.
func checksum(data []byte) uint32 {
	var sum uint32
	for off := 0; off+4 <= len(data); off += 4 {
		sum ^= binary.LittleEndian.Uint32(data[off : off+4])
	}
	return sum
}

func decodeHiveFileName(b []byte) string {
	end := len(b)
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			end = i
			break
		}
	}
	out := make([]rune, 0, end/2)
	for i := 0; i+1 < end; i += 2 {
		out = append(out, rune(binary.LittleEndian.Uint16(b[i:i+2])))
	}
	return string(out)
}
