// Package ntfs parses the on-disk structures of an NTFS volume: the
// boot sector, $MFT entries and their attributes, $INDEX_ALLOCATION
// B-trees, and the $UsnJrnl change journal. Every reader function
// takes the raw bytes of its structure and returns either a decoded
// value or one of this package's typed errors -- nothing here panics
// on malformed input, since a hostile or corrupt volume is the normal
// case for a forensic tool to encounter.
package ntfs

import (
	"encoding/binary"
	"errors"
)

// ErrBadBootSector is returned when the boot sector's OEM ID isn't "NTFS".
var ErrBadBootSector = errors.New("ntfs: not an NTFS boot sector")

// BootSector holds the volume geometry every other reader in this
// package needs to turn a byte/cluster offset into an absolute one.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalSectors      uint64
	MFTClusterNumber  uint64
	MFTMirrClusterNum uint64
	ClustersPerRecord int8 // negative means 2^-n bytes, per NTFS convention
	VolumeSerial      uint64
}

// ClusterSize is bytes-per-sector * sectors-per-cluster.
func (b BootSector) ClusterSize() int64 {
	return int64(b.BytesPerSector) * int64(b.SectorsPerCluster)
}

// MFTByteOffset is the absolute volume offset of the $MFT's first entry.
func (b BootSector) MFTByteOffset() int64 {
	return int64(b.MFTClusterNumber) * b.ClusterSize()
}

// RecordSize is the size in bytes of one MFT entry, derived from
// ClustersPerRecord per the NTFS spec's signed-byte convention: a
// positive value is a cluster count, a negative value n means 2^(-n)
// bytes.
func (b BootSector) RecordSize() int64 {
	if b.ClustersPerRecord >= 0 {
		return int64(b.ClustersPerRecord) * b.ClusterSize()
	}
	return int64(1) << uint(-b.ClustersPerRecord)
}

// ParseBootSector decodes the first 512 bytes of an NTFS volume.
func ParseBootSector(data []byte) (BootSector, error) {
	if len(data) < 512 {
		return BootSector{}, ErrBadBootSector
	}
	if string(data[3:11]) != "NTFS    " {
		return BootSector{}, ErrBadBootSector
	}
	b := BootSector{
		BytesPerSector:    binary.LittleEndian.Uint16(data[11:13]),
		SectorsPerCluster: data[13],
		TotalSectors:      binary.LittleEndian.Uint64(data[40:48]),
		MFTClusterNumber:  binary.LittleEndian.Uint64(data[48:56]),
		MFTMirrClusterNum: binary.LittleEndian.Uint64(data[56:64]),
		ClustersPerRecord: int8(data[64]),
		VolumeSerial:      binary.LittleEndian.Uint64(data[72:80]),
	}
	if b.BytesPerSector == 0 || b.SectorsPerCluster == 0 {
		return BootSector{}, ErrBadBootSector
	}
	return b, nil
}
