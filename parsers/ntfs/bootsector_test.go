package ntfs

import (
	"encoding/binary"
	"testing"
)

func buildBootSector() []byte {
	b := make([]byte, 512)
	copy(b[3:11], []byte("NTFS    "))
	binary.LittleEndian.PutUint16(b[11:13], 512)
	b[13] = 8
	binary.LittleEndian.PutUint64(b[40:48], 1000000)
	binary.LittleEndian.PutUint64(b[48:56], 786432)
	binary.LittleEndian.PutUint64(b[56:64], 2)
	b[64] = 0xF6 // -10 -> 2^10 = 1024-byte records
	binary.LittleEndian.PutUint64(b[72:80], 0xDEADBEEF)
	return b
}

func TestParseBootSector(t *testing.T) {
	bs, err := ParseBootSector(buildBootSector())
	if err != nil {
		t.Fatal(err)
	}
	if bs.BytesPerSector != 512 || bs.SectorsPerCluster != 8 {
		t.Fatalf("unexpected geometry: %+v", bs)
	}
	if bs.ClusterSize() != 4096 {
		t.Fatalf("ClusterSize = %d, want 4096", bs.ClusterSize())
	}
	if bs.MFTByteOffset() != 786432*4096 {
		t.Fatalf("MFTByteOffset = %d", bs.MFTByteOffset())
	}
	if bs.RecordSize() != 1024 {
		t.Fatalf("RecordSize = %d, want 1024", bs.RecordSize())
	}
}

func TestParseBootSectorBadSignature(t *testing.T) {
	b := make([]byte, 512)
	if _, err := ParseBootSector(b); err != ErrBadBootSector {
		t.Fatalf("err = %v, want ErrBadBootSector", err)
	}
}
