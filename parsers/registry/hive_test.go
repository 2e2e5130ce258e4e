package registry

import (
	"encoding/binary"
	"testing"
)

func buildHiveHeader(primary, secondary uint32) []byte {
	b := make([]byte, baseBlockSize)
	copy(b[0:4], "regf")
	binary.LittleEndian.PutUint32(b[4:8], primary)
	binary.LittleEndian.PutUint32(b[8:12], secondary)
	binary.LittleEndian.PutUint32(b[36:40], 32) // root cell offset
	binary.LittleEndian.PutUint32(b[40:44], 4096)
	sum := checksum(b[:508])
	binary.LittleEndian.PutUint32(b[508:512], sum)
	return b
}

func TestParseHiveHeaderValid(t *testing.T) {
	data := buildHiveHeader(5, 5)
	h, err := ParseHiveHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Valid() {
		t.Fatal("expected valid checksum")
	}
	if h.Dirty {
		t.Fatal("expected not dirty when sequences match")
	}
}

func TestParseHiveHeaderDirty(t *testing.T) {
	data := buildHiveHeader(5, 4)
	h, err := ParseHiveHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Dirty {
		t.Fatal("expected dirty when primary != secondary sequence")
	}
}

func TestParseHiveHeaderBadSignature(t *testing.T) {
	data := make([]byte, baseBlockSize)
	if _, err := ParseHiveHeader(data); err != ErrBadHiveSignature {
		t.Fatalf("err = %v, want ErrBadHiveSignature", err)
	}
}

func TestParseHiveHeaderChecksumMismatch(t *testing.T) {
	data := buildHiveHeader(1, 1)
	data[508] ^= 0xFF
	h, err := ParseHiveHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Valid() {
		t.Fatal("expected invalid checksum after corruption")
	}
}
