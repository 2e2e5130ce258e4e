package macos

import (
	"encoding/binary"
	"testing"
)

func TestParseHeaderBadMagic(t *testing.T) {
	_, err := ParseHeader([]byte{0, 0, 0, 0})
	if err != ErrMachOBadMagic {
		t.Fatalf("expected ErrMachOBadMagic, got %v", err)
	}
}

func TestParseHeader64WithUUID(t *testing.T) {
	uuidBytes := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	cmdSize := uint32(8 + 16)
	data := make([]byte, 32+int(cmdSize))
	binary.LittleEndian.PutUint32(data[0:4], magic64)
	binary.LittleEndian.PutUint32(data[16:20], 1) // ncmds
	binary.LittleEndian.PutUint32(data[20:24], cmdSize)
	binary.LittleEndian.PutUint32(data[32:36], lcUUID)
	binary.LittleEndian.PutUint32(data[36:40], cmdSize)
	copy(data[40:56], uuidBytes)

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if !h.Is64 {
		t.Fatal("expected Is64 true")
	}
	want := "01020304-0506-0708-090a-0b0c0d0e0f10"
	if h.UUID != want {
		t.Fatalf("UUID = %q, want %q", h.UUID, want)
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data[0:4], magic64)
	_, err := ParseHeader(data)
	if err != ErrMachOTooShort {
		t.Fatalf("expected ErrMachOTooShort, got %v", err)
	}
}
