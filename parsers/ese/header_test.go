package ese

import (
	"encoding/binary"
	"testing"
)

func buildFileHeader(version, state, pageSize uint32) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[4:8], 0x89ABCDEF)
	binary.LittleEndian.PutUint32(buf[8:12], version)
	binary.LittleEndian.PutUint32(buf[12:16], 1)
	binary.LittleEndian.PutUint32(buf[28:32], state)
	binary.LittleEndian.PutUint32(buf[236:240], pageSize)
	return buf
}

func TestParseFileHeaderValid(t *testing.T) {
	buf := buildFileHeader(0x620, StateCleanShutdown, 8192)
	h, err := ParseFileHeader(buf)
	if err != nil {
		t.Fatalf("ParseFileHeader: %v", err)
	}
	if h.Version != 0x620 {
		t.Errorf("Version = %#x, want 0x620", h.Version)
	}
	if h.DBState != StateCleanShutdown {
		t.Errorf("DBState = %d, want %d", h.DBState, StateCleanShutdown)
	}
	if h.PageSize != 8192 {
		t.Errorf("PageSize = %d, want 8192", h.PageSize)
	}
}

func TestParseFileHeaderDefaultPageSize(t *testing.T) {
	buf := buildFileHeader(0x600, StateDirtyShutdown, 0)
	h, err := ParseFileHeader(buf)
	if err != nil {
		t.Fatalf("ParseFileHeader: %v", err)
	}
	if h.PageSize != 4096 {
		t.Errorf("PageSize = %d, want default 4096", h.PageSize)
	}
}

func TestParseFileHeaderBadMagic(t *testing.T) {
	buf := buildFileHeader(0x600, StateCleanShutdown, 4096)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	if _, err := ParseFileHeader(buf); err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestParseFileHeaderTruncated(t *testing.T) {
	if _, err := ParseFileHeader(make([]byte, 100)); err != ErrTruncatedHeader {
		t.Errorf("err = %v, want ErrTruncatedHeader", err)
	}
}
