package macos

import (
	"encoding/binary"
	"testing"
)

// buildBookmark assembles a minimal synthetic bookmark blob: one
// string record at dataStart, followed by a one-entry TOC pointing at
// it, replicating what Parse expects without needing a real macOS
// bookmark file on disk.
func buildBookmark(t *testing.T, key uint32, recordType uint32, payload []byte) []byte {
	t.Helper()
	const dataStart = 20

	record := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(record[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(record[4:8], recordType)
	copy(record[8:], payload)

	recOff := uint32(0) // record sits exactly at dataStart

	toc := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(toc[0:4], 8) // tocSize: one 8-byte entry
	binary.LittleEndian.PutUint32(toc[4:8], key)
	binary.LittleEndian.PutUint32(toc[8:12], recOff)

	buf := make([]byte, dataStart)
	copy(buf[0:4], bookmarkMagic)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(record))) // tocOffset, relative to dataStart

	buf = append(buf, record...)
	buf = append(buf, toc...)
	for len(buf) < 48 {
		buf = append(buf, 0)
	}
	return buf
}

func TestParseBookmarkRawEntry(t *testing.T) {
	data := buildBookmark(t, 0x9999, btString, []byte("hello"))
	bm, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := bm.Raw[0x9999]
	if !ok {
		t.Fatalf("Raw[0x9999] missing: %+v", bm.Raw)
	}
	s, err := v.GetString()
	if err != nil || s != "hello" {
		t.Fatalf("GetString: %q, %v", s, err)
	}
}

func TestParseBookmarkVolumeName(t *testing.T) {
	data := buildBookmark(t, keyVolumeName, btString, []byte("Macintosh HD"))
	bm, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bm.VolumeName != "Macintosh HD" {
		t.Fatalf("VolumeName = %q", bm.VolumeName)
	}
}

func TestParseBookmarkBadMagic(t *testing.T) {
	_, err := Parse([]byte("not a bookmark blob padded to 48 bytes..........."))
	if err != ErrBookmarkBadMagic {
		t.Fatalf("expected ErrBookmarkBadMagic, got %v", err)
	}
}

func TestParseBookmarkTooShort(t *testing.T) {
	_, err := Parse([]byte(bookmarkMagic))
	if err != ErrBookmarkTooShort {
		t.Fatalf("expected ErrBookmarkTooShort, got %v", err)
	}
}
