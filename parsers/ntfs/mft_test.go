package ntfs

import (
	"encoding/binary"
	"testing"
)

// buildAttribute builds one resident attribute's raw bytes: the
// 16-byte common header, the 8-byte resident-specific header, then
// content padded to an 8-byte multiple (NTFS attribute length is
// always a multiple of 8).
func buildAttribute(attrType uint32, content []byte) []byte {
	headerLen := 24
	total := headerLen + len(content)
	if pad := total % 8; pad != 0 {
		total += 8 - pad
	}
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(total))
	buf[8] = 0 // resident
	buf[9] = 0 // name length
	binary.LittleEndian.PutUint16(buf[10:12], 24)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(content)))
	binary.LittleEndian.PutUint16(buf[20:22], uint16(headerLen))
	copy(buf[headerLen:], content)
	return buf
}

func utf16le(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func buildEntry(t *testing.T, entryIndex uint32, sequence uint16, parent EntryRef, name string) []byte {
	t.Helper()
	const entrySize = 1024
	buf := make([]byte, entrySize)
	copy(buf[0:4], "FILE")
	binary.LittleEndian.PutUint16(buf[4:6], 48)  // fixup offset
	binary.LittleEndian.PutUint16(buf[6:8], 3)   // fixup count
	binary.LittleEndian.PutUint16(buf[16:18], sequence)
	binary.LittleEndian.PutUint16(buf[18:20], 1) // hard link count
	binary.LittleEndian.PutUint16(buf[20:22], 56)
	binary.LittleEndian.PutUint16(buf[22:24], FlagInUse)
	binary.LittleEndian.PutUint32(buf[28:32], entrySize)
	binary.LittleEndian.PutUint32(buf[44:48], entryIndex)

	si := make([]byte, 48)
	siAttr := buildAttribute(AttrStandardInformation, si)

	nameBytes := utf16le(name)
	fnContent := make([]byte, 66+len(nameBytes))
	parentRaw := parent.Entry | (uint64(parent.Sequence) << 48)
	binary.LittleEndian.PutUint64(fnContent[0:8], parentRaw)
	fnContent[64] = byte(len(name))
	fnContent[65] = 1 // Win32 namespace
	copy(fnContent[66:], nameBytes)
	fnAttr := buildAttribute(AttrFileName, fnContent)

	pos := 56
	copy(buf[pos:], siAttr)
	pos += len(siAttr)
	copy(buf[pos:], fnAttr)
	pos += len(fnAttr)
	binary.LittleEndian.PutUint32(buf[pos:pos+4], attrEnd)

	// fixup: set the USA signature and patch the protected sector-end bytes
	const signature = 0xABCD
	binary.LittleEndian.PutUint16(buf[48:50], signature)
	binary.LittleEndian.PutUint16(buf[510:512], signature)
	binary.LittleEndian.PutUint16(buf[1022:1024], signature)
	binary.LittleEndian.PutUint16(buf[50:52], 0x1111) // original sector-1 tail
	binary.LittleEndian.PutUint16(buf[52:54], 0x2222) // original sector-2 tail
	copy(buf[510:512], buf[50:52])
	copy(buf[1022:1024], buf[52:54])
	binary.LittleEndian.PutUint16(buf[510:512], signature)
	binary.LittleEndian.PutUint16(buf[1022:1024], signature)

	return buf
}

func TestParseEntryRoundTrip(t *testing.T) {
	raw := buildEntry(t, 42, 7, EntryRef{Entry: 5, Sequence: 5}, "hello.txt")
	entry, err := ParseEntry(raw)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Corrupt {
		t.Fatal("entry reported corrupt")
	}
	if entry.Header.EntryIndex != 42 || entry.Header.SequenceNumber != 7 {
		t.Fatalf("header = %+v", entry.Header)
	}
	if entry.StandardInfo == nil {
		t.Fatal("expected StandardInfo attribute")
	}
	if len(entry.FileNames) != 1 || entry.FileNames[0].Name != "hello.txt" {
		t.Fatalf("file names = %+v", entry.FileNames)
	}
	if entry.FileNames[0].Parent.Entry != 5 {
		t.Fatalf("parent = %+v", entry.FileNames[0].Parent)
	}
}

func TestParseEntryFixupMismatch(t *testing.T) {
	raw := buildEntry(t, 1, 1, EntryRef{Entry: 5}, "x.txt")
	// corrupt a protected sector-end byte so it no longer matches the USA signature
	raw[511] ^= 0xFF
	entry, err := ParseEntry(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Corrupt {
		t.Fatal("expected entry to be reported corrupt")
	}
}

func TestParseEntryBadSignature(t *testing.T) {
	raw := make([]byte, 1024)
	copy(raw[0:4], "BAAD")
	if _, err := ParseEntry(raw); err != ErrBadSignature {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestResolveFullPathWithIndex(t *testing.T) {
	root := buildEntry(t, 5, 5, EntryRef{Entry: 5, Sequence: 5}, ".")
	dir := buildEntry(t, 10, 1, EntryRef{Entry: 5, Sequence: 5}, "dir")
	file := buildEntry(t, 20, 1, EntryRef{Entry: 10, Sequence: 1}, "file.txt")

	var entries []Entry
	for _, raw := range [][]byte{root, dir, file} {
		e, err := ParseEntry(raw)
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}
	idx := NewIndex(entries)

	got := ResolveFullPath(idx, EntryRef{Entry: 10, Sequence: 1}, "file.txt")
	if got != `dir\file.txt` {
		t.Fatalf("ResolveFullPath = %q, want %q", got, `dir\file.txt`)
	}
}

func TestResolveFullPathCycleGuard(t *testing.T) {
	a := buildEntry(t, 100, 1, EntryRef{Entry: 200, Sequence: 1}, "a")
	b := buildEntry(t, 200, 1, EntryRef{Entry: 100, Sequence: 1}, "b")

	entries := []Entry{}
	for _, raw := range [][]byte{a, b} {
		e, err := ParseEntry(raw)
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}
	idx := NewIndex(entries)

	got := ResolveFullPath(idx, EntryRef{Entry: 100, Sequence: 1}, "leaf")
	if len(got) < len(orphanPrefix) || got[:len(orphanPrefix)] != orphanPrefix {
		t.Fatalf("ResolveFullPath = %q, want $OrphanFiles\\ prefix on cycle", got)
	}
}
