package shimdb

import (
	"encoding/binary"
	"testing"
)

func TestParseBadMagic(t *testing.T) {
	_, err := Parse([]byte("not an sdb file"))
	if err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestTagTypeString(t *testing.T) {
	if TagList.String() != "list" {
		t.Fatalf("TagList.String() = %q", TagList.String())
	}
	if TagType(0xF).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range tag type")
	}
}

func TestParseDwordAndStringNode(t *testing.T) {
	// string table: "hello\0" in UTF-16LE
	strTable := utf16NulBytes("hello")

	// postMagic is everything Parse sees as `body` (data[4:]): a dword
	// node, then a string node whose offset points at strTable's
	// position within this same slice.
	var postMagic []byte
	dwordTag := make([]byte, 2)
	binary.LittleEndian.PutUint16(dwordTag, 0x3005)
	dwordVal := make([]byte, 4)
	binary.LittleEndian.PutUint32(dwordVal, 7)
	postMagic = append(postMagic, dwordTag...)
	postMagic = append(postMagic, dwordVal...)

	stringTag := make([]byte, 2)
	binary.LittleEndian.PutUint16(stringTag, uint16(TagName))
	stringOff := make([]byte, 4)
	binary.LittleEndian.PutUint32(stringOff, uint32(len(postMagic)+2+4))
	postMagic = append(postMagic, stringTag...)
	postMagic = append(postMagic, stringOff...)
	postMagic = append(postMagic, strTable...)

	body := append([]byte(sdbMagic), postMagic...)

	db, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if db.Name != "hello" {
		t.Fatalf("Name = %q", db.Name)
	}
}

func utf16NulBytes(s string) []byte {
	out := make([]byte, 0, len(s)*2+2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	out = append(out, 0, 0)
	return out
}
