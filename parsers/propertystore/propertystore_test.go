package propertystore

import (
	"encoding/binary"
	"testing"
)

// buildLPWSTRRecord assembles one {size, format-id, id, type+reserved, value}
// property-store record for a VT_LPWSTR value.
func buildLPWSTRRecord(t *testing.T, id uint32, s string) []byte {
	t.Helper()
	var val []byte
	val = binary.LittleEndian.AppendUint32(val, uint32(len(s)+1))
	for _, r := range s {
		val = binary.LittleEndian.AppendUint16(val, uint16(r))
	}
	val = binary.LittleEndian.AppendUint16(val, 0) // NUL terminator

	rec := make([]byte, 16+4+4) // formatID + id + (type+reserved)
	binary.LittleEndian.PutUint32(rec[16:20], id)
	binary.LittleEndian.PutUint16(rec[20:22], uint16(VTLPWSTR))
	rec = append(rec, val...)

	total := make([]byte, 4+len(rec))
	binary.LittleEndian.PutUint32(total[0:4], uint32(len(total)))
	copy(total[4:], rec)
	return total
}

func TestParseStreamLPWSTR(t *testing.T) {
	rec := buildLPWSTRRecord(t, 5, "Author")
	props, err := ParseStream(rec)
	if err != nil {
		t.Fatalf("ParseStream: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(props))
	}
	if props[0].ID != 5 {
		t.Fatalf("ID = %d", props[0].ID)
	}
	if props[0].Str != "Author" {
		t.Fatalf("Str = %q", props[0].Str)
	}
}

func TestParseStreamUI4(t *testing.T) {
	rec := make([]byte, 16+4+4+4)
	binary.LittleEndian.PutUint32(rec[16:20], 3)
	binary.LittleEndian.PutUint16(rec[20:22], uint16(VTUI4))
	binary.LittleEndian.PutUint32(rec[24:28], 12345)

	total := make([]byte, 4+len(rec))
	binary.LittleEndian.PutUint32(total[0:4], uint32(len(total)))
	copy(total[4:], rec)

	props, err := ParseStream(total)
	if err != nil {
		t.Fatalf("ParseStream: %v", err)
	}
	if len(props) != 1 || props[0].Int != 12345 {
		t.Fatalf("unexpected properties: %+v", props)
	}
}

func TestParseStreamStopsOnUndersizedRecord(t *testing.T) {
	props, err := ParseStream([]byte{0x01, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("ParseStream: %v", err)
	}
	if len(props) != 0 {
		t.Fatalf("expected no properties, got %d", len(props))
	}
}
