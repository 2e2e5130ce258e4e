package ese

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildRecord lays out a DataDefinition record with one fixed Long
// column (id 1), one variable Text column, and one tagged Binary
// column (catalog id 130), matching DecodeRecord's expected shape.
func buildRecord(t *testing.T, fixedVal uint32, varText string, taggedID uint16, taggedVal []byte) []byte {
	t.Helper()

	fixedBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(fixedBytes, fixedVal)
	presence := []byte{0x01} // bit 0 set: fixed column 1 present

	varBytes := []byte(varText)

	taggedArr := make([]byte, 4)
	binary.LittleEndian.PutUint16(taggedArr[0:2], taggedID)
	// one tag entry -> array is 4 bytes -> this value starts right
	// after it, at relative offset 4 (the entry-count recovery trick
	// decodeTaggedColumns uses: firstOffset/4 == number of entries).
	binary.LittleEndian.PutUint16(taggedArr[2:4], 4)

	variableOffset := 4 + len(fixedBytes) + len(presence)
	taggedOffset := variableOffset + 2 /* one var-column offset entry */ + len(varBytes)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(taggedOffset))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(variableOffset))
	buf = append(buf, fixedBytes...)
	buf = append(buf, presence...)

	// the variable-column offset table entry stores the absolute
	// record offset where this column's value ends.
	varOffEntry := make([]byte, 2)
	binary.LittleEndian.PutUint16(varOffEntry, uint16(taggedOffset))
	buf = append(buf, varOffEntry...)
	buf = append(buf, varBytes...)

	buf = append(buf, taggedArr...)
	buf = append(buf, taggedVal...)

	return buf
}

func TestDecodeRecordFixedVariableTagged(t *testing.T) {
	columns := []ColumnDef{
		{ID: 1, Name: "Id", Type: ColtypLong, Kind: KindFixed, FixedOff: 1},
		{ID: 2, Name: "Name", Type: ColtypText, Kind: KindVariable},
		{ID: 130, Name: "Blob", Type: ColtypBinary, Kind: KindTagged},
	}
	raw := buildRecord(t, 42, "hello", 130, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	rec, err := DecodeRecord(raw, columns)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	idVal, ok := rec["Id"]
	if !ok {
		t.Fatal("missing Id column")
	}
	n, err := idVal.AsUint64()
	if err != nil || n != 42 {
		t.Errorf("Id = %d, err %v, want 42", n, err)
	}

	nameVal, ok := rec["Name"]
	if !ok {
		t.Fatal("missing Name column")
	}
	s, err := nameVal.AsText()
	if err != nil || s != "hello" {
		t.Errorf("Name = %q, err %v, want hello", s, err)
	}

	blobVal, ok := rec["Blob"]
	if !ok {
		t.Fatal("missing Blob column")
	}
	if !bytes.Equal(blobVal.Data, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("Blob = %x", blobVal.Data)
	}
}

func TestDecodeRecordTruncated(t *testing.T) {
	if _, err := DecodeRecord([]byte{0x01}, nil); err != ErrTruncatedHeader {
		t.Errorf("err = %v, want ErrTruncatedHeader", err)
	}
}

func TestDecodeRecordMissingFixedBitNotEmitted(t *testing.T) {
	columns := []ColumnDef{
		{ID: 1, Name: "Id", Type: ColtypLong, Kind: KindFixed, FixedOff: 1},
	}
	buf := make([]byte, 4+4+1)
	binary.LittleEndian.PutUint16(buf[0:2], 0)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(4+4+1))
	// presence byte left zero: column 1 absent
	rec, err := DecodeRecord(buf, columns)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if _, ok := rec["Id"]; ok {
		t.Errorf("Id should be absent when presence bit unset")
	}
}
