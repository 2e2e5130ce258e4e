package registry

import (
	"encoding/binary"
	"testing"
)

// hiveBuilder lays out cells sequentially into a byte buffer starting
// right after the 4096-byte base block, handing back each cell's
// hive-relative offset for cross-referencing.
type hiveBuilder struct {
	buf []byte
}

func newHiveBuilder() *hiveBuilder {
	return &hiveBuilder{buf: make([]byte, 0, 4096)}
}

// add appends a cell body (everything after the 4-byte size prefix)
// and returns its hive-relative offset.
func (b *hiveBuilder) add(body []byte) uint32 {
	off := uint32(len(b.buf))
	size := int32(-(len(body) + 4))
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(size))
	b.buf = append(b.buf, header...)
	b.buf = append(b.buf, body...)
	return off
}

func utf16leBytes(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func buildNKBody(flags uint16, parent, subkeyCount, subkeyListOffset, valueCount, valueListOffset, securityOffset uint32, name string) []byte {
	nameBytes := []byte(name)
	body := make([]byte, 78+len(nameBytes))
	copy(body[0:2], "nk")
	binary.LittleEndian.PutUint16(body[2:4], flags)
	binary.LittleEndian.PutUint64(body[4:12], 0)
	binary.LittleEndian.PutUint32(body[16:20], parent)
	binary.LittleEndian.PutUint32(body[20:24], subkeyCount)
	binary.LittleEndian.PutUint32(body[28:32], subkeyListOffset)
	binary.LittleEndian.PutUint32(body[36:40], valueCount)
	binary.LittleEndian.PutUint32(body[40:44], valueListOffset)
	binary.LittleEndian.PutUint32(body[44:48], securityOffset)
	binary.LittleEndian.PutUint16(body[72:74], uint16(len(nameBytes)))
	copy(body[74:], nameBytes)
	return body
}

func buildVKBody(flags uint16, name string, data []byte) []byte {
	nameBytes := []byte(name)
	body := make([]byte, 20+len(nameBytes))
	copy(body[0:2], "vk")
	binary.LittleEndian.PutUint16(body[2:4], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(data)))
	binary.LittleEndian.PutUint32(body[8:12], 0) // data offset, filled by caller if non-resident
	binary.LittleEndian.PutUint32(body[12:16], RegSZ)
	binary.LittleEndian.PutUint16(body[16:18], flags)
	copy(body[20:], nameBytes)
	return body
}

func TestHiveWalkResolvesValuesAndSubkeys(t *testing.T) {
	hb := newHiveBuilder()

	dataBody := []byte("C:\\Windows\\System32")
	dataOff := hb.add(dataBody)

	vkBody := buildVKBody(keyCompName, "ImagePath", dataBody)
	binary.LittleEndian.PutUint32(vkBody[8:12], dataOff)
	vkOff := hb.add(vkBody)

	valueListBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(valueListBody[0:4], vkOff)
	valueListOff := hb.add(valueListBody)

	childBody := buildNKBody(keyCompName, 0, 0, 0xFFFFFFFF, 1, valueListOff, 0xFFFFFFFF, "Services")
	childOff := hb.add(childBody)

	subkeyListBody := make([]byte, 8)
	copy(subkeyListBody[0:2], "li")
	binary.LittleEndian.PutUint16(subkeyListBody[2:4], 1)
	binary.LittleEndian.PutUint32(subkeyListBody[4:8], childOff)
	subkeyListOff := hb.add(subkeyListBody)

	rootBody := buildNKBody(keyCompName, 0, 1, subkeyListOff, 0, 0xFFFFFFFF, 0xFFFFFFFF, "ROOT")
	rootOff := hb.add(rootBody)

	header := make([]byte, baseBlockSize)
	copy(header[0:4], "regf")
	binary.LittleEndian.PutUint32(header[36:40], rootOff)
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(hb.buf)))
	sum := checksum(header[:508])
	binary.LittleEndian.PutUint32(header[508:512], sum)

	full := append(header, hb.buf...)

	hive, err := Open(full)
	if err != nil {
		t.Fatal(err)
	}

	records, err := hive.Walk(WalkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}

	var services *KeyRecord
	for i := range records {
		if records[i].Path == `ROOT\Services` {
			services = &records[i]
		}
	}
	if services == nil {
		t.Fatalf("expected ROOT\\Services in %+v", records)
	}
	if len(services.Values) != 1 || services.Values[0].Name != "ImagePath" {
		t.Fatalf("values = %+v", services.Values)
	}
	if string(services.Values[0].Data) != "C:\\Windows\\System32" {
		t.Fatalf("value data = %q", services.Values[0].Data)
	}
}

func TestHiveWalkPathPrefixFilter(t *testing.T) {
	hb := newHiveBuilder()

	childBody := buildNKBody(keyCompName, 0, 0, 0xFFFFFFFF, 0, 0xFFFFFFFF, 0xFFFFFFFF, "Services")
	childOff := hb.add(childBody)

	otherBody := buildNKBody(keyCompName, 0, 0, 0xFFFFFFFF, 0, 0xFFFFFFFF, 0xFFFFFFFF, "Software")
	otherOff := hb.add(otherBody)

	subkeyListBody := make([]byte, 8+8)
	copy(subkeyListBody[0:2], "li")
	binary.LittleEndian.PutUint16(subkeyListBody[2:4], 2)
	binary.LittleEndian.PutUint32(subkeyListBody[4:8], childOff)
	binary.LittleEndian.PutUint32(subkeyListBody[8:12], otherOff)
	subkeyListOff := hb.add(subkeyListBody)

	rootBody := buildNKBody(keyCompName, 0, 2, subkeyListOff, 0, 0xFFFFFFFF, 0xFFFFFFFF, "ROOT")
	rootOff := hb.add(rootBody)

	header := make([]byte, baseBlockSize)
	copy(header[0:4], "regf")
	binary.LittleEndian.PutUint32(header[36:40], rootOff)
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(hb.buf)))
	binary.LittleEndian.PutUint32(header[508:512], checksum(header[:508]))

	full := append(header, hb.buf...)
	hive, err := Open(full)
	if err != nil {
		t.Fatal(err)
	}

	records, err := hive.Walk(WalkOptions{PathPrefix: `ROOT\Services`})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Path != `ROOT\Services` {
		t.Fatalf("records = %+v", records)
	}
}
