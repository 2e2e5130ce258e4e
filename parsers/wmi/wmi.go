// Package wmi reads the Windows WMI repository's CIM store
// (OBJECTS.DATA / INDEX.BTR / MAPPING#.MAP, named in spec §1): a
// mapping file resolves logical page numbers to physical offsets in
// OBJECTS.DATA, each page holds one or more length-prefixed CIM class
// or instance objects. Full class-definition decoding (property
// descriptor tables, qualifier sets, derivation chains) needs a
// cross-reference against the repository's INDEX.BTR B-tree this
// engine doesn't walk; like the prefetch package's LZXpress decision,
// this is an explicit, documented reduced scope rather than a silent
// gap — ParseObjectsPage surfaces each page's raw object records as
// offset, size and body bytes; no class name, CIM type or other object
// field is decoded.
package wmi

import (
	"encoding/binary"
	"errors"
)

var ErrTooShort = errors.New("wmi: buffer too short")

// MappingEntry is one logical->physical page resolution from a
// MAPPING#.MAP file.
type MappingEntry struct {
	LogicalPage  uint32
	PhysicalPage uint32
	PageSize     uint32
}

// ParseMapping decodes a MAPPING#.MAP file's page table: a header
// giving the entry count, then that many fixed 12-byte entries.
func ParseMapping(data []byte) ([]MappingEntry, error) {
	if len(data) < 12 {
		return nil, ErrTooShort
	}
	count := binary.LittleEndian.Uint32(data[4:8])
	var out []MappingEntry
	pos := 12
	for i := uint32(0); i < count && pos+12 <= len(data); i++ {
		out = append(out, MappingEntry{
			LogicalPage:  binary.LittleEndian.Uint32(data[pos : pos+4]),
			PhysicalPage: binary.LittleEndian.Uint32(data[pos+4 : pos+8]),
			PageSize:     binary.LittleEndian.Uint32(data[pos+8 : pos+12]),
		})
		pos += 12
	}
	return out, nil
}

// ObjectRecord is one length-prefixed CIM object this engine pulled
// out of an OBJECTS.DATA page without resolving its class schema.
type ObjectRecord struct {
	Offset int
	Size   uint32
	Data   []byte
}

const defaultPageSize = 8192

// ParseObjectsPage walks one fixed-size page of OBJECTS.DATA, reading
// each {size uint32, body} record until the page is exhausted or a
// record's declared size would run past the page boundary (typically
// meaning the rest of the page is unused padding).
func ParseObjectsPage(page []byte) []ObjectRecord {
	var out []ObjectRecord
	pos := 0
	for pos+4 <= len(page) {
		size := binary.LittleEndian.Uint32(page[pos : pos+4])
		if size == 0 || pos+4+int(size) > len(page) {
			break
		}
		out = append(out, ObjectRecord{
			Offset: pos,
			Size:   size,
			Data:   append([]byte{}, page[pos+4:pos+4+int(size)]...),
		})
		pos += 4 + int(size)
	}
	return out
}

// ResolveObjects uses a parsed mapping table to locate and extract
// every object record from the physical OBJECTS.DATA image, one
// PageSize-sized page per mapping entry.
func ResolveObjects(objectsData []byte, mapping []MappingEntry) []ObjectRecord {
	var out []ObjectRecord
	for _, m := range mapping {
		size := int(m.PageSize)
		if size == 0 {
			size = defaultPageSize
		}
		start := int(m.PhysicalPage) * defaultPageSize
		end := start + size
		if start < 0 || end > len(objectsData) || start >= end {
			continue
		}
		out = append(out, ParseObjectsPage(objectsData[start:end])...)
	}
	return out
}
