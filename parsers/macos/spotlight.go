// Spotlight decodes the store-file header and property dictionaries of
// macOS's Spotlight index (§4.2.18): the `store.db` map header plus
// the `dbStr-#.map` category/property/index dictionaries that resolve
// a metadata attribute's numeric key to its name. Full record-block
// decoding (the compressed per-file metadata blocks) is out of scope;
// this engine surfaces the header and the property-name tables, which
// is what's needed to label any raw attribute keys a caller already
// extracted by other means.
package macos

import (
	"encoding/binary"
	"errors"
)

var (
	ErrSpotlightBadMagic = errors.New("spotlight: bad magic")
	ErrSpotlightTooShort = errors.New("spotlight: buffer too short")
)

const spotlightMagic = "8tsd"

// StoreHeader is the store.db map file's fixed leading header.
type StoreHeader struct {
	BlockSize      uint32
	PropertyCount  uint32
	CategoryCount  uint32
	IndexCount     uint32
}

// ParseStoreHeader decodes a store.db (or dbStr-#.map) header.
func ParseStoreHeader(data []byte) (StoreHeader, error) {
	if len(data) < 4 || string(data[0:4]) != spotlightMagic {
		return StoreHeader{}, ErrSpotlightBadMagic
	}
	if len(data) < 64 {
		return StoreHeader{}, ErrSpotlightTooShort
	}
	return StoreHeader{
		BlockSize:     binary.LittleEndian.Uint32(data[8:12]),
		PropertyCount: binary.LittleEndian.Uint32(data[36:40]),
		CategoryCount: binary.LittleEndian.Uint32(data[40:44]),
		IndexCount:    binary.LittleEndian.Uint32(data[44:48]),
	}, nil
}

// PropertyEntry is one {id -> name, type} mapping from a dbStr-#.map
// property dictionary.
type PropertyEntry struct {
	ID   uint32
	Name string
	Type uint8
}

// ParsePropertyTable walks a dbStr-2.map-style property dictionary:
// a flat list of {id uint32, type byte, name-length byte, name} records
// following the store header.
func ParsePropertyTable(data []byte) ([]PropertyEntry, error) {
	hdr, err := ParseStoreHeader(data)
	if err != nil {
		return nil, err
	}
	var out []PropertyEntry
	pos := 64
	for i := uint32(0); i < hdr.PropertyCount && pos+6 <= len(data); i++ {
		id := binary.LittleEndian.Uint32(data[pos : pos+4])
		typ := data[pos+4]
		nameLen := int(data[pos+5])
		pos += 6
		if pos+nameLen > len(data) {
			break
		}
		out = append(out, PropertyEntry{ID: id, Type: typ, Name: string(data[pos : pos+nameLen])})
		pos += nameLen
	}
	return out, nil
}
