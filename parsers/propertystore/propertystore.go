// Package propertystore decodes the MS-PROPSTORE serialized property
// store format: a sequence of size-prefixed property records, each
// naming its property by a format-id GUID plus either a numeric
// property ID or a string name, carrying a VT_*-tagged typed value.
// This is the structure embedded in shellbags, jump-list DestList
// entries, and a shell item's property-store extension block — named
// in spec §1 as its own top-level format family rather than folded
// into the lnk/shellitem package, since it also appears standalone
// (thumbcache, search connectors) outside any shell item.
//
// Grounded on the lnk package's size-prefixed, signature-keyed extra
// data block walk (§4.2.7) applied to MS-PROPSTORE's record layout,
// which is the same "size, then a typed body" shape.
package propertystore

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var ErrTooShort = errors.New("propertystore: buffer too short")

// VarType is a value's VT_* type tag (a reduced subset of the full
// Automation VARTYPE enumeration — the ones this engine's shell
// artifacts actually carry).
type VarType uint16

const (
	VTEmpty   VarType = 0x00
	VTI2      VarType = 0x02
	VTI4      VarType = 0x03
	VTBSTR    VarType = 0x08
	VTBool    VarType = 0x0B
	VTUI1     VarType = 0x11
	VTUI4     VarType = 0x13
	VTUI8     VarType = 0x15
	VTLPWSTR  VarType = 0x1F
	VTFileTime VarType = 0x40
	VTBlob    VarType = 0x41
	VTClsid   VarType = 0x48
	vtVector  VarType = 0x1000 // VT_VECTOR flag bit
)

// Property is one decoded property-store entry.
type Property struct {
	FormatID string // the property set's format-id GUID, e.g. "{46588AE2-4CBC-4338-BBFC-139326986DCE}"
	ID       uint32 // numeric property id (PROPSTORE "PID")
	Name     string // string property name; not populated by ParseStream
	Type     VarType
	Int      int64
	Str      string
	Bool     bool
	Blob     []byte
}

// ParseStream decodes a serialized property storage's record stream:
// repeated {size uint32, format-id [16]byte, id-or-name, value}
// records terminated by a zero/undersized size.
func ParseStream(data []byte) ([]Property, error) {
	var out []Property
	off := 0
	for off+4 <= len(data) {
		size := binary.LittleEndian.Uint32(data[off : off+4])
		if size < 4 || off+int(size) > len(data) {
			break
		}
		rec := data[off+4 : off+int(size)]
		p, ok := parseRecord(rec)
		if ok {
			out = append(out, p)
		}
		off += int(size)
	}
	return out, nil
}

func parseRecord(rec []byte) (Property, bool) {
	if len(rec) < 20 {
		return Property{}, false
	}
	formatID := "{" + nom.GUIDString(rec[0:16]) + "}"
	rest := rec[16:]

	var p Property
	p.FormatID = formatID

	// a serialized property set's "kind" byte distinguishes numeric
	// (PID) from string-named (0x5 "NAME") identification, per
	// MS-PROPSTORE 2.15; this engine reads a 4-byte ID always and does
	// not decode string names, so Name is never set and a string-named
	// record is read as an ID followed by a typed value.
	if len(rest) < 4 {
		return Property{}, false
	}
	id := binary.LittleEndian.Uint32(rest[0:4])
	rest = rest[4:]
	p.ID = id

	if len(rest) < 4 {
		return p, true // id-only, no typed value present
	}
	typ := VarType(binary.LittleEndian.Uint16(rest[0:2]))
	p.Type = typ
	val := rest[4:] // 2 bytes type + 2 reserved/padding bytes

	switch typ &^ vtVector {
	case VTUI1:
		if len(val) >= 1 {
			p.Int = int64(val[0])
		}
	case VTI2:
		if len(val) >= 2 {
			p.Int = int64(int16(binary.LittleEndian.Uint16(val)))
		}
	case VTI4, VTUI4:
		if len(val) >= 4 {
			p.Int = int64(binary.LittleEndian.Uint32(val))
		}
	case VTUI8, VTFileTime:
		if len(val) >= 8 {
			p.Int = int64(binary.LittleEndian.Uint64(val))
		}
	case VTBool:
		if len(val) >= 2 {
			p.Bool = binary.LittleEndian.Uint16(val) != 0
		}
	case VTLPWSTR, VTBSTR:
		p.Str = decodeLengthPrefixedUTF16(val)
	case VTBlob:
		if len(val) >= 4 {
			n := binary.LittleEndian.Uint32(val[0:4])
			if uint64(4+n) <= uint64(len(val)) {
				p.Blob = append([]byte{}, val[4:4+n]...)
			}
		}
	case VTClsid:
		if len(val) >= 16 {
			p.Str = "{" + nom.GUIDString(val[0:16]) + "}"
		}
	default:
		p.Blob = append([]byte{}, val...)
	}
	return p, true
}

// decodeLengthPrefixedUTF16 reads a {char_count uint32, utf16le chars}
// string value, the form VT_LPWSTR values take in a property store.
func decodeLengthPrefixedUTF16(val []byte) string {
	if len(val) < 4 {
		return ""
	}
	chars := binary.LittleEndian.Uint32(val[0:4])
	start := 4
	end := start + int(chars)*2
	if end > len(val) {
		end = len(val)
	}
	u := make([]uint16, (end-start)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(val[start+i*2 : start+i*2+2])
	}
	runes := make([]rune, 0, len(u))
	for _, c := range u {
		if c == 0 {
			break
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
