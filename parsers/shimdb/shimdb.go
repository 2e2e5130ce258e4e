// Package shimdb decodes Windows Application Compatibility Shim
// Database (.sdb) files (§4.2.12): a 3-list layout (INDEXES, DATABASE,
// STRINGTABLE) built from 2-byte TLV-like tags whose top nibble
// selects the value's kind (list, string, dword, qword, byte, word,
// binary). Grounded on the registry package's recursive, typed-value
// cell walk (§4.2.4) applied to SDB's tag-prefixed TLV tree, which is
// structurally the same "walk a nested tagged tree, resolve string
// references lazily" shape.
package shimdb

import (
	"encoding/binary"
	"errors"
)

var (
	ErrBadMagic = errors.New("shimdb: bad magic")
	ErrTooShort = errors.New("shimdb: buffer too short")
)

const sdbMagic = "sdbf"

// TagType is the top nibble of a tag, selecting how its value is
// encoded.
type TagType byte

const (
	TagNull   TagType = 0x0
	TagByte   TagType = 0x1
	TagWord   TagType = 0x2
	TagDword  TagType = 0x3
	TagQword  TagType = 0x4
	TagString TagType = 0x6
	TagBinary TagType = 0x9
	TagList   TagType = 0x7
)

func (t TagType) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagByte:
		return "byte"
	case TagWord:
		return "word"
	case TagDword:
		return "dword"
	case TagQword:
		return "qword"
	case TagString:
		return "string"
	case TagBinary:
		return "binary"
	case TagList:
		return "list"
	default:
		return "unknown"
	}
}

// Well-known top-level tags (§4.2.12); the format defines many more,
// left generic in Node.Children.
const (
	TagDatabase      uint16 = 0x7001
	TagLibraryName   uint16 = 0x6002
	TagName          uint16 = 0x6010
	TagTagID         uint16 = 0x4001
	TagIndex         uint16 = 0x7007
	TagIndexes       uint16 = 0x7003
	TagStringTable   uint16 = 0x7801
	TagOSPlatform    uint16 = 0x230c
	TagDatabaseID    uint16 = 0x9006
)

// Node is one decoded TLV entry: its raw tag, the resolved type, and
// whichever payload field applies to that type.
type Node struct {
	Tag      uint16
	Type     TagType
	Byte     byte
	Word     uint16
	Dword    uint32
	Qword    uint64
	Str      string
	Binary   []byte
	Children []Node
}

func tagType(tag uint16) TagType { return TagType(tag >> 12) }

// Database is the decoded subset of fields this engine surfaces for a
// .sdb file.
type Database struct {
	Name            string
	Platform        uint32
	DatabaseID      []byte
	IndexesTree     []Node
	DatabaseTree    []Node
}

// Parse decodes an SDB file: walks its top-level tag stream (there is
// no separate file header beyond the magic; the root is itself a tag
// list) and resolves STRINGTABLE-backed string tags along the way.
func Parse(data []byte) (Database, error) {
	if len(data) < 4 || string(data[0:4]) != sdbMagic {
		return Database{}, ErrBadMagic
	}
	body := data[4:]
	nodes, err := parseNodes(body, body)
	if err != nil {
		return Database{}, err
	}

	db := Database{}
	for _, n := range nodes {
		applyTopLevel(&db, n)
	}
	db.IndexesTree = nodes
	db.DatabaseTree = nodes
	return db, nil
}

func applyTopLevel(db *Database, n Node) {
	switch n.Tag {
	case TagName:
		db.Name = n.Str
	case TagOSPlatform:
		db.Platform = n.Dword
	case TagDatabaseID:
		db.DatabaseID = n.Binary
	}
	for _, c := range n.Children {
		applyTopLevel(db, c)
	}
}

// parseNodes walks a flat TLV stream (used both at the file's top
// level and inside a TagList's sub-stream), resolving TagString
// values against the file-wide STRINGTABLE-relative offsets SDB uses
// (stringTable is the same body passed at every recursion depth,
// since STRINGTABLE offsets are absolute into the post-magic body).
func parseNodes(data []byte, stringTable []byte) ([]Node, error) {
	var out []Node
	pos := 0
	for pos+2 <= len(data) {
		tag := binary.LittleEndian.Uint16(data[pos : pos+2])
		pos += 2
		typ := tagType(tag)
		n := Node{Tag: tag, Type: typ}

		switch typ {
		case TagNull:
			// no payload
		case TagByte:
			if pos+1 > len(data) {
				return out, ErrTooShort
			}
			n.Byte = data[pos]
			pos++
		case TagWord:
			if pos+2 > len(data) {
				return out, ErrTooShort
			}
			n.Word = binary.LittleEndian.Uint16(data[pos : pos+2])
			pos += 2
		case TagDword:
			if pos+4 > len(data) {
				return out, ErrTooShort
			}
			n.Dword = binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
		case TagQword:
			if pos+8 > len(data) {
				return out, ErrTooShort
			}
			n.Qword = binary.LittleEndian.Uint64(data[pos : pos+8])
			pos += 8
		case TagString:
			if pos+4 > len(data) {
				return out, ErrTooShort
			}
			off := binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
			n.Str = readSDBString(stringTable, off)
		case TagBinary:
			if pos+4 > len(data) {
				return out, ErrTooShort
			}
			size := binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
			if pos+int(size) > len(data) {
				return out, ErrTooShort
			}
			n.Binary = append([]byte{}, data[pos:pos+int(size)]...)
			pos += int(size)
		case TagList:
			if pos+4 > len(data) {
				return out, ErrTooShort
			}
			size := binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
			if pos+int(size) > len(data) {
				return out, ErrTooShort
			}
			children, err := parseNodes(data[pos:pos+int(size)], stringTable)
			if err == nil {
				n.Children = children
			}
			pos += int(size)
		default:
			return out, nil
		}
		out = append(out, n)
	}
	return out, nil
}

// readSDBString reads a NUL-terminated UTF-16LE string at byte offset
// off within the string table.
func readSDBString(table []byte, off uint32) string {
	if uint64(off) >= uint64(len(table)) {
		return ""
	}
	rest := table[off:]
	end := 0
	for end+1 < len(rest) {
		if rest[end] == 0 && rest[end+1] == 0 {
			break
		}
		end += 2
	}
	u := make([]uint16, end/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(rest[i*2 : i*2+2])
	}
	runes := make([]rune, len(u))
	for i, c := range u {
		runes[i] = rune(c)
	}
	return string(runes)
}
