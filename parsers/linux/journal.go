// Package linux decodes the systemd journal file format
// (freedesktop.org's Journal File Format spec), §4.2.19: the 264-byte
// header, then a chase of EntryArray objects from entry_array_offset,
// each Entry's referenced Data objects decompressed with whichever
// compression (if any) the object's flags name. Grounded on the ese
// package's page/offset-chasing B-tree walk (§4.2.5) applied to the
// journal's flatter, header-then-object-chain layout.
package linux

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

var (
	ErrBadSignature = errors.New("journal: bad header signature")
	ErrTooShort     = errors.New("journal: buffer too short")
)

const headerSignature = "LPKSHHRH"

// ObjectType is an ObjectHeader's Type field.
type ObjectType uint8

const (
	ObjectUnused ObjectType = iota
	ObjectData
	ObjectField
	ObjectEntry
	ObjectDataHashTable
	ObjectFieldHashTable
	ObjectEntryArray
	ObjectTag
)

// ObjectCompressedFlag bits, an ObjectHeader's Flags field.
const (
	CompressedXZ   uint8 = 1 << 0
	CompressedLZ4  uint8 = 1 << 1
	CompressedZstd uint8 = 1 << 2
)

// Header is the journal file's fixed 264-byte leading structure.
type Header struct {
	CompatibleFlags   uint32
	IncompatibleFlags uint32
	State             uint8
	FileID            [16]byte
	MachineID         [16]byte
	BootID            [16]byte
	SeqnumID          [16]byte
	HeadEntrySeqnum   uint64
	TailEntrySeqnum   uint64
	EntryArrayOffset  uint64
	DataHashTableOffset uint64
	FieldHashTableOffset uint64
}

const (
	incompatCompressedXZ   uint32 = 1 << 0
	incompatCompressedLZ4  uint32 = 1 << 1
	incompatCompact        uint32 = 1 << 2
	incompatCompressedZstd uint32 = 1 << 3
)

func (h Header) compact() bool { return h.IncompatibleFlags&incompatCompact != 0 }

func offsetWidth(h Header) int {
	if h.compact() {
		return 4
	}
	return 8
}

// ParseHeader decodes the journal file header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 264 {
		return Header{}, ErrTooShort
	}
	if string(data[0:8]) != headerSignature {
		return Header{}, ErrBadSignature
	}
	var h Header
	h.CompatibleFlags = binary.LittleEndian.Uint32(data[8:12])
	h.IncompatibleFlags = binary.LittleEndian.Uint32(data[12:16])
	h.State = data[16]
	copy(h.FileID[:], data[24:40])
	copy(h.MachineID[:], data[40:56])
	copy(h.BootID[:], data[56:72])
	copy(h.SeqnumID[:], data[72:88])
	h.HeadEntrySeqnum = binary.LittleEndian.Uint64(data[88:96])
	h.TailEntrySeqnum = binary.LittleEndian.Uint64(data[96:104])
	h.EntryArrayOffset = binary.LittleEndian.Uint64(data[120:128])
	h.DataHashTableOffset = binary.LittleEndian.Uint64(data[128:136])
	h.FieldHashTableOffset = binary.LittleEndian.Uint64(data[144:152])
	return h, nil
}

// Entry is one normalized journal entry: the well-known trusted
// fields §4.2.19 names, typed, plus everything else in Custom.
type Entry struct {
	Seqnum        uint64
	Timestamp     uint64
	PID           string
	UID           string
	GID           string
	Comm          string
	Exe           string
	CmdLine       string
	SystemdUnit   string
	BootID        string
	MachineID     string
	Hostname      string
	Message       string
	MessageID     string
	Priority      string
	SyslogFacility string
	Custom        map[string]string
}

func setTrusted(e *Entry, key, val string) bool {
	switch key {
	case "_PID":
		e.PID = val
	case "_UID":
		e.UID = val
	case "_GID":
		e.GID = val
	case "_COMM":
		e.Comm = val
	case "_EXE":
		e.Exe = val
	case "_CMDLINE":
		e.CmdLine = val
	case "_SYSTEMD_UNIT":
		e.SystemdUnit = val
	case "_BOOT_ID":
		e.BootID = val
	case "_MACHINE_ID":
		e.MachineID = val
	case "_HOSTNAME":
		e.Hostname = val
	case "MESSAGE":
		e.Message = val
	case "MESSAGE_ID":
		e.MessageID = val
	case "PRIORITY":
		e.Priority = val
	case "SYSLOG_FACILITY":
		e.SyslogFacility = val
	default:
		return false
	}
	return true
}

// objectHeader is the common 16-byte prefix every journal object
// (Data, Field, Entry, EntryArray, ...) begins with.
type objectHeader struct {
	Type  ObjectType
	Flags uint8
	Size  uint64
}

func parseObjectHeader(data []byte) (objectHeader, error) {
	if len(data) < 16 {
		return objectHeader{}, ErrTooShort
	}
	return objectHeader{
		Type:  ObjectType(data[0]),
		Flags: data[1],
		Size:  binary.LittleEndian.Uint64(data[8:16]),
	}, nil
}

// Walk reads every journal entry reachable from the header's
// entry_array_offset, decoding each entry's Data objects into an
// Entry. A seen-offset guard on EntryArray objects stops any
// recursive/cyclic offset chain from looping forever.
func Walk(data []byte) ([]Entry, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	width := offsetWidth(hdr)
	seen := make(map[uint64]bool)

	var entryOffsets []uint64
	arrOff := hdr.EntryArrayOffset
	for arrOff != 0 && !seen[arrOff] {
		seen[arrOff] = true
		oh, offs, next, err := readEntryArray(data, arrOff, width)
		if err != nil {
			break
		}
		_ = oh
		entryOffsets = append(entryOffsets, offs...)
		arrOff = next
	}

	var out []Entry
	entrySeen := make(map[uint64]bool)
	for _, eo := range entryOffsets {
		if eo == 0 || entrySeen[eo] {
			continue
		}
		entrySeen[eo] = true
		e, err := readEntry(data, eo, width)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// readEntryArray reads one EntryArray object: its header, a
// next-array pointer, then a packed list of entry-object offsets
// (width bytes each, compact journals use 4 instead of 8).
func readEntryArray(data []byte, off uint64, width int) (objectHeader, []uint64, uint64, error) {
	if off+16 > uint64(len(data)) {
		return objectHeader{}, nil, 0, ErrTooShort
	}
	oh, err := parseObjectHeader(data[off:])
	if err != nil {
		return objectHeader{}, nil, 0, err
	}
	if off+oh.Size > uint64(len(data)) || oh.Size < 16+uint64(width) {
		return objectHeader{}, nil, 0, ErrTooShort
	}
	payload := data[off+16 : off+oh.Size]
	next := readOffset(payload[0:width], width)
	items := payload[width:]

	var offs []uint64
	for i := 0; i+width <= len(items); i += width {
		o := readOffset(items[i:i+width], width)
		if o != 0 {
			offs = append(offs, o)
		}
	}
	return oh, offs, next, nil
}

func readOffset(b []byte, width int) uint64 {
	if width == 4 {
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return binary.LittleEndian.Uint64(b)
}

// readEntry decodes one Entry object. Its payload lists one
// {object_offset, hash} item per field=value it carries.
func readEntry(data []byte, off uint64, width int) (Entry, error) {
	if off+64 > uint64(len(data)) {
		return Entry{}, ErrTooShort
	}
	oh, err := parseObjectHeader(data[off:])
	if err != nil {
		return Entry{}, err
	}
	if oh.Type != ObjectEntry || off+oh.Size > uint64(len(data)) {
		return Entry{}, errors.New("journal: not an Entry object")
	}
	e := Entry{Custom: make(map[string]string)}
	e.Seqnum = binary.LittleEndian.Uint64(data[off+16 : off+24])
	e.Timestamp = binary.LittleEndian.Uint64(data[off+24 : off+32])

	const itemSize = 16 // {uint64 object_offset, uint64 hash}, non-compact layout
	itemsStart := off + 64
	for p := itemsStart; p+itemSize <= off+oh.Size; p += itemSize {
		dataOff := binary.LittleEndian.Uint64(data[p : p+8])
		key, val, err := readDataObject(data, dataOff)
		if err != nil {
			continue // a corrupt/missing referenced Data object: skip this field only
		}
		if !setTrusted(&e, key, val) {
			e.Custom[key] = val
		}
	}
	return e, nil
}

// readDataObject reads a Data object's payload (after its own 40-odd
// byte header plus hash-chain pointers), decompressing it per the
// object's Flags bit if compressed, then splits it on the first '='
// into a field=value pair.
func readDataObject(data []byte, off uint64) (string, string, error) {
	if off == 0 || off+48 > uint64(len(data)) {
		return "", "", ErrTooShort
	}
	oh, err := parseObjectHeader(data[off:])
	if err != nil {
		return "", "", err
	}
	if oh.Type != ObjectData || off+oh.Size > uint64(len(data)) {
		return "", "", errors.New("journal: not a Data object")
	}
	const dataHeaderSize = 48 // object header + hash/next pointers this engine doesn't chase
	if off+dataHeaderSize > off+oh.Size {
		return "", "", ErrTooShort
	}
	payload := data[off+dataHeaderSize : off+oh.Size]

	raw, err := decompress(payload, oh.Flags)
	if err != nil {
		return "", "", err
	}
	idx := bytes.IndexByte(raw, '=')
	if idx < 0 {
		return string(raw), "", nil
	}
	return string(raw[:idx]), string(raw[idx+1:]), nil
}

func decompress(payload []byte, flags uint8) ([]byte, error) {
	switch {
	case flags&CompressedXZ != 0:
		r, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	case flags&CompressedLZ4 != 0:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	case flags&CompressedZstd != 0:
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return payload, nil
	}
}
