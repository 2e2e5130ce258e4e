package registry

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var (
	// ErrBadCellSignature is returned when a cell's 2-byte signature
	// doesn't match what the caller expected (e.g. reading a VK where
	// an NK was expected).
	ErrBadCellSignature = errors.New("registry: unexpected cell signature")
	// ErrCellOutOfRange is returned when a cell offset falls outside
	// the hive's bin data.
	ErrCellOutOfRange = errors.New("registry: cell offset out of range")
	// ErrUnallocatedCell is returned when a referenced cell's size
	// field indicates it is free (positive size, per the NT convention
	// that allocated cells store their size as a negative int32).
	ErrUnallocatedCell = errors.New("registry: cell is unallocated")
)

const keyCompName uint16 = 0x0020 // NK/VK name-is-ASCII flag bit

// Hive is an opened registry hive: the raw file bytes plus the parsed
// base-block header.
type Hive struct {
	Header HiveHeader
	data   []byte
}

// Open parses a hive's base block and wraps the full file for cell
// access; it does not walk the key tree.
func Open(data []byte) (*Hive, error) {
	h, err := ParseHiveHeader(data)
	if err != nil {
		return nil, err
	}
	return &Hive{Header: h, data: data}, nil
}

// cell returns the raw bytes of the cell at hive-relative offset off,
// sized by the cell's own (always-negative, allocated) size prefix.
func (h *Hive) cell(off uint32) ([]byte, error) {
	start := baseBlockSize + int(off)
	if start < baseBlockSize || start+4 > len(h.data) {
		return nil, ErrCellOutOfRange
	}
	size := int32(binary.LittleEndian.Uint32(h.data[start : start+4]))
	if size >= 0 {
		return nil, ErrUnallocatedCell
	}
	n := int(-size)
	if start+n > len(h.data) {
		return nil, ErrCellOutOfRange
	}
	return h.data[start : start+n], nil
}

// NKRecord is a Name Key cell: a registry key's own metadata plus
// pointers to its subkey list, value list, and security cell.
type NKRecord struct {
	Flags            uint16
	LastWritten      uint64 // FILETIME
	Parent           uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	Name             string
}

// ParseNK decodes an NK cell's payload (the cell bytes minus the
// 4-byte size prefix).
func ParseNK(cell []byte) (NKRecord, error) {
	if len(cell) < 80 || string(cell[4:6]) != "nk" {
		return NKRecord{}, ErrBadCellSignature
	}
	nk := NKRecord{
		Flags:            binary.LittleEndian.Uint16(cell[6:8]),
		LastWritten:      binary.LittleEndian.Uint64(cell[8:16]),
		Parent:           binary.LittleEndian.Uint32(cell[20:24]),
		SubkeyCount:      binary.LittleEndian.Uint32(cell[24:28]),
		SubkeyListOffset: binary.LittleEndian.Uint32(cell[32:36]),
		ValueCount:       binary.LittleEndian.Uint32(cell[40:44]),
		ValueListOffset:  binary.LittleEndian.Uint32(cell[44:48]),
		SecurityOffset:   binary.LittleEndian.Uint32(cell[48:52]),
	}
	nameLen := binary.LittleEndian.Uint16(cell[76:78])
	if int(78)+int(nameLen) > len(cell) {
		return NKRecord{}, ErrCellOutOfRange
	}
	nameBytes := cell[78 : 78+int(nameLen)]
	if nk.Flags&keyCompName != 0 {
		nk.Name = string(nameBytes)
	} else {
		nk.Name = nom.UTF16LE(nameBytes)
	}
	return nk, nil
}

// VKRecord is a Value Key cell: one named (or default, unnamed) value
// under a key, with its type and either inline or indirect data.
type VKRecord struct {
	Name       string
	DataSize   uint32
	DataOffset uint32
	DataType   uint32
	Resident   bool
	InlineData []byte
}

// ValueTypes, per the registry's REG_* type codes.
const (
	RegNone                     uint32 = 0
	RegSZ                       uint32 = 1
	RegExpandSZ                 uint32 = 2
	RegBinary                   uint32 = 3
	RegDWord                    uint32 = 4
	RegDWordBigEndian           uint32 = 5
	RegLink                     uint32 = 6
	RegMultiSZ                  uint32 = 7
	RegQWord                    uint32 = 11
)

// ParseVK decodes a VK cell's payload.
func ParseVK(cell []byte) (VKRecord, error) {
	if len(cell) < 24 || string(cell[4:6]) != "vk" {
		return VKRecord{}, ErrBadCellSignature
	}
	nameLen := binary.LittleEndian.Uint16(cell[6:8])
	rawSize := binary.LittleEndian.Uint32(cell[8:12])
	vk := VKRecord{
		DataOffset: binary.LittleEndian.Uint32(cell[12:16]),
		DataType:   binary.LittleEndian.Uint32(cell[16:20]),
	}
	flags := binary.LittleEndian.Uint16(cell[20:22])

	// high bit of the size field means the data is stored inline
	// (resident) within the size/offset fields themselves rather than
	// in a separate cell -- the registry's small-value optimization.
	const residentBit = 0x80000000
	if rawSize&residentBit != 0 {
		vk.Resident = true
		vk.DataSize = rawSize &^ residentBit
		var inline [4]byte
		binary.LittleEndian.PutUint32(inline[:], vk.DataOffset)
		n := int(vk.DataSize)
		if n > 4 {
			n = 4
		}
		vk.InlineData = append([]byte{}, inline[:n]...)
	} else {
		vk.DataSize = rawSize
	}

	if int(24)+int(nameLen) > len(cell) {
		return VKRecord{}, ErrCellOutOfRange
	}
	if nameLen == 0 {
		vk.Name = ""
	} else {
		nameBytes := cell[24 : 24+int(nameLen)]
		if flags&keyCompName != 0 {
			vk.Name = string(nameBytes)
		} else {
			vk.Name = nom.UTF16LE(nameBytes)
		}
	}
	return vk, nil
}

// SKRecord is a Security Key cell: a self-relative security descriptor
// shared by reference count across keys.
type SKRecord struct {
	RefCount             uint32
	SecurityDescriptor   []byte
}

// ParseSK decodes an SK cell's payload.
func ParseSK(cell []byte) (SKRecord, error) {
	if len(cell) < 24 || string(cell[4:6]) != "sk" {
		return SKRecord{}, ErrBadCellSignature
	}
	refCount := binary.LittleEndian.Uint32(cell[16:20])
	sdSize := binary.LittleEndian.Uint32(cell[20:24])
	if int(24)+int(sdSize) > len(cell) {
		return SKRecord{}, ErrCellOutOfRange
	}
	return SKRecord{
		RefCount:           refCount,
		SecurityDescriptor: cell[24 : 24+int(sdSize)],
	}, nil
}

// subkeyListEntry is one (offset, optional hash) pair from an
// LF/LH/LI/RI list.
type subkeyListEntry struct {
	offset uint32
}

// resolveSubkeyOffsets flattens an LF/LH/LI/RI subkey-list cell into
// the flat list of NK cell offsets it ultimately names, recursing
// through RI's indirect pointers to other lists. A seen-set bounds the
// recursion against corrupt/cyclic list offsets.
func (h *Hive) resolveSubkeyOffsets(listOffset uint32, seen map[uint32]bool) ([]uint32, error) {
	if seen[listOffset] {
		return nil, nil
	}
	seen[listOffset] = true

	cell, err := h.cell(listOffset)
	if err != nil {
		return nil, err
	}
	if len(cell) < 8 {
		return nil, ErrCellOutOfRange
	}
	sig := string(cell[4:6])
	count := binary.LittleEndian.Uint16(cell[6:8])

	var stride int
	switch sig {
	case "lf", "lh":
		stride = 8
	case "li":
		stride = 4
	case "ri":
		stride = 4
	default:
		return nil, ErrBadCellSignature
	}

	var out []uint32
	pos := 8
	for i := uint16(0); i < count; i++ {
		if pos+stride > len(cell) {
			break
		}
		off := binary.LittleEndian.Uint32(cell[pos : pos+4])
		if sig == "ri" {
			sub, err := h.resolveSubkeyOffsets(off, seen)
			if err == nil {
				out = append(out, sub...)
			}
		} else {
			out = append(out, off)
		}
		pos += stride
	}
	return out, nil
}

// ValueListOffsets decodes a value-list cell (a flat array of VK cell
// offsets, no sub-structure) into its member offsets.
func (h *Hive) ValueListOffsets(listOffset uint32, count uint32) ([]uint32, error) {
	cell, err := h.cell(listOffset)
	if err != nil {
		return nil, err
	}
	var out []uint32
	pos := 4 // value-list cells have no signature, just a flat offset array
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(cell) {
			break
		}
		out = append(out, binary.LittleEndian.Uint32(cell[pos:pos+4]))
		pos += 4
	}
	return out, nil
}
