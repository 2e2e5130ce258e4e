package ntfs

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var (
	// ErrBadSignature is returned when an entry's header signature
	// isn't "FILE" (a free/uninitialized or corrupt entry).
	ErrBadSignature = errors.New("ntfs: bad entry signature")
	// ErrFixupMismatch is returned when a sector's fixup bytes don't
	// match the stored fixup signature -- the entry is corrupt.
	ErrFixupMismatch = errors.New("ntfs: fixup mismatch")
	// ErrTruncatedEntry is returned when an entry is shorter than its
	// own header claims.
	ErrTruncatedEntry = errors.New("ntfs: truncated entry")
)

const (
	sectorSize       = 512
	entryHeaderBytes = 48
)

// EntryFlags bits, per the MFT entry header's Flags field.
const (
	FlagInUse     uint16 = 0x0001
	FlagDirectory uint16 = 0x0002
)

// EntryRef identifies an MFT entry by number and sequence, the
// compound key every parent/base reference and the USN cache use for
// cycle detection.
type EntryRef struct {
	Entry    uint64
	Sequence uint16
}

// EntryHeader is the 1024-byte MFT record's fixed fields, per spec
// §4.2.2 step 1.
type EntryHeader struct {
	Signature       string
	FixupOffset     uint16
	FixupCount      uint16
	LogSequence     uint64
	SequenceNumber  uint16
	HardLinkCount   uint16
	FirstAttrOffset uint16
	Flags           uint16
	UsedSize        uint32
	AllocatedSize   uint32
	BaseRecord      EntryRef
	NextAttributeID uint16
	EntryIndex      uint32
}

// Entry is one fully-parsed MFT record: its header plus typed
// attributes extracted from the attribute chain.
type Entry struct {
	Header            EntryHeader
	StandardInfo      *StandardInformation
	FileNames         []FileNameAttribute
	Data              []DataAttribute
	AttributeList     []AttributeListEntry
	IndexRoot         []byte
	IndexAllocation   []byte
	ObjectID          []byte
	ReparsePoint      []byte
	Corrupt           bool
}

// ParseEntry decodes one fixed-size MFT record (1024 bytes on nearly
// every real volume, but callers pass the boot sector's RecordSize).
// Fixup is applied in place on a copy of raw so the caller's buffer is
// left untouched.
func ParseEntry(raw []byte) (Entry, error) {
	if len(raw) < entryHeaderBytes {
		return Entry{}, ErrTruncatedEntry
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)

	sig := string(buf[0:4])
	if sig != "FILE" {
		return Entry{}, ErrBadSignature
	}

	hdr := EntryHeader{
		Signature:       sig,
		FixupOffset:     binary.LittleEndian.Uint16(buf[4:6]),
		FixupCount:      binary.LittleEndian.Uint16(buf[6:8]),
		LogSequence:     binary.LittleEndian.Uint64(buf[8:16]),
		SequenceNumber:  binary.LittleEndian.Uint16(buf[16:18]),
		HardLinkCount:   binary.LittleEndian.Uint16(buf[18:20]),
		FirstAttrOffset: binary.LittleEndian.Uint16(buf[20:22]),
		Flags:           binary.LittleEndian.Uint16(buf[22:24]),
		UsedSize:        binary.LittleEndian.Uint32(buf[24:28]),
		AllocatedSize:   binary.LittleEndian.Uint32(buf[28:32]),
		NextAttributeID: binary.LittleEndian.Uint16(buf[40:42]),
		EntryIndex:      binary.LittleEndian.Uint32(buf[44:48]),
	}
	baseRaw := binary.LittleEndian.Uint64(buf[32:40])
	hdr.BaseRecord = EntryRef{
		Entry:    baseRaw & 0x0000FFFFFFFFFFFF,
		Sequence: uint16(baseRaw >> 48),
	}

	entry := Entry{Header: hdr}

	if err := applyFixup(buf, hdr.FixupOffset, hdr.FixupCount); err != nil {
		entry.Corrupt = true
		return entry, nil
	}

	if int(hdr.FirstAttrOffset) >= len(buf) {
		entry.Corrupt = true
		return entry, nil
	}

	walkAttributes(buf[hdr.FirstAttrOffset:], &entry)
	return entry, nil
}

// applyFixup validates and repairs the "update sequence array" fixup
// NTFS applies to every 512-byte sector of an entry, per spec §4.2.2
// step 2: the last two bytes of each sector are replaced with the USA
// value, and the array stores what those bytes originally held.
func applyFixup(buf []byte, fixupOffset, fixupCount uint16) error {
	if fixupCount == 0 {
		return nil
	}
	off := int(fixupOffset)
	if off+int(fixupCount)*2 > len(buf) {
		return ErrFixupMismatch
	}
	usa := buf[off : off+int(fixupCount)*2]
	signature := usa[0:2]

	for i := 1; i < int(fixupCount); i++ {
		sectorEnd := i*sectorSize - 2
		if sectorEnd+2 > len(buf) {
			break
		}
		if buf[sectorEnd] != signature[0] || buf[sectorEnd+1] != signature[1] {
			return ErrFixupMismatch
		}
		copy(buf[sectorEnd:sectorEnd+2], usa[i*2:i*2+2])
	}
	return nil
}

// AttributeType values used by the typed-attribute switch below.
const (
	AttrStandardInformation uint32 = 0x10
	AttrAttributeList       uint32 = 0x20
	AttrFileName            uint32 = 0x30
	AttrObjectID            uint32 = 0x40
	AttrData                uint32 = 0x80
	AttrIndexRoot           uint32 = 0x90
	AttrIndexAllocation     uint32 = 0xA0
	AttrReparsePoint        uint32 = 0xC0
	attrEnd                 uint32 = 0xFFFFFFFF
)

type attrCommonHeader struct {
	Type       uint32
	Length     uint32
	Resident   bool
	NameLength uint8
	NameOffset uint16
	Flags      uint16
	AttrID     uint16
	Name       string
}

// walkAttributes iterates the attribute chain starting at data until
// the 0xFFFFFFFF terminator, per spec §4.2.2 step 3, dispatching each
// attribute's payload to a typed parser.
func walkAttributes(data []byte, entry *Entry) {
	for len(data) >= 4 {
		typ := binary.LittleEndian.Uint32(data[0:4])
		if typ == attrEnd {
			return
		}
		if len(data) < 16 {
			return
		}
		length := binary.LittleEndian.Uint32(data[4:8])
		if length == 0 || int(length) > len(data) {
			return
		}
		resident := data[8] == 0
		nameLen := data[9]
		nameOffset := binary.LittleEndian.Uint16(data[10:12])
		flags := binary.LittleEndian.Uint16(data[12:14])
		attrID := binary.LittleEndian.Uint16(data[14:16])

		hdr := attrCommonHeader{
			Type: typ, Length: length, Resident: resident,
			NameLength: nameLen, NameOffset: nameOffset,
			Flags: flags, AttrID: attrID,
		}
		if nameLen > 0 && int(nameOffset)+int(nameLen)*2 <= int(length) {
			hdr.Name = nom.UTF16LE(data[nameOffset : nameOffset+uint16(nameLen)*2])
		}

		payload := attributePayload(data[:length], hdr)
		dispatchAttribute(hdr, payload, entry)

		data = data[length:]
	}
}

// attributePayload returns the resident content inline, or the raw
// mapping-pairs bytes for a non-resident attribute (data-run decoding
// happens in attributes.go).
func attributePayload(raw []byte, hdr attrCommonHeader) []byte {
	if hdr.Resident {
		if len(raw) < 24 {
			return nil
		}
		valLen := binary.LittleEndian.Uint32(raw[16:20])
		valOff := binary.LittleEndian.Uint16(raw[20:22])
		if int(valOff)+int(valLen) > len(raw) {
			return nil
		}
		return raw[valOff : int(valOff)+int(valLen)]
	}
	if len(raw) < 64 {
		return nil
	}
	runOffset := binary.LittleEndian.Uint16(raw[32:34])
	if int(runOffset) > len(raw) {
		return nil
	}
	return raw[runOffset:]
}

func dispatchAttribute(hdr attrCommonHeader, payload []byte, entry *Entry) {
	switch hdr.Type {
	case AttrStandardInformation:
		if si, err := parseStandardInformation(payload); err == nil {
			entry.StandardInfo = &si
		}
	case AttrFileName:
		if fn, err := parseFileName(payload); err == nil {
			entry.FileNames = append(entry.FileNames, fn)
		}
	case AttrAttributeList:
		entry.AttributeList = append(entry.AttributeList, parseAttributeList(payload)...)
	case AttrData:
		entry.Data = append(entry.Data, DataAttribute{
			Name:       hdr.Name,
			Resident:   hdr.Resident,
			RunListRaw: payload,
		})
	case AttrIndexRoot:
		entry.IndexRoot = payload
	case AttrIndexAllocation:
		entry.IndexAllocation = payload
	case AttrObjectID:
		entry.ObjectID = payload
	case AttrReparsePoint:
		entry.ReparsePoint = payload
	}
}

// DataAttribute is a $DATA attribute (main stream when Name == "", an
// alternate data stream otherwise). RunListRaw is the resident payload
// when Resident is true, or the encoded mapping pairs otherwise --
// DecodeDataRuns in attributes.go turns the latter into []fsreader.DataRun.
type DataAttribute struct {
	Name       string
	Resident   bool
	RunListRaw []byte
}

// StandardInformation is $STANDARD_INFORMATION, per spec §4.2.2 step 4.
type StandardInformation struct {
	CreatedFiletime    uint64
	ModifiedFiletime   uint64
	MFTChangedFiletime uint64
	AccessedFiletime   uint64
	Flags              uint32
	USN                uint64
}

func parseStandardInformation(data []byte) (StandardInformation, error) {
	if len(data) < 48 {
		return StandardInformation{}, ErrTruncatedEntry
	}
	si := StandardInformation{
		CreatedFiletime:    binary.LittleEndian.Uint64(data[0:8]),
		ModifiedFiletime:   binary.LittleEndian.Uint64(data[8:16]),
		MFTChangedFiletime: binary.LittleEndian.Uint64(data[16:24]),
		AccessedFiletime:   binary.LittleEndian.Uint64(data[24:32]),
		Flags:              binary.LittleEndian.Uint32(data[32:36]),
	}
	if len(data) >= 60 {
		si.USN = binary.LittleEndian.Uint64(data[52:60])
	}
	return si, nil
}

// FileNameAttribute is $FILE_NAME, per spec §4.2.2 step 4.
type FileNameAttribute struct {
	Parent           EntryRef
	CreatedFiletime  uint64
	ModifiedFiletime uint64
	MFTChangedFiletime uint64
	AccessedFiletime uint64
	LogicalSize      uint64
	PhysicalSize     uint64
	Flags            uint32
	Namespace        uint8
	Name             string
}

func parseFileName(data []byte) (FileNameAttribute, error) {
	if len(data) < 66 {
		return FileNameAttribute{}, ErrTruncatedEntry
	}
	parentRaw := binary.LittleEndian.Uint64(data[0:8])
	fn := FileNameAttribute{
		Parent: EntryRef{
			Entry:    parentRaw & 0x0000FFFFFFFFFFFF,
			Sequence: uint16(parentRaw >> 48),
		},
		CreatedFiletime:    binary.LittleEndian.Uint64(data[8:16]),
		ModifiedFiletime:   binary.LittleEndian.Uint64(data[16:24]),
		MFTChangedFiletime: binary.LittleEndian.Uint64(data[24:32]),
		AccessedFiletime:   binary.LittleEndian.Uint64(data[32:40]),
		LogicalSize:        binary.LittleEndian.Uint64(data[40:48]),
		PhysicalSize:       binary.LittleEndian.Uint64(data[48:56]),
		Flags:              binary.LittleEndian.Uint32(data[56:60]),
	}
	nameLen := data[64]
	fn.Namespace = data[65]
	nameStart := 66
	nameEnd := nameStart + int(nameLen)*2
	if nameEnd > len(data) {
		return FileNameAttribute{}, ErrTruncatedEntry
	}
	fn.Name = nom.UTF16LE(data[nameStart:nameEnd])
	return fn, nil
}

// AttributeListEntry is one pointer inside $ATTRIBUTE_LIST, followed
// when the referenced attribute lives in a different MFT entry within
// the same volume (spec §4.2.2 step 4).
type AttributeListEntry struct {
	Type  uint32
	Name  string
	Entry EntryRef
}

func parseAttributeList(data []byte) []AttributeListEntry {
	var out []AttributeListEntry
	for len(data) >= 26 {
		recLen := binary.LittleEndian.Uint16(data[4:6])
		if recLen < 26 || int(recLen) > len(data) {
			break
		}
		rec := data[:recLen]
		entry := AttributeListEntry{
			Type: binary.LittleEndian.Uint32(rec[0:4]),
		}
		ref := binary.LittleEndian.Uint64(rec[16:24])
		entry.Entry = EntryRef{
			Entry:    ref & 0x0000FFFFFFFFFFFF,
			Sequence: uint16(ref >> 48),
		}
		nameLen := rec[6]
		nameOffset := rec[7]
		if nameLen > 0 && int(nameOffset)+int(nameLen)*2 <= len(rec) {
			entry.Name = nom.UTF16LE(rec[nameOffset : int(nameOffset)+int(nameLen)*2])
		}
		out = append(out, entry)
		data = data[recLen:]
	}
	return out
}
