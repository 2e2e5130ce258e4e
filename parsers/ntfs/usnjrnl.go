package ntfs

import (
	"encoding/binary"

	"github.com/forensant/artemis/nom"
)

// USN reason bits, per spec §4.2.3.
const (
	ReasonDataOverwrite       uint32 = 0x00000001
	ReasonDataExtend          uint32 = 0x00000002
	ReasonDataTruncation      uint32 = 0x00000004
	ReasonNamedDataOverwrite  uint32 = 0x00000010
	ReasonNamedDataExtend     uint32 = 0x00000020
	ReasonNamedDataTruncation uint32 = 0x00000040
	ReasonFileCreate          uint32 = 0x00000100
	ReasonFileDelete          uint32 = 0x00000200
	ReasonEAChange            uint32 = 0x00000400
	ReasonSecurityChange      uint32 = 0x00000800
	ReasonRenameOldName       uint32 = 0x00001000
	ReasonRenameNewName       uint32 = 0x00002000
	ReasonIndexableChange     uint32 = 0x00004000
	ReasonBasicInfoChange     uint32 = 0x00008000
	ReasonHardLinkChange      uint32 = 0x00010000
	ReasonCompressionChange   uint32 = 0x00020000
	ReasonEncryptionChange    uint32 = 0x00040000
	ReasonObjectIDChange      uint32 = 0x00080000
	ReasonReparsePointChange  uint32 = 0x00100000
	ReasonStreamChange        uint32 = 0x00200000
	ReasonClose               uint32 = 0x80000000
)

var reasonNames = []struct {
	bit  uint32
	name string
}{
	{ReasonDataOverwrite, "DataOverwrite"},
	{ReasonDataExtend, "DataExtend"},
	{ReasonDataTruncation, "DataTruncation"},
	{ReasonNamedDataOverwrite, "NamedDataOverwrite"},
	{ReasonNamedDataExtend, "NamedDataExtend"},
	{ReasonNamedDataTruncation, "NamedDataTruncation"},
	{ReasonFileCreate, "FileCreate"},
	{ReasonFileDelete, "FileDelete"},
	{ReasonEAChange, "EAChange"},
	{ReasonSecurityChange, "SecurityChange"},
	{ReasonRenameOldName, "RenameOldName"},
	{ReasonRenameNewName, "RenameNewName"},
	{ReasonIndexableChange, "IndexableChange"},
	{ReasonBasicInfoChange, "BasicInfoChange"},
	{ReasonHardLinkChange, "HardLinkChange"},
	{ReasonCompressionChange, "CompressionChange"},
	{ReasonEncryptionChange, "EncryptionChange"},
	{ReasonObjectIDChange, "ObjectIDChange"},
	{ReasonReparsePointChange, "ReparsePointChange"},
	{ReasonStreamChange, "StreamChange"},
	{ReasonClose, "Close"},
}

// ReasonNames expands a USN reason bitfield into its component names,
// per spec §4.2.3's "bitfield -> name list" record shape.
func ReasonNames(reason uint32) []string {
	var out []string
	for _, r := range reasonNames {
		if reason&r.bit != 0 {
			out = append(out, r.name)
		}
	}
	return out
}

// USNRecord is one $J stream record (USN_RECORD_V2 layout).
type USNRecord struct {
	USN               uint64
	Timestamp         uint64 // FILETIME
	Reason            uint32
	SourceInfo        uint32
	FileAttributes    uint32
	FileReference     EntryRef
	ParentReference   EntryRef
	FileName          string
}

// ParseUSNRecords decodes sequential records from a $J stream buffer.
// Each record's own RecordLength field drives advancement. A zero
// RecordLength is treated as padding (sparse runs, deleted-and-reused
// space) and skipped 8 bytes at a time; a RecordLength below the
// 60-byte fixed header or past the end of the buffer halts parsing.
func ParseUSNRecords(data []byte) []USNRecord {
	var out []USNRecord
	for len(data) >= 4 {
		recordLen := binary.LittleEndian.Uint32(data[0:4])
		if recordLen == 0 {
			// padding / sparse region: skip to the next 8-byte boundary
			skip := 8
			if skip > len(data) {
				break
			}
			data = data[skip:]
			continue
		}
		if recordLen < 60 || int(recordLen) > len(data) {
			break
		}
		rec := data[:recordLen]
		out = append(out, parseUSNRecord(rec))
		data = data[recordLen:]
	}
	return out
}

func parseUSNRecord(rec []byte) USNRecord {
	fileRef := binary.LittleEndian.Uint64(rec[8:16])
	parentRef := binary.LittleEndian.Uint64(rec[16:24])

	r := USNRecord{
		USN: binary.LittleEndian.Uint64(rec[24:32]),
		FileReference: EntryRef{
			Entry:    fileRef & 0x0000FFFFFFFFFFFF,
			Sequence: uint16(fileRef >> 48),
		},
		ParentReference: EntryRef{
			Entry:    parentRef & 0x0000FFFFFFFFFFFF,
			Sequence: uint16(parentRef >> 48),
		},
		Timestamp:      binary.LittleEndian.Uint64(rec[32:40]),
		Reason:         binary.LittleEndian.Uint32(rec[40:44]),
		SourceInfo:     binary.LittleEndian.Uint32(rec[44:48]),
		FileAttributes: binary.LittleEndian.Uint32(rec[52:56]),
	}

	nameLen := binary.LittleEndian.Uint16(rec[56:58])
	nameOffset := binary.LittleEndian.Uint16(rec[58:60])
	if int(nameOffset)+int(nameLen) <= len(rec) {
		r.FileName = decodeUSNName(rec[nameOffset : int(nameOffset)+int(nameLen)])
	}
	return r
}

// AncestorCache maps (parent_entry, parent_sequence) -> last-known
// parent name, per spec §4.2.3: it lets USN-derived paths resolve
// ancestors the live MFT no longer contains, since USN records
// themselves carry each renamed/deleted entry's last parent name.
type AncestorCache struct {
	names map[EntryRef]string
	// parents records each entry's own parent, learned the same way,
	// so the cache can satisfy the NameLookup interface and feed
	// ResolveFullPath directly.
	parents map[EntryRef]EntryRef
}

// NewAncestorCache builds an empty cache.
func NewAncestorCache() *AncestorCache {
	return &AncestorCache{
		names:   make(map[EntryRef]string),
		parents: make(map[EntryRef]EntryRef),
	}
}

// Observe records what a USN record teaches the cache about its own
// entry's name and parent.
func (c *AncestorCache) Observe(rec USNRecord) {
	c.names[rec.FileReference] = rec.FileName
	c.parents[rec.FileReference] = rec.ParentReference
}

// LookupParent implements NameLookup, satisfying ResolveFullPath's
// ancestor walk from the USN cache instead of the live MFT.
func (c *AncestorCache) LookupParent(ref EntryRef) (string, EntryRef, bool) {
	name, ok := c.names[ref]
	if !ok {
		return "", EntryRef{}, false
	}
	parent := c.parents[ref]
	return name, parent, true
}

// decodeUSNName decodes a UTF-16LE filename; malformed bytes fall back
// through nom.UTF16LE's own repair/base64 ladder rather than panicking.
func decodeUSNName(b []byte) string {
	return nom.UTF16LE(b)
}
