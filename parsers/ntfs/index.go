package ntfs

import "encoding/binary"

// IndexEntry is one entry inside an $INDEX_ROOT/$INDEX_ALLOCATION
// B-tree node. For a directory index (the only collation type this
// engine cares about -- $FILE_NAME collation), FileName is the
// recursive $FILE_NAME attribute payload embedded in the entry.
type IndexEntry struct {
	FileReference EntryRef
	IsSubNode     bool
	SubNodeVCN    int64
	FileName      *FileNameAttribute
}

// WalkIndexRoot parses an $INDEX_ROOT attribute's node header and
// entry stream, per spec §4.2.2 step 4. It does not follow sub-nodes
// into $INDEX_ALLOCATION -- callers combine this with WalkIndexRecord
// results keyed by VCN when IsSubNode is set.
func WalkIndexRoot(data []byte) ([]IndexEntry, error) {
	if len(data) < 16 {
		return nil, ErrTruncatedEntry
	}
	// collation type (4), index record size (4), clusters per record (1) + 3 padding
	nodeHeader := data[16:]
	return walkIndexNodeHeader(nodeHeader)
}

// WalkIndexRecord parses one 4KB (typically) $INDEX_ALLOCATION record:
// an "INDX" header with its own fixup array, followed by the same node
// header shape as $INDEX_ROOT.
func WalkIndexRecord(raw []byte) ([]IndexEntry, error) {
	if len(raw) < 24 || string(raw[0:4]) != "INDX" {
		return nil, ErrBadSignature
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)

	fixupOffset := binary.LittleEndian.Uint16(buf[4:6])
	fixupCount := binary.LittleEndian.Uint16(buf[6:8])
	if err := applyFixup(buf, fixupOffset, fixupCount); err != nil {
		return nil, ErrFixupMismatch
	}
	if len(buf) < 24+16 {
		return nil, ErrTruncatedEntry
	}
	return walkIndexNodeHeader(buf[24:])
}

// walkIndexNodeHeader reads the common node-header shape (offset to
// first entry, total size, allocated size, flags) and the entry
// stream that follows it.
func walkIndexNodeHeader(data []byte) ([]IndexEntry, error) {
	if len(data) < 16 {
		return nil, ErrTruncatedEntry
	}
	entriesOffset := binary.LittleEndian.Uint32(data[0:4])
	indexSize := binary.LittleEndian.Uint32(data[4:8])
	if int(entriesOffset) > len(data) || int(indexSize) > len(data) || entriesOffset > indexSize {
		return nil, ErrTruncatedEntry
	}

	var out []IndexEntry
	stream := data[entriesOffset:indexSize]
	for len(stream) >= 16 {
		entryLen := binary.LittleEndian.Uint16(stream[8:10])
		entryFlags := binary.LittleEndian.Uint16(stream[12:14])
		if entryLen < 16 || int(entryLen) > len(stream) {
			break
		}
		const indexEntryLast = 0x0002
		const indexEntrySubNode = 0x0001

		if entryFlags&indexEntryLast != 0 {
			break
		}

		fileRefRaw := binary.LittleEndian.Uint64(stream[0:8])
		entry := IndexEntry{
			FileReference: EntryRef{
				Entry:    fileRefRaw & 0x0000FFFFFFFFFFFF,
				Sequence: uint16(fileRefRaw >> 48),
			},
			IsSubNode: entryFlags&indexEntrySubNode != 0,
		}

		streamLen := binary.LittleEndian.Uint16(stream[10:12])
		if streamLen > 16 && int(streamLen) <= len(stream) {
			if fn, err := parseFileName(stream[16:streamLen]); err == nil {
				entry.FileName = &fn
			}
		}
		if entry.IsSubNode && int(entryLen) >= 8 {
			vcnOff := int(entryLen) - 8
			if vcnOff+8 <= len(stream) {
				entry.SubNodeVCN = int64(binary.LittleEndian.Uint64(stream[vcnOff : vcnOff+8]))
			}
		}

		out = append(out, entry)
		stream = stream[entryLen:]
	}
	return out, nil
}
