// Package lnk decodes Windows Shortcut (MS-SHLLINK) files and the
// shell-item streams (MS-SHELLITEM) embedded in them or carried
// standalone in shellbag/jumplist registry values. Grounded on the
// registry package's offset-chasing, cycle-guarded walk style
// (§4.2.4) applied to shell items' recursive byte-length-prefixed
// grammar (§4.2.8).
package lnk

import (
	"encoding/binary"
	"errors"

	"github.com/forensant/artemis/nom"
)

var ErrTooShort = errors.New("lnk: buffer too short")

// ShellItemType classifies the variant byte that follows a shell
// item's 2-byte size prefix.
type ShellItemType byte

const (
	TypeRootFolder     ShellItemType = 0x1F
	TypeVolume         ShellItemType = 0x2F
	TypeDirectory      ShellItemType = 0x31
	TypeURI            ShellItemType = 0x61
	TypeNetwork        ShellItemType = 0x41
	TypeZip            ShellItemType = 0x52
	TypeMyComputer     ShellItemType = 0x2E
	TypeVariable       ShellItemType = 0x74
	TypeMtp            ShellItemType = 0x2A
	TypeUserProperty   ShellItemType = 0x01
	TypeGameFolder     ShellItemType = 0x3A
	TypeDelegate       ShellItemType = 0x74
	TypeControlPanel   ShellItemType = 0x71
	TypeExtensionBlock ShellItemType = 0xC3
)

// ShellItem is one decoded entry of a shell-item stream (a
// IDLIST/pidl). Raw keeps the full item bytes (minus the size prefix)
// for variant-specific re-decoding callers may want to do.
type ShellItem struct {
	Type ShellItemType
	Raw  []byte

	// Directory-variant fields, populated when the type byte is 0x3X
	// (TypeDirectory and its file-entry siblings).
	FileName   string
	MFTEntry   uint64
	MFTSeq     uint16
	Created    int64
	Modified   int64
	Accessed   int64
}

// ParseStream decodes a shell-item stream: a sequence of
// size-prefixed items terminated by a 2-byte zero size.
func ParseStream(data []byte) ([]ShellItem, error) {
	var out []ShellItem
	off := 0
	for off+2 <= len(data) {
		size := int(binary.LittleEndian.Uint16(data[off : off+2]))
		if size == 0 {
			break
		}
		if off+size > len(data) || size < 3 {
			return out, ErrTooShort
		}
		item := parseOne(data[off+2 : off+size])
		out = append(out, item)
		off += size
	}
	return out, nil
}

func parseOne(body []byte) ShellItem {
	item := ShellItem{Type: ShellItemType(body[0]), Raw: body}
	if item.Type == TypeDirectory || item.Type&0x70 == 0x30 {
		parseDirectoryItem(&item, body)
	}
	return item
}

// parseDirectoryItem decodes a Directory-variant shell item's FAT
// short name, and from a trailing 0xBEEF0004 extension block (modern,
// post-Vista items) its created and accessed FILETIMEs and MFT
// reference. The block is read at fixed offsets rather than as a
// further-nested grammar. Modified is not populated: the item's FAT
// modified date/time is not converted.
func parseDirectoryItem(item *ShellItem, body []byte) {
	if len(body) < 15 {
		return
	}
	modified := binary.LittleEndian.Uint32(body[3:7])
	_ = modified // FAT date/time fields; not converted

	nameOff := 14
	item.FileName = nulTerminatedASCIIOrUTF16(body[nameOff:])

	extOff := findExtensionBlock(body)
	if extOff < 0 {
		return
	}
	ext := body[extOff:]
	if len(ext) < 26 {
		return
	}
	item.Created = nom.FiletimeToUnix(binary.LittleEndian.Uint64(ext[8:16]))
	item.Accessed = nom.FiletimeToUnix(binary.LittleEndian.Uint64(ext[16:24]))
	if len(ext) >= 32 {
		item.MFTEntry = binary.LittleEndian.Uint64(ext[24:32]) & 0x0000FFFFFFFFFFFF
		item.MFTSeq = binary.LittleEndian.Uint16(ext[30:32])
	}
}

func findExtensionBlock(body []byte) int {
	for i := 0; i+4 <= len(body); i++ {
		if binary.LittleEndian.Uint32(body[i:i+4]) == 0xBEEF0004 {
			return i - 2 // the signature follows a 2-byte version field we back up over
		}
	}
	return -1
}

func nulTerminatedASCIIOrUTF16(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return nom.UTF8Lossy(b)
}

// Summary aggregates a shell-item stream into the single rolled-up
// record §4.2.8 asks for, pulled from the last Directory-type item
// (the final path component, the common case of interest).
type Summary struct {
	Filename   string
	Path       string
	Modified   int64
	Created    int64
	Accessed   int64
	MFTEntry   uint64
	MFTSequence uint16
	Items      []ShellItem
}

func Summarize(items []ShellItem) Summary {
	s := Summary{Items: items}
	var parts []string
	for _, it := range items {
		if it.FileName != "" {
			parts = append(parts, it.FileName)
		}
		if it.Type == TypeDirectory {
			s.Filename = it.FileName
			s.Created = it.Created
			s.Modified = it.Modified
			s.Accessed = it.Accessed
			s.MFTEntry = it.MFTEntry
			s.MFTSequence = it.MFTSeq
		}
	}
	for i, p := range parts {
		if i > 0 {
			s.Path += `\`
		}
		s.Path += p
	}
	return s
}
