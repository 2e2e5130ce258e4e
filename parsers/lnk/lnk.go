package lnk

import (
	"encoding/binary"

	"github.com/forensant/artemis/nom"
)

// LinkFlags bits from the SHLLINK header, per MS-SHLLINK 2.1.
const (
	FlagHasLinkTargetIDList uint32 = 1 << 0
	FlagHasLinkInfo         uint32 = 1 << 1
	FlagHasName             uint32 = 1 << 2
	FlagHasRelativePath     uint32 = 1 << 3
	FlagHasWorkingDir       uint32 = 1 << 4
	FlagHasArguments        uint32 = 1 << 5
	FlagHasIconLocation     uint32 = 1 << 6
	FlagIsUnicode           uint32 = 1 << 7
)

// Header is the fixed 76-byte SHLLINK header.
type Header struct {
	CLSID          [16]byte
	LinkFlags      uint32
	FileAttributes uint32
	CreationTime   int64
	AccessTime     int64
	WriteTime      int64
	FileSize       uint32
	IconIndex      int32
	ShowCommand    uint32
	HotKey         uint16
}

// LinkInfo is the optional LinkInfo structure's fields of interest.
type LinkInfo struct {
	LocalBasePath string
	CommonPath    string
	NetworkShare  string
}

// TrackerData is the `0xA0000003` extra-data block.
type TrackerData struct {
	MachineID        string
	DroidVolumeID    string
	DroidObjectID    string
	BirthVolumeID    string
	BirthObjectID    string
}

// File is a fully decoded shortcut.
type File struct {
	Header      Header
	TargetItems []ShellItem
	Target      Summary
	Info        *LinkInfo
	Name        string
	RelativePath string
	WorkingDir  string
	Arguments   string
	IconLocation string
	Tracker     *TrackerData
}

const headerSize = 76

// Parse decodes a .lnk file.
func Parse(data []byte) (File, error) {
	if len(data) < headerSize {
		return File{}, ErrTooShort
	}
	var f File
	copy(f.Header.CLSID[:], data[4:20])
	f.Header.LinkFlags = binary.LittleEndian.Uint32(data[20:24])
	f.Header.FileAttributes = binary.LittleEndian.Uint32(data[24:28])
	f.Header.CreationTime = int64(binary.LittleEndian.Uint64(data[28:36]))
	f.Header.AccessTime = int64(binary.LittleEndian.Uint64(data[36:44]))
	f.Header.WriteTime = int64(binary.LittleEndian.Uint64(data[44:52]))
	f.Header.FileSize = binary.LittleEndian.Uint32(data[52:56])
	f.Header.IconIndex = int32(binary.LittleEndian.Uint32(data[56:60]))
	f.Header.ShowCommand = binary.LittleEndian.Uint32(data[60:64])
	f.Header.HotKey = binary.LittleEndian.Uint16(data[64:66])

	off := headerSize
	flags := f.Header.LinkFlags
	unicode := flags&FlagIsUnicode != 0

	if flags&FlagHasLinkTargetIDList != 0 && off+2 <= len(data) {
		listSize := int(binary.LittleEndian.Uint16(data[off : off+2]))
		off += 2
		if off+listSize <= len(data) {
			items, _ := ParseStream(data[off : off+listSize])
			f.TargetItems = items
			f.Target = Summarize(items)
		}
		off += listSize
	}

	if flags&FlagHasLinkInfo != 0 && off+4 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[off : off+4]))
		if size >= 4 && off+size <= len(data) {
			info := parseLinkInfo(data[off : off+size])
			f.Info = &info
		}
		if size > 0 {
			off += size
		}
	}

	readStr := func() string {
		if off+2 > len(data) {
			return ""
		}
		n := int(binary.LittleEndian.Uint16(data[off : off+2]))
		off += 2
		var s string
		if unicode {
			end := off + n*2
			if end > len(data) {
				end = len(data)
			}
			s = nom.UTF16LE(data[off:end])
			off = end
		} else {
			end := off + n
			if end > len(data) {
				end = len(data)
			}
			s = nom.UTF8Lossy(data[off:end])
			off = end
		}
		return s
	}

	if flags&FlagHasName != 0 {
		f.Name = readStr()
	}
	if flags&FlagHasRelativePath != 0 {
		f.RelativePath = readStr()
	}
	if flags&FlagHasWorkingDir != 0 {
		f.WorkingDir = readStr()
	}
	if flags&FlagHasArguments != 0 {
		f.Arguments = readStr()
	}
	if flags&FlagHasIconLocation != 0 {
		f.IconLocation = readStr()
	}

	parseExtraData(&f, data[off:])
	return f, nil
}

func parseLinkInfo(data []byte) LinkInfo {
	var info LinkInfo
	if len(data) < 28 {
		return info
	}
	flags := binary.LittleEndian.Uint32(data[8:12])
	localOff := binary.LittleEndian.Uint32(data[16:20])
	commonOff := binary.LittleEndian.Uint32(data[20:24])

	const hasLocal, hasNetwork = 1, 2
	if flags&hasLocal != 0 && int(localOff) < len(data) {
		info.LocalBasePath = cString(data[localOff:])
	}
	if int(commonOff) > 0 && int(commonOff) < len(data) {
		info.CommonPath = cString(data[commonOff:])
	}
	if flags&hasNetwork != 0 && len(data) >= 24 {
		shareOff := binary.LittleEndian.Uint32(data[24:28])
		if int(shareOff) < len(data) {
			info.NetworkShare = cString(data[shareOff:])
		}
	}
	return info
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// parseExtraData walks the trailing signature-keyed extra-data blocks
// (§4.2.7: 0xA0000001-0xA000000C). Only the tracker block (0xA0000003)
// is decoded into a typed field; the rest are consumed so the walk
// terminates but are not otherwise surfaced.
func parseExtraData(f *File, data []byte) {
	off := 0
	for off+8 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[off : off+4]))
		sig := binary.LittleEndian.Uint32(data[off+4 : off+8])
		if size < 8 {
			break
		}
		if off+size > len(data) {
			break
		}
		body := data[off+8 : off+size]
		if sig == 0xA0000003 && len(body) >= 80 {
			f.Tracker = &TrackerData{
				MachineID:     cString(body[0:16]),
				DroidVolumeID: nom.GUIDString(body[16:32]),
				DroidObjectID: nom.GUIDString(body[32:48]),
				BirthVolumeID: nom.GUIDString(body[48:64]),
				BirthObjectID: nom.GUIDString(body[64:80]),
			}
		}
		off += size
	}
}
