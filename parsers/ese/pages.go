package ese

import "encoding/binary"

// Page header flags, per spec §4.2.5.
const (
	PageFlagRoot      uint32 = 0x0001
	PageFlagLeaf      uint32 = 0x0002
	PageFlagParent    uint32 = 0x0004
	PageFlagEmpty     uint32 = 0x0008
	PageFlagSpaceTree uint32 = 0x0020
	PageFlagIndex     uint32 = 0x0040
	PageFlagLongValue uint32 = 0x0080
)

const pageHeaderSize = 40

// PageHeader is one page's fixed 40-byte header.
type PageHeader struct {
	DBTime              uint64
	PreviousPage        uint32
	NextPage            uint32
	FatherDataPage      uint32
	AvailableDataSize   uint16
	AvailableDataOffset uint16
	Flags               uint32
}

// Tag is one entry in the page's tag array: an offset/size pair
// pointing at a record within the page body.
type Tag struct {
	Offset uint16
	Size   uint16
}

// Page is one decoded ESE page: its header plus the record bytes each
// tag resolves to, tags walked back-to-front from the end of the page
// per the format's growing-backwards tag array.
type Page struct {
	Header  PageHeader
	Records [][]byte
}

// ParsePage decodes one page-sized buffer (callers slice the whole
// file at header.PageSize boundaries).
func ParsePage(data []byte) (Page, error) {
	if len(data) < pageHeaderSize+4 {
		return Page{}, ErrTruncatedHeader
	}
	hdr := PageHeader{
		DBTime:              binary.LittleEndian.Uint64(data[8:16]),
		PreviousPage:        binary.LittleEndian.Uint32(data[16:20]),
		NextPage:            binary.LittleEndian.Uint32(data[20:24]),
		FatherDataPage:      binary.LittleEndian.Uint32(data[24:28]),
		AvailableDataSize:   binary.LittleEndian.Uint16(data[28:30]),
		AvailableDataOffset: binary.LittleEndian.Uint16(data[32:34]),
		Flags:               binary.LittleEndian.Uint32(data[36:40]),
	}

	// The tag array always runs flush to the end of the page; free
	// space (AvailableDataSize bytes, starting at AvailableDataOffset)
	// sits between the committed record data and the tag array, so the
	// array's own start is derived rather than assumed contiguous with
	// the records before it.
	tagAreaStart := pageHeaderSize + int(hdr.AvailableDataOffset) + int(hdr.AvailableDataSize)
	if tagAreaStart < pageHeaderSize || tagAreaStart > len(data) {
		tagAreaStart = pageHeaderSize
	}

	var records [][]byte
	body := data[pageHeaderSize:]
	for pos := len(data) - 4; pos >= tagAreaStart; pos -= 4 {
		valOffset := binary.LittleEndian.Uint16(data[pos : pos+2])
		valSize := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		// newer ESE versions steal the top bits of valSize for flags;
		// mask them off to get the real record length.
		size := int(valSize & 0x1FFF)
		off := int(valOffset & 0x1FFF)
		if off+size > len(body) || off < 0 || size < 0 {
			break
		}
		records = append(records, body[off:off+size])
	}

	return Page{Header: hdr, Records: records}, nil
}
