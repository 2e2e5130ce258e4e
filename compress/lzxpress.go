package compress

import (
	"encoding/binary"
	"errors"
)

// ErrLz77BadLength is returned when a match token's extended-length
// encoding resolves to an impossible value, or a back-reference points
// before the start of the output. DecompressLZXpress returns it for
// malformed input and ErrTooLarge when the output would exceed
// MaxDecompressedSize.
var ErrLz77BadLength = errors.New("compress: Lz77BadLength")

// DecompressLZXpress implements the "plain LZ77" scheme documented in
// MS-XCA and used by Windows Prefetch (MAM-wrapped files) and BITS job
// files: a 32-bit indicator bitmask read every 32 tokens selects literal
// bytes versus back-references, with a half-byte/byte/word/dword length
// escalation ladder for long matches. It halts cleanly the moment the
// input is exhausted rather than reading past the end of inBuf.
func DecompressLZXpress(inBuf []byte) ([]byte, error) {
	out := make([]byte, 0, len(inBuf)*3)

	var flags uint32
	var flagCount uint
	pos := 0
	lastLengthHalfByte := -1

	for pos < len(inBuf) {
		if flagCount == 0 {
			if pos+4 > len(inBuf) {
				break
			}
			flags = binary.LittleEndian.Uint32(inBuf[pos:])
			pos += 4
			flagCount = 32
		}
		flagCount--

		if (flags & (1 << flagCount)) == 0 {
			if pos >= len(inBuf) {
				break
			}
			out = append(out, inBuf[pos])
			pos++
			continue
		}

		if pos == len(inBuf) {
			return out, nil
		}
		if pos+2 > len(inBuf) {
			break
		}
		matchBytes := uint32(binary.LittleEndian.Uint16(inBuf[pos:]))
		pos += 2

		length := matchBytes % 8
		offset := matchBytes/8 + 1

		if length == 7 {
			if lastLengthHalfByte < 0 {
				if pos >= len(inBuf) {
					return nil, ErrLz77BadLength
				}
				length = uint32(inBuf[pos]) % 16
				lastLengthHalfByte = pos
				pos++
			} else {
				length = uint32(inBuf[lastLengthHalfByte]) / 16
				lastLengthHalfByte = -1
			}

			if length == 15 {
				if pos >= len(inBuf) {
					return nil, ErrLz77BadLength
				}
				length = uint32(inBuf[pos])
				pos++
				if length == 255 {
					if pos+2 > len(inBuf) {
						return nil, ErrLz77BadLength
					}
					length = uint32(binary.LittleEndian.Uint16(inBuf[pos:]))
					pos += 2
					if length == 0 {
						if pos+4 > len(inBuf) {
							return nil, ErrLz77BadLength
						}
						length = binary.LittleEndian.Uint32(inBuf[pos:])
						pos += 4
					}
					if length < 22 {
						return nil, ErrLz77BadLength
					}
					length -= 22
				}
				length += 15
			}
			length += 7
		}
		length += 3

		if offset == 0 || int(offset) > len(out) {
			return nil, ErrLz77BadLength
		}
		if len(out)+int(length) > MaxDecompressedSize {
			return nil, ErrTooLarge
		}
		for n := uint32(0); n < length; n++ {
			out = append(out, out[len(out)-int(offset)])
		}
	}
	return out, nil
}
