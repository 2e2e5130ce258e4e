// Package nom provides the parser-combinator-style byte primitives every
// format parser in parsers/ builds on: endian-aware integer readers that
// return the remaining slice alongside the decoded value, after the
// "nom" crate contract the original Rust implementation used (spec.md §4.1).
package nom

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Endian selects byte order for the fixed-width readers below.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// ErrInsufficientData is returned whenever a reader needs more bytes than
// remain in the input.
var ErrInsufficientData = errors.New("nom: insufficient input")

// Take removes and returns the first n bytes of data, along with whatever
// remains. It never panics: a short buffer yields ErrInsufficientData.
func Take(data []byte, n int) (remaining, taken []byte, err error) {
	if n < 0 || len(data) < n {
		return data, nil, ErrInsufficientData
	}
	return data[n:], data[:n], nil
}

func order(e Endian) binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Uint8 reads a single byte.
func Uint8(data []byte) (remaining []byte, value uint8, err error) {
	if len(data) < 1 {
		return data, 0, ErrInsufficientData
	}
	return data[1:], data[0], nil
}

// Uint16 reads a 2-byte unsigned integer.
func Uint16(data []byte, e Endian) (remaining []byte, value uint16, err error) {
	if len(data) < 2 {
		return data, 0, ErrInsufficientData
	}
	return data[2:], order(e).Uint16(data), nil
}

// Uint32 reads a 4-byte unsigned integer.
func Uint32(data []byte, e Endian) (remaining []byte, value uint32, err error) {
	if len(data) < 4 {
		return data, 0, ErrInsufficientData
	}
	return data[4:], order(e).Uint32(data), nil
}

// Uint64 reads an 8-byte unsigned integer.
func Uint64(data []byte, e Endian) (remaining []byte, value uint64, err error) {
	if len(data) < 8 {
		return data, 0, ErrInsufficientData
	}
	return data[8:], order(e).Uint64(data), nil
}

// Uint128 reads a 16-byte value, most often a GUID/CLSID, returning it as
// raw bytes since its numeric value is never used as an integer.
func Uint128(data []byte) (remaining []byte, value []byte, err error) {
	return Take(data, 16)
}

// GUIDString renders 16 raw GUID bytes in the canonical Windows
// mixed-endian string form: the first three fields are little-endian,
// the last two are big-endian byte sequences.
func GUIDString(b []byte) string {
	if len(b) < 16 {
		return ""
	}
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		order(LittleEndian).Uint32(b[0:4]),
		order(LittleEndian).Uint16(b[4:6]),
		order(LittleEndian).Uint16(b[6:8]),
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}

// Int16 reads a signed 2-byte integer.
func Int16(data []byte, e Endian) (remaining []byte, value int16, err error) {
	rem, v, err := Uint16(data, e)
	return rem, int16(v), err
}

// Int32 reads a signed 4-byte integer.
func Int32(data []byte, e Endian) (remaining []byte, value int32, err error) {
	rem, v, err := Uint32(data, e)
	return rem, int32(v), err
}

// Int64 reads a signed 8-byte integer.
func Int64(data []byte, e Endian) (remaining []byte, value int64, err error) {
	rem, v, err := Uint64(data, e)
	return rem, int64(v), err
}

// UTF8Strict decodes data as UTF-8, returning a base64-of-first-2MB error
// marker string on invalid input per spec §4.1, rather than an error
// return -- callers always get a usable string.
func UTF8Strict(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	cap := len(data)
	if cap > 2*1024*1024 {
		cap = 2 * 1024 * 1024
	}
	return "Failed to get UTF8 string: " + base64.StdEncoding.EncodeToString(data[:cap])
}

// UTF8Lossy decodes data as UTF-8, substituting U+FFFD for invalid bytes.
// Used where the source is known-noisy (e.g. user-controlled filenames).
func UTF8Lossy(data []byte) string {
	// Go's string conversion already performs U+FFFD substitution for
	// invalid UTF-8 sequences; this wrapper exists so call sites document
	// intent the same way the lossy/strict distinction does in spec §4.1.
	return string([]rune(string(data)))
}

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// UTF16LE decodes a UTF-16LE buffer with two fallbacks: exact decoding,
// then zero-padding repair (treating implicit zero high bytes as padding),
// then base64 on double failure -- it never returns an error to the caller.
func UTF16LE(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if out, err := utf16Decoder.Bytes(data); err == nil {
		return trimNUL(string(out))
	}
	// Padding repair: many Windows fixed-width name fields are
	// zero-padded past a short ASCII-range string; decode byte pairs
	// directly and stop at the first all-zero pair.
	if repaired, ok := decodeUTF16PaddingRepair(data); ok {
		return repaired
	}
	return base64.StdEncoding.EncodeToString(data)
}

func decodeUTF16PaddingRepair(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	runes := make([]rune, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		v := uint16(data[i]) | uint16(data[i+1])<<8
		if v == 0 {
			break
		}
		runes = append(runes, rune(v))
	}
	if len(runes) == 0 {
		return "", false
	}
	return string(runes), true
}

func trimNUL(s string) string {
	for i, r := range s {
		if r == 0 {
			return s[:i]
		}
	}
	return s
}

// UTF16MultiLine reads UTF-16LE text until a double-zero terminator,
// concatenating successive strings with "\n" -- used by Prefetch's
// directory-string and filename-string blocks.
func UTF16MultiLine(data []byte) (remaining []byte, value string) {
	var lines []string
	cur := data
	for len(cur) >= 2 {
		end := -1
		for i := 0; i+1 < len(cur); i += 2 {
			if cur[i] == 0 && cur[i+1] == 0 {
				end = i
				break
			}
		}
		if end < 0 {
			lines = append(lines, UTF16LE(cur))
			cur = nil
			break
		}
		lines = append(lines, UTF16LE(cur[:end]))
		cur = cur[end+2:]
		if end == 0 {
			break
		}
	}
	return cur, strings.Join(lines, "\n")
}
