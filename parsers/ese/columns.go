package ese

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf16"

	"github.com/forensant/artemis/nom"
)

// ErrUnsupportedColumnType is returned when a caller asks for a typed
// conversion a column's declared JET_coltyp doesn't support.
var ErrUnsupportedColumnType = errors.New("ese: unsupported column type conversion")

// AsBool decodes a Bit column.
func (v Value) AsBool() (bool, error) {
	if v.Type != ColtypBit || len(v.Data) < 1 {
		return false, ErrUnsupportedColumnType
	}
	return v.Data[0] != 0, nil
}

// AsUint64 decodes any unsigned fixed-width integer column
// (UnsignedByte/Short/Long/UnsignedLong) into a uint64.
func (v Value) AsUint64() (uint64, error) {
	switch v.Type {
	case ColtypUnsignedByte:
		if len(v.Data) < 1 {
			return 0, ErrUnsupportedColumnType
		}
		return uint64(v.Data[0]), nil
	case ColtypShort, ColtypUnsignedShort:
		if len(v.Data) < 2 {
			return 0, ErrUnsupportedColumnType
		}
		return uint64(binary.LittleEndian.Uint16(v.Data)), nil
	case ColtypLong, ColtypUnsignedLong:
		if len(v.Data) < 4 {
			return 0, ErrUnsupportedColumnType
		}
		return uint64(binary.LittleEndian.Uint32(v.Data)), nil
	default:
		return 0, ErrUnsupportedColumnType
	}
}

// AsInt64 decodes a signed Long/LongLong/Currency column.
func (v Value) AsInt64() (int64, error) {
	switch v.Type {
	case ColtypLong:
		if len(v.Data) < 4 {
			return 0, ErrUnsupportedColumnType
		}
		return int64(int32(binary.LittleEndian.Uint32(v.Data))), nil
	case ColtypLongLong, ColtypCurrency:
		if len(v.Data) < 8 {
			return 0, ErrUnsupportedColumnType
		}
		return int64(binary.LittleEndian.Uint64(v.Data)), nil
	default:
		return 0, ErrUnsupportedColumnType
	}
}

// AsFloat64 decodes a Single/Double column.
func (v Value) AsFloat64() (float64, error) {
	switch v.Type {
	case ColtypSingle:
		if len(v.Data) < 4 {
			return 0, ErrUnsupportedColumnType
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(v.Data))), nil
	case ColtypDouble:
		if len(v.Data) < 8 {
			return 0, ErrUnsupportedColumnType
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
	default:
		return 0, ErrUnsupportedColumnType
	}
}

// AsFiletime decodes a DateTime column into Unix-epoch seconds via
// this module's shared FILETIME conversion.
func (v Value) AsFiletime() (int64, error) {
	if v.Type != ColtypDateTime || len(v.Data) < 8 {
		return 0, ErrUnsupportedColumnType
	}
	return nom.FiletimeToUnix(binary.LittleEndian.Uint64(v.Data)), nil
}

// AsGUID decodes a GUID column into its canonical string form.
func (v Value) AsGUID() (string, error) {
	if v.Type != ColtypGUID || len(v.Data) < 16 {
		return "", ErrUnsupportedColumnType
	}
	return nom.GUIDString(v.Data), nil
}

// AsText decodes a Text/LongText column. ESE text columns carry their
// own codepage flag in the column's Flags elsewhere in the catalog;
// this engine auto-detects UTF-16LE by the presence of a trailing
// zero high byte pattern and otherwise treats the bytes as 8-bit
// (ASCII/Windows-1252, passed through as Latin-1 code points), the
// same heuristic spec §4.2.5's text-decode note describes.
func (v Value) AsText() (string, error) {
	if v.Type != ColtypText && v.Type != ColtypLongText {
		return "", ErrUnsupportedColumnType
	}
	if looksUTF16(v.Data) {
		n := len(v.Data) / 2
		u16 := make([]uint16, n)
		for i := 0; i < n; i++ {
			u16[i] = binary.LittleEndian.Uint16(v.Data[i*2 : i*2+2])
		}
		return string(utf16.Decode(u16)), nil
	}
	return string(v.Data), nil
}

func looksUTF16(b []byte) bool {
	if len(b) < 2 || len(b)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(b)
}
