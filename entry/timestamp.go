// Package entry defines the value types that flow between parsers and the
// output pipeline: the Unix-second Timestamp wrapper and the envelope that
// wraps every batch of records with endpoint metadata.
package entry

import (
	"errors"
	"time"
)

// TSSize is the binary-encoded size of a Timestamp (seconds + nanoseconds).
const TSSize int = 12

// ErrTSDataSizeInvalid is returned by Decode when the supplied buffer is
// shorter than TSSize.
var ErrTSDataSizeInvalid = errors.New("entry: timestamp buffer too small")

// Timestamp holds a UTC instant as a Unix second count plus nanosecond
// offset. Every parser record carries one or more of these rather than a
// bare int64, so callers never have to guess the epoch.
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// Now returns the current instant.
func Now() Timestamp {
	return FromStandard(time.Now())
}

// FromStandard converts a time.Time to a Timestamp.
func FromStandard(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// StandardTime converts back to time.Time.
func (t Timestamp) StandardTime() time.Time {
	return time.Unix(t.Sec, t.Nsec).UTC()
}

// ISO8601 renders the timestamp the way every parser record's timestamp
// fields are serialized.
func (t Timestamp) ISO8601() string {
	return t.StandardTime().Format("2006-01-02T15:04:05.000Z")
}

// IsZero reports whether both fields are zero.
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Before reports whether t occurs before tt.
func (t Timestamp) Before(tt Timestamp) bool {
	return t.Sec < tt.Sec || (t.Sec == tt.Sec && t.Nsec < tt.Nsec)
}

// Encode writes the timestamp into an 12-byte buffer. The caller must
// ensure buff has at least TSSize bytes; this mirrors the teacher's
// entry.Timestamp.Encode contract of being fast and not bounds-checking.
func (t Timestamp) Encode(buff []byte) {
	putUint64(buff, uint64(t.Sec))
	putUint32(buff[8:], uint32(t.Nsec))
}

// Decode reads a Timestamp from a buffer produced by Encode.
func (t *Timestamp) Decode(buff []byte) error {
	if len(buff) < TSSize {
		return ErrTSDataSizeInvalid
	}
	t.Sec = int64(getUint64(buff))
	t.Nsec = int64(getUint32(buff[8:]))
	return nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}

func getUint32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[i]) << (8 * uint(i))
	}
	return v
}
