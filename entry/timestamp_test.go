package entry

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := Timestamp{Sec: 1645510339, Nsec: 123456789}
	buff := make([]byte, TSSize)
	ts.Encode(buff)

	var got Timestamp
	if err := got.Decode(buff); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != ts {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, ts)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	var ts Timestamp
	if err := ts.Decode([]byte{1, 2, 3}); err != ErrTSDataSizeInvalid {
		t.Fatalf("expected ErrTSDataSizeInvalid, got %v", err)
	}
}

func TestISO8601(t *testing.T) {
	ts := Timestamp{Sec: 1645510339}
	want := "2022-02-22T06:12:19.000Z"
	if got := ts.ISO8601(); got != want {
		t.Fatalf("ISO8601() = %q, want %q", got, want)
	}
}

func TestBefore(t *testing.T) {
	a := Timestamp{Sec: 100, Nsec: 0}
	b := Timestamp{Sec: 100, Nsec: 1}
	if !a.Before(b) {
		t.Fatal("expected a before b")
	}
	if b.Before(a) {
		t.Fatal("expected b not before a")
	}
}
