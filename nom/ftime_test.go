package nom

import "testing"

func TestFiletimeRoundTrip(t *testing.T) {
	for _, sec := range []int64{0, 1, 12345, 1 << 30} {
		ft := UnixToFiletime(sec)
		if got := FiletimeToUnix(ft); got != sec {
			t.Fatalf("round trip for %d: got %d", sec, got)
		}
	}
}

func TestWebKitToUnixChromiumSample(t *testing.T) {
	// Chromium last_visit_time 13289983939000000 (µs since 1601-01-01)
	// -> 1645510339 (2022-02-22T06:12:19Z)
	got := WebKitToUnix(13289983939000000)
	if got != 1645510339 {
		t.Fatalf("WebKitToUnix = %d, want 1645510339", got)
	}
}

func TestCocoaToUnixZero(t *testing.T) {
	if got := CocoaToUnix(0); got != 0 {
		t.Fatalf("CocoaToUnix(0) = %d, want 0", got)
	}
}

func TestHFSToUnixZero(t *testing.T) {
	if got := HFSToUnix(0); got != 0 {
		t.Fatalf("HFSToUnix(0) = %d, want 0", got)
	}
}
