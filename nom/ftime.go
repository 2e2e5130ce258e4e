package nom

import "github.com/forensant/artemis/entry"

// Time epoch constants, matching the documented offsets in spec.md §4.1
// and the Rust original's utils/time.rs equivalents.
const (
	filetimeToUnixOffsetSeconds int64 = 11644473600 // 1601-01-01 -> 1970-01-01
	cocoaToUnixOffsetSeconds    int64 = 978307200    // 2001-01-01 -> 1970-01-01
	hfsToUnixOffsetSeconds      int64 = 2082844800   // 1904-01-01 -> 1970-01-01
	hundredNsPerSecond          int64 = 10_000_000
	microsecondsPerSecond       int64 = 1_000_000
)

// FiletimeToUnix converts a Windows FILETIME (100ns ticks since
// 1601-01-01) to Unix epoch seconds.
func FiletimeToUnix(ft uint64) int64 {
	if ft == 0 {
		return 0
	}
	return int64(ft/uint64(hundredNsPerSecond)) - filetimeToUnixOffsetSeconds
}

// UnixToFiletime is FiletimeToUnix's inverse, used by round-trip tests
// (spec.md §8: "filetime_to_unix(unix_to_filetime(t)) == t for t in
// [0, 2^40)").
func UnixToFiletime(sec int64) uint64 {
	return uint64(sec+filetimeToUnixOffsetSeconds) * uint64(hundredNsPerSecond)
}

// CocoaToUnix converts a Cocoa absolute time (seconds since 2001-01-01,
// fractional) to Unix epoch seconds, truncating towards zero.
func CocoaToUnix(cocoa float64) int64 {
	if cocoa == 0 {
		return 0
	}
	return int64(cocoa) + cocoaToUnixOffsetSeconds
}

// WebKitToUnix converts a WebKit/Chromium timestamp (microseconds since
// 1601-01-01) to Unix epoch seconds.
func WebKitToUnix(webkit int64) int64 {
	if webkit == 0 {
		return 0
	}
	return webkit/microsecondsPerSecond - filetimeToUnixOffsetSeconds
}

// HFSToUnix converts an HFS+ timestamp (seconds since 1904-01-01) to Unix
// epoch seconds.
func HFSToUnix(hfs uint32) int64 {
	if hfs == 0 {
		return 0
	}
	return int64(hfs) - hfsToUnixOffsetSeconds
}

// UnixToISO renders a Unix-second timestamp as the ISO-8601 string shape
// every parser record uses.
func UnixToISO(sec int64) string {
	return entry.Timestamp{Sec: sec}.ISO8601()
}
