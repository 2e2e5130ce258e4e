package fsreader

import (
	"regexp"
	"testing"
)

func TestLiteralScannerLiteralMatch(t *testing.T) {
	s := NewLiteralScanner([]Rule{{Name: "mz-header", Literal: []byte("MZ")}})
	matches, err := s.Scan([]byte("junkMZrest"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Offset != 4 || matches[0].Rule != "mz-header" {
		t.Fatalf("matches = %+v", matches)
	}
}

func TestLiteralScannerRegexpMatch(t *testing.T) {
	s := NewLiteralScanner([]Rule{{Name: "ipv4", Regexp: regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)}})
	matches, err := s.Scan([]byte("connect to 10.0.0.1 now"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Rule != "ipv4" {
		t.Fatalf("matches = %+v", matches)
	}
}

func TestSniffTypeUnknown(t *testing.T) {
	if _, ok := SniffType([]byte{0x00, 0x01, 0x02}); ok {
		t.Fatal("expected no type match for junk header")
	}
}
