package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestHostReadFileAndHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte("hello artemis"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h := NewHost(nil)
	h.ctx = context.Background()

	b, err := h.readFile(path)
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	if string(b) != "hello artemis" {
		t.Errorf("readFile content = %q", b)
	}

	hs, err := h.hash(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hs.MD5 == "" || hs.SHA1 == "" || hs.SHA256 == "" {
		t.Errorf("hash result incomplete: %+v", hs)
	}
}

func TestHostReadFileMissingReturnsFileError(t *testing.T) {
	h := NewHost(nil)
	h.ctx = context.Background()
	_, err := h.readFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	se, ok := err.(*scriptError)
	if !ok || se.kind != "FileError" {
		t.Errorf("err = %#v, want *scriptError{kind: FileError}", err)
	}
}

func TestHostCheckDeadlineAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHost(nil)
	h.ctx = ctx

	_, err := h.readFile("anything")
	if err == nil {
		t.Fatal("expected deadline error")
	}
	se, ok := err.(*scriptError)
	if !ok || se.kind != "Deadline" {
		t.Errorf("err = %#v, want *scriptError{kind: Deadline}", err)
	}
}

func TestHostNomUnsignedRoundTrip(t *testing.T) {
	h := NewHost(nil)
	h.ctx = context.Background()

	data := []byte{0x01, 0x00, 0x00, 0x00}
	v, err := h.nomUnsignedFourBytes(data, false)
	if err != nil {
		t.Fatalf("nomUnsignedFourBytes: %v", err)
	}
	if v != 1 {
		t.Errorf("v = %d, want 1", v)
	}

	_, err = h.nomUnsignedFourBytes(data[:2], false)
	if err == nil {
		t.Fatal("expected ParseError on short input")
	}
}

func TestHostTakeUntilString(t *testing.T) {
	h := NewHost(nil)
	before, after, err := h.nomTakeUntilString("key=value", "=")
	if err != nil {
		t.Fatalf("nomTakeUntilString: %v", err)
	}
	if before != "key" || after != "value" {
		t.Errorf("before=%q after=%q", before, after)
	}
}

func TestHostTimeConversions(t *testing.T) {
	h := NewHost(nil)
	if got := h.webkitTimeToUnixepoch(0); got != 0 {
		t.Errorf("webkitTimeToUnixepoch(0) = %d, want 0", got)
	}
	if got := h.cocoatimeToUnixepoch(0); got != 0 {
		t.Errorf("cocoatimeToUnixepoch(0) = %d, want 0", got)
	}
	iso := h.unixepochToIso(0)
	if iso != "1970-01-01T00:00:00.000Z" {
		t.Errorf("unixepochToIso(0) = %q", iso)
	}
}

func TestHostOutputResultsSetsFilterOutput(t *testing.T) {
	h := NewHost(nil)
	h.outputResults([]interface{}{"a", "b"}, "test", false)
	if len(h.FilterOutput) != 2 {
		t.Errorf("FilterOutput = %v, want 2 records", h.FilterOutput)
	}
}

func TestDeclarationsCoversHostAPICategories(t *testing.T) {
	h := NewHost(nil)
	decls := h.declarations()
	want := []string{
		"ReadDir", "Stat", "Hash", "ReadTextFile", "ReadFile", "Glob",
		"Base64Encode", "Base64Decode", "ExtractUtf8String", "ExtractUtf16String",
		"NomUnsignedTwoBytes", "NomUnsignedFourBytes", "NomUnsignedEightBytes",
		"NomUnsignedSixteenBytes", "NomSignedTwoBytes", "NomSignedFourBytes",
		"NomSignedEightBytes", "NomTakeUntilBytes", "NomTakeUntilString",
		"TimeNow", "FiletimeToUnixepoch", "CocoatimeToUnixepoch", "WebkitTimeToUnixepoch",
		"UnixepochToIso", "JSRequest", "OutputResults", "FilterArtifactName",
		"FilterInput", "Console",
	}
	for _, name := range want {
		if _, ok := decls[name]; !ok {
			t.Errorf("declarations missing %q", name)
		}
	}
}
