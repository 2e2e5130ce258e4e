package fsreader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAndReadAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	want := []byte("forensic artifact bytes")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	fr, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fr.Close()

	if fr.Size() != int64(len(want)) {
		t.Fatalf("Size() = %d, want %d", fr.Size(), len(want))
	}

	got := make([]byte, len(want))
	if _, err := fr.ReadAt(got, 0); err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Fatalf("ReadAt = %q, want %q", got, want)
	}
}

func TestReadAtAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fr, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := fr.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := fr.ReadAt(make([]byte, 1), 0); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestStatMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	meta, err := StatMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Size != 10 {
		t.Fatalf("Size = %d, want 10", meta.Size)
	}
	if meta.IsDir {
		t.Fatal("IsDir = true, want false")
	}
}
