package fsreader

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestHashReaderKnownVector(t *testing.T) {
	data := []byte("the quick brown fox")
	got, err := HashReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatal(err)
	}

	md5sum := md5.Sum(data)
	sha1sum := sha1.Sum(data)
	sha256sum := sha256.Sum256(data)

	if got.MD5 != hex.EncodeToString(md5sum[:]) {
		t.Fatalf("MD5 = %s", got.MD5)
	}
	if got.SHA1 != hex.EncodeToString(sha1sum[:]) {
		t.Fatalf("SHA1 = %s", got.SHA1)
	}
	if got.SHA256 != hex.EncodeToString(sha256sum[:]) {
		t.Fatalf("SHA256 = %s", got.SHA256)
	}
}
