package ntfs

import (
	"encoding/binary"
	"testing"
)

func TestDecodeDataRunsSingleRun(t *testing.T) {
	// header 0x31: offsetBytes=3, lengthBytes=1; length=0x10 (16 clusters),
	// offset=+100 clusters from 0
	raw := []byte{0x31, 0x10, 100, 0, 0, 0x00}
	runs, err := DecodeDataRuns(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].StartCluster != 100 || runs[0].ClusterCount != 16 {
		t.Fatalf("run = %+v", runs[0])
	}
}

func TestDecodeDataRunsSparse(t *testing.T) {
	// header 0x02: offsetBytes=0 (sparse), lengthBytes=2; length=0x0100
	raw := []byte{0x02, 0x00, 0x01, 0x00}
	runs, err := DecodeDataRuns(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !runs[0].IsSparse || runs[0].ClusterCount != 0x0100 {
		t.Fatalf("run = %+v", runs)
	}
}

func TestDecodeDataRunsNegativeOffset(t *testing.T) {
	// two runs: first at +50, second at -20 relative (50 -> 30)
	raw := []byte{}
	raw = append(raw, 0x31, 10, 50, 0, 0) // length=10, offset=+50
	raw = append(raw, 0x31, 5, 0xEC, 0xFF, 0xFF) // length=5, offset=-20 (0xFFFFEC)
	runs, err := DecodeDataRuns(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].StartCluster != 50 {
		t.Fatalf("run0 = %+v", runs[0])
	}
	if runs[1].StartCluster != 30 {
		t.Fatalf("run1 StartCluster = %d, want 30", runs[1].StartCluster)
	}
}

func TestParseUSNRecords(t *testing.T) {
	rec := make([]byte, 68)
	binary.LittleEndian.PutUint64(rec[8:16], 7|(uint64(1)<<48))
	binary.LittleEndian.PutUint64(rec[16:24], 5|(uint64(1)<<48))
	binary.LittleEndian.PutUint64(rec[24:32], 999)
	binary.LittleEndian.PutUint32(rec[40:44], ReasonFileCreate|ReasonClose)
	binary.LittleEndian.PutUint16(rec[56:58], 6)
	binary.LittleEndian.PutUint16(rec[58:60], 60)
	copy(rec[60:66], []byte{'a', 0, 'b', 0, 'c', 0})
	binary.LittleEndian.PutUint32(rec[0:4], uint32(len(rec)))

	records := ParseUSNRecords(rec)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.USN != 999 {
		t.Fatalf("USN = %d", r.USN)
	}
	if r.FileReference.Entry != 7 || r.FileReference.Sequence != 1 {
		t.Fatalf("FileReference = %+v", r.FileReference)
	}
	names := ReasonNames(r.Reason)
	if len(names) != 2 {
		t.Fatalf("reason names = %v", names)
	}
}

func TestAncestorCacheResolvesAfterMFTGone(t *testing.T) {
	cache := NewAncestorCache()
	cache.Observe(USNRecord{
		FileReference:   EntryRef{Entry: 10, Sequence: 1},
		ParentReference: EntryRef{Entry: 5, Sequence: 5},
		FileName:        "deleted-dir",
	})

	got := ResolveFullPath(cache, EntryRef{Entry: 10, Sequence: 1}, "orphan-child.txt")
	if got != `deleted-dir\orphan-child.txt` {
		t.Fatalf("ResolveFullPath = %q", got)
	}
}

func TestAncestorCacheMissFallsBackToOrphan(t *testing.T) {
	cache := NewAncestorCache()
	got := ResolveFullPath(cache, EntryRef{Entry: 999, Sequence: 1}, "x.txt")
	if got != orphanPrefix+"x.txt" {
		t.Fatalf("ResolveFullPath = %q", got)
	}
}
