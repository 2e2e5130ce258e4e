package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forensant/artemis/config"
	"github.com/forensant/artemis/entry"
)

type recordingWriter struct {
	writes []struct {
		artifact string
		ext      string
		data     []byte
	}
}

func (r *recordingWriter) Write(_ entry.Metadata, artifactName, ext string, data []byte, _ bool) error {
	r.writes = append(r.writes, struct {
		artifact string
		ext      string
		data     []byte
	}{artifactName, ext, append([]byte{}, data...)})
	return nil
}

func TestSubmitJSONLOneLinePerRecord(t *testing.T) {
	w := &recordingWriter{}
	p := NewPipeline(config.OutputTarget{Kind: "local", Format: "jsonl"}, w, entry.Metadata{EndpointID: "ep1"})

	records := []interface{}{
		map[string]string{"name": "a"},
		map[string]string{"name": "b"},
	}
	if err := p.Submit("mft", records, time.Now()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(w.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(w.writes))
	}
	lines := strings.Split(strings.TrimRight(string(w.writes[0].data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), w.writes[0].data)
	}
	for _, l := range lines {
		var env entry.Envelope
		if err := json.Unmarshal([]byte(l), &env); err != nil {
			t.Errorf("line not valid JSON: %v", err)
		}
		if env.Metadata.ArtifactName != "mft" {
			t.Errorf("ArtifactName = %q", env.Metadata.ArtifactName)
		}
	}
}

func TestSubmitEmptyRecordsProducesOneEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := NewPipeline(config.OutputTarget{Kind: "local", Format: "jsonl"}, w, entry.Metadata{})
	if err := p.Submit("registry", nil, time.Now()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(w.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(w.writes))
	}
	var env entry.Envelope
	if err := json.Unmarshal(bytesTrim(w.writes[0].data), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Data != nil {
		t.Errorf("Data = %v, want nil (absent)", env.Data)
	}
}

func bytesTrim(b []byte) []byte {
	return []byte(strings.TrimRight(string(b), "\n"))
}

func TestSubmitFilterAppliedAndCanBeOverridden(t *testing.T) {
	w := &recordingWriter{}
	p := NewPipeline(config.OutputTarget{Kind: "local", Format: "jsonl"}, w, entry.Metadata{})
	p.Filter = func(records []interface{}, artifact string) ([]interface{}, error) {
		return records[:1], nil
	}
	records := []interface{}{"a", "b", "c"}
	if err := p.Submit("prefetch", records, time.Now()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(w.writes[0].data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("filter was not applied: got %d lines", len(lines))
	}
}

func TestSubmitFilterErrorNonStrictProceedsUnfiltered(t *testing.T) {
	w := &recordingWriter{}
	p := NewPipeline(config.OutputTarget{Kind: "local", Format: "jsonl", Strict: false}, w, entry.Metadata{})
	p.Filter = func(records []interface{}, artifact string) ([]interface{}, error) {
		return nil, errFilterBoom
	}
	records := []interface{}{"a", "b"}
	if err := p.Submit("prefetch", records, time.Now()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(w.writes[0].data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("expected unfiltered records to proceed, got %d lines", len(lines))
	}
}

func TestSubmitFilterErrorStrictAborts(t *testing.T) {
	w := &recordingWriter{}
	p := NewPipeline(config.OutputTarget{Kind: "local", Format: "jsonl", Strict: true}, w, entry.Metadata{})
	p.Filter = func(records []interface{}, artifact string) ([]interface{}, error) {
		return nil, errFilterBoom
	}
	if err := p.Submit("prefetch", []interface{}{"a"}, time.Now()); err != ErrFilterFailed {
		t.Errorf("err = %v, want ErrFilterFailed", err)
	}
}

var errFilterBoom = errBoom("boom")

type errBoom string

func (e errBoom) Error() string { return string(e) }

func TestLocalWriterRotatesAndFlushesAtomically(t *testing.T) {
	orig := maxLocalFileSize
	maxLocalFileSize = 100
	defer func() { maxLocalFileSize = orig }()

	dir := t.TempDir()
	lw := NewLocalWriter(dir, "run1")

	chunk := make([]byte, 80)
	for i := range chunk {
		chunk[i] = 'x'
	}
	if err := lw.Write(entry.Metadata{}, "mft", "jsonl", chunk, false); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	if err := lw.Write(entry.Metadata{}, "mft", "jsonl", chunk, false); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	base := filepath.Join(dir, "run1", "mft.jsonl")
	rotated := filepath.Join(dir, "run1", "mft.1.jsonl")
	if _, err := os.Stat(base); err != nil {
		t.Errorf("base file missing: %v", err)
	}
	if _, err := os.Stat(rotated); err != nil {
		t.Errorf("rotated file missing: %v", err)
	}
}

func TestSplitBatchesRespectsLimit(t *testing.T) {
	records := make([]interface{}, 10)
	for i := range records {
		records[i] = strings.Repeat("a", 100)
	}
	batches := splitBatches(records, 250)
	if len(batches) < 2 {
		t.Fatalf("expected multiple batches, got %d", len(batches))
	}
	var total int
	for _, b := range batches {
		total += len(b)
	}
	if total != len(records) {
		t.Errorf("split lost records: got %d total, want %d", total, len(records))
	}
}
