package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// TimelineEvent is the uniform row the timeline variant emits,
// regardless of which artifact produced it (spec §4.4 "Timeline
// variant").
type TimelineEvent struct {
	Datetime       string `json:"datetime"`
	TimestampDesc  string `json:"timestamp_desc"`
	Message        string `json:"message"`
	Source         string `json:"source"`
	Artifact       string `json:"artifact"`
	DataType       string `json:"data_type"`
}

// Timelineable is implemented by parser record types that know how to
// describe themselves as one or more timeline rows. Records that
// don't implement it are simply omitted from the timeline stream --
// not every artifact type carries a single obvious timestamp.
type Timelineable interface {
	TimelineEvents(artifact string) []TimelineEvent
}

// ExtractTimeline normalizes a batch of records into timeline rows,
// per spec §4.4: "transforms supported record types into a uniform
// timeline row". Records whose type does not implement Timelineable
// are skipped.
func ExtractTimeline(artifactName string, records []interface{}) []TimelineEvent {
	var out []TimelineEvent
	for _, rec := range records {
		if t, ok := rec.(Timelineable); ok {
			out = append(out, t.TimelineEvents(artifactName)...)
		}
	}
	return out
}

// TimelineWriter appends timeline rows to the parallel JSONL stream
// at <name>/timeline/<artifact_name>.jsonl (spec §6).
type TimelineWriter struct {
	Directory string
	Name      string

	mu sync.Mutex
}

// NewTimelineWriter builds a TimelineWriter rooted at directory/name.
func NewTimelineWriter(directory, name string) *TimelineWriter {
	return &TimelineWriter{Directory: directory, Name: name}
}

// Write appends events for one artifact's submission to its timeline
// file, creating the timeline directory and file as needed.
func (t *TimelineWriter) Write(artifactName string, events []TimelineEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	dir := filepath.Join(t.Directory, t.Name, "timeline")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	path := filepath.Join(dir, artifactName+".jsonl")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	_, err = f.Write(buf.Bytes())
	return err
}
