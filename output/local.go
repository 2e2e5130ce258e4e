package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"

	"github.com/forensant/artemis/entry"
)

// LocalWriter implements Writer against a directory tree, laid out
// per spec §6's "Persisted state layout":
//
//	<directory>/<name>/<artifact_name>.<ext>
//	<directory>/<name>/<artifact_name>.<n>.<ext>   (rotated splits)
//
// Each rotation segment is buffered in memory and flushed atomically
// via renameio so a crash mid-write never leaves a truncated or
// zero-length output file on disk, in place of the teacher's
// unlocatable google/go-write dependency.
type LocalWriter struct {
	Directory string
	Name      string

	mu    sync.Mutex
	files map[string]*localSegment
}

type localSegment struct {
	buf bytes.Buffer
	idx int
	ext string
}

// NewLocalWriter builds a LocalWriter rooted at directory/name.
func NewLocalWriter(directory, name string) *LocalWriter {
	return &LocalWriter{
		Directory: directory,
		Name:      name,
		files:     make(map[string]*localSegment),
	}
}

func (w *LocalWriter) Write(_ entry.Metadata, artifactName, ext string, data []byte, _ bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seg, ok := w.files[artifactName]
	if !ok {
		seg = &localSegment{ext: ext}
		w.files[artifactName] = seg
	}
	// A compressed write is a different extension than the last write
	// to this artifact had (.gz suffix toggling); that's fine, each
	// segment is self-contained and stamps its own extension when it
	// rotates or closes.
	seg.ext = ext

	if seg.buf.Len() > 0 && int64(seg.buf.Len()+len(data)) > maxLocalFileSize {
		if err := w.flushLocked(artifactName, seg); err != nil {
			return err
		}
		seg.idx++
	}
	seg.buf.Write(data)
	return nil
}

func (w *LocalWriter) flushLocked(artifactName string, seg *localSegment) error {
	if seg.buf.Len() == 0 {
		return nil
	}
	dir := filepath.Join(w.Directory, w.Name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	path := rotatedPath(dir, artifactName, seg.ext, seg.idx)
	if err := renameio.WriteFile(path, seg.buf.Bytes(), 0640); err != nil {
		return err
	}
	seg.buf.Reset()
	return nil
}

// Close flushes every artifact segment's remaining buffered bytes to
// disk. The driver calls this once at the end of a run.
func (w *LocalWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var first error
	for name, seg := range w.files {
		if err := w.flushLocked(name, seg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func rotatedPath(dir, artifactName, ext string, idx int) string {
	if idx == 0 {
		return filepath.Join(dir, fmt.Sprintf("%s.%s", artifactName, ext))
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%d.%s", artifactName, idx, ext))
}

// WriteStatusLog atomically writes the run's per-artifact status log
// (spec §6: "status.log (per-artifact result line)").
func WriteStatusLog(directory, name string, lines []string) error {
	dir := filepath.Join(directory, name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return renameio.WriteFile(filepath.Join(dir, "status.log"), buf.Bytes(), 0640)
}
