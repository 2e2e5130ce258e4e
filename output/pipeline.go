// Package output is the engine's L4 output pipeline: it frames
// parser records into envelopes (entry.Envelope), optionally runs
// them through a script filter, serializes as JSON or JSONL,
// optionally gzips, and dispatches to a local directory or a remote
// collection server. Grounded on the teacher's processors/gzip.go and
// processors/json.go for the framing/compression shape, and
// ingestConnection.go for the "submit, retry, report" dispatch shape.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/forensant/artemis/compress"
	"github.com/forensant/artemis/config"
	"github.com/forensant/artemis/entry"
)

// maxBatchBytes is the hard per-submission batch cap (spec §5:
// "Per-artifact output batch is capped at 1 GiB uncompressed").
const maxBatchBytes = 1 << 30

// maxLocalFileSize is the rotation threshold for local output files
// (spec §4.4: "rotating when a file exceeds 2 GiB"). A var, not a
// const, so tests can shrink it rather than writing gigabyte fixtures.
var maxLocalFileSize int64 = 2 << 30

// ErrFilterFailed wraps a non-nil error returned by a FilterFunc; the
// caller decides whether to proceed unfiltered (Strict == false) or
// to abort the submission (Strict == true), per spec §4.4 step 2.
var ErrFilterFailed = errors.New("output: filter script failed")

// FilterFunc is the script-runtime hook (§4.5 "Script runtime" /
// `outputResults`): given the records about to be submitted and the
// artifact name, it returns the (possibly transformed) records to
// actually submit.
type FilterFunc func(records []interface{}, artifactName string) ([]interface{}, error)

// Writer is the dispatch surface a Pipeline submits framed,
// serialized, optionally-compressed bytes to. LocalWriter and
// RemoteWriter are the two implementations spec §4.4 names.
type Writer interface {
	// Write delivers one complete (already-serialized, already
	// possibly-compressed) output blob for one artifact's batch.
	Write(meta entry.Metadata, artifactName, ext string, data []byte, compressed bool) error
}

// Pipeline is one collection run's output sink: a metadata template
// stamped onto every batch, an optional script filter, and a Writer.
type Pipeline struct {
	Target   config.OutputTarget
	Writer   Writer
	Filter   FilterFunc
	Timeline *TimelineWriter // nil if timeline output is disabled

	metaTemplate entry.Metadata
}

// NewPipeline builds a Pipeline from a resolved output target and the
// endpoint metadata template the driver stamps onto every batch this
// run.
func NewPipeline(target config.OutputTarget, w Writer, meta entry.Metadata) *Pipeline {
	return &Pipeline{Target: target, Writer: w, metaTemplate: meta}
}

// Submit pushes one parser's record stream into the pipeline, per
// spec §4.4's five numbered steps. startTime is the driver's wall
// time for this artifact (spec §4.3 step 3).
func (p *Pipeline) Submit(artifactName string, records []interface{}, startTime time.Time) error {
	if p.Filter != nil {
		filtered, err := p.Filter(records, artifactName)
		if err != nil {
			if p.Target.Strict {
				return ErrFilterFailed
			}
			// strict == false: proceed unfiltered, per spec §4.4 step 2.
		} else {
			records = filtered
		}
	}

	for _, batch := range splitBatches(records, maxBatchBytes) {
		if err := p.submitBatch(artifactName, batch, startTime); err != nil {
			return err
		}
	}

	if p.Timeline != nil {
		events := ExtractTimeline(artifactName, records)
		if len(events) > 0 {
			if err := p.Timeline.Write(artifactName, events); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) submitBatch(artifactName string, records []interface{}, startTime time.Time) error {
	meta := p.metaTemplate
	meta.ArtifactName = artifactName
	meta.StartTime = startTime.Unix()
	meta.CompleteTime = time.Now().Unix()

	var serialized []byte
	var ext string
	var err error
	format := p.Target.Format
	if format == "" {
		format = "jsonl"
	}

	switch format {
	case "json":
		env := entry.NewEnvelope(meta, records)
		serialized, err = env.MarshalIndent("", "  ")
		ext = "json"
	case "jsonl":
		serialized, err = marshalJSONL(meta, records)
		ext = "jsonl"
	default:
		return errFormat(format)
	}
	if err != nil {
		return err
	}

	compressed := false
	if p.Target.Compress {
		serialized, err = compress.Gzip(serialized)
		if err != nil {
			return err
		}
		ext += ".gz"
		compressed = true
	}

	return p.Writer.Write(meta, artifactName, ext, serialized, compressed)
}

// marshalJSONL renders one envelope per array element, each with a
// fresh uuid (spec §4.4 step 3). An empty records slice still
// produces one line whose data is absent, per spec §8's boundary
// behavior ("Empty records array produces exactly one envelope whose
// data is absent").
func marshalJSONL(meta entry.Metadata, records []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if len(records) == 0 {
		env := entry.NewEnvelope(meta, nil)
		b, err := env.Marshal()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
	for _, rec := range records {
		env := entry.NewEnvelope(meta, rec)
		b, err := env.Marshal()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// splitBatches divides records into groups whose JSON-encoded size
// stays under limit, splitting only at array boundaries (spec §5:
// "triggers splitting the record array at array boundaries"). An
// empty input yields a single empty batch so callers still emit the
// boundary-case envelope.
func splitBatches(records []interface{}, limit int) [][]interface{} {
	if len(records) == 0 {
		return [][]interface{}{nil}
	}
	var batches [][]interface{}
	var cur []interface{}
	curSize := 0
	for _, rec := range records {
		sz := estimateSize(rec)
		if curSize > 0 && curSize+sz > limit {
			batches = append(batches, cur)
			cur = nil
			curSize = 0
		}
		cur = append(cur, rec)
		curSize += sz
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func estimateSize(rec interface{}) int {
	b, err := json.Marshal(rec)
	if err != nil {
		return 0
	}
	return len(b)
}

type errFormat string

func (e errFormat) Error() string { return "output: unknown format " + string(e) }
