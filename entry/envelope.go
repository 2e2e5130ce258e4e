package entry

import (
	"encoding/json"

	"github.com/google/uuid"
)

// LoadPerformance mirrors /proc/loadavg-style figures, filled in once at
// startup and copied into every batch's metadata.
type LoadPerformance struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Metadata is stamped onto every output batch for a single driver run. All
// fields except UUID and CompleteTime are fixed for the lifetime of one
// Metadata value (spec §3 invariant: "Endpoint metadata for a batch is
// stable across every record within that batch").
type Metadata struct {
	EndpointID     string          `json:"endpoint_id"`
	CollectionID   int64           `json:"id"`
	ArtifactName   string          `json:"artifact_name"`
	StartTime      int64           `json:"start_time"`
	CompleteTime   int64           `json:"complete_time"`
	Hostname       string          `json:"hostname"`
	OSVersion      string          `json:"os_version"`
	Platform       string          `json:"platform"`
	KernelVersion  string          `json:"kernel_version"`
	Load           LoadPerformance `json:"load_performance"`
	UUID           string          `json:"uuid"`
}

// Envelope wraps a single serialized record (or record batch) with the
// metadata describing the collection run that produced it.
type Envelope struct {
	Metadata Metadata    `json:"metadata"`
	Data     interface{} `json:"data,omitempty"`
}

// NewEnvelope builds an envelope from a metadata template, stamping a fresh
// per-envelope UUID as required by spec §4.4 step 3 ("JSONL emits one
// envelope per array element, each with a fresh uuid").
func NewEnvelope(base Metadata, data interface{}) Envelope {
	base.UUID = uuid.NewString()
	return Envelope{Metadata: base, Data: data}
}

// Marshal renders the envelope as compact JSON, the unit the output
// pipeline frames one-per-line for JSONL or collects into an array for
// plain JSON.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// MarshalIndent renders the envelope pretty-printed, used for the
// single-array "json" output format.
func (e Envelope) MarshalIndent(prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(e, prefix, indent)
}
