// Package config decodes the TOML collection configuration the driver
// runs from and persists the small bit of local identity state
// (the endpoint ID; no collection counter is kept) the teacher's ingest/config
// package keeps in an Ingester-UUID marker line, adapted here to a
// dedicated identity file written atomically via renameio.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrNoArtifacts is returned by Verify when the collection lists no
	// artifacts to acquire.
	ErrNoArtifacts = errors.New("config: no artifacts configured")
	// ErrNoOutput is returned by Verify when neither a local directory
	// nor a remote target is configured.
	ErrNoOutput = errors.New("config: no output target configured")
	// ErrUnknownOutputKind is returned by OutputTarget.Verify for a kind
	// other than "local" or "remote".
	ErrUnknownOutputKind = errors.New("config: unknown output target kind")
)

// ArtifactConfig is one entry in the collection's ordered artifact
// list: a name the driver's dispatch table resolves, plus an opaque
// option bag handed to the matching parser (spec §4.3: "dispatch on
// artifact_name to the corresponding parser with its options").
type ArtifactConfig struct {
	Name    string            `toml:"name"`
	Options map[string]string `toml:"options,omitempty"`
}

// OutputTarget describes where the output pipeline writes completed
// batches: a local directory, or a remote collection server.
type OutputTarget struct {
	Kind string `toml:"kind"` // "local" or "remote"

	// local
	Directory string `toml:"directory,omitempty"`

	// remote
	URL             string `toml:"url,omitempty"`
	InsecureSkipTLS bool   `toml:"insecure_skip_tls,omitempty"`
	Timeout_Seconds int    `toml:"timeout_seconds,omitempty"`

	Format      string `toml:"format,omitempty"` // "json" or "jsonl"
	Compress    bool   `toml:"compress,omitempty"`
	Timeline    bool   `toml:"timeline,omitempty"`
	FilterScript string `toml:"filter_script,omitempty"` // path, evaluated by script.Runtime
	Strict      bool   `toml:"strict,omitempty"`         // keep driver's records on filter error only if false
}

// Verify checks an OutputTarget is internally consistent.
func (o OutputTarget) Verify() error {
	switch o.Kind {
	case "local":
		if o.Directory == "" {
			return ErrNoOutput
		}
	case "remote":
		if o.URL == "" {
			return ErrNoOutput
		}
	default:
		return ErrUnknownOutputKind
	}
	if o.Format == "" {
		o.Format = "jsonl"
	}
	return nil
}

// CollectionConfig is the root of one TOML collection file: an
// ordered artifact list, a single output target, and identity
// metadata resolved once at startup.
type CollectionConfig struct {
	Name      string           `toml:"name"`
	Log_Level string           `toml:"log_level,omitempty"`
	Log_File  string           `toml:"log_file,omitempty"`
	Artifacts []ArtifactConfig `toml:"artifacts"`
	Output    OutputTarget     `toml:"output"`

	// EndpointID is resolved by Resolve below if left blank; config
	// files do not usually set it directly.
	EndpointID string `toml:"endpoint_id,omitempty"`
}

// Parse decodes raw TOML bytes into a CollectionConfig.
func Parse(raw []byte) (CollectionConfig, error) {
	var c CollectionConfig
	if err := toml.Unmarshal(raw, &c); err != nil {
		return CollectionConfig{}, fmt.Errorf("config: parse: %w", err)
	}
	return c, nil
}

// Load reads and parses the TOML collection file at path.
func Load(path string) (CollectionConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CollectionConfig{}, err
	}
	return Parse(raw)
}

// Verify checks that a decoded configuration is runnable: at least
// one artifact, an output target that itself verifies.
func (c CollectionConfig) Verify() error {
	if len(c.Artifacts) == 0 {
		return ErrNoArtifacts
	}
	return c.Output.Verify()
}

// Resolve fills in EndpointID from the on-disk identity file at
// identityPath, minting and persisting a new one if none exists yet --
// the same "load or mint, then persist" shape as the teacher's
// IngesterUUID/SetIngesterUUID pair, just scoped to a dedicated file
// instead of an INI marker line.
func (c *CollectionConfig) Resolve(identityPath string) error {
	if c.EndpointID != "" {
		return nil
	}
	id, err := LoadOrCreateEndpointID(identityPath)
	if err != nil {
		return err
	}
	c.EndpointID = id
	return nil
}

// NewUUID mints a fresh random identifier, used both for EndpointID
// minting and anywhere else the driver needs an opaque random ID.
func NewUUID() string {
	return uuid.NewString()
}
