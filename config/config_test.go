package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
name = "workstation-triage"
log_level = "INFO"

[[artifacts]]
name = "mft"

[[artifacts]]
name = "registry"
options = { hive = "SYSTEM" }

[output]
kind = "local"
directory = "/tmp/artemis-out"
format = "jsonl"
compress = true
`

func TestParseSampleConfig(t *testing.T) {
	c, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Name != "workstation-triage" {
		t.Errorf("Name = %q", c.Name)
	}
	if len(c.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(c.Artifacts))
	}
	if c.Artifacts[1].Options["hive"] != "SYSTEM" {
		t.Errorf("artifact options not decoded: %+v", c.Artifacts[1])
	}
	if err := c.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyRejectsEmptyArtifacts(t *testing.T) {
	c := CollectionConfig{Output: OutputTarget{Kind: "local", Directory: "/tmp"}}
	if err := c.Verify(); err != ErrNoArtifacts {
		t.Errorf("err = %v, want ErrNoArtifacts", err)
	}
}

func TestOutputTargetVerify(t *testing.T) {
	cases := []struct {
		o       OutputTarget
		wantErr error
	}{
		{OutputTarget{Kind: "local", Directory: "/tmp"}, nil},
		{OutputTarget{Kind: "local"}, ErrNoOutput},
		{OutputTarget{Kind: "remote", URL: "https://example.com"}, nil},
		{OutputTarget{Kind: "remote"}, ErrNoOutput},
		{OutputTarget{Kind: "carrier-pigeon"}, ErrUnknownOutputKind},
	}
	for _, c := range cases {
		if err := c.o.Verify(); err != c.wantErr {
			t.Errorf("Verify(%+v) = %v, want %v", c.o, err, c.wantErr)
		}
	}
}

func TestLoadOrCreateEndpointIDPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity")

	first, err := LoadOrCreateEndpointID(path)
	if err != nil {
		t.Fatalf("first LoadOrCreateEndpointID: %v", err)
	}
	if first == "" {
		t.Fatal("minted empty endpoint id")
	}

	second, err := LoadOrCreateEndpointID(path)
	if err != nil {
		t.Fatalf("second LoadOrCreateEndpointID: %v", err)
	}
	if second != first {
		t.Errorf("endpoint id not stable across calls: %q != %q", first, second)
	}
}

func TestLoadOrCreateEndpointIDRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity")
	if err := os.WriteFile(path, []byte("   \n"), 0640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadOrCreateEndpointID(path); err != ErrEmptyIdentityFile {
		t.Errorf("err = %v, want ErrEmptyIdentityFile", err)
	}
}

func TestResolveFillsEndpointIDOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity")

	c := CollectionConfig{}
	if err := c.Resolve(path); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.EndpointID == "" {
		t.Fatal("Resolve left EndpointID empty")
	}

	existing := c.EndpointID
	if err := c.Resolve(path); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if c.EndpointID != existing {
		t.Errorf("Resolve overwrote an already-set EndpointID")
	}
}
