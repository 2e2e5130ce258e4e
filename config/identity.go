package config

import (
	"errors"
	"os"
	"strings"

	"github.com/google/renameio"
)

// ErrEmptyIdentityFile is returned by LoadOrCreateEndpointID when the
// identity file exists but is empty or whitespace-only.
var ErrEmptyIdentityFile = errors.New("config: identity file is empty")

// LoadOrCreateEndpointID reads a previously-persisted endpoint ID from
// path, or mints and atomically persists a new one if the file does
// not exist yet. The file is written via renameio so a crash mid-write
// can never leave a half-written or zero-length identity file behind,
// in place of the teacher's unlocatable google/go-write dependency.
func LoadOrCreateEndpointID(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(raw))
		if id == "" {
			return "", ErrEmptyIdentityFile
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	id := NewUUID()
	if err := renameio.WriteFile(path, []byte(id+"\n"), 0640); err != nil {
		return "", err
	}
	return id, nil
}
