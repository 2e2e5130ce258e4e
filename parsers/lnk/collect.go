package lnk

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("lnk", []string{"windows"}, collectLNK)
	driver.Register("shellitems", []string{"windows"}, collectShellItems)
}

var errMissingPath = errors.New("lnk: missing required option \"path\"")

func collectLNK(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{f}, nil
}

// collectShellItems decodes a standalone shell-item stream, e.g. a
// carved shellbag registry value (opts["path"] names a file holding
// just the stream bytes).
func collectShellItems(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	items, err := ParseStream(data)
	if err != nil && len(items) == 0 {
		return nil, err
	}
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, it)
	}
	return out, nil
}
