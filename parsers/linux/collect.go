package linux

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("journal", []string{"linux"}, collect)
}

var errMissingPath = errors.New("linux: missing required option \"path\"")

func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Walk(data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, e)
	}
	return out, nil
}
