package evtx

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("evtx", []string{"windows"}, collect)
}

var errMissingPath = errors.New("evtx: missing required option \"path\"")

func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := ParseFile(data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(recs))
	for _, r := range recs {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, r)
	}
	return out, nil
}
