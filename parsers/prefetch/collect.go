package prefetch

import (
	"context"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("prefetch", []string{"windows"}, collect)
}

func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
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

type errMissingPathT string

func (e errMissingPathT) Error() string { return string(e) }

var errMissingPath = errMissingPathT("prefetch: missing required option \"path\"")
