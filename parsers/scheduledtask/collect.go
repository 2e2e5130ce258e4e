package scheduledtask

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("scheduledtask", []string{"windows"}, collect)
}

var errMissingPath = errors.New("scheduledtask: missing required option \"path\"")

func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{t}, nil
}
