package shimdb

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("shimdb", []string{"windows"}, collect)
}

var errMissingPath = errors.New("shimdb: missing required option \"path\"")

func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{db}, nil
}
