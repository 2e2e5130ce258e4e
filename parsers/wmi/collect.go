package wmi

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("wmi-repository", []string{"windows"}, collect)
}

var errMissingOptions = errors.New("wmi: need opts[\"objects_path\"] and opts[\"mapping_path\"]")

// collect reads the repository's OBJECTS.DATA plus the active
// MAPPING#.MAP, resolving every reachable object record.
func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	objectsPath := opts["objects_path"]
	mappingPath := opts["mapping_path"]
	if objectsPath == "" || mappingPath == "" {
		return nil, errMissingOptions
	}

	objectsData, err := os.ReadFile(objectsPath)
	if err != nil {
		return nil, err
	}
	mappingData, err := os.ReadFile(mappingPath)
	if err != nil {
		return nil, err
	}
	mapping, err := ParseMapping(mappingData)
	if err != nil {
		return nil, err
	}

	records := ResolveObjects(objectsData, mapping)
	out := make([]interface{}, 0, len(records))
	for _, r := range records {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, r)
	}
	return out, nil
}
