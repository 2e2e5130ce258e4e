package registry

import (
	"context"
	"os"
	"regexp"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("registry", []string{"windows"}, collect)
}

// collect wires the hive walk into the driver's dispatch table (spec
// §4.2.4): opts["path"] names the hive file on disk, opts["prefix"]
// and opts["name_regexp"] narrow the walk the same way WalkOptions
// does directly.
func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingOption("path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hive, err := Open(data)
	if err != nil {
		return nil, err
	}

	wopts := WalkOptions{PathPrefix: opts["prefix"]}
	if pat := opts["name_regexp"]; pat != "" {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, err
		}
		wopts.NameRegexp = re
	}

	keys, err := hive.Walk(wopts)
	if err != nil {
		return nil, err
	}

	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, k)
	}
	return out, nil
}

type errMissingOption string

func (e errMissingOption) Error() string { return "registry: missing required option " + string(e) }
