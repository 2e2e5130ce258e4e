package propertystore

import (
	"context"
	"encoding/base64"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("propertystore", nil, collect)
}

var errMissingInput = errors.New("propertystore: need either opts[\"path\"] or opts[\"base64\"]")

// collect reads a standalone property-store blob either from a file
// (opts["path"]) or from an inline base64 blob (opts["base64"], for
// callers — lnk/shellitem extension blocks, shellbag values — that
// already extracted the bytes from a larger structure).
func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	var data []byte
	switch {
	case opts["path"] != "":
		b, err := os.ReadFile(opts["path"])
		if err != nil {
			return nil, err
		}
		data = b
	case opts["base64"] != "":
		b, err := base64.StdEncoding.DecodeString(opts["base64"])
		if err != nil {
			return nil, err
		}
		data = b
	default:
		return nil, errMissingInput
	}

	props, err := ParseStream(data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(props))
	for _, p := range props {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, p)
	}
	return out, nil
}
