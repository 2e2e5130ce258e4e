package secdescriptor

import (
	"context"
	"encoding/base64"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("secdescriptor", []string{"windows"}, collect)
}

var errMissingInput = errors.New("secdescriptor: need either opts[\"path\"] or opts[\"base64\"]")

// collect decodes either a standalone raw security-descriptor file
// (opts["path"], e.g. a carved $SECURITY stream entry) or an inline
// base64 blob (opts["base64"], used when a caller -- the registry or
// NTFS parser -- has already extracted the bytes and wants this
// parser's SID/ACL decoding without a second file read).
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

	sd, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{sd}, nil
}
