package ntfs

import (
	"context"
	"os"
	"strconv"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("mft", []string{"windows"}, collectMFT)
	driver.Register("usnjrnl", []string{"windows"}, collectUSN)
}

const defaultMFTRecordSize = 1024

// collectMFT walks an extracted $MFT file record by record (spec
// §4.2.2): opts["path"] names the file, opts["record_size"] overrides
// the 1024-byte default a boot-sector read would otherwise supply.
// Slots without a FILE signature (free or zeroed) are skipped rather
// than aborting the walk; entries whose fixup fails are still emitted,
// with Corrupt set.
func collectMFT(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingOption("path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	recSize := defaultMFTRecordSize
	if s := opts["record_size"]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			recSize = n
		}
	}

	var out []interface{}
	for off := 0; off+recSize <= len(data); off += recSize {
		if ctx.Err() != nil {
			return out, nil
		}
		entry, err := ParseEntry(data[off : off+recSize])
		if err != nil {
			// Free, zeroed, or corrupt slack-space records are common and
			// not an error condition; skip and keep walking.
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// collectUSN parses a raw $UsnJrnl:$J data stream (spec §4.2.3).
func collectUSN(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingOption("path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records := ParseUSNRecords(data)

	out := make([]interface{}, 0, len(records))
	for _, r := range records {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, r)
	}
	return out, nil
}

type errMissingOption string

func (e errMissingOption) Error() string { return "ntfs: missing required option " + string(e) }
