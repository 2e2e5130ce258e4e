package ese

import (
	"context"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("ese", nil, collect)
}

// collect dumps one named table out of an ESE database file (spec
// §4.2.5): opts["path"] names the .edb/.dat file, opts["table"]
// names the table to read (e.g. "SruDbIdMapTable" for SRUM,
// "Request" for BITS' qmgr.db -- both are ordinary ESE databases, so
// no separate parser package is needed for either).
func collect(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path := opts["path"]
	table := opts["table"]
	if path == "" {
		return nil, errMissingOption("path")
	}
	if table == "" {
		return nil, errMissingOption("table")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := OpenDatabase(data)
	if err != nil {
		return nil, err
	}
	catalog, err := db.ReadCatalog()
	if err != nil {
		return nil, err
	}
	fdp, objid, ok := TableFDP(catalog, table)
	if !ok {
		return nil, errUnknownTable(table)
	}
	columns := TableColumns(catalog, objid)

	rows, err := db.TableRecords(fdp, columns)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, r)
	}
	return out, nil
}

type errMissingOption string

func (e errMissingOption) Error() string { return "ese: missing required option " + string(e) }

type errUnknownTable string

func (e errUnknownTable) Error() string { return "ese: unknown table " + string(e) }
