package ese

import (
	"encoding/binary"
	"errors"
)

// ErrPageOutOfRange is returned when a page pointer in the B-tree
// falls outside the database file.
var ErrPageOutOfRange = errors.New("ese: page number out of range")

// Database is an open ESE file: its header plus a page accessor. The
// file is held in memory as a flat byte slice since SRUM/WebCache/
// Search databases this engine targets are collected whole, not
// streamed.
type Database struct {
	Header FileHeader
	data   []byte
}

// OpenDatabase parses the file header and wraps the full file buffer
// for page-indexed access.
func OpenDatabase(data []byte) (*Database, error) {
	hdr, err := ParseFileHeader(data)
	if err != nil {
		return nil, err
	}
	return &Database{Header: hdr, data: data}, nil
}

// page returns the 1-indexed page's raw bytes. Page numbers in ESE
// are 1-based and offset by the header's own leading page (the header
// occupies what would be page 0/1 depending on page size; this engine
// follows the common convention that page N begins at N*pageSize).
func (d *Database) page(pageNum uint32) ([]byte, error) {
	if pageNum == 0 {
		return nil, ErrPageOutOfRange
	}
	size := int64(d.Header.PageSize)
	start := int64(pageNum) * size
	end := start + size
	if start < 0 || end > int64(len(d.data)) {
		return nil, ErrPageOutOfRange
	}
	return d.data[start:end], nil
}

// leafRecords walks the B-tree rooted at pageNum, returning every leaf
// record's bytes in key order. Branch pages carry child page numbers
// in the last 4 bytes of each record; this engine does not need
// key-range pruning since every table/catalog scan here is a full
// scan, not a point lookup.
func (d *Database) leafRecords(pageNum uint32, seen map[uint32]bool) ([][]byte, error) {
	if seen[pageNum] {
		return nil, nil
	}
	seen[pageNum] = true

	raw, err := d.page(pageNum)
	if err != nil {
		return nil, err
	}
	pg, err := ParsePage(raw)
	if err != nil {
		return nil, err
	}

	if pg.Header.Flags&PageFlagLeaf != 0 {
		var out [][]byte
		for _, rec := range pg.Records {
			if len(rec) < 1 {
				continue
			}
			// the page's first tag is a page-level key/metadata entry on
			// some ESE versions; skip obviously empty records rather than
			// fail the whole scan.
			out = append(out, rec)
		}
		return out, nil
	}

	var out [][]byte
	for _, rec := range pg.Records {
		child, ok := branchChildPage(rec)
		if !ok {
			continue
		}
		children, err := d.leafRecords(child, seen)
		if err != nil {
			continue
		}
		out = append(out, children...)
	}
	return out, nil
}

// branchChildPage extracts the child page number from a branch page's
// record. Branch records are a local-key prefix (variable length)
// followed by a fixed 4-byte child page number at the end.
func branchChildPage(rec []byte) (uint32, bool) {
	if len(rec) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(rec[len(rec)-4:]), true
}

// TableRecords returns every leaf DataDefinition record reachable from
// a table's father data page (FDP), decoded against the supplied
// column catalog.
func (d *Database) TableRecords(fdp uint32, columns []ColumnDef) ([]map[string]Value, error) {
	raw, err := d.leafRecords(fdp, make(map[uint32]bool))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]Value, 0, len(raw))
	for _, rec := range raw {
		dr, err := DecodeRecord(rec, columns)
		if err != nil {
			continue
		}
		out = append(out, dr)
	}
	return out, nil
}
