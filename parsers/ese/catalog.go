package ese

import "encoding/binary"

// catalogFDP is the fixed father-data-page number of the MSysObjects
// catalog table every ESE database starts from.
const catalogFDP = 4

// Catalog object types, per the MSysObjects "Type" fixed column.
const (
	CatalogTypeTable  uint16 = 1
	CatalogTypeColumn uint16 = 2
	CatalogTypeIndex  uint16 = 3
	CatalogTypeLongValue uint16 = 4
	CatalogTypeCallback  uint16 = 5
)

// catalogColumns is the fixed shape of every MSysObjects row: the
// catalog table's own schema is not itself catalog-described, so this
// engine hardcodes it the way every ESE reader does.
var catalogColumns = []ColumnDef{
	{Name: "ObjidTable", Type: ColtypLong, Kind: KindFixed, FixedOff: 1},
	{Name: "Type", Type: ColtypShort, Kind: KindFixed, FixedOff: 2},
	{Name: "Id", Type: ColtypLong, Kind: KindFixed, FixedOff: 3},
	{Name: "ColtypOrPgnoFDP", Type: ColtypLong, Kind: KindFixed, FixedOff: 4},
	{Name: "SpaceUsage", Type: ColtypLong, Kind: KindFixed, FixedOff: 5},
	{Name: "Flags", Type: ColtypLong, Kind: KindFixed, FixedOff: 6},
	{Name: "PagesOrLocale", Type: ColtypLong, Kind: KindFixed, FixedOff: 7},
	{Name: "RootFlag", Type: ColtypBit, Kind: KindFixed, FixedOff: 8},
	{Name: "RecordOffset", Type: ColtypShort, Kind: KindFixed, FixedOff: 9},
	{Name: "LCMapFlags", Type: ColtypLong, Kind: KindFixed, FixedOff: 10},
	{Name: "KeyMost", Type: ColtypShort, Kind: KindFixed, FixedOff: 11},
	{Name: "Name", Type: ColtypText, Kind: KindVariable},
	{Name: "Stats", Type: ColtypBinary, Kind: KindVariable},
	{Name: "TemplateTable", Type: ColtypText, Kind: KindVariable},
	{Name: "DefaultValue", Type: ColtypBinary, Kind: KindTagged, ID: 126},
	{Name: "KeyFldIDs", Type: ColtypBinary, Kind: KindTagged, ID: 128},
	{Name: "VarSegMac", Type: ColtypBinary, Kind: KindTagged, ID: 129},
	{Name: "ConditionalColumns", Type: ColtypBinary, Kind: KindTagged, ID: 130},
	{Name: "TupleLimits", Type: ColtypBinary, Kind: KindTagged, ID: 131},
	{Name: "Version", Type: ColtypBinary, Kind: KindTagged, ID: 132},
}

// CatalogEntry is one decoded MSysObjects row: a table, column, index,
// long-value tree, or callback definition.
type CatalogEntry struct {
	ObjidTable uint32
	Type       uint16
	Id         uint32
	// ColtypOrPgnoFDP is a JET_coltyp for Column rows, or the owning
	// table's father-data-page number for Table rows.
	ColtypOrPgnoFDP uint32
	Name            string
	Flags           uint32
	KeyFldIDs       []byte
}

// ReadCatalog walks the fixed-FDP-4 MSysObjects table and decodes
// every row, per spec §4.2.5's "catalog table enumerates tables,
// columns, indexes, and long-value trees" requirement.
func (d *Database) ReadCatalog() ([]CatalogEntry, error) {
	rows, err := d.TableRecords(catalogFDP, catalogColumns)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogEntry, 0, len(rows))
	for _, row := range rows {
		e := CatalogEntry{}
		if v, ok := row["ObjidTable"]; ok && len(v.Data) >= 4 {
			e.ObjidTable = binary.LittleEndian.Uint32(v.Data)
		}
		if v, ok := row["Type"]; ok && len(v.Data) >= 2 {
			e.Type = binary.LittleEndian.Uint16(v.Data)
		}
		if v, ok := row["Id"]; ok && len(v.Data) >= 4 {
			e.Id = binary.LittleEndian.Uint32(v.Data)
		}
		if v, ok := row["ColtypOrPgnoFDP"]; ok && len(v.Data) >= 4 {
			e.ColtypOrPgnoFDP = binary.LittleEndian.Uint32(v.Data)
		}
		if v, ok := row["Flags"]; ok && len(v.Data) >= 4 {
			e.Flags = binary.LittleEndian.Uint32(v.Data)
		}
		if v, ok := row["Name"]; ok {
			e.Name = decodeCatalogText(v.Data)
		}
		if v, ok := row["KeyFldIDs"]; ok {
			e.KeyFldIDs = v.Data
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeCatalogText decodes a Text column's bytes. Catalog names are
// ASCII in every database this engine has to read (system tables), so
// this is a direct byte-to-string conversion rather than a codepage
// lookup.
func decodeCatalogText(b []byte) string {
	return string(b)
}

// TableColumns resolves a table's Column catalog rows into the
// ColumnDef list TableRecords/DecodeRecord need. Fixed-width columns
// get 1-based fixed offsets in catalog order; every other column is
// emitted as a tagged column keyed by its catalog Id (no KindVariable
// columns are produced).
func TableColumns(catalog []CatalogEntry, tableObjid uint32) []ColumnDef {
	var table *CatalogEntry
	for i := range catalog {
		if catalog[i].Type == CatalogTypeTable && catalog[i].Id == tableObjid {
			table = &catalog[i]
			break
		}
	}
	if table == nil {
		return nil
	}

	var cols []ColumnDef
	fixedIdx := 0
	for _, e := range catalog {
		if e.Type != CatalogTypeColumn || e.ObjidTable != table.Id {
			continue
		}
		ct := ColumnType(e.ColtypOrPgnoFDP)
		if columnStorageKind(ct) == KindFixed {
			fixedIdx++
			cols = append(cols, ColumnDef{ID: e.Id, Name: e.Name, Type: ct, Kind: KindFixed, FixedOff: fixedIdx})
			continue
		}
		// Binary/Text/LongBinary/LongText all travel as tagged columns
		// here: treating every variable-width column as tagged rather
		// than splitting out the separate variable-offset-array region
		// sacrifices nothing DecodeRecord's tagged-column path can't
		// already represent, and keeps one column-ordering rule instead
		// of two (variable columns are order-sensitive; tagged aren't).
		cols = append(cols, ColumnDef{ID: e.Id, Name: e.Name, Type: ct, Kind: KindTagged})
	}
	return cols
}

// columnStorageKind maps a JET_coltyp to the record region it's
// stored in for catalog-described (non-system) tables.
func columnStorageKind(t ColumnType) ColumnKind {
	switch t {
	case ColtypBit, ColtypUnsignedByte, ColtypShort, ColtypLong, ColtypCurrency,
		ColtypSingle, ColtypDouble, ColtypDateTime, ColtypUnsignedLong,
		ColtypLongLong, ColtypGUID, ColtypUnsignedShort:
		return KindFixed
	default:
		return KindTagged
	}
}

// TableFDP returns a table catalog row's own father-data-page (the
// root of its B-tree) and its objid (the value Column/Index/LongValue
// rows reference via their own ObjidTable field, and what
// TableColumns expects as tableObjid), by table name.
func TableFDP(catalog []CatalogEntry, name string) (fdp uint32, objid uint32, ok bool) {
	for _, e := range catalog {
		if e.Type == CatalogTypeTable && e.Name == name {
			return e.ColtypOrPgnoFDP, e.Id, true
		}
	}
	return 0, 0, false
}
