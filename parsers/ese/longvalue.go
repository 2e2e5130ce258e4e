package ese

import "encoding/binary"

// longValueFDP locates the MSysObjects row for a table's long-value
// tree, which ESE stores as a sibling B-tree to the table's own data.
func longValueFDP(catalog []CatalogEntry, tableObjid uint32) (uint32, bool) {
	for _, e := range catalog {
		if e.Type == CatalogTypeLongValue && e.ObjidTable == tableObjid {
			return e.ColtypOrPgnoFDP, true
		}
	}
	return 0, false
}

// longValueKey packs a long-value tree lookup key: a 4-byte big-endian
// key id followed by a 2-byte big-endian segment number, matching the
// key ordering ESE long-value B-trees are built against.
func longValueKey(keyID uint32, segment uint16) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint32(buf[0:4], keyID)
	binary.BigEndian.PutUint16(buf[4:6], segment)
	return buf
}

// ResolveLongValue reassembles a long-binary/long-text column's full
// bytes from a table's long-value tree, given the key a record's
// tagged-column bytes encode (the first 4 bytes of that tagged value,
// big-endian, per spec §4.2.5's long-value-tree note).
func (d *Database) ResolveLongValue(catalog []CatalogEntry, tableObjid uint32, keyID uint32) ([]byte, error) {
	fdp, ok := longValueFDP(catalog, tableObjid)
	if !ok {
		return nil, nil
	}
	raw, err := d.leafRecords(fdp, make(map[uint32]bool))
	if err != nil {
		return nil, err
	}

	var out []byte
	for segment := uint16(1); ; segment++ {
		key := longValueKey(keyID, segment)
		data, found := findLeafByKeyPrefix(raw, key)
		if !found {
			break
		}
		out = append(out, data...)
		if segment > 0xFFFF-1 {
			break
		}
	}
	return out, nil
}

// findLeafByKeyPrefix does a linear scan over a long-value tree's leaf
// records for one whose common+local key matches prefix exactly. ESE
// leaf records prefix each value with its key's length-delimited
// common/local key parts; this engine reads records straight off disk
// (no key compression applied at the catalog layer upstream), so an
// exact-length match against the raw key bytes is sufficient here.
func findLeafByKeyPrefix(records [][]byte, key []byte) ([]byte, bool) {
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		commonLen := int(rec[0])
		localLen := int(rec[1])
		if 2+commonLen+localLen > len(rec) {
			continue
		}
		recKey := append(append([]byte{}, rec[2:2+commonLen]...), rec[2+commonLen:2+commonLen+localLen]...)
		if len(recKey) != len(key) {
			continue
		}
		match := true
		for i := range key {
			if recKey[i] != key[i] {
				match = false
				break
			}
		}
		if match {
			return rec[2+commonLen+localLen:], true
		}
	}
	return nil, false
}
