package registry

import (
	"regexp"
	"strings"
)

// Value is one VK cell resolved to a name/type/bytes triple. Indirect
// (non-resident) data is read through the hive's own cell table, so
// the caller never sees a raw offset.
type Value struct {
	Name string
	Type uint32
	Data []byte
}

// KeyRecord is one emitted registry key, per spec §4.2.4's walk
// output shape: "full path, values, last-modified timestamp, security
// reference".
type KeyRecord struct {
	Path           string
	LastWritten    uint64
	Values         []Value
	SecurityOffset uint32
}

// WalkOptions filters the key tree as it's walked rather than after,
// so a narrow PathPrefix/NameRegexp combination avoids decoding keys
// the caller doesn't want.
type WalkOptions struct {
	// PathPrefix, if non-empty, is matched case-insensitively against
	// each key's full path; only matching subtrees are descended into
	// and emitted.
	PathPrefix string
	// NameRegexp, if non-nil, additionally filters by key name.
	NameRegexp *regexp.Regexp
}

// Walk performs the depth-first subkey walk spec §4.2.4 describes,
// starting at the hive's root cell, emitting one KeyRecord per visited
// key. A seen-set of NK cell offsets guards against cyclic subkey
// pointers in a corrupted hive.
func (h *Hive) Walk(opts WalkOptions) ([]KeyRecord, error) {
	var out []KeyRecord
	seen := make(map[uint32]bool)
	prefix := strings.ToLower(opts.PathPrefix)

	var walk func(offset uint32, path string) error
	walk = func(offset uint32, path string) error {
		if seen[offset] {
			return nil
		}
		seen[offset] = true

		cell, err := h.cell(offset)
		if err != nil {
			return nil // corrupt/missing subtree: skip, don't abort the whole walk
		}
		nk, err := ParseNK(cell)
		if err != nil {
			return nil
		}

		fullPath := nk.Name
		if path != "" {
			fullPath = path + `\` + nk.Name
		}

		lowerPath := strings.ToLower(fullPath)
		// descend whenever this subtree could still lead to something
		// under prefix, in either direction (we're above it or inside it)
		descend := prefix == "" || strings.HasPrefix(lowerPath, prefix) || strings.HasPrefix(prefix, lowerPath)
		emit := prefix == "" || strings.HasPrefix(lowerPath, prefix)
		if emit && opts.NameRegexp != nil && !opts.NameRegexp.MatchString(nk.Name) {
			emit = false
		}

		if emit {
			rec := KeyRecord{
				Path:           fullPath,
				LastWritten:    nk.LastWritten,
				SecurityOffset: nk.SecurityOffset,
			}
			if nk.ValueCount > 0 && nk.ValueListOffset != 0xFFFFFFFF {
				valOffsets, err := h.ValueListOffsets(nk.ValueListOffset, nk.ValueCount)
				if err == nil {
					for _, vo := range valOffsets {
						vcell, err := h.cell(vo)
						if err != nil {
							continue
						}
						vk, err := ParseVK(vcell)
						if err != nil {
							continue
						}
						data, err := h.resolveValueData(vk)
						if err != nil {
							continue
						}
						rec.Values = append(rec.Values, Value{Name: vk.Name, Type: vk.DataType, Data: data})
					}
				}
			}
			out = append(out, rec)
		}

		if descend && nk.SubkeyCount > 0 && nk.SubkeyListOffset != 0xFFFFFFFF {
			subkeys, err := h.resolveSubkeyOffsets(nk.SubkeyListOffset, make(map[uint32]bool))
			if err == nil {
				for _, so := range subkeys {
					if err := walk(so, fullPath); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if err := walk(h.Header.RootCellOffset, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveValueData returns a VK's value bytes, resident or not.
func (h *Hive) resolveValueData(vk VKRecord) ([]byte, error) {
	if vk.Resident {
		return vk.InlineData, nil
	}
	if vk.DataSize == 0 {
		return nil, nil
	}
	cell, err := h.cell(vk.DataOffset)
	if err != nil || len(cell) < 4 {
		return nil, err
	}
	payload := cell[4:]
	n := int(vk.DataSize)
	if n > len(payload) {
		n = len(payload)
	}
	return payload[:n], nil
}
