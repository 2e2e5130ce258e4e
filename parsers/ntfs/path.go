package ntfs

const orphanPrefix = `$OrphanFiles\`

// rootEntry is the volume root directory's fixed MFT entry number.
const rootEntry uint64 = 5

// NameLookup resolves an entry reference to its own name and its
// parent's reference. An Index built over a parsed $MFT satisfies this
// directly; the USN journal's ancestor cache (usnjrnl.go) satisfies it
// from USN records instead of live MFT entries.
type NameLookup interface {
	LookupParent(ref EntryRef) (name string, parent EntryRef, ok bool)
}

// Index is the simplest NameLookup: an in-memory map from entry
// number to its best (long/Win32 namespace, or whatever is present)
// FILE_NAME attribute.
type Index struct {
	byEntry map[uint64]Entry
}

// NewIndex builds a lookup index from a slice of parsed entries.
func NewIndex(entries []Entry) *Index {
	idx := &Index{byEntry: make(map[uint64]Entry, len(entries))}
	for _, e := range entries {
		idx.byEntry[uint64(e.Header.EntryIndex)] = e
	}
	return idx
}

func (idx *Index) LookupParent(ref EntryRef) (string, EntryRef, bool) {
	e, ok := idx.byEntry[ref.Entry]
	if !ok || e.Header.SequenceNumber != ref.Sequence {
		return "", EntryRef{}, false
	}
	fn := bestFileName(e.FileNames)
	if fn == nil {
		return "", EntryRef{}, false
	}
	return fn.Name, fn.Parent, true
}

// bestFileName prefers the Win32 namespace (1) or Win32&DOS (3) name
// over a POSIX (0) or DOS-only (2) one, matching how Windows itself
// displays a multiply-named file.
func bestFileName(names []FileNameAttribute) *FileNameAttribute {
	var best *FileNameAttribute
	for i := range names {
		n := &names[i]
		if n.Namespace == 1 || n.Namespace == 3 {
			return n
		}
		if best == nil {
			best = n
		}
	}
	return best
}

// ResolveFullPath walks parent references bottom-up starting from
// parent (the immediate parent of the file named name), stopping at
// the volume root or on cycle/lookup-miss, and joins the collected
// names back-to-front with backslashes. A cycle guard keyed on
// (entry, sequence) bounds the walk per spec §4.2.2; unresolved
// entries are prefixed with $OrphanFiles\.
func ResolveFullPath(lookup NameLookup, parent EntryRef, name string) string {
	components := []string{name}
	seen := map[EntryRef]bool{}

	cur := parent
	for cur.Entry != rootEntry {
		if seen[cur] {
			return orphanPrefix + joinBackslash(components)
		}
		seen[cur] = true

		curName, curParent, ok := lookup.LookupParent(cur)
		if !ok {
			return orphanPrefix + joinBackslash(components)
		}
		components = append([]string{curName}, components...)
		cur = curParent
	}
	return joinBackslash(components)
}

func joinBackslash(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += `\`
		}
		out += p
	}
	return out
}
