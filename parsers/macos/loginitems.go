// LoginItems decodes the two on-disk records macOS keeps of
// user login items (§4.2.16): the legacy `backgrounditems.btm`
// plist (a bookmark-blob array keyed by an opaque container) and the
// modern per-app bundled "SMAppService" login-item plists. Both paths
// bottom out in the same Bookmark blob, so this file is a thin plist
// walk that feeds any bookmark-typed value it finds through
// parsers/macos's own Parse.
package macos

// LoginItem is one normalized login item: whatever path/volume
// information its bookmark blob carries, plus the raw blob in case a
// caller wants to re-decode it.
type LoginItem struct {
	Name       string
	Bookmark   Bookmark
	RawBookmark []byte
}

// ParseLoginItems walks a backgrounditems.btm (or equivalent modern
// login-items) plist, extracting every embedded bookmark blob it
// finds, regardless of which container key holds it — Apple has
// changed the exact nesting across macOS versions, so this walks the
// whole object tree looking for plist Data values that parse as a
// bookmark, rather than hardcoding one key path.
func ParseLoginItems(data []byte) ([]LoginItem, error) {
	root, err := ParsePlist(data)
	if err != nil {
		return nil, err
	}
	var items []LoginItem
	walkForBookmarks(root, "", &items)
	return items, nil
}

func walkForBookmarks(v Value, name string, out *[]LoginItem) {
	switch v.Type {
	case PlistData:
		if bm, err := Parse(v.Data); err == nil {
			n := name
			if n == "" && len(bm.PathComponents) > 0 {
				n = bm.PathComponents[len(bm.PathComponents)-1]
			}
			*out = append(*out, LoginItem{Name: n, Bookmark: bm, RawBookmark: v.Data})
		}
	case PlistArray:
		for _, item := range v.Arr {
			walkForBookmarks(item, name, out)
		}
	case PlistDictionary:
		for k, item := range v.Dict {
			walkForBookmarks(item, k, out)
		}
	}
}
