package fsreader

import (
	"bytes"
	"regexp"

	"github.com/h2non/filetype"
)

// Match is one scan hit: the rule that fired and the byte offset it
// fired at, the two fields every YARA binding's match result carries.
type Match struct {
	Rule   string
	Offset int64
}

// Scanner is the narrow interface content-matching plugs into. No
// pack example vendors a YARA binding (cgo bindings don't appear
// anywhere in the retrieval corpus), so SPEC_FULL.md resolves YARA
// scanning to this interface instead of fabricating one: a Scanner
// observes whatever bytes a collector hands it and reports hits by
// rule name, the same contract a YARA engine would satisfy.
type Scanner interface {
	Scan(data []byte) ([]Match, error)
}

// Rule is one literal-or-regex content rule for LiteralScanner.
type Rule struct {
	Name    string
	Literal []byte
	Regexp  *regexp.Regexp
}

// LiteralScanner is the in-tree Scanner implementation: a flat list of
// byte-literal and regexp rules, each checked against the full buffer.
// It stands in for a YARA engine until one is wired in, per
// SPEC_FULL.md's domain-stack resolution.
type LiteralScanner struct {
	rules []Rule
}

// NewLiteralScanner builds a Scanner from a rule set.
func NewLiteralScanner(rules []Rule) *LiteralScanner {
	return &LiteralScanner{rules: rules}
}

func (s *LiteralScanner) Scan(data []byte) ([]Match, error) {
	var out []Match
	for _, r := range s.rules {
		if len(r.Literal) > 0 {
			for start := 0; ; {
				idx := bytes.Index(data[start:], r.Literal)
				if idx < 0 {
					break
				}
				out = append(out, Match{Rule: r.Name, Offset: int64(start + idx)})
				start += idx + 1
			}
		}
		if r.Regexp != nil {
			for _, loc := range r.Regexp.FindAllIndex(data, -1) {
				out = append(out, Match{Rule: r.Name, Offset: int64(loc[0])})
			}
		}
	}
	return out, nil
}

// SniffType identifies a file's content type from its header bytes,
// independent of extension -- used to flag renamed/disguised
// executables during collection. Grounded on the `h2non/filetype`
// dependency pulled in for exactly this purpose.
func SniffType(header []byte) (kind string, ok bool) {
	k, err := filetype.Match(header)
	if err != nil || k == filetype.Unknown {
		return "", false
	}
	return k.MIME.Value, true
}
