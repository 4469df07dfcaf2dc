package authoritative

import (
	"sort"
	"strings"

	"github.com/muni-gis/geocode-cli/internal/normalize"
)

// StreetNameIndex holds the deduplicated set of normalized street names.
// It serves name search and autocomplete only; coordinate resolution
// always goes through Index.
type StreetNameIndex struct {
	dict  *normalize.Dictionary
	names []string // sorted
}

// NewStreetNameIndex builds the name index from raw street names.
func NewStreetNameIndex(raw []string, dict *normalize.Dictionary) *StreetNameIndex {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		n := normalize.Street(r, dict)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	sort.Strings(names)
	return &StreetNameIndex{dict: dict, names: names}
}

// Len returns the number of distinct street names.
func (s *StreetNameIndex) Len() int { return len(s.names) }

// SearchPrefix returns up to limit street names starting with the given
// prefix, after normalizing it the same way the names were.
func (s *StreetNameIndex) SearchPrefix(prefix string, limit int) []string {
	p := normalize.Street(prefix, s.dict)
	if p == "" || limit <= 0 {
		return nil
	}

	start := sort.SearchStrings(s.names, p)
	var out []string
	for i := start; i < len(s.names) && len(out) < limit; i++ {
		if !strings.HasPrefix(s.names[i], p) {
			break
		}
		out = append(out, s.names[i])
	}
	return out
}
