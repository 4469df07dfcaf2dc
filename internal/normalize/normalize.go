// Package normalize turns raw, messy Hebrew/Arabic address strings into
// canonical street + house number + city form, and classifies free text
// into request kinds. All functions are pure; none perform I/O.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/transform"

	"github.com/muni-gis/geocode-cli/internal/model"
)

// Reason explains why canonicalization could not produce a full address.
type Reason int

const (
	// ReasonNone means the address is complete.
	ReasonNone Reason = iota
	// ReasonEmpty means no address text was present at all.
	ReasonEmpty
	// ReasonNoHouseNumber means a street was found but no house number.
	ReasonNoHouseNumber
)

var (
	rangeRe     = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	aptRe       = regexp.MustCompile(`(\d+)\s*/\s*\d+\s*$`)
	lastDigitRe = regexp.MustCompile(`^(.*\d)`)
	streetNumRe = regexp.MustCompile(`^(.+?)\s+(\d+)$`)
)

// punctReplacer unifies exotic dashes to a plain hyphen and turns list
// punctuation into spaces. Hyphen and slash survive this stage: ranges
// ("9-11") and apartment suffixes ("19/3") still need them.
var punctReplacer = strings.NewReplacer(
	"–", "-", "—", "-", "־", "-",
	",", " ", ";", " ", ":", " ", ".", " ", "(", " ", ")", " ",
	"\t", " ",
)

// Canonical runs the full normalization pipeline over one raw address
// string. It never fails; a non-zero Reason means the input carries
// insufficient information, which callers must not treat as a lookup error.
func Canonical(raw string, d *Dictionary) (model.CanonicalAddress, Reason) {
	s := clean(raw, d)
	if s == "" {
		return model.CanonicalAddress{}, ReasonEmpty
	}

	s = stripLeadingStreetType(s, d)

	addr, city, cityFound := splitCity(s, d)
	if cityFound {
		// Neighborhood names are noise only when we know we are inside
		// the municipality; foreign addresses pass through untouched.
		for _, n := range d.Neighborhoods {
			addr = replaceToken(addr, strings.ToLower(n), "")
		}
		addr = collapseSpaces(addr)
	}

	if addr == "" {
		return model.CanonicalAddress{City: city}, ReasonEmpty
	}

	addr = collapseRange(addr)
	addr = aptRe.ReplaceAllString(addr, "$1")
	if m := lastDigitRe.FindStringSubmatch(addr); m != nil {
		addr = m[1]
	}
	addr = strings.TrimSpace(addr)

	m := streetNumRe.FindStringSubmatch(addr)
	if m == nil {
		return model.CanonicalAddress{
			Street: Street(addr, d),
			City:   city,
		}, ReasonNoHouseNumber
	}

	num, err := strconv.Atoi(m[2])
	if err != nil || num <= 0 {
		return model.CanonicalAddress{
			Street: Street(m[1], d),
			City:   city,
		}, ReasonNoHouseNumber
	}

	return model.CanonicalAddress{
		Street:      Street(m[1], d),
		HouseNumber: &num,
		City:        city,
	}, ReasonNone
}

// clean applies stage one of the pipeline: combining-mark removal,
// separator unification, spelling-variant replacement, and whitespace
// collapsing.
func clean(raw string, d *Dictionary) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	s = punctReplacer.Replace(s)
	s = strings.ToLower(s)
	s = collapseSpaces(s)

	for from, to := range d.Variants {
		s = replaceToken(s, strings.ToLower(from), strings.ToLower(to))
	}

	return collapseSpaces(s)
}

// stripLeadingStreetType removes a redundant street-type token exactly
// once, only at the start of the string.
func stripLeadingStreetType(s string, d *Dictionary) string {
	fields := strings.Fields(s)
	if len(fields) > 1 && isStreetType(strings.Trim(fields[0], "'\""), d) {
		return strings.Join(fields[1:], " ")
	}
	return s
}

// splitCity locates the last occurrence of any city alias and splits the
// string around it. Addresses sometimes repeat the city, so the last
// occurrence wins. The returned city is always the primary name.
func splitCity(s string, d *Dictionary) (addr, city string, found bool) {
	best := -1
	bestLen := 0

	for _, alias := range d.City {
		a := strings.ToLower(alias)
		idx := lastTokenIndex(s, a)
		if idx < 0 {
			continue
		}
		if idx > best || (idx == best && len(a) > bestLen) {
			best = idx
			bestLen = len(a)
		}
	}

	if best < 0 {
		return s, "", false
	}

	before := strings.TrimSpace(s[:best])
	after := strings.TrimSpace(s[best+bestLen:])

	addr = before
	if addr == "" {
		addr = after
	}

	// Addresses sometimes carry the city more than once; drop any copy
	// that survived the split.
	for _, alias := range d.City {
		addr = replaceToken(addr, strings.ToLower(alias), "")
	}

	return collapseSpaces(addr), d.CityName(), true
}

// lastTokenIndex returns the byte index of the last whole-token occurrence
// of tok in s, or -1.
func lastTokenIndex(s, tok string) int {
	if tok == "" {
		return -1
	}
	from := len(s)
	for {
		idx := strings.LastIndex(s[:from], tok)
		if idx < 0 {
			return -1
		}
		beforeOK := idx == 0 || s[idx-1] == ' '
		end := idx + len(tok)
		afterOK := end == len(s) || s[end] == ' '
		if beforeOK && afterOK {
			return idx
		}
		from = idx
	}
}

// collapseRange replaces a numeric range "A-B" with its rounded midpoint.
func collapseRange(s string) string {
	return rangeRe.ReplaceAllStringFunc(s, func(match string) string {
		m := rangeRe.FindStringSubmatch(match)
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return match
		}
		mid := int(math.Round(float64(lo+hi) / 2))
		return strconv.Itoa(mid)
	})
}

// replaceToken replaces whole-token occurrences of old with new. Multi-word
// tokens are supported.
func replaceToken(s, old, new string) string {
	if old == "" {
		return s
	}
	padded := " " + s + " "
	padded = strings.ReplaceAll(padded, " "+old+" ", " "+new+" ")
	return strings.TrimSpace(collapseSpaces(padded))
}
