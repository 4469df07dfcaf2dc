package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks (Hebrew niqqud, Arabic tashkeel) so
// that pointed and unpointed spellings of the same name compare equal.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// separatorReplacer unifies the dash and quote characters that show up in
// street names: en/em dashes and the Hebrew maqaf become plain spaces, and
// geresh/gershayim become ASCII quotes.
var separatorReplacer = strings.NewReplacer(
	"–", " ", "—", " ", "־", " ", "-", " ", "/", " ", "\\", " ",
	"׳", "'", "״", "\"",
)

// quoteStripper drops quote marks entirely.
var quoteStripper = strings.NewReplacer("'", "", "\"", "", "`", "", ".", "")

// Street normalizes a street name into the canonical key shared by the
// spatial index and the provider query builders. Hebrew and Arabic letters
// are never case-folded; only Latin letters are lowered.
func Street(name string, d *Dictionary) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	s = separatorReplacer.Replace(s)
	s = quoteStripper.Replace(s)
	s = strings.ToLower(s)
	s = collapseSpaces(s)

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	// Expand a leading abbreviation, then strip one street-type token.
	if exp, ok := d.Abbreviations[fields[0]]; ok {
		fields[0] = strings.ToLower(exp)
	}
	if len(fields) > 1 && isStreetType(fields[0], d) {
		fields = fields[1:]
	}

	return strings.Join(fields, " ")
}

// Tokens splits a normalized street name into comparison tokens.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

func isStreetType(token string, d *Dictionary) bool {
	for _, t := range d.StreetTypes {
		if strings.EqualFold(token, t) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
