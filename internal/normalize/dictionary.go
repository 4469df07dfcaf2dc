package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Dictionary holds the locale-specific token tables used by the
// normalization pipeline. The matching rules are data, not code, so a
// deployment for another municipality only needs a different YAML file.
type Dictionary struct {
	// City lists the municipality name and its accepted spellings, primary
	// name first. The primary name is what CanonicalAddress carries.
	City []string `yaml:"city"`

	// Variants maps known misspellings and alternate spellings to their
	// canonical form. Applied to the whole address string.
	Variants map[string]string `yaml:"variants"`

	// StreetTypes are leading street-type tokens stripped exactly once
	// from the start of a street name.
	StreetTypes []string `yaml:"street_types"`

	// Abbreviations maps leading abbreviation tokens to their expansion,
	// e.g. a shortened boulevard prefix to the full word.
	Abbreviations map[string]string `yaml:"abbreviations"`

	// Neighborhoods are tokens stripped from the address part only; the
	// city token itself is never stripped.
	Neighborhoods []string `yaml:"neighborhoods"`

	// PoiKeywords mark point-of-interest phrases (squares, malls, public
	// buildings) that carry no house number.
	PoiKeywords []string `yaml:"poi_keywords"`

	// CornerMarkers are the native-language "corner of" words that join
	// two street names into an intersection.
	CornerMarkers []string `yaml:"corner_markers"`
}

// DefaultDictionary returns the built-in Jerusalem dictionary.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		City: []string{"ירושלים", "jerusalem", "القدس", "ירושלים עיה\"ק"},
		Variants: map[string]string{
			"ירושלם":     "ירושלים",
			"י-ם":        "ירושלים",
			"בן יהודא":   "בן יהודה",
			"ז'בוטינסק":  "ז'בוטינסקי",
			"זבוטינסקי":  "ז'בוטינסקי",
			"קינג ג'ורג": "המלך ג'ורג'",
		},
		StreetTypes: []string{"רחוב", "רח", "شارع", "street", "st", "rehov"},
		Abbreviations: map[string]string{
			"שד":   "שדרות",
			"שדר":  "שדרות",
			"דר":   "דרך",
			"מעלו": "מעלות",
		},
		Neighborhoods: []string{
			"רמות", "גילה", "תלפיות", "בית הכרם", "קטמון", "רחביה",
			"הר נוף", "פסגת זאב", "נווה יעקב", "בקעה", "גאולה",
		},
		PoiKeywords: []string{
			"כיכר", "גן", "קניון", "מתחם", "תחנה", "מרכז", "היכל",
			"בית ספר", "בית חולים", "שוק", "אצטדיון", "ساحة", "سوق",
		},
		CornerMarkers: []string{"פינת", "פינה", "زاوية"},
	}
}

// LoadDictionary reads a dictionary YAML file. Fields absent from the file
// keep their built-in defaults.
func LoadDictionary(path string) (*Dictionary, error) {
	d := DefaultDictionary()
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read dictionary %s", path)
	}

	var file Dictionary
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse dictionary %s", path)
	}

	if len(file.City) > 0 {
		d.City = file.City
	}
	if len(file.Variants) > 0 {
		d.Variants = file.Variants
	}
	if len(file.StreetTypes) > 0 {
		d.StreetTypes = file.StreetTypes
	}
	if len(file.Abbreviations) > 0 {
		d.Abbreviations = file.Abbreviations
	}
	if len(file.Neighborhoods) > 0 {
		d.Neighborhoods = file.Neighborhoods
	}
	if len(file.PoiKeywords) > 0 {
		d.PoiKeywords = file.PoiKeywords
	}
	if len(file.CornerMarkers) > 0 {
		d.CornerMarkers = file.CornerMarkers
	}

	return d, nil
}

// CityName returns the primary municipality name.
func (d *Dictionary) CityName() string {
	if len(d.City) == 0 {
		return ""
	}
	return d.City[0]
}
