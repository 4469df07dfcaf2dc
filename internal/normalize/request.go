package normalize

import (
	"strings"
	"unicode"

	"github.com/muni-gis/geocode-cli/internal/model"
)

// ClassifyRequest sorts raw address text into one of the closed request
// kinds. Rules run in a fixed order and the first match wins: intersection
// markers, then a trailing house-number pattern, then point-of-interest
// heuristics, then unknown. The function is total; it never fails.
func ClassifyRequest(raw string, d *Dictionary) model.AddressRequest {
	s := clean(raw, d)
	body, _, _ := splitCity(s, d)
	body = strings.TrimSpace(body)

	if body == "" {
		return model.AddressRequest{Kind: model.KindUnknown, RawText: raw}
	}

	if isIntersection(body, d) {
		return model.AddressRequest{Kind: model.KindIntersection, RawText: body}
	}

	if addr, reason := Canonical(raw, d); reason == ReasonNone {
		return model.AddressRequest{
			Kind:        model.KindStreetNumber,
			Street:      addr.Street,
			HouseNumber: *addr.HouseNumber,
			RawText:     body,
		}
	}

	if !containsDigit(body) && hasPoiKeyword(body, d) {
		return model.AddressRequest{Kind: model.KindPoi, RawText: body}
	}

	return model.AddressRequest{Kind: model.KindUnknown, RawText: body}
}

// SplitIntersection breaks intersection text into its two street names,
// normalized. ok is false when the text does not split cleanly in two.
func SplitIntersection(text string, d *Dictionary) (first, second string, ok bool) {
	body := clean(text, d)

	for _, marker := range d.CornerMarkers {
		m := strings.ToLower(marker)
		if !strings.Contains(" "+body+" ", " "+m+" ") {
			continue
		}
		if parts := strings.SplitN(body, m, 2); len(parts) == 2 {
			return Street(parts[0], d), Street(parts[1], d), true
		}
	}

	if parts := strings.SplitN(body, "/", 2); len(parts) == 2 {
		a, b := Street(parts[0], d), Street(parts[1], d)
		if a != "" && b != "" {
			return a, b, true
		}
	}

	return "", "", false
}

func isIntersection(body string, d *Dictionary) bool {
	padded := " " + body + " "
	for _, marker := range d.CornerMarkers {
		if strings.Contains(padded, " "+strings.ToLower(marker)+" ") {
			return true
		}
	}

	// A slash between two lettered parts is a street/street intersection;
	// a slash between digits is an apartment suffix.
	parts := strings.SplitN(body, "/", 2)
	if len(parts) == 2 && containsLetter(parts[0]) && containsLetter(parts[1]) {
		return true
	}

	return false
}

func hasPoiKeyword(body string, d *Dictionary) bool {
	padded := " " + body + " "
	for _, kw := range d.PoiKeywords {
		if strings.Contains(padded, " "+strings.ToLower(kw)+" ") {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}

func containsLetter(s string) bool {
	return strings.ContainsFunc(s, unicode.IsLetter)
}
