package model

import "github.com/muni-gis/geocode-cli/internal/geodist"

// Source identifies which backend produced a geocoding result.
type Source string

const (
	// SourceAuthoritative is the locally held ground-truth dataset.
	SourceAuthoritative Source = "authoritative"
	// SourceGovmap is the national government geocoding service.
	SourceGovmap Source = "govmap"
	// SourceNominatim is the OpenStreetMap open-data geocoder.
	SourceNominatim Source = "nominatim"
)

// Trusted reports whether the source is held to the looser distance gates
// reserved for authoritative and government data.
func (s Source) Trusted() bool {
	return s == SourceAuthoritative || s == SourceGovmap
}

// Method describes how a result's coordinates were derived.
type Method string

const (
	// MethodExact means an exact street and house-number match.
	MethodExact Method = "exact"
	// MethodInterpolated means the position was interpolated between two
	// known house numbers on the same street.
	MethodInterpolated Method = "interpolated"
	// MethodProvider means an external provider returned the point as-is.
	MethodProvider Method = "provider"
	// MethodOutOfBounds marks a provider point outside the municipal
	// boundary, kept only as a low-trust fallback.
	MethodOutOfBounds Method = "out_of_bounds"
)

// GeocodeResult is a single resolved coordinate with its provenance.
// Results are never mutated after creation, only compared and selected.
type GeocodeResult struct {
	Point      geodist.Point `json:"point"`
	Confidence float64       `json:"confidence"`
	Source     Source        `json:"source"`
	Method     Method        `json:"method"`
}
