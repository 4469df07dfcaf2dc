package model

import (
	"fmt"
	"strings"

	"github.com/muni-gis/geocode-cli/internal/geodist"
)

// RequestKind is the closed set of address request variants.
type RequestKind string

const (
	KindStreetNumber RequestKind = "street_number"
	KindIntersection RequestKind = "intersection"
	KindPoi          RequestKind = "poi"
	KindUnknown      RequestKind = "unknown"
)

// AddressRequest is the tagged union handed to the ensemble orchestrator.
// StreetNumber requests carry Street and HouseNumber; Intersection and Poi
// carry only RawText.
type AddressRequest struct {
	Kind        RequestKind
	Street      string
	HouseNumber int
	RawText     string
}

// CanonicalAddress is a normalized street + house number + city triple.
// A nil HouseNumber is valid only for intersection and POI requests.
type CanonicalAddress struct {
	Street      string
	HouseNumber *int
	City        string
}

// Key returns the cache/lookup key for the address.
func (c CanonicalAddress) Key() string {
	num := ""
	if c.HouseNumber != nil {
		num = fmt.Sprintf("%d", *c.HouseNumber)
	}
	return strings.TrimSpace(strings.Join([]string{c.Street, num, c.City}, "|"))
}

// String renders the address the way a person would write it.
func (c CanonicalAddress) String() string {
	parts := []string{c.Street}
	if c.HouseNumber != nil {
		parts = append(parts, fmt.Sprintf("%d", *c.HouseNumber))
	}
	if c.City != "" {
		parts = append(parts, c.City)
	}
	return strings.Join(parts, " ")
}

// RowMeta is the transient per-row metadata consumed by the batch
// statistics rollup and discarded afterwards.
type RowMeta struct {
	Source     Source
	Confidence float64
	InBounds   bool
	Kind       RequestKind
}

// Row is the unit of batch work: one source record plus everything the
// pipeline derived from it. A Row is owned by the pipeline slot that
// created it until it is handed back to the caller.
type Row struct {
	Index   int
	Record  []string
	RawText string

	Address *CanonicalAddress
	Request AddressRequest
	Prior   *geodist.Point

	Result  *GeocodeResult
	Status  Status
	Message string
	Meta    RowMeta
}
