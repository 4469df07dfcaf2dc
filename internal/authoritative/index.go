// Package authoritative holds the municipality's ground-truth address
// dataset in memory and resolves street + house number queries against it,
// with fuzzy street matching and house-number interpolation.
package authoritative

import (
	"sort"

	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/normalize"
)

// Confidence tiers for index matches. A fuzzy street match costs a fixed
// 0.1 penalty against the exact tier.
const (
	confExact              = 1.0
	confExactFuzzyStreet   = 0.9
	confInterp             = 0.8
	confInterpFuzzyStreet  = 0.7
	fuzzyAcceptThreshold   = 0.7
	tokenOverlapFloor      = 0.5
	specificityBonusMax    = 0.05
	specificityBonusGate   = 0.80
	prefixCloseLenDelta    = 3
	scorePrefixClose       = 0.85
	scoreCandidateIsLonger = 0.75
	scoreInputIsLonger     = 0.60
)

// Feature is one ground-truth address point.
type Feature struct {
	Street      string
	HouseNumber *int
	Point       geodist.Point
}

// Match is a successful index lookup.
type Match struct {
	Point        geodist.Point
	Confidence   float64
	Street       string
	Interpolated bool
	FuzzyStreet  bool
}

// Index is the in-memory authoritative lookup structure. It is built once
// at startup and read-only afterwards, safe for concurrent use.
type Index struct {
	dict     *normalize.Dictionary
	byStreet map[string][]Feature
	names    []string // sorted, deduplicated normalized street names
}

// NewIndex builds an index from ground-truth features. Street names are
// normalized with the same subroutine used for query streets, so the keys
// agree on both sides.
func NewIndex(features []Feature, dict *normalize.Dictionary) *Index {
	byStreet := make(map[string][]Feature)
	for _, f := range features {
		key := normalize.Street(f.Street, dict)
		if key == "" {
			continue
		}
		f.Street = key
		byStreet[key] = append(byStreet[key], f)
	}

	names := make([]string, 0, len(byStreet))
	for name := range byStreet {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Index{dict: dict, byStreet: byStreet, names: names}
}

// Len returns the number of ground-truth features held.
func (ix *Index) Len() int {
	n := 0
	for _, feats := range ix.byStreet {
		n += len(feats)
	}
	return n
}

// StreetCount returns the number of distinct streets held.
func (ix *Index) StreetCount() int { return len(ix.names) }

// Lookup resolves a street and house number against the dataset. It
// returns nil when the street cannot be matched or the number cannot be
// bracketed for interpolation.
func (ix *Index) Lookup(street string, houseNumber int) *Match {
	key := normalize.Street(street, ix.dict)
	if key == "" || houseNumber <= 0 {
		return nil
	}

	feats, ok := ix.byStreet[key]
	fuzzy := false
	if !ok {
		best := ix.fuzzyStreet(key)
		if best == "" {
			return nil
		}
		feats = ix.byStreet[best]
		key = best
		fuzzy = true
	}

	// Exact house number first.
	for _, f := range feats {
		if f.HouseNumber != nil && *f.HouseNumber == houseNumber {
			conf := confExact
			if fuzzy {
				conf = confExactFuzzyStreet
			}
			return &Match{Point: f.Point, Confidence: conf, Street: key, FuzzyStreet: fuzzy}
		}
	}

	return interpolate(feats, key, houseNumber, fuzzy)
}

// interpolate estimates the position of houseNumber between the nearest
// lower and upper numbers present on the street.
func interpolate(feats []Feature, street string, houseNumber int, fuzzy bool) *Match {
	var lower, upper *Feature
	for i := range feats {
		f := &feats[i]
		if f.HouseNumber == nil {
			continue
		}
		n := *f.HouseNumber
		switch {
		case n < houseNumber:
			if lower == nil || n > *lower.HouseNumber {
				lower = f
			}
		case n > houseNumber:
			if upper == nil || n < *upper.HouseNumber {
				upper = f
			}
		}
	}

	if lower == nil || upper == nil {
		return nil
	}

	t := float64(houseNumber-*lower.HouseNumber) / float64(*upper.HouseNumber-*lower.HouseNumber)
	conf := confInterp
	if fuzzy {
		conf = confInterpFuzzyStreet
	}

	return &Match{
		Point:        geodist.Interpolate(lower.Point, upper.Point, t),
		Confidence:   conf,
		Street:       street,
		Interpolated: true,
		FuzzyStreet:  fuzzy,
	}
}

// fuzzyStreet returns the best-scoring candidate street name, or "" when
// nothing reaches the acceptance threshold.
func (ix *Index) fuzzyStreet(input string) string {
	best := ""
	bestScore := 0.0
	for _, candidate := range ix.names {
		s := scoreStreetNames(input, candidate)
		if s > bestScore {
			best = candidate
			bestScore = s
		}
	}
	if bestScore < fuzzyAcceptThreshold {
		return ""
	}
	return best
}
