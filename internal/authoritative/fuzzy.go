package authoritative

import (
	"strings"
	"unicode/utf8"

	"github.com/muni-gis/geocode-cli/internal/normalize"
)

// scoreStreetNames is the bounded, deterministic scorer used for fuzzy
// street matching. Inputs are already-normalized street names.
//
// Tiers: exact match 1.0; prefix relation 0.85 when the length gap is
// small, 0.75 when the candidate is the longer side, 0.60 when the input
// is longer (a long input starting with a generic short candidate is a
// weak signal); otherwise Dice token overlap, discarded below 0.5, with a
// small length-based specificity bonus for strong overlaps.
func scoreStreetNames(input, candidate string) float64 {
	if input == candidate {
		return 1.0
	}

	li := utf8.RuneCountInString(input)
	lc := utf8.RuneCountInString(candidate)

	if strings.HasPrefix(candidate, input) || strings.HasPrefix(input, candidate) {
		delta := li - lc
		if delta < 0 {
			delta = -delta
		}
		switch {
		case delta <= prefixCloseLenDelta:
			return scorePrefixClose
		case lc > li:
			return scoreCandidateIsLonger
		default:
			return scoreInputIsLonger
		}
	}

	ta := normalize.Tokens(input)
	tb := normalize.Tokens(candidate)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}
	inter := 0
	for _, tok := range tb {
		if set[tok] {
			inter++
			delete(set, tok)
		}
	}

	score := 2 * float64(inter) / float64(len(ta)+len(tb))
	if score < tokenOverlapFloor {
		return 0
	}

	if score >= specificityBonusGate {
		shorter := li
		if lc < shorter {
			shorter = lc
		}
		bonus := float64(shorter) / 200
		if bonus > specificityBonusMax {
			bonus = specificityBonusMax
		}
		score += bonus
		if score > 1 {
			score = 1
		}
	}

	return score
}
