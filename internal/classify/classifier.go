// Package classify turns a geocoding result plus the row's original data
// into a terminal status and an auditable message, and drives the batch
// statistics rollup. Every transition is deterministic given the same
// inputs.
package classify

import (
	"fmt"

	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/model"
)

// Policy holds the tuned confidence cutoffs and distance gates. The
// numbers are a product decision, surfaced through configuration rather
// than buried as literals.
type Policy struct {
	AuthoritativeConfirm float64 `mapstructure:"authoritative_confirm"`
	AuthoritativeReview  float64 `mapstructure:"authoritative_review"`
	GovernmentConfirm    float64 `mapstructure:"government_confirm"`
	GovernmentReview     float64 `mapstructure:"government_review"`
	OtherConfirm         float64 `mapstructure:"other_confirm"`
	OtherReview          float64 `mapstructure:"other_review"`

	// Force-confirm bars: trusted street+number matches at or above these
	// confidences ignore the distance gates entirely.
	ForceConfirmAuthoritative float64 `mapstructure:"force_confirm_authoritative"`
	ForceConfirmGovernment    float64 `mapstructure:"force_confirm_government"`

	// Maximum distance (meters) from a prior coordinate before a Confirmed
	// result is downgraded for review.
	MaxDistanceOpenData float64 `mapstructure:"max_distance_open_data"`
	MaxDistanceTrusted  float64 `mapstructure:"max_distance_trusted"`
	MaxDistanceLandmark float64 `mapstructure:"max_distance_landmark"`

	// Agreement with a prior coordinate within these distances upgrades the
	// status one step.
	UpgradeDistanceStreet   float64 `mapstructure:"upgrade_distance_street"`
	UpgradeDistanceLandmark float64 `mapstructure:"upgrade_distance_landmark"`

	// Narrow final promotions from NeedsReview to Confirmed.
	TrustedReviewPromotion float64 `mapstructure:"trusted_review_promotion"`
	OpenDataPoiPromotion   float64 `mapstructure:"open_data_poi_promotion"`

	// A confirmed result farther than this from the prior coordinate is
	// reported as Updated rather than Confirmed.
	UpdatedDistance float64 `mapstructure:"updated_distance"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AuthoritativeConfirm:      0.8,
		AuthoritativeReview:       0.6,
		GovernmentConfirm:         0.75,
		GovernmentReview:          0.6,
		OtherConfirm:              0.9,
		OtherReview:               0.6,
		ForceConfirmAuthoritative: 0.8,
		ForceConfirmGovernment:    0.75,
		MaxDistanceOpenData:       500,
		MaxDistanceTrusted:        1000,
		MaxDistanceLandmark:       1500,
		UpgradeDistanceStreet:     100,
		UpgradeDistanceLandmark:   250,
		TrustedReviewPromotion:    0.7,
		OpenDataPoiPromotion:      0.5,
		UpdatedDistance:           10,
	}
}

// Classifier applies the status state machine to processed rows.
type Classifier struct {
	policy   Policy
	boundary geodist.BBox
}

// New builds a classifier with the given policy and municipal boundary.
// A zero boundary disables the in-bounds checks.
func New(policy Policy, boundary geodist.BBox) *Classifier {
	return &Classifier{policy: policy, boundary: boundary}
}

// Classify assigns the row's terminal status, message, and rollup
// metadata. Rows already carrying a terminal status are left untouched.
func (c *Classifier) Classify(row *model.Row) {
	if row.Status.Terminal() {
		return
	}

	if row.Address == nil || row.Address.Street == "" {
		row.Status = model.StatusSkipped
		row.Message = "no address data in row"
		row.Meta.Kind = row.Request.Kind
		return
	}

	// Unknown-kind rows are never sent to a source; their message must not
	// claim a missing number the raw text may well have carried.
	if row.Request.Kind == model.KindUnknown {
		row.Status = model.StatusSkipped
		row.Message = "address form not recognized"
		row.Meta.Kind = row.Request.Kind
		return
	}

	if row.Request.Kind == model.KindStreetNumber && row.Address.HouseNumber == nil {
		row.Status = model.StatusSkipped
		row.Message = "street found but house number missing"
		row.Meta.Kind = row.Request.Kind
		return
	}

	if row.Result == nil {
		row.Status = model.StatusNotFound
		row.Message = "no source returned a result"
		row.Meta.Kind = row.Request.Kind
		return
	}

	result := row.Result
	inBounds := c.boundary.Zero() || c.boundary.Contains(result.Point)
	row.Meta = model.RowMeta{
		Source:     result.Source,
		Confidence: result.Confidence,
		InBounds:   inBounds,
		Kind:       row.Request.Kind,
	}

	status, message := c.tentative(result)

	if !inBounds && status == model.StatusConfirmed {
		status = model.StatusNeedsReview
		message = "result outside municipal boundary"
	}

	distanceDowngraded := false
	var distance float64
	if row.Prior != nil {
		distance = geodist.Haversine(*row.Prior, result.Point)

		switch {
		case c.forceConfirm(row.Request.Kind, result) && inBounds:
			status = model.StatusConfirmed
			message = fmt.Sprintf("high-confidence %s match (%.2f), distance check waived", result.Source, result.Confidence)
		case status == model.StatusConfirmed && distance > c.maxDistance(row.Request.Kind, result.Source):
			status = model.StatusNeedsReview
			message = fmt.Sprintf("result %.0fm from previous coordinates, beyond the %.0fm limit",
				distance, c.maxDistance(row.Request.Kind, result.Source))
			distanceDowngraded = true
		case distance <= c.upgradeDistance(row.Request.Kind) && inBounds:
			if upgraded := upgradeOneStep(status); upgraded != status {
				status = upgraded
				message = fmt.Sprintf("result within %.0fm of previous coordinates", distance)
			}
		}
	}

	if status == model.StatusNeedsReview && inBounds && !distanceDowngraded {
		if promoted, why := c.promote(row.Request.Kind, result); promoted {
			status = model.StatusConfirmed
			message = why
		}
	}

	if status == model.StatusConfirmed && row.Prior != nil && distance > c.policy.UpdatedDistance {
		status = model.StatusUpdated
		message = fmt.Sprintf("coordinates moved %.0fm from previous value", distance)
	}

	row.Status = status
	row.Message = message
}

// tentative maps (source, confidence) to a first-pass status before any
// boundary or distance adjustment.
func (c *Classifier) tentative(result *model.GeocodeResult) (model.Status, string) {
	var confirm, review float64
	switch result.Source {
	case model.SourceAuthoritative:
		confirm, review = c.policy.AuthoritativeConfirm, c.policy.AuthoritativeReview
	case model.SourceGovmap:
		confirm, review = c.policy.GovernmentConfirm, c.policy.GovernmentReview
	default:
		confirm, review = c.policy.OtherConfirm, c.policy.OtherReview
	}

	switch {
	case result.Confidence >= confirm:
		return model.StatusConfirmed,
			fmt.Sprintf("%s %s match, confidence %.2f", result.Source, result.Method, result.Confidence)
	case result.Confidence >= review:
		return model.StatusNeedsReview,
			fmt.Sprintf("confidence %.2f from %s requires manual review", result.Confidence, result.Source)
	default:
		return model.StatusNotFound,
			fmt.Sprintf("confidence %.2f from %s below acceptance", result.Confidence, result.Source)
	}
}

func (c *Classifier) forceConfirm(kind model.RequestKind, result *model.GeocodeResult) bool {
	if kind != model.KindStreetNumber {
		return false
	}
	switch result.Source {
	case model.SourceAuthoritative:
		return result.Confidence >= c.policy.ForceConfirmAuthoritative
	case model.SourceGovmap:
		return result.Confidence >= c.policy.ForceConfirmGovernment
	default:
		return false
	}
}

// maxDistance picks the gate: loosest for intersections and POIs, looser
// for trusted sources, tightest for open data.
func (c *Classifier) maxDistance(kind model.RequestKind, source model.Source) float64 {
	if kind == model.KindIntersection || kind == model.KindPoi {
		return c.policy.MaxDistanceLandmark
	}
	if source.Trusted() {
		return c.policy.MaxDistanceTrusted
	}
	return c.policy.MaxDistanceOpenData
}

func (c *Classifier) upgradeDistance(kind model.RequestKind) float64 {
	if kind == model.KindIntersection || kind == model.KindPoi {
		return c.policy.UpgradeDistanceLandmark
	}
	return c.policy.UpgradeDistanceStreet
}

// upgradeOneStep moves the status exactly one step toward Confirmed.
func upgradeOneStep(s model.Status) model.Status {
	switch s {
	case model.StatusNotFound:
		return model.StatusNeedsReview
	case model.StatusNeedsReview:
		return model.StatusConfirmed
	default:
		return s
	}
}

// promote applies the narrow final NeedsReview -> Confirmed rules.
func (c *Classifier) promote(kind model.RequestKind, result *model.GeocodeResult) (bool, string) {
	if result.Source.Trusted() && kind == model.KindStreetNumber &&
		result.Confidence >= c.policy.TrustedReviewPromotion {
		return true, fmt.Sprintf("trusted %s match promoted at confidence %.2f", result.Source, result.Confidence)
	}
	if result.Source == model.SourceNominatim && kind == model.KindPoi &&
		result.Confidence >= c.policy.OpenDataPoiPromotion {
		return true, fmt.Sprintf("open-data landmark match promoted at confidence %.2f", result.Confidence)
	}
	return false, ""
}
