// Package ensemble sequences the geocoding sources: the authoritative
// index first, then the government service, then open data, with boundary
// validation and per-source confidence tagging. Sources run strictly in
// priority order and are never raced.
package ensemble

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/authoritative"
	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/model"
	"github.com/muni-gis/geocode-cli/internal/normalize"
	"github.com/muni-gis/geocode-cli/pkg/providers"
)

// Config carries the boundary box and the provider trust tiers. Every
// value is a named policy constant surfaced through the main config file.
type Config struct {
	Boundary             geodist.BBox
	GovmapConfidence     float64
	NominatimInBounds    float64
	NominatimOutOfBounds float64
}

// DefaultConfig returns the stock trust tiers.
func DefaultConfig() Config {
	return Config{
		GovmapConfidence:     0.75,
		NominatimInBounds:    0.6,
		NominatimOutOfBounds: 0.3,
	}
}

// source is one step of the fallback chain. Reordering the chain is a
// one-line change in New.
type source struct {
	name    string
	resolve func(ctx context.Context, req model.AddressRequest) *model.GeocodeResult
}

// Orchestrator owns the ordered source chain for one dataset + provider
// wiring. It is safe for concurrent use as long as the wrapped providers
// are.
type Orchestrator struct {
	cfg     Config
	dict    *normalize.Dictionary
	sources []source
}

// New wires the chain. index may be nil (no authoritative dataset); either
// provider may be nil to drop that source from the chain.
func New(index *authoritative.Index, gov, osm providers.Provider, dict *normalize.Dictionary, cfg Config) *Orchestrator {
	o := &Orchestrator{cfg: cfg, dict: dict}

	if index != nil {
		o.sources = append(o.sources, source{name: "authoritative", resolve: o.authoritativeSource(index)})
	}
	if gov != nil {
		o.sources = append(o.sources, source{name: gov.Name(), resolve: o.governmentSource(gov)})
	}
	if osm != nil {
		o.sources = append(o.sources, source{name: osm.Name(), resolve: o.openDataSource(osm)})
	}

	return o
}

// Geocode resolves one request by walking the chain until a source
// produces an acceptable result. A later source is attempted only after
// the earlier one definitively failed or was rejected by the boundary
// check. Returns nil when every source misses.
func (o *Orchestrator) Geocode(ctx context.Context, req model.AddressRequest) *model.GeocodeResult {
	if req.Kind == model.KindUnknown {
		return nil
	}

	for _, s := range o.sources {
		if result := s.resolve(ctx, req); result != nil {
			zap.L().Debug("ensemble: resolved",
				zap.String("source", s.name),
				zap.String("kind", string(req.Kind)),
				zap.Float64("confidence", result.Confidence),
			)
			return result
		}
	}

	return nil
}

// authoritativeSource consults the ground-truth index. Only street+number
// requests qualify; intersections and POIs have no house number to match.
func (o *Orchestrator) authoritativeSource(index *authoritative.Index) func(context.Context, model.AddressRequest) *model.GeocodeResult {
	return func(_ context.Context, req model.AddressRequest) *model.GeocodeResult {
		if req.Kind != model.KindStreetNumber {
			return nil
		}

		m := index.Lookup(req.Street, req.HouseNumber)
		if m == nil {
			return nil
		}

		method := model.MethodExact
		if m.Interpolated {
			method = model.MethodInterpolated
		}

		return &model.GeocodeResult{
			Point:      m.Point,
			Confidence: m.Confidence,
			Source:     model.SourceAuthoritative,
			Method:     method,
		}
	}
}

// governmentSource queries the government adapter and accepts the point
// only inside the municipal boundary; an out-of-boundary point is a soft
// rejection that lets the chain continue.
func (o *Orchestrator) governmentSource(p providers.Provider) func(context.Context, model.AddressRequest) *model.GeocodeResult {
	return func(ctx context.Context, req model.AddressRequest) *model.GeocodeResult {
		c, err := p.Query(ctx, o.queryText(req))
		if err != nil || c == nil {
			return nil
		}

		if !o.inBounds(c.Point) {
			zap.L().Debug("ensemble: government result outside boundary, discarding",
				zap.Float64("lat", c.Point.Lat),
				zap.Float64("lon", c.Point.Lon),
			)
			return nil
		}

		return &model.GeocodeResult{
			Point:      c.Point,
			Confidence: o.cfg.GovmapConfidence,
			Source:     model.SourceGovmap,
			Method:     model.MethodProvider,
		}
	}
}

// openDataSource queries the open-data adapter. Points are accepted
// unconditionally; outside the boundary they carry a deliberately low
// confidence and a distinct method so classification will rarely confirm
// them.
func (o *Orchestrator) openDataSource(p providers.Provider) func(context.Context, model.AddressRequest) *model.GeocodeResult {
	return func(ctx context.Context, req model.AddressRequest) *model.GeocodeResult {
		c, err := p.Query(ctx, o.queryText(req))
		if err != nil || c == nil {
			return nil
		}

		result := &model.GeocodeResult{
			Point:  c.Point,
			Source: model.SourceNominatim,
			Method: model.MethodProvider,
		}
		if o.inBounds(c.Point) {
			result.Confidence = o.cfg.NominatimInBounds
		} else {
			result.Confidence = o.cfg.NominatimOutOfBounds
			result.Method = model.MethodOutOfBounds
		}
		return result
	}
}

// inBounds applies the boundary check; an unset boundary accepts every
// point, matching the classifier's behavior.
func (o *Orchestrator) inBounds(p geodist.Point) bool {
	return o.cfg.Boundary.Zero() || o.cfg.Boundary.Contains(p)
}

// queryText builds the canonicalized, script-appropriate provider query.
func (o *Orchestrator) queryText(req model.AddressRequest) string {
	city := o.dict.CityName()

	switch req.Kind {
	case model.KindStreetNumber:
		return withCity(fmt.Sprintf("%s %d", req.Street, req.HouseNumber), city)
	case model.KindIntersection:
		if a, b, ok := normalize.SplitIntersection(req.RawText, o.dict); ok {
			return withCity(a+" & "+b, city)
		}
		return withCity(req.RawText, city)
	case model.KindPoi:
		return withCity(req.RawText, city)
	default:
		return ""
	}
}

func withCity(text, city string) string {
	if city == "" {
		return text
	}
	return text + ", " + city
}
