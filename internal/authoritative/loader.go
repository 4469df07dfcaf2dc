package authoritative

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/geodist"
)

// DatasetConfig names the property/attribute keys carrying the street name
// and house number in a feature collection.
type DatasetConfig struct {
	StreetProperty string `mapstructure:"street_property"`
	NumberProperty string `mapstructure:"number_property"`
}

// Fallback property keys tried when the configured key is absent. Covers
// the common Israeli open-data exports and plain English schemas.
var (
	streetPropFallbacks = []string{"street", "street_name", "shem_rechov", "shem_rchov", "name"}
	numberPropFallbacks = []string{"house_number", "housenumber", "ms_bayit", "mispar_bayit", "number"}
)

// Catalog loads feature datasets and memoizes them by path, so loading the
// same path twice never reprocesses the file. It is owned by whoever wires
// the pipeline, not ambient package state.
type Catalog struct {
	mu   sync.Mutex
	sets map[string][]Feature
}

// NewCatalog creates an empty dataset catalog.
func NewCatalog() *Catalog {
	return &Catalog{sets: make(map[string][]Feature)}
}

// Features loads the dataset at path, honoring the memo. GeoJSON is
// detected by extension; anything ending in .shp goes through the
// shapefile reader.
func (c *Catalog) Features(path string, cfg DatasetConfig) ([]Feature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if feats, ok := c.sets[path]; ok {
		return feats, nil
	}

	var (
		feats []Feature
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		feats, err = loadShapefile(path, cfg)
	default:
		feats, err = loadGeoJSON(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("authoritative: dataset loaded",
		zap.String("path", path),
		zap.Int("features", len(feats)),
	)

	c.sets[path] = feats
	return feats, nil
}

// Names extracts the raw street names of a feature set, for building the
// street-name-only index.
func Names(feats []Feature) []string {
	out := make([]string, 0, len(feats))
	for _, f := range feats {
		out = append(out, f.Street)
	}
	return out
}

// loadGeoJSON reads a GeoJSON FeatureCollection of point, line, or polygon
// features. Non-point geometries contribute their bounds center.
func loadGeoJSON(path string, cfg DatasetConfig) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "authoritative: read dataset %s", path)
	}

	var fc geomjson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "authoritative: parse geojson %s", path)
	}

	var feats []Feature
	var skipped int
	for _, f := range fc.Features {
		if f.Geometry == nil {
			skipped++
			continue
		}

		street := stringProp(f.Properties, cfg.StreetProperty, streetPropFallbacks)
		if street == "" {
			skipped++
			continue
		}

		feats = append(feats, Feature{
			Street:      street,
			HouseNumber: intProp(f.Properties, cfg.NumberProperty, numberPropFallbacks),
			Point:       geometryCenter(f.Geometry),
		})
	}

	if skipped > 0 {
		zap.L().Debug("authoritative: skipped geojson features",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if len(feats) == 0 {
		return nil, eris.Errorf("authoritative: dataset %s has no usable features", path)
	}
	return feats, nil
}

// loadShapefile reads point features from an ESRI shapefile; non-point
// shapes contribute their bounding-box center.
func loadShapefile(path string, cfg DatasetConfig) ([]Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "authoritative: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(row map[string]string, key string, fallbacks []string) string {
		if key != "" {
			if v, ok := row[strings.ToLower(key)]; ok {
				return v
			}
		}
		for _, fb := range fallbacks {
			if v, ok := row[fb]; ok && v != "" {
				return v
			}
		}
		return ""
	}

	var feats []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}

		row := make(map[string]string, len(fieldIdx))
		for name, idx := range fieldIdx {
			v := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
			if v != "" {
				row[name] = v
			}
		}

		street := attr(row, cfg.StreetProperty, streetPropFallbacks)
		if street == "" {
			skipped++
			continue
		}

		var house *int
		if raw := attr(row, cfg.NumberProperty, numberPropFallbacks); raw != "" {
			if num, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil && num > 0 {
				house = &num
			}
		}

		box := shape.BBox()
		feats = append(feats, Feature{
			Street:      street,
			HouseNumber: house,
			Point: geodist.Point{
				Lat: (box.MinY + box.MaxY) / 2,
				Lon: (box.MinX + box.MaxX) / 2,
			},
		})
	}

	if skipped > 0 {
		zap.L().Debug("authoritative: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if len(feats) == 0 {
		return nil, eris.Errorf("authoritative: shapefile %s has no usable features", path)
	}
	return feats, nil
}

// geometryCenter returns a point geometry's coordinate, or the bounds
// center for lines and polygons.
func geometryCenter(g geom.T) geodist.Point {
	if p, ok := g.(*geom.Point); ok {
		return geodist.Point{Lat: p.Y(), Lon: p.X()}
	}
	b := g.Bounds()
	return geodist.Point{
		Lat: (b.Min(1) + b.Max(1)) / 2,
		Lon: (b.Min(0) + b.Max(0)) / 2,
	}
}

func stringProp(props map[string]any, key string, fallbacks []string) string {
	if key != "" {
		if v, ok := props[key]; ok {
			return strings.TrimSpace(toString(v))
		}
	}
	for _, fb := range fallbacks {
		if v, ok := props[fb]; ok {
			if s := strings.TrimSpace(toString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func intProp(props map[string]any, key string, fallbacks []string) *int {
	raw := stringProp(props, key, fallbacks)
	if raw == "" {
		return nil
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num <= 0 {
		return nil
	}
	return &num
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers arrive as float64; house numbers are integral.
		return strconv.Itoa(int(t))
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
