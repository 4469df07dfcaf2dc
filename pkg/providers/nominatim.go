package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/geodist"
)

const nominatimSearchPath = "/search"

// Nominatim queries the OpenStreetMap geocoder. The municipal bounding box
// is passed as a viewbox hint; results outside it are still returned, and
// the caller decides how much to trust them.
type Nominatim struct {
	baseURL    string
	userAgent  string
	viewbox    *geodist.BBox
	httpClient *http.Client
	timeout    time.Duration
}

// NominatimOption configures the adapter.
type NominatimOption func(*Nominatim)

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(n *Nominatim) { n.httpClient = hc }
}

// WithNominatimTimeout sets the per-call timeout.
func WithNominatimTimeout(d time.Duration) NominatimOption {
	return func(n *Nominatim) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithNominatimViewbox adds the bounding-box hint to every query.
func WithNominatimViewbox(box geodist.BBox) NominatimOption {
	return func(n *Nominatim) { n.viewbox = &box }
}

// NewNominatim creates the open-data adapter. The usage policy requires an
// identifying User-Agent.
func NewNominatim(baseURL, userAgent string, opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements Provider.
func (n *Nominatim) Name() string { return "nominatim" }

// nominatimResult is one entry of the jsonv2 search response. Coordinates
// arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Query implements Provider.
func (n *Nominatim) Query(ctx context.Context, text string) (*Candidate, error) {
	if text == "" {
		return nil, nil
	}

	cctx, cancel := callCtx(ctx, n.timeout)
	defer cancel()

	params := url.Values{
		"q":               {text},
		"format":          {"jsonv2"},
		"limit":           {"1"},
		"countrycodes":    {"il"},
		"accept-language": {"he"},
	}
	if n.viewbox != nil {
		// viewbox order is lon,lat,lon,lat; bounded is left off so the
		// box stays a hint rather than a hard filter.
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			n.viewbox.MinLon, n.viewbox.MinLat, n.viewbox.MaxLon, n.viewbox.MaxLat))
	}

	reqURL := n.baseURL + nominatimSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		zap.L().Debug("nominatim: request failed", zap.String("query", text), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("nominatim: non-success status", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		zap.L().Debug("nominatim: malformed response", zap.Error(err))
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		zap.L().Debug("nominatim: unparseable coordinates",
			zap.String("lat", results[0].Lat),
			zap.String("lon", results[0].Lon),
		)
		return nil, nil
	}

	return &Candidate{
		Point:       geodist.Point{Lat: lat, Lon: lon},
		DisplayName: results[0].DisplayName,
	}, nil
}
