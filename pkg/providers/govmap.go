package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/geodist"
)

const govmapSearchPath = "/api/search"

// Govmap queries the national government mapping service. Results are
// requested in WGS84 and biased to Hebrew.
type Govmap struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// GovmapOption configures the adapter.
type GovmapOption func(*Govmap)

// WithGovmapHTTPClient sets a custom HTTP client.
func WithGovmapHTTPClient(hc *http.Client) GovmapOption {
	return func(g *Govmap) { g.httpClient = hc }
}

// WithGovmapTimeout sets the per-call timeout.
func WithGovmapTimeout(d time.Duration) GovmapOption {
	return func(g *Govmap) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGovmap creates the government adapter against the given base URL.
func NewGovmap(baseURL string, opts ...GovmapOption) *Govmap {
	g := &Govmap{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Provider.
func (g *Govmap) Name() string { return "govmap" }

// govmapResponse is the JSON search response. X/Y arrive as WGS84
// longitude/latitude when epsg=4326 is requested.
type govmapResponse struct {
	Results []struct {
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Label string  `json:"label"`
	} `json:"results"`
}

// Query implements Provider.
func (g *Govmap) Query(ctx context.Context, text string) (*Candidate, error) {
	if text == "" {
		return nil, nil
	}

	cctx, cancel := callCtx(ctx, g.timeout)
	defer cancel()

	params := url.Values{
		"query": {text},
		"type":  {"address"},
		"lang":  {"he"},
		"epsg":  {"4326"},
		"limit": {"1"},
	}

	reqURL := g.baseURL + govmapSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		zap.L().Debug("govmap: request failed", zap.String("query", text), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("govmap: non-success status", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil
	}

	var gmResp govmapResponse
	if err := json.Unmarshal(body, &gmResp); err != nil {
		zap.L().Debug("govmap: malformed response", zap.Error(err))
		return nil, nil
	}

	if len(gmResp.Results) == 0 {
		return nil, nil
	}

	r := gmResp.Results[0]
	return &Candidate{
		Point:       geodist.Point{Lat: r.Y, Lon: r.X},
		DisplayName: r.Label,
	}, nil
}
