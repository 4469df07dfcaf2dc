package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-gis/geocode-cli/internal/authoritative"
	"github.com/muni-gis/geocode-cli/internal/classify"
	"github.com/muni-gis/geocode-cli/internal/ensemble"
	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/model"
	"github.com/muni-gis/geocode-cli/internal/normalize"
	"github.com/muni-gis/geocode-cli/internal/store"
	"github.com/muni-gis/geocode-cli/pkg/providers"
)

var boundary = geodist.BBox{MinLat: 31.70, MinLon: 35.10, MaxLat: 31.88, MaxLon: 35.27}

type countingProvider struct {
	name  string
	point *geodist.Point
	miss  func(text string) bool

	mu    sync.Mutex
	calls int
}

func (c *countingProvider) Name() string { return c.name }

func (c *countingProvider) Query(_ context.Context, text string) (*providers.Candidate, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.point == nil || (c.miss != nil && c.miss(text)) {
		return nil, nil
	}
	return &providers.Candidate{Point: *c.point}, nil
}

func (c *countingProvider) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*store.Entry
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*store.Entry{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (*store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *fakeCache) Put(_ context.Context, key string, result *model.GeocodeResult, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = &store.Entry{Key: key, Result: result}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) DeleteExpired(context.Context) (int, error) { return 0, nil }
func (f *fakeCache) Migrate(context.Context) error              { return nil }
func (f *fakeCache) Close() error                               { return nil }

func intPtr(n int) *int { return &n }

func testIndex(t *testing.T) *authoritative.Index {
	t.Helper()
	return authoritative.NewIndex([]authoritative.Feature{
		{Street: "יפו", HouseNumber: intPtr(19), Point: geodist.Point{Lat: 31.784, Lon: 35.215}},
	}, normalize.DefaultDictionary())
}

func testPipeline(t *testing.T, gov, osm providers.Provider, opts ...Option) *Pipeline {
	t.Helper()
	dict := normalize.DefaultDictionary()
	ecfg := ensemble.DefaultConfig()
	ecfg.Boundary = boundary
	cfg := Config{Workers: 2, CacheTTL: time.Hour, NegativeTTL: time.Minute}
	return New(cfg, dict, testIndex(t), gov, osm, ecfg,
		classify.New(classify.DefaultPolicy(), boundary), opts...)
}

func rowsOf(texts ...string) []*model.Row {
	rows := make([]*model.Row, len(texts))
	for i, text := range texts {
		rows[i] = &model.Row{Index: i, RawText: text}
	}
	return rows
}

func TestProcess_MixedBatch(t *testing.T) {
	gov := &countingProvider{name: "govmap", point: &geodist.Point{Lat: 31.78, Lon: 35.22}}
	osm := &countingProvider{name: "nominatim"}
	p := testPipeline(t, gov, osm)

	rows := rowsOf(
		"יפו 19 ירושלים", // authoritative hit
		"עזה 40 ירושלים", // government fallback
		"",               // skipped
		"יפו ירושלים",    // street without number: skipped
	)
	stats, err := p.Process(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, rows[0].Status)
	assert.Equal(t, model.SourceAuthoritative, rows[0].Meta.Source)

	assert.Equal(t, model.StatusConfirmed, rows[1].Status)
	assert.Equal(t, model.SourceGovmap, rows[1].Meta.Source)

	assert.Equal(t, model.StatusSkipped, rows[2].Status)
	assert.Equal(t, model.StatusSkipped, rows[3].Status)
	assert.Equal(t, "address form not recognized", rows[3].Message)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Resolved())
	assert.Equal(t, 1, gov.count(), "authoritative hit never reaches the provider")
}

func TestProcess_DeduplicatesByCanonicalKey(t *testing.T) {
	gov := &countingProvider{name: "govmap", point: &geodist.Point{Lat: 31.78, Lon: 35.22}}
	p := testPipeline(t, gov, nil)
	p.cfg.Workers = 1 // deterministic: one worker sees the duplicate after the first write

	rows := rowsOf(
		"עזה 40 ירושלים",
		"רחוב עזה 40, ירושלים", // same canonical address, different spelling
	)
	_, err := p.Process(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, gov.count())
	assert.Equal(t, model.StatusConfirmed, rows[0].Status)
	assert.Equal(t, model.StatusConfirmed, rows[1].Status)
}

func TestProcess_NegativeCacheShortCircuits(t *testing.T) {
	gov := &countingProvider{name: "govmap", point: &geodist.Point{Lat: 31.78, Lon: 35.22}}
	cache := newFakeCache()

	dict := normalize.DefaultDictionary()
	addr, reason := normalize.Canonical("עזה 40 ירושלים", dict)
	require.Equal(t, normalize.ReasonNone, reason)
	require.NoError(t, cache.Put(context.Background(), addr.Key(), nil, time.Minute))

	p := testPipeline(t, gov, nil, WithCache(cache))
	rows := rowsOf("עזה 40 ירושלים")
	_, err := p.Process(context.Background(), rows)
	require.NoError(t, err)

	assert.Zero(t, gov.count(), "recorded miss suppresses the provider call")
	assert.Equal(t, model.StatusNotFound, rows[0].Status)
}

func TestProcess_WritesThroughToPersistentCache(t *testing.T) {
	gov := &countingProvider{
		name:  "govmap",
		point: &geodist.Point{Lat: 31.78, Lon: 35.22},
		miss: func(text string) bool {
			return strings.Contains(text, "אבסורד")
		},
	}
	cache := newFakeCache()
	p := testPipeline(t, gov, nil, WithCache(cache))

	rows := rowsOf("עזה 40 ירושלים", "אבסורד 77 ירושלים")
	_, err := p.Process(context.Background(), rows)
	require.NoError(t, err)

	dict := normalize.DefaultDictionary()
	hitAddr, _ := normalize.Canonical("עזה 40 ירושלים", dict)
	missAddr, _ := normalize.Canonical("אבסורד 77 ירושלים", dict)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.Contains(t, cache.entries, hitAddr.Key())
	assert.NotNil(t, cache.entries[hitAddr.Key()].Result)
	assert.Equal(t, time.Hour, cache.ttls[hitAddr.Key()])

	require.Contains(t, cache.entries, missAddr.Key())
	assert.Nil(t, cache.entries[missAddr.Key()].Result, "miss is cached negatively")
	assert.Equal(t, time.Minute, cache.ttls[missAddr.Key()])
}

func TestProcess_CancelledBeforeStart(t *testing.T) {
	gov := &countingProvider{name: "govmap", point: &geodist.Point{Lat: 31.78, Lon: 35.22}}
	p := testPipeline(t, gov, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := rowsOf("עזה 40 ירושלים")
	_, err := p.Process(ctx, rows)
	require.Error(t, err)
}

func TestResolve_SingleAddress(t *testing.T) {
	p := testPipeline(t, nil, nil)

	row := p.Resolve("יפו 19, ירושלים")
	require.NotNil(t, row.Result)
	assert.Equal(t, model.StatusConfirmed, row.Status)
	assert.Equal(t, model.MethodExact, row.Result.Method)

	row = p.Resolve("")
	assert.Equal(t, model.StatusSkipped, row.Status)
}

func TestProcess_IntersectionRow(t *testing.T) {
	gov := &countingProvider{name: "govmap", point: &geodist.Point{Lat: 31.78, Lon: 35.22}}
	p := testPipeline(t, gov, nil)

	rows := rowsOf("יפו פינת הלל ירושלים")
	_, err := p.Process(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, model.KindIntersection, rows[0].Request.Kind)
	assert.Equal(t, model.StatusConfirmed, rows[0].Status)
	assert.Equal(t, 1, gov.count())
}
