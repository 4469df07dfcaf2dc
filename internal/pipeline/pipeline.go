// Package pipeline drives batch address resolution: a bounded worker pool
// drains the row set, each worker running normalize -> cache -> ensemble
// -> classify sequentially for its row.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muni-gis/geocode-cli/internal/authoritative"
	"github.com/muni-gis/geocode-cli/internal/classify"
	"github.com/muni-gis/geocode-cli/internal/ensemble"
	"github.com/muni-gis/geocode-cli/internal/model"
	"github.com/muni-gis/geocode-cli/internal/normalize"
	"github.com/muni-gis/geocode-cli/internal/store"
	"github.com/muni-gis/geocode-cli/internal/telemetry"
	"github.com/muni-gis/geocode-cli/pkg/providers"
)

// Config tunes the worker pool and caches.
type Config struct {
	Workers       int           `mapstructure:"workers"`
	ProviderDelay time.Duration `mapstructure:"provider_delay"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	NegativeTTL   time.Duration `mapstructure:"negative_ttl"`
}

// DefaultConfig returns the stock pool settings.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		ProviderDelay: 200 * time.Millisecond,
		CacheTTL:      30 * 24 * time.Hour,
		NegativeTTL:   24 * time.Hour,
	}
}

// Pipeline owns everything a batch run needs. The providers and index are
// shared across workers; each worker builds its own rate-limited
// orchestrator so provider pacing stays local to the worker.
type Pipeline struct {
	cfg         Config
	dict        *normalize.Dictionary
	index       *authoritative.Index
	gov         providers.Provider
	osm         providers.Provider
	ensembleCfg ensemble.Config
	classifier  *classify.Classifier
	cache       store.Cache
	emitter     telemetry.Emitter

	mu      sync.Mutex
	results map[string]*model.GeocodeResult
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithCache attaches a persistent result cache.
func WithCache(c store.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithEmitter attaches a telemetry sink.
func WithEmitter(e telemetry.Emitter) Option {
	return func(p *Pipeline) { p.emitter = e }
}

// New assembles a pipeline. index, gov, and osm may each be nil; the
// ensemble skips absent sources.
func New(cfg Config, dict *normalize.Dictionary, index *authoritative.Index,
	gov, osm providers.Provider, ensembleCfg ensemble.Config, classifier *classify.Classifier,
	opts ...Option,
) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	p := &Pipeline{
		cfg:         cfg,
		dict:        dict,
		index:       index,
		gov:         gov,
		osm:         osm,
		ensembleCfg: ensembleCfg,
		classifier:  classifier,
		emitter:     telemetry.Nop{},
		results:     make(map[string]*model.GeocodeResult),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process resolves the batch in place and returns the statistics rollup.
// Cancelling ctx stops dispatching new rows; rows already picked up by a
// worker run to completion, including any in-flight provider call.
func (p *Pipeline) Process(ctx context.Context, rows []*model.Row) (*classify.Stats, error) {
	batchID := uuid.New().String()
	start := time.Now()

	p.emitter.Emit(telemetry.Event{
		Name: "batch_start", Batch: batchID,
		Fields: map[string]any{"rows": len(rows)},
	})
	zap.L().Info("pipeline: batch started",
		zap.String("batch", batchID),
		zap.Int("rows", len(rows)),
		zap.Int("workers", p.cfg.Workers),
	)

	for _, row := range rows {
		p.prepare(row)
	}

	rowCh := make(chan *model.Row)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			w := p.newWorker(batchID)
			for {
				select {
				case <-gctx.Done():
					return eris.Wrap(gctx.Err(), "pipeline: batch cancelled")
				case row, ok := <-rowCh:
					if !ok {
						return nil
					}
					w.run(row)
				}
			}
		})
	}

dispatch:
	for _, row := range rows {
		select {
		case rowCh <- row:
		case <-gctx.Done():
			break dispatch
		}
	}
	close(rowCh)

	err := g.Wait()

	stats := classify.NewStats()
	for _, row := range rows {
		if row.Status.Terminal() {
			stats.Observe(row)
		}
	}

	p.emitter.Emit(telemetry.Event{
		Name: "batch_done", Batch: batchID,
		Fields: map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"resolved":    stats.Resolved(),
		},
	})
	stats.Log()

	return stats, err
}

// Resolve runs the full pipeline for one raw address string. Used by the
// single-address command and the HTTP API.
func (p *Pipeline) Resolve(rawText string) *model.Row {
	row := &model.Row{RawText: rawText}
	p.prepare(row)
	p.newWorker(uuid.New().String()).run(row)
	return row
}

// prepare fills the normalized address and request kind. Pure text work;
// no I/O.
func (p *Pipeline) prepare(row *model.Row) {
	addr, reason := normalize.Canonical(row.RawText, p.dict)
	if reason != normalize.ReasonEmpty {
		row.Address = &addr
	}
	row.Request = normalize.ClassifyRequest(row.RawText, p.dict)
}

// cachedResult checks the in-memory map first, then the persistent cache.
// The second return value distinguishes a recorded miss from an unknown
// key.
func (p *Pipeline) cachedResult(ctx context.Context, key string) (*model.GeocodeResult, bool) {
	p.mu.Lock()
	result, ok := p.results[key]
	p.mu.Unlock()
	if ok {
		return result, true
	}

	if p.cache == nil {
		return nil, false
	}
	entry, err := p.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("pipeline: cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	return entry.Result, true
}

// storeResult records the resolution in both caches. A nil result is a
// negative entry with the shorter TTL. Concurrent writers for the same
// key are tolerated: results for one key are idempotent, last writer
// wins.
func (p *Pipeline) storeResult(ctx context.Context, key string, result *model.GeocodeResult) {
	p.mu.Lock()
	p.results[key] = result
	p.mu.Unlock()

	if p.cache == nil {
		return
	}
	ttl := p.cfg.CacheTTL
	if result == nil {
		ttl = p.cfg.NegativeTTL
	}
	if err := p.cache.Put(ctx, key, result, ttl); err != nil {
		zap.L().Warn("pipeline: cache write failed", zap.String("key", key), zap.Error(err))
	}
}
