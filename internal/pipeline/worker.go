package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/muni-gis/geocode-cli/internal/ensemble"
	"github.com/muni-gis/geocode-cli/internal/model"
	"github.com/muni-gis/geocode-cli/internal/telemetry"
	"github.com/muni-gis/geocode-cli/pkg/providers"
)

// worker is the per-goroutine state: its own orchestrator wrapping
// rate-limited provider handles, so the pacing delay between provider
// calls is local to the worker rather than a shared lock.
type worker struct {
	p     *Pipeline
	batch string
	orch  *ensemble.Orchestrator
}

func (p *Pipeline) newWorker(batch string) *worker {
	gov := throttle(p.gov, p.cfg.ProviderDelay)
	osm := throttle(p.osm, p.cfg.ProviderDelay)
	return &worker{
		p:     p,
		batch: batch,
		orch:  ensemble.New(p.index, gov, osm, p.dict, p.ensembleCfg),
	}
}

// run takes one row from pending to terminal. Provider calls use a
// fresh background context: batch cancellation stops dispatch, and
// whatever is already in flight completes or times out on its own.
func (w *worker) run(row *model.Row) {
	ctx := context.Background()

	if row.Request.Kind != model.KindUnknown && row.Address != nil {
		key := row.Address.Key()
		if result, known := w.p.cachedResult(ctx, key); known {
			row.Result = result
		} else {
			result = w.orch.Geocode(ctx, row.Request)
			row.Result = result
			w.p.storeResult(ctx, key, result)
		}
	}

	w.p.classifier.Classify(row)

	w.p.emitter.Emit(telemetry.Event{
		Name: "row", Batch: w.batch,
		Fields: map[string]any{
			"index":  row.Index,
			"status": string(row.Status),
			"kind":   string(row.Request.Kind),
		},
	})
}

// throttle wraps a provider with a per-worker minimum delay between
// successive calls. A nil provider or zero delay passes through.
func throttle(inner providers.Provider, delay time.Duration) providers.Provider {
	if inner == nil || delay <= 0 {
		return inner
	}
	return &throttled{inner: inner, limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

type throttled struct {
	inner   providers.Provider
	limiter *rate.Limiter
}

func (t *throttled) Name() string { return t.inner.Name() }

func (t *throttled) Query(ctx context.Context, text string) (*providers.Candidate, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, nil
	}
	return t.inner.Query(ctx, text)
}
