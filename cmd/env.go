package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/authoritative"
	"github.com/muni-gis/geocode-cli/internal/classify"
	"github.com/muni-gis/geocode-cli/internal/normalize"
	"github.com/muni-gis/geocode-cli/internal/pipeline"
	"github.com/muni-gis/geocode-cli/internal/store"
	"github.com/muni-gis/geocode-cli/internal/telemetry"
	"github.com/muni-gis/geocode-cli/pkg/providers"
)

// env bundles the wired subsystems for one command invocation.
type env struct {
	Dict     *normalize.Dictionary
	Index    *authoritative.Index
	Streets  *authoritative.StreetNameIndex
	Cache    store.Cache
	Emitter  telemetry.Emitter
	Pipeline *pipeline.Pipeline
}

// initPipeline wires the full stack from config. A configured dataset
// that fails to load is fatal: running without ground truth would mislabel
// every confidence tier downstream.
func initPipeline(ctx context.Context) (*env, error) {
	dict, err := loadDictionary()
	if err != nil {
		return nil, err
	}

	e := &env{Dict: dict, Emitter: telemetry.Nop{}}

	if cfg.Dataset.Path != "" {
		feats, err := authoritative.NewCatalog().Features(cfg.Dataset.Path, cfg.Dataset.Authoritative())
		if err != nil {
			return nil, eris.Wrap(err, "init: load authoritative dataset")
		}
		e.Index = authoritative.NewIndex(feats, dict)
		e.Streets = authoritative.NewStreetNameIndex(authoritative.Names(feats), dict)
		zap.L().Info("authoritative dataset loaded",
			zap.String("path", cfg.Dataset.Path),
			zap.Int("features", e.Index.Len()),
			zap.Int("streets", e.Index.StreetCount()),
		)
	} else {
		zap.L().Warn("no authoritative dataset configured, provider-only resolution")
		e.Streets = authoritative.NewStreetNameIndex(nil, dict)
	}

	gov := providers.NewGovmap(cfg.Govmap.BaseURL,
		providers.WithGovmapTimeout(cfg.GovmapTimeout()))
	osm := providers.NewNominatim(cfg.Nominatim.BaseURL, cfg.Nominatim.UserAgent,
		providers.WithNominatimTimeout(cfg.NominatimTimeout()),
		providers.WithNominatimViewbox(cfg.Boundary))

	var opts []pipeline.Option
	if cfg.Store.Enabled {
		cache, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return nil, eris.Wrap(err, "init: open result cache")
		}
		if err := cache.Migrate(ctx); err != nil {
			cache.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "init: migrate result cache")
		}
		e.Cache = cache
		opts = append(opts, pipeline.WithCache(cache))
	}

	if cfg.Telemetry.Enabled {
		e.Emitter = telemetry.NewBuffered(telemetry.Log{}, cfg.Telemetry.Buffer)
		opts = append(opts, pipeline.WithEmitter(e.Emitter))
	}

	classifier := classify.New(cfg.Policy, cfg.Boundary)
	e.Pipeline = pipeline.New(cfg.Pipeline, dict, e.Index, gov, osm, cfg.Ensemble(), classifier, opts...)

	return e, nil
}

func (e *env) Close() {
	e.Emitter.Close()
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("closing result cache", zap.Error(err))
		}
	}
}

func loadDictionary() (*normalize.Dictionary, error) {
	dict := normalize.DefaultDictionary()
	if cfg.City.Dictionary != "" {
		var err error
		dict, err = normalize.LoadDictionary(cfg.City.Dictionary)
		if err != nil {
			return nil, eris.Wrap(err, "init: load dictionary")
		}
	}
	// The configured city name becomes the primary spelling used in
	// provider queries.
	if name := cfg.City.Name; name != "" && dict.CityName() != name {
		dict.City = append([]string{name}, dict.City...)
	}
	return dict, nil
}
