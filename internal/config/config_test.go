package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ירושלים", cfg.City.Name)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.InDelta(t, 31.70, cfg.Boundary.MinLat, 1e-9)
	assert.InDelta(t, 35.27, cfg.Boundary.MaxLon, 1e-9)
	assert.False(t, cfg.Boundary.Zero())

	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 200*time.Millisecond, cfg.Pipeline.ProviderDelay)

	assert.InDelta(t, 0.8, cfg.Policy.AuthoritativeConfirm, 1e-9)
	assert.InDelta(t, 500.0, cfg.Policy.MaxDistanceOpenData, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.GovmapTimeout())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GEOCODE_PIPELINE_WORKERS", "9")
	t.Setenv("GEOCODE_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Pipeline.Workers)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestEnsemble_Composition(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	e := cfg.Ensemble()
	assert.Equal(t, cfg.Boundary, e.Boundary)
	assert.InDelta(t, 0.75, e.GovmapConfidence, 1e-9)
	assert.InDelta(t, 0.6, e.NominatimInBounds, 1e-9)
	assert.InDelta(t, 0.3, e.NominatimOutOfBounds, 1e-9)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
