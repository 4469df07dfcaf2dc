// Package config loads application configuration from file and
// environment, and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/muni-gis/geocode-cli/internal/authoritative"
	"github.com/muni-gis/geocode-cli/internal/classify"
	"github.com/muni-gis/geocode-cli/internal/ensemble"
	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/pipeline"
	"github.com/muni-gis/geocode-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	City       CityConfig       `yaml:"city" mapstructure:"city"`
	Boundary   geodist.BBox     `yaml:"boundary" mapstructure:"boundary"`
	Dataset    DatasetConfig    `yaml:"dataset" mapstructure:"dataset"`
	Govmap     GovmapConfig     `yaml:"govmap" mapstructure:"govmap"`
	Nominatim  NominatimConfig  `yaml:"nominatim" mapstructure:"nominatim"`
	Confidence ConfidenceConfig `yaml:"confidence" mapstructure:"confidence"`
	Policy     classify.Policy  `yaml:"policy" mapstructure:"policy"`
	Pipeline   pipeline.Config  `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" mapstructure:"telemetry"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CityConfig names the municipality and an optional dictionary override
// file.
type CityConfig struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Dictionary string `yaml:"dictionary" mapstructure:"dictionary"`
}

// DatasetConfig points at the authoritative address dataset.
type DatasetConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	StreetProperty string `yaml:"street_property" mapstructure:"street_property"`
	NumberProperty string `yaml:"number_property" mapstructure:"number_property"`
}

// Authoritative converts to the loader's property mapping.
func (d DatasetConfig) Authoritative() authoritative.DatasetConfig {
	return authoritative.DatasetConfig{
		StreetProperty: d.StreetProperty,
		NumberProperty: d.NumberProperty,
	}
}

// GovmapConfig configures the government provider adapter.
type GovmapConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NominatimConfig configures the open-data provider adapter.
type NominatimConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ConfidenceConfig holds the per-source trust tiers.
type ConfidenceConfig struct {
	Govmap               float64 `yaml:"govmap" mapstructure:"govmap"`
	NominatimInBounds    float64 `yaml:"nominatim_in_bounds" mapstructure:"nominatim_in_bounds"`
	NominatimOutOfBounds float64 `yaml:"nominatim_out_of_bounds" mapstructure:"nominatim_out_of_bounds"`
}

// StoreConfig configures the persistent result cache.
type StoreConfig struct {
	Enabled     bool              `yaml:"enabled" mapstructure:"enabled"`
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// TelemetryConfig configures the event sink.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Buffer  int  `yaml:"buffer" mapstructure:"buffer"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Ensemble assembles the orchestrator config from the boundary and trust
// tiers.
func (c *Config) Ensemble() ensemble.Config {
	return ensemble.Config{
		Boundary:             c.Boundary,
		GovmapConfidence:     c.Confidence.Govmap,
		NominatimInBounds:    c.Confidence.NominatimInBounds,
		NominatimOutOfBounds: c.Confidence.NominatimOutOfBounds,
	}
}

// GovmapTimeout returns the configured per-call timeout.
func (c *Config) GovmapTimeout() time.Duration {
	return time.Duration(c.Govmap.TimeoutSecs) * time.Second
}

// NominatimTimeout returns the configured per-call timeout.
func (c *Config) NominatimTimeout() time.Duration {
	return time.Duration(c.Nominatim.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("city.name", "ירושלים")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	// Jerusalem municipal bounding box
	v.SetDefault("boundary.min_lat", 31.70)
	v.SetDefault("boundary.min_lon", 35.10)
	v.SetDefault("boundary.max_lat", 31.88)
	v.SetDefault("boundary.max_lon", 35.27)

	v.SetDefault("govmap.base_url", "https://es.govmap.gov.il")
	v.SetDefault("govmap.timeout_secs", 5)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "geocode-cli/1.0")
	v.SetDefault("nominatim.timeout_secs", 5)

	ecfg := ensemble.DefaultConfig()
	v.SetDefault("confidence.govmap", ecfg.GovmapConfidence)
	v.SetDefault("confidence.nominatim_in_bounds", ecfg.NominatimInBounds)
	v.SetDefault("confidence.nominatim_out_of_bounds", ecfg.NominatimOutOfBounds)

	pcfg := pipeline.DefaultConfig()
	v.SetDefault("pipeline.workers", pcfg.Workers)
	v.SetDefault("pipeline.provider_delay", pcfg.ProviderDelay)
	v.SetDefault("pipeline.cache_ttl", pcfg.CacheTTL)
	v.SetDefault("pipeline.negative_ttl", pcfg.NegativeTTL)

	policy := classify.DefaultPolicy()
	v.SetDefault("policy.authoritative_confirm", policy.AuthoritativeConfirm)
	v.SetDefault("policy.authoritative_review", policy.AuthoritativeReview)
	v.SetDefault("policy.government_confirm", policy.GovernmentConfirm)
	v.SetDefault("policy.government_review", policy.GovernmentReview)
	v.SetDefault("policy.other_confirm", policy.OtherConfirm)
	v.SetDefault("policy.other_review", policy.OtherReview)
	v.SetDefault("policy.force_confirm_authoritative", policy.ForceConfirmAuthoritative)
	v.SetDefault("policy.force_confirm_government", policy.ForceConfirmGovernment)
	v.SetDefault("policy.max_distance_open_data", policy.MaxDistanceOpenData)
	v.SetDefault("policy.max_distance_trusted", policy.MaxDistanceTrusted)
	v.SetDefault("policy.max_distance_landmark", policy.MaxDistanceLandmark)
	v.SetDefault("policy.upgrade_distance_street", policy.UpgradeDistanceStreet)
	v.SetDefault("policy.upgrade_distance_landmark", policy.UpgradeDistanceLandmark)
	v.SetDefault("policy.trusted_review_promotion", policy.TrustedReviewPromotion)
	v.SetDefault("policy.open_data_poi_promotion", policy.OpenDataPoiPromotion)
	v.SetDefault("policy.updated_distance", policy.UpdatedDistance)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "geocode-cache.db")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.buffer", 256)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
