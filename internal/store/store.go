// Package store persists resolved geocoding results across batch runs.
// Both drivers implement the same Cache interface; sqlite is the default
// for single-machine use, postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/muni-gis/geocode-cli/internal/model"
)

// Entry is one cached resolution. A nil Result is a negative entry: the
// address was looked up before and nothing was found, so providers are
// not asked again until the entry expires.
type Entry struct {
	Key       string               `json:"key"`
	Result    *model.GeocodeResult `json:"result,omitempty"`
	CachedAt  time.Time            `json:"cached_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Negative reports whether the entry records a miss.
func (e *Entry) Negative() bool { return e.Result == nil }

// Cache is the persistence interface for geocode results, keyed by
// canonical address string.
type Cache interface {
	// Get returns the live entry for key, or nil on a miss or an expired
	// entry. An expired entry is indistinguishable from absence.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put upserts the entry for key. A nil result stores a negative entry.
	Put(ctx context.Context, key string, result *model.GeocodeResult, ttl time.Duration) error
	// DeleteExpired removes dead entries and returns how many were dropped.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open dispatches on the driver name. Supported drivers: "sqlite" and
// "postgres".
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Cache, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
