package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/location"
)

// LocationCache implements ports.LocationCache on the location_cache table.
// Keys are the same normalised form the file backend uses.
type LocationCache struct {
	db         *DB
	expiryDays int
	now        func() time.Time
}

// NewLocationCache creates a new LocationCache.
func NewLocationCache(db *DB, expiryDays int) *LocationCache {
	return &LocationCache{db: db, expiryDays: expiryDays, now: time.Now}
}

func (c *LocationCache) cutoff() time.Time {
	return c.now().Add(-time.Duration(c.expiryDays) * 24 * time.Hour)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %v", domain.ErrCacheUnavailable, op, err)
}

// Get returns the unexpired row for raw.
func (c *LocationCache) Get(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	var rec domain.LocationRecord
	err := c.db.Pool.QueryRow(ctx, `
		SELECT latitude, longitude, name, country, timezone, cached_at
		FROM location_cache
		WHERE key = $1 AND cached_at >= $2
	`, location.CacheKey(raw), c.cutoff()).Scan(
		&rec.Latitude, &rec.Longitude, &rec.Name, &rec.Country, &rec.Timezone, &rec.CachedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return &rec, nil
}

// Set upserts rec under raw with a fresh timestamp.
func (c *LocationCache) Set(ctx context.Context, raw string, rec domain.LocationRecord) error {
	tz := rec.Timezone
	if tz == "" {
		tz = domain.DefaultTimezone
	}
	_, err := c.db.Pool.Exec(ctx, `
		INSERT INTO location_cache (key, latitude, longitude, name, country, timezone, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			timezone = EXCLUDED.timezone,
			cached_at = EXCLUDED.cached_at
	`, location.CacheKey(raw), rec.Latitude, rec.Longitude, rec.Name, rec.Country, tz, c.now())
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Invalidate deletes the row for raw.
func (c *LocationCache) Invalidate(ctx context.Context, raw string) (bool, error) {
	tag, err := c.db.Pool.Exec(ctx, `DELETE FROM location_cache WHERE key = $1`, location.CacheKey(raw))
	if err != nil {
		return false, unavailable("invalidate", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Clear deletes every row.
func (c *LocationCache) Clear(ctx context.Context) (int, error) {
	tag, err := c.db.Pool.Exec(ctx, `DELETE FROM location_cache`)
	if err != nil {
		return 0, unavailable("clear", err)
	}
	return int(tag.RowsAffected()), nil
}

// CleanExpired deletes rows older than the expiry window.
func (c *LocationCache) CleanExpired(ctx context.Context) (int, error) {
	tag, err := c.db.Pool.Exec(ctx, `DELETE FROM location_cache WHERE cached_at < $1`, c.cutoff())
	if err != nil {
		return 0, unavailable("clean", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats counts rows and expired rows.
func (c *LocationCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{
		Backend:    "postgres",
		ExpiryDays: c.expiryDays,
		Location:   "location_cache",
	}
	err := c.db.Pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE cached_at < $1)
		FROM location_cache
	`, c.cutoff()).Scan(&stats.Total, &stats.Expired)
	if err != nil {
		return domain.CacheStats{}, unavailable("stats", err)
	}
	stats.Valid = stats.Total - stats.Expired
	return stats, nil
}
