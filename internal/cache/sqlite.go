// Package cache persists resolved viewports so re-runs skip repeat geocoding
// calls for postal codes already seen.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contacts-cli/internal/model"
)

// ViewportCache stores resolved viewports keyed by (postal code, country).
type ViewportCache struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite viewport cache at path.
func Open(path string) (*ViewportCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS viewport_cache (
	postal_code TEXT NOT NULL,
	country     TEXT NOT NULL,
	lat         REAL NOT NULL,
	lng         REAL NOT NULL,
	radius      REAL NOT NULL,
	cached_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (postal_code, country)
);`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}

	return &ViewportCache{db: db}, nil
}

// Get returns the cached viewport for a postal code, or nil on a miss.
func (c *ViewportCache) Get(ctx context.Context, postalCode, countryCode string) (*model.Viewport, error) {
	var vp model.Viewport
	row := c.db.QueryRowContext(ctx,
		`SELECT lat, lng, radius FROM viewport_cache WHERE postal_code = ? AND country = ?`,
		postalCode, countryCode,
	)
	if err := row.Scan(&vp.Lat, &vp.Lng, &vp.Radius); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "cache: get viewport")
	}
	return &vp, nil
}

// Put stores (or refreshes) a resolved viewport.
func (c *ViewportCache) Put(ctx context.Context, postalCode, countryCode string, vp model.Viewport) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO viewport_cache (postal_code, country, lat, lng, radius, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (postal_code, country) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			radius = excluded.radius,
			cached_at = excluded.cached_at`,
		postalCode, countryCode, vp.Lat, vp.Lng, vp.Radius, time.Now().UTC(),
	)
	return eris.Wrap(err, "cache: put viewport")
}

// Close closes the underlying database.
func (c *ViewportCache) Close() error {
	return c.db.Close()
}
