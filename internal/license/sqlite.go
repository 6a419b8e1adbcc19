package license

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache stores validations in a SQLite table, one row per key hash.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS license_cache (
	key_hash      TEXT PRIMARY KEY,
	valid         INTEGER NOT NULL,
	tier          TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	expires_at    TEXT NOT NULL DEFAULT '',
	cached_at     DATETIME NOT NULL
);
`

// NewSQLiteCache opens the database at dsn and creates the cache table.
func NewSQLiteCache(ctx context.Context, dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "license: open sqlite")
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "license: sqlite pragma")
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "license: sqlite migrate")
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Load(ctx context.Context, keyHash string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT key_hash, valid, tier, customer_name, expires_at, cached_at
		 FROM license_cache WHERE key_hash = ?`, keyHash)

	var e Entry
	err := row.Scan(&e.KeyHash, &e.Valid, &e.Tier, &e.CustomerName, &e.ExpiresAt, &e.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "license: sqlite load")
	}
	return &e, nil
}

func (c *SQLiteCache) Store(ctx context.Context, e Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO license_cache (key_hash, valid, tier, customer_name, expires_at, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key_hash) DO UPDATE SET
			valid = excluded.valid,
			tier = excluded.tier,
			customer_name = excluded.customer_name,
			expires_at = excluded.expires_at,
			cached_at = excluded.cached_at`,
		e.KeyHash, e.Valid, e.Tier, e.CustomerName, e.ExpiresAt, e.CachedAt.UTC().Truncate(time.Second),
	)
	return eris.Wrap(err, "license: sqlite store")
}
