package distance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteCache stores resolved distances in SQLite, keyed by the formatted
// coordinates of both ends, and asks Provider on a miss.
type SQLiteCache struct {
	DB       *sql.DB
	Provider Provider
}

// OpenSQLiteCache opens (or creates) the cache database at path.
func OpenSQLiteCache(path string, provider Provider) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify sqlite connection to %q: %w", path, err)
	}
	c := &SQLiteCache{DB: db, Provider: provider}
	if err := c.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitSchema creates the cache table.
func (c *SQLiteCache) InitSchema(ctx context.Context) error {
	_, err := c.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin      TEXT NOT NULL,
		destination TEXT NOT NULL,
		km          REAL NOT NULL,
		source      TEXT NOT NULL,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (origin, destination)
	);
	`)
	if err != nil {
		return fmt.Errorf("init distance cache schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.DB.Close()
}

// Get returns the cached distance between two coordinate keys.
func (c *SQLiteCache) Get(ctx context.Context, origin, destination string) (Result, bool, error) {
	var res Result
	err := c.DB.QueryRowContext(ctx, `
	SELECT km, source
	FROM distance_cache
	WHERE origin = ? AND destination = ?;
	`, origin, destination).Scan(&res.Km, &res.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("get distance cache: %w", err)
	}
	return res, true, nil
}

// Put stores a distance between two coordinate keys.
func (c *SQLiteCache) Put(ctx context.Context, origin, destination string, res Result) error {
	_, err := c.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO distance_cache (origin, destination, km, source)
	VALUES (?, ?, ?, ?);
	`, origin, destination, res.Km, res.Source)
	if err != nil {
		return fmt.Errorf("insert distance cache: %w", err)
	}
	return nil
}

// Distance implements Provider. Cache failures are logged and do not stop
// the lookup. Only provider results are stored, never great-circle estimates.
func (c *SQLiteCache) Distance(ctx context.Context, from, to models.Location) (Result, error) {
	origin, destination := from.Coordinates(), to.Coordinates()

	res, ok, err := c.Get(ctx, origin, destination)
	if err != nil {
		log.WithError(err).Warn("distance cache read failed")
	}
	if ok {
		return res, nil
	}

	res, err = c.Provider.Distance(ctx, from, to)
	if err != nil {
		return Result{}, err
	}
	// Great-circle figures are estimates; keep asking the provider.
	if res.Source == models.SourceHaversine {
		return res, nil
	}
	if err := c.Put(ctx, origin, destination, res); err != nil {
		log.WithError(err).Warn("distance cache write failed")
	}
	return res, nil
}
