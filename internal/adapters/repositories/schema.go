package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the SQL flavour of the cache tables.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL,
        cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`,
	`
	CREATE TABLE IF NOT EXISTS leg_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_km DOUBLE PRECISION NOT NULL,
        duration_min DOUBLE PRECISION NOT NULL,
        cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_leg_cache_destination_origin
    ON leg_cache(destination, origin);
	`,
}

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon REAL NOT NULL,
        lat REAL NOT NULL,
        cached_at INTEGER NOT NULL
    );
	`,
	`
	CREATE TABLE IF NOT EXISTS leg_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_km REAL NOT NULL,
        duration_min REAL NOT NULL,
        cached_at INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_leg_cache_destination_origin
    ON leg_cache(destination, origin);
	`,
}

// Create the cache tables for the given dialect.
func InitSchema(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialect {
	case Postgres:
		statements = postgresSchema
	case SQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("init schema: unknown dialect %q", dialect)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
