package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stop-route-service/internal/domain"
)

// SQLite backed cache for origin->destination leg results.
// Keys are expected to be consistent (see LegKey) by the caller.
type SqliteLegCache struct {
	DB  *sql.DB
	TTL time.Duration

	now func() time.Time
}

func NewSqliteLegCache(db *sql.DB, ttl time.Duration) *SqliteLegCache {
	return &SqliteLegCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SqliteLegCache) Get(ctx context.Context, origin, destination string) (domain.LegResult, bool, error) {
	if s.DB == nil {
		return domain.LegResult{}, false, errors.New("leg cache: db is nil")
	}
	if origin == "" || destination == "" {
		return domain.LegResult{}, false, errors.New("get leg cache: origin and destination must not be empty")
	}

	var leg domain.LegResult
	err := s.DB.QueryRowContext(ctx, `
	SELECT distance_km, duration_min
    FROM leg_cache
    WHERE origin = ?
        AND destination = ?
        AND cached_at > ?;
	`, origin, destination, unixCutoff(s.now, s.TTL)).Scan(&leg.DistanceKm, &leg.DurationMin)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LegResult{}, false, nil
	}
	if err != nil {
		return domain.LegResult{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}
	return leg, true, nil
}

func (s *SqliteLegCache) Put(ctx context.Context, origin, destination string, leg domain.LegResult) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}
	if origin == "" || destination == "" {
		return errors.New("insert leg cache: origin and destination must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO leg_cache (
        origin,
        destination,
        distance_km,
        duration_min,
        cached_at
    )
    VALUES (?, ?, ?, ?, ?)
	`, origin, destination, leg.DistanceKm, leg.DurationMin, s.now().Unix())
	if err != nil {
		return fmt.Errorf("insert leg cache %s -> %s: %w", origin, destination, err)
	}
	return nil
}
