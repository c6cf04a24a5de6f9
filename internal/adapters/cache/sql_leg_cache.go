package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"

	"go.uber.org/zap"
)

// SQLLegCache is a postgres-backed cache for origin->destination leg results.
// Keys are expected to be consistent (see LegKey) by the caller.
type SQLLegCache struct {
	DB  *sql.DB
	TTL time.Duration

	log *zap.Logger
	now func() time.Time
}

func NewSQLLegCache(db *sql.DB, ttl time.Duration, log *zap.Logger) *SQLLegCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLLegCache{DB: db, TTL: ttl, log: log, now: time.Now}
}

func (s *SQLLegCache) Get(ctx context.Context, origin, destination string) (_ domain.LegResult, _ bool, err error) {
	defer obs.Time(ctx, s.log, "leg.cache.postgres.get")(&err)

	if s.DB == nil {
		return domain.LegResult{}, false, errors.New("leg cache: db is nil")
	}
	if origin == "" || destination == "" {
		return domain.LegResult{}, false, errors.New("get leg cache: origin and destination must not be empty")
	}

	var leg domain.LegResult
	err = s.DB.QueryRowContext(ctx, `
	SELECT distance_km, duration_min
    FROM leg_cache
    WHERE origin = $1
        AND destination = $2
        AND ($3::timestamptz IS NULL OR cached_at > $3);
	`, origin, destination, cutoff(s.now, s.TTL)).Scan(&leg.DistanceKm, &leg.DurationMin)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LegResult{}, false, nil
	}
	if err != nil {
		return domain.LegResult{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}
	return leg, true, nil
}

func (s *SQLLegCache) Put(ctx context.Context, origin, destination string, leg domain.LegResult) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}
	if origin == "" || destination == "" {
		return errors.New("insert leg cache: origin and destination must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO leg_cache (origin, destination, distance_km, duration_min, cached_at)
    VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		duration_min = EXCLUDED.duration_min,
		cached_at = EXCLUDED.cached_at;
	`, origin, destination, leg.DistanceKm, leg.DurationMin, s.now().UTC())
	if err != nil {
		return fmt.Errorf("insert leg cache %s -> %s: %w", origin, destination, err)
	}
	return nil
}
