package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisGeocodePrefix = "geocode:"

// RedisGeocodeCache stores coordinates as JSON strings with a TTL so several
// service instances share lookups.
type RedisGeocodeCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisGeocodeCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisGeocodeCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisGeocodeCache{rdb: rdb, ttl: ttl, log: log}
}

func (r *RedisGeocodeCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, r.log, "geocode.cache.redis.get_many")(&err)

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	redisKeys := make([]string, len(uniq))
	for i, k := range uniq {
		redisKeys[i] = redisGeocodePrefix + k
	}

	vals, err := r.rdb.MGet(ctx, redisKeys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get redis geocode cache: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c domain.Coordinates
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			r.log.Warn("dropping malformed geocode cache entry", zap.String("key", uniq[i]), zap.Error(err))
			continue
		}
		out[uniq[i]] = c
	}
	return out, nil
}

func (r *RedisGeocodeCache) PutMany(ctx context.Context, entries map[string]domain.Coordinates) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for k, c := range entries {
			b, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal %q: %w", k, err)
			}
			p.Set(ctx, redisGeocodePrefix+k, b, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put redis geocode cache: %w", err)
	}
	return nil
}
