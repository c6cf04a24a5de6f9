package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stop-route-service/internal/domain"

	"github.com/bluele/gcache"
)

// MemoryGeocodeCache is a process-local LRU with per-entry expiry.
type MemoryGeocodeCache struct {
	c gcache.Cache
}

func NewMemoryGeocodeCache(size int, ttl time.Duration) *MemoryGeocodeCache {
	if size <= 0 {
		size = 10000
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &MemoryGeocodeCache{c: b.Build()}
}

func (m *MemoryGeocodeCache) GetMany(_ context.Context, keys []string) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(keys))
	for _, k := range uniqueKeys(keys) {
		v, err := m.c.Get(k)
		if errors.Is(err, gcache.KeyNotFoundError) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get memory geocode cache %q: %w", k, err)
		}
		if c, ok := v.(domain.Coordinates); ok {
			out[k] = c
		}
	}
	return out, nil
}

func (m *MemoryGeocodeCache) PutMany(_ context.Context, entries map[string]domain.Coordinates) error {
	for k, c := range entries {
		if err := m.c.Set(k, c); err != nil {
			return fmt.Errorf("put memory geocode cache %q: %w", k, err)
		}
	}
	return nil
}
