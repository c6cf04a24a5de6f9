package cache

import (
	"strconv"
	"strings"

	"stop-route-service/internal/domain"
)

// NormalizeKey collapses whitespace and lowercases so equivalent queries
// share a cache entry.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// LegKey renders a coordinate rounded to 6 decimals (about 0.1 m).
func LegKey(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}

// uniqueKeys trims, drops empties and removes duplicates, keeping order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
