package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"stop-route-service/internal/domain"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port   string
	AppEnv string

	GeoapifyKey        string
	GeocodeCountryCode string
	GeocodeCountryName string
	NominatimBaseURL   string

	RouterProvider string
	LegProvider    string
	OSRMBaseURL    string
	OSRMProfile    string
	ORSBaseURL     string
	ORSKey         string
	ORSProfile     string
	ORSCarProfile  string

	GeocodeCache    string
	GeocodeCacheTTL time.Duration
	LegCache        string
	PlacesCacheTTL  time.Duration
	RedisAddr       string
	DatabaseURL     string
	SQLitePath      string

	ImportDelay          time.Duration
	TwoOpt               bool
	StraightLineFallback bool

	KafkaBrokers []string
	KafkaTopic   string

	StartingPoint domain.StartingPoint
	SeedPath      string
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads every key. Malformed durations, booleans and floats are errors.
func Load() (Config, error) {
	var (
		cfg Config
		err error
	)

	def := domain.DefaultStartingPoint()

	cfg.Port = Get("PORT", "8080")
	cfg.AppEnv = Get("APP_ENV", "development")

	cfg.GeoapifyKey = strings.TrimSpace(os.Getenv("GEOAPIFY_API_KEY"))
	cfg.GeocodeCountryCode = Get("GEOCODE_COUNTRY_CODE", "rs")
	cfg.GeocodeCountryName = Get("GEOCODE_COUNTRY_NAME", "Serbia")
	cfg.NominatimBaseURL = Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")

	cfg.RouterProvider = strings.ToLower(Get("ROUTER_PROVIDER", "osrm"))
	cfg.LegProvider = strings.ToLower(Get("LEG_PROVIDER", "geoapify"))
	cfg.OSRMBaseURL = Get("OSRM_BASE_URL", "https://router.project-osrm.org")
	cfg.OSRMProfile = Get("OSRM_PROFILE", "driving")
	cfg.ORSBaseURL = Get("ORS_BASE_URL", "https://api.openrouteservice.org")
	cfg.ORSKey = strings.TrimSpace(os.Getenv("ORS_KEY"))
	cfg.ORSProfile = Get("ORS_PROFILE", "driving-hgv")
	cfg.ORSCarProfile = Get("ORS_CAR_PROFILE", "driving-car")

	cfg.GeocodeCache = strings.ToLower(Get("GEOCODE_CACHE", "memory"))
	cfg.LegCache = strings.ToLower(Get("LEG_CACHE", "none"))
	cfg.RedisAddr = Get("REDIS_ADDR", "localhost:6379")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = Get("SQLITE_PATH", "data/cache.db")

	if cfg.GeocodeCacheTTL, err = duration("GEOCODE_CACHE_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PlacesCacheTTL, err = duration("PLACES_CACHE_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ImportDelay, err = duration("IMPORT_DELAY", 300*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.TwoOpt, err = boolean("OPTIMIZER_TWO_OPT", false); err != nil {
		return Config{}, err
	}
	if cfg.StraightLineFallback, err = boolean("LEG_STRAIGHT_LINE_FALLBACK", false); err != nil {
		return Config{}, err
	}

	cfg.KafkaBrokers = list("KAFKA_BROKERS")
	cfg.KafkaTopic = Get("KAFKA_TOPIC", "route.events")

	sp := def
	sp.Label = Get("STARTING_POINT_LABEL", def.Label)
	sp.Town = Get("STARTING_POINT_TOWN", def.Town)
	sp.Address = Get("STARTING_POINT_ADDRESS", def.Address)
	if sp.Coordinates.Lon, err = float("STARTING_POINT_LON", def.Coordinates.Lon); err != nil {
		return Config{}, err
	}
	if sp.Coordinates.Lat, err = float("STARTING_POINT_LAT", def.Coordinates.Lat); err != nil {
		return Config{}, err
	}
	cfg.StartingPoint = sp
	cfg.SeedPath = os.Getenv("SEED_PATH")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.RouterProvider {
	case "osrm", "ors":
	default:
		return fmt.Errorf("config: ROUTER_PROVIDER %q: want osrm or ors", c.RouterProvider)
	}
	switch c.LegProvider {
	case "geoapify", "osrm", "ors", "haversine":
	default:
		return fmt.Errorf("config: LEG_PROVIDER %q: want geoapify, osrm, ors or haversine", c.LegProvider)
	}
	switch c.GeocodeCache {
	case "none", "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: GEOCODE_CACHE %q: want none, memory, redis, postgres or sqlite", c.GeocodeCache)
	}
	switch c.LegCache {
	case "none", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: LEG_CACHE %q: want none, postgres or sqlite", c.LegCache)
	}
	if (c.GeocodeCache == "postgres" || c.LegCache == "postgres") && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("config: DATABASE_URL is required for the postgres cache")
	}
	if c.StartingPoint.Coordinates.IsZero() {
		return fmt.Errorf("config: starting point coordinates must not be (0,0)")
	}
	return nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: parse %s: negative duration %s", key, d)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return b, nil
}

func float(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return f, nil
}

func list(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
