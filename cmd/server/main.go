package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stop-route-service/internal/adapters/cache"
	"stop-route-service/internal/adapters/distance"
	"stop-route-service/internal/adapters/events"
	"stop-route-service/internal/adapters/geoapify"
	"stop-route-service/internal/adapters/nominatim"
	"stop-route-service/internal/adapters/repositories"
	"stop-route-service/internal/adapters/tabular"
	"stop-route-service/internal/api"
	"stop-route-service/internal/config"
	"stop-route-service/internal/platform/db"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"
	"stop-route-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (providers, caches, events) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := obs.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	pg, lite, err := openDatabases(cfg)
	if err != nil {
		log.Fatal("failed to open cache database", zap.Error(err))
	}
	if pg != nil {
		defer pg.Close()
	}
	if lite != nil {
		defer lite.Close()
	}

	var (
		geocoder ports.Geocoder
		places   ports.PlacesProvider
		geo      *geoapify.Client
	)
	if cfg.GeoapifyKey != "" {
		geo, err = geoapify.New(geoapify.Options{
			APIKey:      cfg.GeoapifyKey,
			CountryCode: cfg.GeocodeCountryCode,
			CountryName: cfg.GeocodeCountryName,
		}, log)
		if err != nil {
			log.Fatal("failed to create geoapify client", zap.Error(err))
		}
		geocoder = geo
		places = cache.NewCachedPlaces(geo, 0, cfg.PlacesCacheTTL)
	} else {
		log.Warn("GEOAPIFY_API_KEY is not set; geocoding and autocomplete are disabled")
	}

	geocodeCache, closeCache, err := newGeocodeCache(cfg, pg, lite, log)
	if err != nil {
		log.Fatal("failed to create geocode cache", zap.Error(err))
	}
	defer closeCache()
	if geocoder != nil && geocodeCache != nil {
		geocoder = cache.NewCachedGeocoder(geocoder, geocodeCache, log)
	}

	legRouter, err := newLegRouter(cfg, geo, log)
	if err != nil {
		log.Fatal("failed to create leg router", zap.Error(err))
	}
	switch cfg.LegCache {
	case "postgres":
		legRouter = cache.NewCachedLegRouter(legRouter, cache.NewSQLLegCache(pg, cfg.GeocodeCacheTTL, log), log)
	case "sqlite":
		legRouter = cache.NewCachedLegRouter(legRouter, cache.NewSqliteLegCache(lite, cfg.GeocodeCacheTTL), log)
	}

	routes, err := newRouteProvider(cfg, log)
	if err != nil {
		log.Fatal("failed to create route provider", zap.Error(err))
	}

	var publisher ports.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer func() { _ = kp.Close() }()
		publisher = kp
		log.Info("publishing route events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	aggregator := services.NewAggregator(legRouter, log)
	aggregator.StraightLineFallback = cfg.StraightLineFallback

	planner := services.NewPlanner(
		services.NewStopStore(cfg.StartingPoint),
		services.NewResolver(geocoder, places, cfg.GeocodeCountryName, log),
		aggregator,
		routes,
		publisher,
		log,
		services.PlannerOptions{
			ImportDelay: cfg.ImportDelay,
			TwoOpt:      cfg.TwoOpt,
		},
	)

	if cfg.SeedPath != "" {
		rows, err := repositories.LoadSeedRows(cfg.SeedPath)
		if err != nil {
			log.Fatal("failed to load seed stops", zap.Error(err))
		}
		if err := planner.StartImport(context.Background(), rows, services.ImportOptions{}); err != nil {
			log.Fatal("failed to start seed import", zap.Error(err))
		}
		log.Info("seed import started", zap.String("path", cfg.SeedPath), zap.Int("rows", len(rows)))
	}

	router := api.NewRouter(api.Deps{
		Planner: planner,
		Places:  places,
		Search:  nominatim.NewTownSearcher(cfg.NominatimBaseURL, cfg.GeocodeCountryCode, log),
		Parser:  tabular.NewParser(),
		Log:     log,
	})

	// Timeouts are tuned for recompute over long stop lists (one routing call per leg).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	if planner.CancelImport() {
		log.Info("cancelled running import")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// openDatabases connects only the databases the configured caches need and
// makes sure their tables exist.
func openDatabases(cfg config.Config) (pg, lite *sql.DB, err error) {
	uses := func(kind string) bool { return cfg.GeocodeCache == kind || cfg.LegCache == kind }

	if uses("postgres") {
		if pg, err = db.Open(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		if err = repositories.InitSchema(pg, repositories.Postgres); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
	}

	if uses("sqlite") {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir %q: %w", dir, err)
			}
		}
		if lite, err = db.OpenSQLite(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
		if err = repositories.InitSchema(lite, repositories.SQLite); err != nil {
			_ = lite.Close()
			return nil, nil, err
		}
	}

	return pg, lite, nil
}

// newGeocodeCache returns nil for GEOCODE_CACHE=none. The returned func
// releases cache connections.
func newGeocodeCache(cfg config.Config, pg, lite *sql.DB, log *zap.Logger) (ports.GeocodeCache, func(), error) {
	noop := func() {}

	switch cfg.GeocodeCache {
	case "memory":
		return cache.NewMemoryGeocodeCache(0, cfg.GeocodeCacheTTL), noop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisGeocodeCache(rdb, cfg.GeocodeCacheTTL, log), func() { _ = rdb.Close() }, nil
	case "postgres":
		return cache.NewSQLGeocodeCache(pg, cfg.GeocodeCacheTTL, log), noop, nil
	case "sqlite":
		return cache.NewSqliteGeocodeCache(lite, cfg.GeocodeCacheTTL, log), noop, nil
	default:
		return nil, noop, nil
	}
}

func newLegRouter(cfg config.Config, geo *geoapify.Client, log *zap.Logger) (ports.LegRouter, error) {
	switch cfg.LegProvider {
	case "geoapify":
		if geo == nil {
			return nil, errors.New("LEG_PROVIDER=geoapify needs GEOAPIFY_API_KEY")
		}
		return geo, nil
	case "osrm":
		return distance.NewOSRMProvider(cfg.OSRMBaseURL, cfg.OSRMProfile, log), nil
	case "ors":
		return distance.NewORSProvider(cfg.ORSKey, cfg.ORSBaseURL, cfg.ORSCarProfile, log)
	default:
		return distance.NewStraightLineRouter(0), nil
	}
}

func newRouteProvider(cfg config.Config, log *zap.Logger) (ports.RouteProvider, error) {
	if cfg.RouterProvider == "ors" {
		return distance.NewORSProvider(cfg.ORSKey, cfg.ORSBaseURL, cfg.ORSProfile, log)
	}
	return distance.NewOSRMProvider(cfg.OSRMBaseURL, cfg.OSRMProfile, log), nil
}
