package main

import (
	"fmt"
	"os"
	"strings"

	"stop-route-service/internal/adapters/repositories"
	"stop-route-service/internal/config"
	"stop-route-service/internal/platform/db"
	"stop-route-service/internal/platform/obs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool creates the cache tables ahead of time. With DATABASE_URL set it
// prepares postgres; otherwise it prepares the sqlite file at SQLITE_PATH.
// A SEED_PATH, when set, is parsed to catch malformed seed files early.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	log, err := obs.NewLogger(config.Get("APP_ENV", "development"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL")); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer conn.Close()

		log.Info("initializing postgres schema")
		if err := repositories.InitSchema(conn, repositories.Postgres); err != nil {
			log.Fatal("schema initialization failed", zap.Error(err))
		}
	} else {
		path := config.Get("SQLITE_PATH", "data/cache.db")
		conn, err := db.OpenSQLite(path)
		if err != nil {
			log.Fatal("failed to open sqlite", zap.Error(err))
		}
		defer conn.Close()

		log.Info("initializing sqlite schema", zap.String("path", path))
		if err := repositories.InitSchema(conn, repositories.SQLite); err != nil {
			log.Fatal("schema initialization failed", zap.Error(err))
		}
	}
	log.Info("schema ready")

	if seedPath := os.Getenv("SEED_PATH"); seedPath != "" {
		rows, err := repositories.LoadSeedRows(seedPath)
		if err != nil {
			log.Fatal("seed file is invalid", zap.Error(err))
		}
		complete := 0
		for _, r := range rows {
			if r.Complete() {
				complete++
			}
		}
		log.Info("seed file ok", zap.Int("rows", len(rows)), zap.Int("complete", complete))
	}
}
