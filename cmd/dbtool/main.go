package main

import (
	"context"
	"database/sql"
	"fmt"
	"trip-planner-service/internal/adapters/repositories"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/db"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// dbtool creates the schema and preloads the travel time cache.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}

	var (
		conn    *sql.DB
		dialect db.Dialect
		err     error
	)
	if url := config.Get("DATABASE_URL", ""); url != "" {
		conn, err = db.OpenPostgres(url)
		dialect = db.Postgres
	} else {
		conn, err = db.OpenSqlite(config.Get("DB_PATH", "data/app.db"))
		dialect = db.Sqlite
	}
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/travel_times.json")
	if err := initAndSeed(context.Background(), conn, dialect, seedPath); err != nil {
		log.WithError(err).Fatal("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log.WithField("dialect", dialect.String()).Info("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info("Schema ready.")

	log.WithField("path", seedPath).Info("Seeding travel times...")
	n, err := repositories.SeedTravelTimesFromJSON(ctx, conn, dialect, seedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.WithField("rows", n).Info("Seeding complete.")

	return nil
}
