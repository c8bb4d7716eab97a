package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trip-planner-service/internal/adapters/cache"
	"trip-planner-service/internal/adapters/places"
	"trip-planner-service/internal/adapters/repositories"
	"trip-planner-service/internal/api"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/ports"
	"trip-planner-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, Google Maps) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}
	setupLogging()

	solverCfg, err := config.LoadSolver()
	if err != nil {
		log.WithError(err).Fatal("invalid solver configuration")
	}

	conn, dialect, err := openDB()
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer conn.Close()

	ctx := context.Background()
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.WithError(err).Fatal("init schema")
	}

	placesProvider, travel, err := newProviders()
	if err != nil {
		log.WithError(err).Fatal("places provider")
	}

	// Travel times are memoized in-process, then in Redis when configured,
	// then in the database.
	checks := map[string]func(context.Context) error{"database": conn.PingContext}

	tiers := []ports.TravelTimeCache{cache.NewMemoryTravelTimeCache()}
	if rdb := newRedis(); rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		tiers = append(tiers, cache.NewRedisTravelTimeCache(rdb, config.Get("REDIS_PREFIX", "travel"), config.GetDuration("REDIS_TTL", 24*time.Hour)))
	}
	tiers = append(tiers, cache.NewSQLTravelTimeCache(conn, dialect, config.GetDuration("TRAVEL_CACHE_MAX_AGE", 7*24*time.Hour)))
	cachedTravel := cache.NewCachedTravelTimeProvider(travel, cache.NewTieredTravelTimeCache(tiers...))

	repo := repositories.NewSQLTripRepository(conn, dialect)
	routes := services.NewRoutePlanner(placesProvider, cachedTravel, solverCfg)
	itineraries := services.NewItineraryPlanner(placesProvider, routes, repo)

	router := api.NewRouter(api.RouterConfig{
		Planner:         itineraries,
		Solver:          routes,
		DefaultDepartAt: config.Get("DEFAULT_DEPART_AT", "09:00"),
		RequestTimeout:  config.GetDuration("REQUEST_TIMEOUT", 90*time.Second),
		HealthChecks:    checks,
	})

	port := config.Get("PORT", "8080")

	// Timeouts are tuned for cold-cache planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{"addr": srv.Addr, "db": dialect.String()}).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("Server stopped")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if config.Get("LOG_FORMAT", "text") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		log.WithError(err).Warn("invalid LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// openDB prefers Postgres when DATABASE_URL is set and falls back to a local
// SQLite file.
func openDB() (*sql.DB, db.Dialect, error) {
	if url := config.Get("DATABASE_URL", ""); url != "" {
		conn, err := db.OpenPostgres(url)
		return conn, db.Postgres, err
	}

	conn, err := db.OpenSqlite(config.Get("DB_PATH", "data/app.db"))
	return conn, db.Sqlite, err
}

// newProviders returns the places backend and the travel time source. Without
// an API key the server runs against a JSON fixture.
func newProviders() (ports.PlacesProvider, ports.TravelTimeProvider, error) {
	if key := config.Get("GOOGLE_MAPS_API_KEY", ""); key != "" {
		g, err := places.NewGoogleMapsProvider(places.GoogleMapsOptions{
			APIKey:     key,
			TravelMode: config.Get("GOOGLE_TRAVEL_MODE", "driving"),
			RateLimit:  config.GetInt("GOOGLE_RATE_LIMIT", 10),
		})
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	}

	fixture := config.Get("PLACES_FIXTURE", "data/fixtures/places.json")
	m, err := places.LoadMockProvider(fixture)
	if err != nil {
		return nil, nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is unset and the fixture failed: %w", err)
	}
	log.WithField("fixture", fixture).Warn("using fixture places provider")
	return m, places.MockMatrixProvider{MockProvider: m}, nil
}

func newRedis() *redis.Client {
	addr := config.Get("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Get("REDIS_PASSWORD", ""),
		DB:       config.GetInt("REDIS_DB", 0),
	})
}
