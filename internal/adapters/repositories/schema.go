package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"trip-planner-service/internal/platform/db"
)

// InitSchema creates the trip and cache tables. The DDL is shared by SQLite
// and Postgres.
func InitSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		trip_key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		destination_name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);
	`

	createTripDaysQuery := `
	CREATE TABLE IF NOT EXISTS trip_days (
		trip_key TEXT NOT NULL REFERENCES trips(trip_key) ON DELETE CASCADE,
		day_index INTEGER NOT NULL,
		day_date TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		locations TEXT NOT NULL,
		PRIMARY KEY (trip_key, day_index)
	);
	`

	createEventsQuery := `
	CREATE TABLE IF NOT EXISTS events (
		trip_key TEXT NOT NULL REFERENCES trips(trip_key) ON DELETE CASCADE,
		day_index INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		place_id TEXT NOT NULL,
		event_date TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		travel_time_to_next INTEGER,
		PRIMARY KEY (trip_key, day_index, position)
	);
	`

	createTravelTimeCacheQuery := `
	CREATE TABLE IF NOT EXISTS travel_time_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_travel_time_cache_destination_origin
	ON travel_time_cache(destination, origin);
	`

	statements := []string{
		createTripsQuery,
		createTripDaysQuery,
		createEventsQuery,
		createTravelTimeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type TravelTimeSeed struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Minutes     int    `json:"minutes"`
}

// SeedTravelTimesFromJSON preloads the travel time cache, e.g. for demos
// that run without a maps API key. Returns the number of rows written.
func SeedTravelTimesFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed travel times: read %q: %w", jsonPath, err)
	}

	var data []TravelTimeSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed travel times: parse json: %w", err)
	}

	rows := make([]TravelTimeSeed, 0, len(data))
	for i, item := range data {
		origin := strings.TrimSpace(item.Origin)
		dest := strings.TrimSpace(item.Destination)
		if origin == "" || dest == "" {
			return 0, fmt.Errorf("seed travel times: item at index %d: origin and destination cannot be empty", i+1)
		}
		if origin == dest {
			return 0, fmt.Errorf("seed travel times: item at index %d: origin equals destination", i+1)
		}
		if item.Minutes < 0 {
			return 0, fmt.Errorf("seed travel times: item at index %d: negative minutes %d", i+1, item.Minutes)
		}
		rows = append(rows, TravelTimeSeed{Origin: origin, Destination: dest, Minutes: item.Minutes})
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed travel times: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := db.Rebind(dialect, `
	INSERT INTO travel_time_cache (origin, destination, minutes, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET minutes = excluded.minutes,
		updated_at = excluded.updated_at;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed travel times: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Origin, r.Destination, r.Minutes, now); err != nil {
			return 0, fmt.Errorf("seed travel times: insert %q -> %q: %w", r.Origin, r.Destination, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed travel times: commit tx: %w", err)
	}

	return len(rows), nil
}
