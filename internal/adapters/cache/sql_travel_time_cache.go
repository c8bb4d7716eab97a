package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/platform/obs"

	"github.com/samber/lo"
)

// SQLTravelTimeCache is a SQL-backed cache for origin->destination travel
// times. The same queries run on SQLite and Postgres; only placeholders
// differ.
type SQLTravelTimeCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	// Entries older than MaxAge are treated as misses. Zero keeps them forever.
	MaxAge time.Duration

	now func() time.Time
}

func NewSQLTravelTimeCache(conn *sql.DB, dialect db.Dialect, maxAge time.Duration) *SQLTravelTimeCache {
	return &SQLTravelTimeCache{DB: conn, Dialect: dialect, MaxAge: maxAge, now: time.Now}
}

// uniqueKeys trims, drops empties and dedups while keeping first-seen order.
func uniqueKeys(keys []string) []string {
	return lo.Uniq(lo.FilterMap(keys, func(k string, _ int) (string, bool) {
		k = strings.TrimSpace(k)
		return k, k != ""
	}))
}

// Fetch cached durations for one origin and multiple destinations.
func (s *SQLTravelTimeCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]int, err error) {
	defer obs.Time(ctx, "traveltime.cache.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("travel time cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("get travel time cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]int{}, nil
	}

	q := `
	SELECT destination, minutes
	FROM travel_time_cache
	WHERE origin = ?
		AND updated_at >= ?
		AND destination IN (` + db.Placeholders(len(uniq)) + `);
	`

	args := make([]any, 0, 2+len(uniq))
	args = append(args, origin, s.cutoff())
	for _, d := range uniq {
		args = append(args, d)
	}

	rows, err := s.DB.QueryContext(ctx, db.Rebind(s.Dialect, q), args...)
	if err != nil {
		return nil, fmt.Errorf("get travel time cache: query travel_time_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int, len(uniq))
	for rows.Next() {
		var dest string
		var minutes int
		if err := rows.Scan(&dest, &minutes); err != nil {
			return nil, fmt.Errorf("get travel time cache: scan rows: %w", err)
		}
		out[dest] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get travel time cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached durations for a single origin.
func (s *SQLTravelTimeCache) PutMany(
	ctx context.Context,
	origin string,
	durations map[string]int,
) (err error) {
	defer obs.Time(ctx, "traveltime.cache.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("travel time cache: db is nil")
	}
	if origin == "" {
		return errors.New("insert travel time cache: origin must not be empty")
	}
	if len(durations) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert travel time cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, db.Rebind(s.Dialect, `
	INSERT INTO travel_time_cache (origin, destination, minutes, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET minutes = excluded.minutes,
		updated_at = excluded.updated_at;
	`))
	if err != nil {
		return fmt.Errorf("insert travel time cache: db prepare: %w", err)
	}
	defer stmt.Close()

	now := s.clock().Unix()
	for dest, minutes := range durations {
		if strings.TrimSpace(dest) == "" {
			return errors.New("insert travel time cache: empty destination key")
		}
		if minutes < 0 {
			return fmt.Errorf("insert travel time cache dest=%q: negative duration %d", dest, minutes)
		}
		if _, err := stmt.ExecContext(ctx, origin, dest, minutes, now); err != nil {
			return fmt.Errorf("insert travel time cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert travel time cache commit: %w", err)
	}

	return nil
}

func (s *SQLTravelTimeCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// cutoff is the oldest updated_at still served, in unix seconds.
func (s *SQLTravelTimeCache) cutoff() int64 {
	if s.MaxAge <= 0 {
		return 0
	}
	return s.clock().Add(-s.MaxAge).Unix()
}
