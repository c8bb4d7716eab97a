package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/platform/obs"

	"github.com/google/uuid"
)

// SQL-backed implementation of the TripRepository port. Trips are written
// in one transaction and read back through the domain constructors, so a
// loaded trip passes the same validation as a freshly planned one.
type SQLTripRepository struct {
	DB      *sql.DB
	Dialect db.Dialect

	newKey func() string
	now    func() time.Time
}

func NewSQLTripRepository(conn *sql.DB, dialect db.Dialect) *SQLTripRepository {
	return &SQLTripRepository{DB: conn, Dialect: dialect, newKey: uuid.NewString, now: time.Now}
}

func (s *SQLTripRepository) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *SQLTripRepository) q(query string) string { return db.Rebind(s.Dialect, query) }

// Persist stores the trip under a new random key and returns it.
func (s *SQLTripRepository) Persist(ctx context.Context, trip *domain.Trip) (_ string, err error) {
	defer obs.Time(ctx, "trips.Persist")(&err)

	if s.DB == nil {
		return "", &domain.PersistenceError{Op: "persist trip", Err: errors.New("DB is nil")}
	}
	if trip == nil {
		return "", domain.NewValidationError("trip", "must not be nil")
	}

	key := s.newKey()
	if err := s.insert(ctx, key, trip); err != nil {
		return "", &domain.PersistenceError{Op: "persist trip", Err: err}
	}
	return key, nil
}

func (s *SQLTripRepository) insert(ctx context.Context, key string, trip *domain.Trip) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.q(`
	INSERT INTO trips (trip_key, name, destination_name, start_date, end_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`), key, trip.Name(), trip.DestinationName(), trip.StartDate(), trip.EndDate(), s.clock().Unix())
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}

	dayStmt, err := tx.PrepareContext(ctx, s.q(`
	INSERT INTO trip_days (trip_key, day_index, day_date, origin, destination, locations)
	VALUES (?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("prepare day insert: %w", err)
	}
	defer dayStmt.Close()

	eventStmt, err := tx.PrepareContext(ctx, s.q(`
	INSERT INTO events (
		trip_key, day_index, position, name, address, place_id,
		event_date, start_time, end_time, travel_time_to_next
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer eventStmt.Close()

	for di, day := range trip.Days() {
		locations, err := json.Marshal(day.Locations())
		if err != nil {
			return fmt.Errorf("encode day %d locations: %w", di, err)
		}
		if _, err := dayStmt.ExecContext(ctx, key, di, day.Date(), day.Origin(), day.Destination(), string(locations)); err != nil {
			return fmt.Errorf("insert day %d: %w", di, err)
		}

		for pos, e := range day.Events() {
			var next sql.NullInt64
			if m, ok := e.TravelTimeToNext(); ok {
				next = sql.NullInt64{Int64: int64(m), Valid: true}
			}
			if _, err := eventStmt.ExecContext(ctx,
				key, di, pos, e.Name(), e.Address(), e.PlaceID(),
				e.Date(), e.StartTime(), e.EndTime(), next,
			); err != nil {
				return fmt.Errorf("insert day %d event %d: %w", di, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the trip stored under key, or an error matching
// domain.ErrNotFound.
func (s *SQLTripRepository) Load(ctx context.Context, key string) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Load")(&err)

	if s.DB == nil {
		return nil, &domain.PersistenceError{Op: "load trip", Err: errors.New("DB is nil")}
	}

	var name, destination, startDate, endDate string
	err = s.DB.QueryRowContext(ctx, s.q(`
	SELECT name, destination_name, start_date, end_date
	FROM trips
	WHERE trip_key = ?;
	`), key).Scan(&name, &destination, &startDate, &endDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load trip", Err: err}
	}

	events, err := s.loadEvents(ctx, key)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load events", Err: err}
	}

	rows, err := s.DB.QueryContext(ctx, s.q(`
	SELECT day_index, day_date, origin, destination, locations
	FROM trip_days
	WHERE trip_key = ?
	ORDER BY day_index;
	`), key)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load days", Err: err}
	}
	defer rows.Close()

	days := make([]domain.TripDay, 0, 4)
	for rows.Next() {
		var idx int
		var date, origin, dest, rawLocations string
		if err := rows.Scan(&idx, &date, &origin, &dest, &rawLocations); err != nil {
			return nil, &domain.PersistenceError{Op: "load days", Err: fmt.Errorf("scan row: %w", err)}
		}

		var locations []string
		if err := json.Unmarshal([]byte(rawLocations), &locations); err != nil {
			return nil, &domain.PersistenceError{Op: "load days", Err: fmt.Errorf("decode day %d locations: %w", idx, err)}
		}
		if locations == nil {
			locations = []string{}
		}

		dayEvents := events[idx]
		if dayEvents == nil {
			dayEvents = []domain.Event{}
		}

		day, err := domain.NewTripDay(origin, dest, date, locations, dayEvents)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "load days", Err: err}
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "load days", Err: fmt.Errorf("row iteration: %w", err)}
	}

	trip, err := domain.NewTrip(name, destination, startDate, endDate, days)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load trip", Err: err}
	}
	return trip.WithKey(key), nil
}

// List returns trip summaries (name, destination, dates, key) in creation
// order. Days and events are left empty; use Load for the full trip.
func (s *SQLTripRepository) List(ctx context.Context) (_ []*domain.Trip, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	if s.DB == nil {
		return nil, &domain.PersistenceError{Op: "list trips", Err: errors.New("DB is nil")}
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT trip_key, name, destination_name, start_date, end_date
	FROM trips
	ORDER BY created_at, trip_key;
	`)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list trips", Err: err}
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, 8)
	for rows.Next() {
		var key, name, destination, startDate, endDate string
		if err := rows.Scan(&key, &name, &destination, &startDate, &endDate); err != nil {
			return nil, &domain.PersistenceError{Op: "list trips", Err: fmt.Errorf("scan row: %w", err)}
		}

		trip, err := domain.NewTrip(name, destination, startDate, endDate, []domain.TripDay{})
		if err != nil {
			return nil, &domain.PersistenceError{Op: "list trips", Err: fmt.Errorf("trip %q: %w", key, err)}
		}
		trips = append(trips, trip.WithKey(key))
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list trips", Err: fmt.Errorf("row iteration: %w", err)}
	}

	return trips, nil
}

// loadEvents groups a trip's events by day index, in position order.
func (s *SQLTripRepository) loadEvents(ctx context.Context, key string) (map[int][]domain.Event, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`
	SELECT day_index, name, address, place_id, event_date, start_time, end_time, travel_time_to_next
	FROM events
	WHERE trip_key = ?
	ORDER BY day_index, position;
	`), key)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]domain.Event)
	for rows.Next() {
		var (
			idx, start, end        int
			name, address, placeID string
			date                   string
			next                   sql.NullInt64
		)
		if err := rows.Scan(&idx, &name, &address, &placeID, &date, &start, &end, &next); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		p := domain.EventParams{
			Name:         name,
			Address:      address,
			PlaceID:      placeID,
			Date:         date,
			StartTime:    start,
			DwellMinutes: end - start,
		}
		if next.Valid {
			m := int(next.Int64)
			p.TravelTimeToNext = &m
		}

		e, err := domain.NewEvent(p)
		if err != nil {
			return nil, fmt.Errorf("rebuild event: %w", err)
		}
		out[idx] = append(out[idx], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event iteration: %w", err)
	}

	return out, nil
}
