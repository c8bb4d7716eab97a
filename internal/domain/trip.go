package domain

import (
	"strings"
	"time"
)

// MaxTripDays caps a trip at one month.
const MaxTripDays = 31

// TripDay groups the ordered stops of one calendar day. Locations and
// events are copied on the way in and on the way out.
type TripDay struct {
	origin      string
	destination string
	date        string
	locations   []string
	events      []Event
}

// NewTripDay validates and copies its inputs. Pass empty slices, not nil,
// when a day has no locations or events yet.
func NewTripDay(origin, destination, date string, locations []string, events []Event) (TripDay, error) {
	if strings.TrimSpace(origin) == "" {
		return TripDay{}, NewValidationError("origin", "must not be empty")
	}
	if strings.TrimSpace(destination) == "" {
		return TripDay{}, NewValidationError("destination", "must not be empty")
	}
	if _, err := ParseDate(date); err != nil {
		return TripDay{}, err
	}
	if locations == nil {
		return TripDay{}, NewValidationError("locations", "must not be nil, use an empty list instead")
	}
	if events == nil {
		return TripDay{}, NewValidationError("events", "must not be nil, use an empty list instead")
	}
	for i, e := range events {
		if e.Date() != date {
			return TripDay{}, NewValidationError("events", "event %d is dated %s, day is %s", i, e.Date(), date)
		}
	}

	return TripDay{
		origin:      origin,
		destination: destination,
		date:        date,
		locations:   append([]string{}, locations...),
		events:      append([]Event{}, events...),
	}, nil
}

func (d TripDay) Origin() string      { return d.origin }
func (d TripDay) Destination() string { return d.destination }
func (d TripDay) Date() string        { return d.date }

func (d TripDay) Locations() []string { return append([]string{}, d.locations...) }
func (d TripDay) Events() []Event     { return append([]Event{}, d.events...) }

// Trip is a named, dated collection of TripDays. NumDays is always derived
// from the dates, never taken from the caller.
type Trip struct {
	name            string
	destinationName string
	key             string
	startDate       time.Time
	endDate         time.Time
	numDays         int
	days            []TripDay
}

// NewTrip builds a multi-day trip. endDate is inclusive, so a trip starting
// and ending on the same date lasts one day.
func NewTrip(name, destinationName, startDate, endDate string, days []TripDay) (*Trip, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("trip_name", "must not be empty")
	}
	if strings.TrimSpace(startDate) == "" {
		return nil, NewValidationError("start_date", "must not be empty")
	}
	if strings.TrimSpace(endDate) == "" {
		return nil, NewValidationError("end_date", "must not be empty")
	}
	if days == nil {
		return nil, NewValidationError("trip_days", "must not be nil, use an empty list instead")
	}

	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return nil, err
	}

	numDays := DayDiff(start, end) + 1
	if numDays < 1 || numDays > MaxTripDays {
		return nil, NewValidationError("num_days", "must be between 1 and %d, got %d", MaxTripDays, numDays)
	}
	if len(days) > numDays {
		return nil, NewValidationError("trip_days", "%d days given for a %d-day trip", len(days), numDays)
	}
	for i, d := range days {
		dt, err := ParseDate(d.date)
		if err != nil {
			return nil, err
		}
		if dt.Before(start) || dt.After(end) {
			return nil, NewValidationError("trip_days", "day %d (%s) is outside %s..%s", i, d.date, startDate, endDate)
		}
	}

	return &Trip{
		name:            name,
		destinationName: destinationName,
		startDate:       start,
		endDate:         end,
		numDays:         numDays,
		days:            append([]TripDay{}, days...),
	}, nil
}

// NewSingleDayTrip fixes endDate = startDate and NumDays = 1.
func NewSingleDayTrip(name, destinationName, date string, days []TripDay) (*Trip, error) {
	return NewTrip(name, destinationName, date, date, days)
}

// WithKey returns a copy of the trip carrying the storage key.
func (t *Trip) WithKey(key string) *Trip {
	cp := *t
	cp.key = key
	cp.days = append([]TripDay{}, t.days...)
	return &cp
}

func (t *Trip) Name() string            { return t.name }
func (t *Trip) DestinationName() string { return t.destinationName }
func (t *Trip) Key() string             { return t.key }
func (t *Trip) StartDate() string       { return t.startDate.Format(DateLayout) }
func (t *Trip) EndDate() string         { return t.endDate.Format(DateLayout) }
func (t *Trip) NumDays() int            { return t.numDays }

func (t *Trip) Days() []TripDay { return append([]TripDay{}, t.days...) }

// Dates lists every calendar date of the trip in order.
func (t *Trip) Dates() []string {
	out := make([]string, 0, t.numDays)
	for i := 0; i < t.numDays; i++ {
		out = append(out, t.startDate.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}

// DayDiff counts whole calendar days from start to end.
func DayDiff(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
