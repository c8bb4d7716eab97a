package domain

import (
	"cmp"
	"strings"
	"time"
)

// DefaultDwellMinutes is used when a stop has no explicit dwell time.
const DefaultDwellMinutes = 60

// Event is one scheduled stop of a day, ready for calendar export.
type Event struct {
	name             string
	address          string
	placeID          string
	date             string
	startTime        int
	endTime          int
	travelTimeToNext int
	hasNext          bool
}

// EventParams are the inputs of NewEvent. Zero DwellMinutes means
// DefaultDwellMinutes, zero DayBoundary means MinutesPerDay, and a nil
// TravelTimeToNext marks the last stop of the day.
type EventParams struct {
	Name             string
	Address          string
	PlaceID          string
	Date             string
	StartTime        int
	DwellMinutes     int
	TravelTimeToNext *int
	DayBoundary      int
}

func NewEvent(p EventParams) (Event, error) {
	boundary := p.DayBoundary
	if boundary == 0 {
		boundary = MinutesPerDay
	}

	if strings.TrimSpace(p.Name) == "" {
		return Event{}, NewValidationError("name", "must not be empty")
	}
	if _, err := ParseDate(p.Date); err != nil {
		return Event{}, err
	}

	dwell := p.DwellMinutes
	if dwell == 0 {
		dwell = DefaultDwellMinutes
	}
	if dwell < 0 {
		return Event{}, NewValidationError("dwell_minutes", "must be positive, got %d", dwell)
	}

	if p.StartTime < 0 || p.StartTime >= boundary {
		return Event{}, &OutOfRangeError{Field: "start_time", Minute: p.StartTime}
	}
	// Crossing midnight is an error; multi-day plans use one TripDay per day.
	end := p.StartTime + dwell
	if end >= boundary {
		return Event{}, &OutOfRangeError{Field: "end_time", Minute: end}
	}

	e := Event{
		name:      p.Name,
		address:   p.Address,
		placeID:   p.PlaceID,
		date:      p.Date,
		startTime: p.StartTime,
		endTime:   end,
	}
	if p.TravelTimeToNext != nil {
		t := *p.TravelTimeToNext
		if t < 0 || t >= boundary {
			return Event{}, &OutOfRangeError{Field: "travel_time_to_next", Minute: t}
		}
		e.travelTimeToNext = t
		e.hasNext = true
	}

	return e, nil
}

func (e Event) Name() string    { return e.name }
func (e Event) Address() string { return e.address }
func (e Event) PlaceID() string { return e.placeID }
func (e Event) Date() string    { return e.date }
func (e Event) StartTime() int  { return e.startTime }
func (e Event) EndTime() int    { return e.endTime }

func (e Event) DwellMinutes() int { return e.endTime - e.startTime }

// TravelTimeToNext reports the leg to the following stop; ok is false for
// the last stop of the day.
func (e Event) TravelTimeToNext() (minutes int, ok bool) {
	return e.travelTimeToNext, e.hasNext
}

func (e Event) StartClock() string { return FormatClock(e.startTime) }
func (e Event) EndClock() string   { return FormatClock(e.endTime) }

// StartDateTime renders the start as yyyy-MM-ddTHH:MM.
func (e Event) StartDateTime() string { return e.date + "T" + e.StartClock() }
func (e Event) EndDateTime() string   { return e.date + "T" + e.EndClock() }

// CompareEvents orders events by date, then start time.
func CompareEvents(a, b Event) int {
	if c := strings.Compare(a.date, b.date); c != 0 {
		return c
	}
	return cmp.Compare(a.startTime, b.startTime)
}

// DateLayout is the calendar date format used throughout the planner.
const DateLayout = "2006-01-02"

// ParseDate parses a yyyy-MM-dd calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError("date", "%q must be in yyyy-MM-dd format", s)
	}
	return t, nil
}
