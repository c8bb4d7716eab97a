package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// MinutesPerDay is the default day boundary for clock arithmetic.
const MinutesPerDay = 1440

// OpeningWindow is a visitable interval on one weekday, in minutes of day.
// Both bounds are inclusive: an arrival at End is still inside the window.
type OpeningWindow struct {
	Day   time.Weekday
	Start int
	End   int
}

func (w OpeningWindow) Contains(minute int) bool {
	return minute >= w.Start && minute <= w.End
}

// Location is a stop known to the solver. Index 0 is reserved for the origin.
//
// A location without any opening windows is unconstrained. A location with
// windows, none of them on the requested weekday, is closed that day.
type Location struct {
	ID             string
	Index          int
	OpeningWindows []OpeningWindow
}

// WindowsOn returns the windows that apply on the given weekday, ordered by
// start. constrained is false when the location has no opening hours at all.
func (l Location) WindowsOn(day time.Weekday) (windows []OpeningWindow, constrained bool) {
	if len(l.OpeningWindows) == 0 {
		return nil, false
	}

	for _, w := range l.OpeningWindows {
		if w.Day == day {
			windows = append(windows, w)
		}
	}
	slices.SortFunc(windows, func(a, b OpeningWindow) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})

	return windows, true
}

// PlaceDetails is what the places collaborator returns for one place id.
type PlaceDetails struct {
	PlaceID        string
	Name           string
	Address        string
	OpeningWindows []OpeningWindow
}

// LocationIndex maps place ids to dense solver indices and back. It is built
// once per request; index 0 is the origin.
type LocationIndex struct {
	ids  []string
	byID map[string]int
}

func NewLocationIndex(originID string, poiIDs []string) (*LocationIndex, error) {
	ids := make([]string, 0, 1+len(poiIDs))
	ids = append(ids, originID)
	ids = append(ids, poiIDs...)

	byID := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, NewValidationError("locations", "location id at position %d is empty", i)
		}
		if prev, ok := byID[id]; ok {
			return nil, NewValidationError("locations", "location id %q repeated at positions %d and %d", id, prev, i)
		}
		byID[id] = i
	}

	return &LocationIndex{ids: ids, byID: byID}, nil
}

func (x *LocationIndex) Len() int { return len(x.ids) }

func (x *LocationIndex) ID(i int) string { return x.ids[i] }

func (x *LocationIndex) Index(id string) (int, bool) {
	i, ok := x.byID[id]
	return i, ok
}

// IDs returns a copy of all ids in index order.
func (x *LocationIndex) IDs() []string {
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

// FormatClock renders minutes of day as zero-padded HH:MM.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock parses HH:MM into minutes of day.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, NewValidationError("time", "%q is not a HH:MM clock time", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
