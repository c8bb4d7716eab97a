package places

import (
	"fmt"
	"strconv"
	"trip-planner-service/internal/domain"

	"googlemaps.github.io/maps"
)

// WindowsFromPeriods converts Google opening periods into per-weekday
// windows.
//
// A period that closes on a later day is split at midnight. A single period
// with no close time means open around the clock and yields no windows,
// which the solver treats as unconstrained. Close times are exclusive in
// the API, so a window ends one minute before.
func WindowsFromPeriods(periods []maps.OpeningHoursPeriod) ([]domain.OpeningWindow, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	if len(periods) == 1 && periods[0].Close.Time == "" {
		return nil, nil
	}

	var out []domain.OpeningWindow
	for _, p := range periods {
		open, err := parseHHMM(p.Open.Time)
		if err != nil {
			return nil, err
		}
		if p.Close.Time == "" {
			return nil, fmt.Errorf("period opening %s %s has no close time", p.Open.Day, p.Open.Time)
		}
		closeAt, err := parseHHMM(p.Close.Time)
		if err != nil {
			return nil, err
		}

		if p.Close.Day == p.Open.Day && closeAt > open {
			out = append(out, domain.OpeningWindow{Day: p.Open.Day, Start: open, End: closeAt - 1})
			continue
		}

		// Overnight or multi-day period: walk day by day until it closes.
		day := p.Open.Day
		start := open
		for i := 0; i < 7; i++ {
			out = append(out, domain.OpeningWindow{Day: day, Start: start, End: domain.MinutesPerDay - 1})
			day = (day + 1) % 7
			start = 0
			if day == p.Close.Day {
				break
			}
		}
		if closeAt > 0 {
			out = append(out, domain.OpeningWindow{Day: p.Close.Day, Start: 0, End: closeAt - 1})
		}
	}

	return out, nil
}

func parseHHMM(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("bad time %q, want HHMM", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h > 23 {
		return 0, fmt.Errorf("bad time %q, want HHMM", s)
	}
	m, err := strconv.Atoi(s[2:])
	if err != nil || m > 59 {
		return 0, fmt.Errorf("bad time %q, want HHMM", s)
	}
	return h*60 + m, nil
}
