package services

import (
	"errors"
	"fmt"
	"slices"
)

// AssignStopsToDays splits stops across the days of a trip.
//
// Stops are sorted by travel time from the origin and chunked so each day
// receives a contiguous "band" of them, keeping nearby stops together
// without solving a multi-day routing problem. The result always has
// numDays entries; trailing days may be empty.
func AssignStopsToDays(stops []string, fromOrigin map[string]int, numDays int) ([][]string, error) {
	if numDays < 1 {
		return nil, errors.New("assign stops: numDays must be positive")
	}
	for _, s := range stops {
		if _, ok := fromOrigin[s]; !ok {
			return nil, fmt.Errorf("assign stops: missing origin travel time for %q", s)
		}
	}

	sorted := slices.Clone(stops)
	slices.SortFunc(sorted, func(a, b string) int {
		da, db := fromOrigin[a], fromOrigin[b]
		if da != db {
			return da - db
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})

	days := make([][]string, numDays)
	for i := range days {
		days[i] = []string{}
	}

	nStops := len(sorted)
	// Ceiling division: distribute stops as evenly as possible across days.
	chunkSize := (nStops + numDays - 1) / numDays

	for di := 0; di < numDays && chunkSize > 0; di++ {
		start := di * chunkSize
		if start >= nStops {
			break
		}
		end := min(start+chunkSize, nStops)
		days[di] = append(days[di], sorted[start:end]...)
	}

	return days, nil
}
