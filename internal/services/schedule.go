package services

import (
	"trip-planner-service/internal/domain"
)

// ScheduleRequest carries a solved route and the data needed to time it.
// Stops and Dwell are indexed by matrix index, like the solution path.
type ScheduleRequest struct {
	Solution    *domain.RouteSolution
	Matrix      *domain.DistanceMatrix
	Stops       []domain.PlaceDetails
	Dwell       []int
	Date        string
	DepartAt    int
	DayBoundary int
}

// BuildSchedule turns a route into one Event per visited stop.
//
// The first stop starts at DepartAt plus the leg from the origin; each later
// stop starts when the previous one ends plus the leg between them. A stop
// never starts before the arrival the solver committed to, so waiting for a
// window to open shows up as a gap between events. Every event except the
// last carries the travel time to the next stop.
func BuildSchedule(req ScheduleRequest) ([]domain.Event, error) {
	if req.Solution == nil || req.Matrix == nil {
		return nil, domain.NewValidationError("schedule", "solution and matrix are required")
	}

	boundary := req.DayBoundary
	if boundary <= 0 {
		boundary = domain.MinutesPerDay
	}
	if req.DepartAt < 0 || req.DepartAt >= boundary {
		return nil, &domain.OutOfRangeError{Field: "depart_at", Minute: req.DepartAt}
	}

	path := req.Solution.Path()
	arrivals := req.Solution.ArrivalTimes()
	n := req.Matrix.Size()

	events := make([]domain.Event, 0, len(path))
	prev, clock := 0, req.DepartAt

	for i, k := range path {
		if k <= 0 || k >= n {
			return nil, domain.NewValidationError("path", "index %d out of matrix bounds", k)
		}

		start := clock + req.Matrix.At(prev, k)
		if i < len(arrivals) && arrivals[i] > start {
			start = arrivals[i]
		}
		if start >= boundary {
			return nil, &domain.OutOfRangeError{Field: "start_time", Minute: start}
		}

		p := domain.EventParams{
			Name:         stopName(req.Stops, k),
			Address:      stopField(req.Stops, k).Address,
			PlaceID:      stopField(req.Stops, k).PlaceID,
			Date:         req.Date,
			StartTime:    start,
			DwellMinutes: stopDwell(req.Dwell, k),
			DayBoundary:  boundary,
		}
		if i < len(path)-1 {
			next := req.Matrix.At(k, path[i+1])
			p.TravelTimeToNext = &next
		}

		e, err := domain.NewEvent(p)
		if err != nil {
			return nil, err
		}
		events = append(events, e)

		prev, clock = k, e.EndTime()
	}

	return events, nil
}

func stopField(stops []domain.PlaceDetails, k int) domain.PlaceDetails {
	if k < len(stops) {
		return stops[k]
	}
	return domain.PlaceDetails{}
}

func stopName(stops []domain.PlaceDetails, k int) string {
	d := stopField(stops, k)
	if d.Name != "" {
		return d.Name
	}
	return d.PlaceID
}

// Zero lets the event apply the default dwell.
func stopDwell(dwell []int, k int) int {
	if k < len(dwell) {
		return dwell[k]
	}
	return 0
}
