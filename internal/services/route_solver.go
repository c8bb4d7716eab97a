package services

import (
	"context"
	"fmt"
	"slices"
	"time"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
)

// RouteProblem is the solver input for a single day.
//
// Locations[i] describes matrix index i; index 0 is the origin, whose
// opening windows are ignored. Dwell[i] is the time spent at location i
// (Dwell[0] is ignored). StartTime is the departure from the origin.
type RouteProblem struct {
	Matrix    *domain.DistanceMatrix
	Locations []domain.Location
	Weekday   time.Weekday
	StartTime int
	Dwell     []int
}

// SolveRoute finds the minimum-travel visiting order of every non-origin
// location such that each arrival falls inside one of its opening windows.
//
// Up to cfg.ExactSolveCap stops the answer is exact (subset DP over a Pareto
// frontier of cost and arrival time); above it a feasibility-preserving
// heuristic is used. Ties on cost prefer the earlier finish, then the
// lexicographically smaller index sequence.
func SolveRoute(ctx context.Context, p RouteProblem, cfg config.Solver) (_ *domain.RouteSolution, err error) {
	defer obs.Time(ctx, "services.SolveRoute")(&err)

	in, err := newInstance(p, cfg)
	if err != nil {
		return nil, err
	}

	if in.m > cfg.MaxNonOriginLocations {
		return nil, &domain.TooManyLocationsError{Count: in.m, Max: cfg.MaxNonOriginLocations}
	}

	if in.m == 0 {
		r, ok := in.evaluate(nil)
		if !ok {
			return nil, &domain.InfeasibleRouteError{Reason: "origin departure is outside the day"}
		}
		return r.solution(domain.StrategyTrivial), nil
	}

	if err := in.precheck(); err != nil {
		return nil, err
	}

	if in.m <= cfg.ExactSolveCap {
		r, err := in.solveExact(ctx)
		if err != nil {
			return nil, err
		}
		return r.solution(domain.StrategyExact), nil
	}

	r, err := in.solveHeuristic(ctx)
	if err != nil {
		return nil, err
	}
	return r.solution(domain.StrategyHeuristic), nil
}

// instance is the solver's private, flattened view of a RouteProblem.
type instance struct {
	n        int // locations including the origin
	m        int // non-origin locations
	w        []int
	dwell    []int
	windows  [][]domain.OpeningWindow
	open     []bool // true when the location has no opening hours at all
	ids      []string
	start    int
	boundary int
	early    bool
	closing  bool // return to the origin at the end of the day
}

func newInstance(p RouteProblem, cfg config.Solver) (*instance, error) {
	if p.Matrix == nil {
		return nil, domain.NewValidationError("matrix", "must not be nil")
	}

	n := p.Matrix.Size()
	if n == 0 {
		return nil, domain.NewValidationError("locations", "origin is required")
	}
	if len(p.Locations) != n {
		return nil, domain.NewValidationError("locations", "got %d locations for a %dx%d matrix", len(p.Locations), n, n)
	}
	if len(p.Dwell) != n {
		return nil, domain.NewValidationError("dwell", "got %d dwell values for %d locations", len(p.Dwell), n)
	}

	boundary := cfg.DayBoundaryMinutes
	if boundary <= 0 {
		boundary = domain.MinutesPerDay
	}
	if p.StartTime < 0 || p.StartTime >= boundary {
		return nil, &domain.OutOfRangeError{Field: "start_time", Minute: p.StartTime}
	}

	in := &instance{
		n:        n,
		m:        n - 1,
		w:        make([]int, n*n),
		dwell:    make([]int, n),
		windows:  make([][]domain.OpeningWindow, n),
		open:     make([]bool, n),
		ids:      make([]string, n),
		start:    p.StartTime,
		boundary: boundary,
		early:    cfg.AllowEarlyArrival,
		closing:  cfg.ReturnToOrigin,
	}

	for i, loc := range p.Locations {
		if loc.Index != i {
			return nil, domain.NewValidationError("locations", "location %q has index %d at position %d", loc.ID, loc.Index, i)
		}
		in.ids[i] = loc.ID

		for j := 0; j < n; j++ {
			in.w[i*n+j] = p.Matrix.At(i, j)
		}

		if i == 0 {
			in.open[0] = true
			continue
		}
		if p.Dwell[i] < 1 {
			return nil, domain.NewValidationError("dwell", "location %q has dwell %d, must be positive", loc.ID, p.Dwell[i])
		}
		in.dwell[i] = p.Dwell[i]

		ws, constrained := loc.WindowsOn(p.Weekday)
		in.windows[i] = ws
		in.open[i] = !constrained
	}

	return in, nil
}

func (in *instance) at(i, j int) int { return in.w[i*in.n+j] }

// serviceStart returns when a visit to k can begin if the traveler gets
// there at raw, or false when no window (or the day itself) admits it.
func (in *instance) serviceStart(k, raw int) (int, bool) {
	if raw >= in.boundary {
		return 0, false
	}

	start := raw
	if !in.open[k] {
		found := false
		for _, w := range in.windows[k] {
			if raw > w.End {
				continue
			}
			if raw < w.Start {
				if !in.early {
					continue
				}
				start = w.Start
			}
			found = true
			break
		}
		if !found {
			return 0, false
		}
	}

	// The visit must end inside the day; 1439 is the last valid minute.
	if start+in.dwell[k] >= in.boundary {
		return 0, false
	}
	return start, true
}

// precheck rejects locations that no ordering could ever serve, using the
// cheapest inbound leg as a lower bound on the arrival time.
func (in *instance) precheck() error {
	for k := 1; k < in.n; k++ {
		if !in.open[k] && len(in.windows[k]) == 0 {
			return &domain.InfeasibleRouteError{LocationID: in.ids[k], Reason: "closed on the day of travel"}
		}

		earliest := -1
		for j := 0; j < in.n; j++ {
			if j == k {
				continue
			}
			if a := in.start + in.at(j, k); earliest < 0 || a < earliest {
				earliest = a
			}
		}

		if !in.canEverServe(k, earliest) {
			return &domain.InfeasibleRouteError{
				LocationID: in.ids[k],
				Reason:     fmt.Sprintf("no opening window reachable, earliest arrival %s", domain.FormatClock(min(earliest, in.boundary-1))),
			}
		}
	}
	return nil
}

func (in *instance) canEverServe(k, earliest int) bool {
	if in.open[k] {
		return earliest+in.dwell[k] < in.boundary
	}
	for _, w := range in.windows[k] {
		if w.End < earliest {
			continue
		}
		if max(earliest, w.Start)+in.dwell[k] < in.boundary {
			return true
		}
	}
	return false
}

// route is a fully evaluated visiting order.
type route struct {
	path       []int
	arrivals   []int
	departures []int
	cost       int
	finish     int // arrival at the last stop, or back at the origin when closing
}

// evaluate replays path from the origin and reports whether every stop is
// feasible. It is the single source of truth for arrival arithmetic.
func (in *instance) evaluate(path []int) (route, bool) {
	r := route{
		path:       path,
		arrivals:   make([]int, len(path)),
		departures: make([]int, len(path)),
		finish:     in.start,
	}

	cur, depart := 0, in.start
	for i, k := range path {
		leg := in.at(cur, k)
		arr, ok := in.serviceStart(k, depart+leg)
		if !ok {
			return route{}, false
		}
		r.cost += leg
		r.arrivals[i] = arr
		r.departures[i] = arr + in.dwell[k]
		r.finish = arr
		cur, depart = k, r.departures[i]
	}

	if in.closing && len(path) > 0 {
		back := in.at(cur, 0)
		if depart+back >= in.boundary {
			return route{}, false
		}
		r.cost += back
		r.finish = depart + back
	}

	return r, true
}

// better orders routes by cost, then finish time, then index sequence.
func (r route) better(o route) bool {
	if r.cost != o.cost {
		return r.cost < o.cost
	}
	if r.finish != o.finish {
		return r.finish < o.finish
	}
	return slices.Compare(r.path, o.path) < 0
}

func (r route) solution(s domain.Strategy) *domain.RouteSolution {
	return domain.NewRouteSolution(r.path, r.arrivals, r.departures, r.cost, s)
}
