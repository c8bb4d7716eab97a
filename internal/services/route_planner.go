package services

import (
	"context"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/platform/retry"
	"trip-planner-service/internal/ports"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// SolveRequest describes one day to optimize: start at OriginID at
// StartTime on Date and visit every id in POIIDs once.
type SolveRequest struct {
	OriginID  string
	POIIDs    []string
	Date      string
	StartTime int
	// Per-stop dwell overrides; missing stops use the configured default.
	DwellByPOI map[string]int
}

// DayPlan is everything computed for one day, kept together so a schedule
// can be built without repeating lookups.
type DayPlan struct {
	Date     string
	Index    *domain.LocationIndex
	Matrix   *domain.DistanceMatrix
	Stops    []domain.PlaceDetails // by matrix index; Stops[0] is the origin
	Dwell    []int
	Solution *domain.RouteSolution
}

// PlaceIDs returns the visited place ids in route order.
func (p *DayPlan) PlaceIDs() []string {
	return lo.Map(p.Solution.Path(), func(k int, _ int) string { return p.Index.ID(k) })
}

// RoutePlanner wires the collaborators a day solve needs.
type RoutePlanner struct {
	places ports.PlaceDetailsProvider
	travel ports.TravelTimeProvider
	cfg    config.Solver
}

func NewRoutePlanner(places ports.PlaceDetailsProvider, travel ports.TravelTimeProvider, cfg config.Solver) *RoutePlanner {
	return &RoutePlanner{places: places, travel: travel, cfg: cfg}
}

func (p *RoutePlanner) Config() config.Solver { return p.cfg }

func (p *RoutePlanner) lookupOptions() LookupOptions {
	return LookupOptions{
		Concurrency: p.cfg.MatrixConcurrency,
		MaxAttempts: p.cfg.LookupMaxAttempts,
		Backoff:     p.cfg.LookupBackoff,
	}
}

// Solve validates the request, fetches opening hours and travel times, and
// returns the optimal (or, above the exact cap, heuristic) route.
func (p *RoutePlanner) Solve(ctx context.Context, req SolveRequest) (*domain.RouteSolution, error) {
	plan, err := p.SolveDay(ctx, req)
	if err != nil {
		return nil, err
	}
	return plan.Solution, nil
}

// SolveDay is Solve that also returns the intermediate lookups.
//
// Input problems (bad ids, too many stops, bad dwell or start time) are
// reported before any collaborator is called.
func (p *RoutePlanner) SolveDay(ctx context.Context, req SolveRequest) (_ *DayPlan, err error) {
	defer obs.Time(ctx, "services.SolveDay")(&err)

	if len(req.POIIDs) > p.cfg.MaxNonOriginLocations {
		return nil, &domain.TooManyLocationsError{Count: len(req.POIIDs), Max: p.cfg.MaxNonOriginLocations}
	}

	index, err := domain.NewLocationIndex(req.OriginID, req.POIIDs)
	if err != nil {
		return nil, err
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	boundary := p.cfg.DayBoundaryMinutes
	if boundary <= 0 {
		boundary = domain.MinutesPerDay
	}
	if req.StartTime < 0 || req.StartTime >= boundary {
		return nil, &domain.OutOfRangeError{Field: "start_time", Minute: req.StartTime}
	}

	dwell, err := p.dwellByIndex(index, req.DwellByPOI)
	if err != nil {
		return nil, err
	}

	stops, err := p.fetchDetails(ctx, index)
	if err != nil {
		return nil, err
	}

	matrix, err := BuildDistanceMatrix(ctx, index.IDs(), p.travel, p.lookupOptions())
	if err != nil {
		return nil, err
	}

	locations := make([]domain.Location, index.Len())
	for i := range locations {
		locations[i] = domain.Location{ID: index.ID(i), Index: i, OpeningWindows: stops[i].OpeningWindows}
	}

	sol, err := SolveRoute(ctx, RouteProblem{
		Matrix:    matrix,
		Locations: locations,
		Weekday:   date.Weekday(),
		StartTime: req.StartTime,
		Dwell:     dwell,
	}, p.cfg)
	if err != nil {
		return nil, err
	}

	obs.Logger(ctx).WithField("date", req.Date).
		WithField("stops", len(req.POIIDs)).
		WithField("strategy", sol.Strategy()).
		WithField("cost", sol.TotalCost()).
		Info("route solved")

	return &DayPlan{
		Date:     req.Date,
		Index:    index,
		Matrix:   matrix,
		Stops:    stops,
		Dwell:    dwell,
		Solution: sol,
	}, nil
}

func (p *RoutePlanner) dwellByIndex(index *domain.LocationIndex, overrides map[string]int) ([]int, error) {
	dwell := make([]int, index.Len())
	for i := 1; i < index.Len(); i++ {
		dwell[i] = p.cfg.DefaultDwellMinutes
	}

	for id, d := range overrides {
		k, ok := index.Index(id)
		if !ok || k == 0 {
			return nil, domain.NewValidationError("dwell", "dwell given for %q, which is not a stop", id)
		}
		if d < 1 {
			return nil, domain.NewValidationError("dwell", "stop %q has dwell %d, must be positive", id, d)
		}
		dwell[k] = d
	}
	return dwell, nil
}

// fetchDetails looks up every non-origin stop concurrently. The origin's
// opening hours are irrelevant, so it only gets its id.
func (p *RoutePlanner) fetchDetails(ctx context.Context, index *domain.LocationIndex) ([]domain.PlaceDetails, error) {
	stops := make([]domain.PlaceDetails, index.Len())
	stops[0] = domain.PlaceDetails{PlaceID: index.ID(0)}

	opts := p.lookupOptions()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	for i := 1; i < index.Len(); i++ {
		id := index.ID(i)
		g.Go(func() error {
			var d domain.PlaceDetails
			err := retry.Do(gctx, opts.policy(), func(ctx context.Context) error {
				var err error
				d, err = p.places.GetPlaceDetails(ctx, id)
				return err
			})
			if err != nil {
				if isContextErr(err) {
					return err
				}
				return &domain.LookupError{Op: "place_details", Key: id, Err: err}
			}
			if d.PlaceID == "" {
				d.PlaceID = id
			}
			stops[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stops, nil
}
