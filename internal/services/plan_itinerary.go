package services

import (
	"context"
	"errors"
	"strings"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/platform/retry"
	"trip-planner-service/internal/ports"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// PlanStop names a place either by id or by a free-text query to resolve.
type PlanStop struct {
	Query        string
	PlaceID      string
	DwellMinutes int
}

type PlanItineraryRequest struct {
	TripName    string
	Destination string
	StartDate   string
	// Empty means a single-day trip on StartDate.
	EndDate  string
	Origin   PlanStop
	Stops    []PlanStop
	DepartAt int
}

// Itinerary is a planned trip plus the per-day solver output. Days[i] is nil
// when day i has no stops.
type Itinerary struct {
	Trip *domain.Trip
	Days []*DayPlan
}

// ItineraryPlanner resolves places, splits stops across the trip's days,
// solves each day and stores the result.
type ItineraryPlanner struct {
	resolver ports.PlaceResolver
	routes   *RoutePlanner
	repo     ports.TripRepository
}

// NewItineraryPlanner returns a planner; repo may be nil to skip persistence.
func NewItineraryPlanner(resolver ports.PlaceResolver, routes *RoutePlanner, repo ports.TripRepository) *ItineraryPlanner {
	return &ItineraryPlanner{resolver: resolver, routes: routes, repo: repo}
}

func (p *ItineraryPlanner) Plan(ctx context.Context, req PlanItineraryRequest) (_ *Itinerary, err error) {
	defer obs.Time(ctx, "services.PlanItinerary")(&err)

	endDate := req.EndDate
	if endDate == "" {
		endDate = req.StartDate
	}

	// Validates name and dates before anything is looked up.
	shape, err := domain.NewTrip(req.TripName, req.Destination, req.StartDate, endDate, []domain.TripDay{})
	if err != nil {
		return nil, err
	}

	cfg := p.routes.Config()
	if limit := cfg.MaxNonOriginLocations * shape.NumDays(); len(req.Stops) > limit {
		return nil, &domain.TooManyLocationsError{Count: len(req.Stops), Max: limit}
	}
	for i, s := range req.Stops {
		if s.DwellMinutes < 0 {
			return nil, domain.NewValidationError("stops", "stop %d has negative dwell %d", i, s.DwellMinutes)
		}
	}

	originID, stopIDs, err := p.resolveAll(ctx, req.Origin, req.Stops)
	if err != nil {
		return nil, err
	}
	if _, err := domain.NewLocationIndex(originID, stopIDs); err != nil {
		return nil, err
	}

	destination, err := p.resolveDestination(ctx, req.Destination)
	if err != nil {
		return nil, err
	}

	dwell := make(map[string]int, len(stopIDs))
	for i, id := range stopIDs {
		if d := req.Stops[i].DwellMinutes; d > 0 {
			dwell[id] = d
		}
	}

	bands := [][]string{stopIDs}
	if shape.NumDays() > 1 {
		fromOrigin, err := DurationsFrom(ctx, originID, stopIDs, p.routes.travel, p.routes.lookupOptions())
		if err != nil {
			return nil, err
		}
		if bands, err = AssignStopsToDays(stopIDs, fromOrigin, shape.NumDays()); err != nil {
			return nil, err
		}
	}

	dates := shape.Dates()
	days := make([]domain.TripDay, 0, len(bands))
	plans := make([]*DayPlan, len(bands))

	for i, band := range bands {
		if len(band) == 0 {
			day, err := domain.NewTripDay(originID, originID, dates[i], []string{}, []domain.Event{})
			if err != nil {
				return nil, err
			}
			days = append(days, day)
			continue
		}

		plan, err := p.routes.SolveDay(ctx, SolveRequest{
			OriginID:   originID,
			POIIDs:     band,
			Date:       dates[i],
			StartTime:  req.DepartAt,
			DwellByPOI: lo.PickByKeys(dwell, band),
		})
		if err != nil {
			return nil, err
		}

		events, err := BuildSchedule(ScheduleRequest{
			Solution:    plan.Solution,
			Matrix:      plan.Matrix,
			Stops:       plan.Stops,
			Dwell:       plan.Dwell,
			Date:        dates[i],
			DepartAt:    req.DepartAt,
			DayBoundary: cfg.DayBoundaryMinutes,
		})
		if err != nil {
			return nil, err
		}

		visited := plan.PlaceIDs()
		destination := visited[len(visited)-1]
		if cfg.ReturnToOrigin {
			destination = originID
		}

		day, err := domain.NewTripDay(originID, destination, dates[i], visited, events)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
		plans[i] = plan
	}

	trip, err := domain.NewTrip(req.TripName, destination, req.StartDate, endDate, days)
	if err != nil {
		return nil, err
	}

	if p.repo != nil {
		key, err := p.repo.Persist(ctx, trip)
		if err != nil {
			if !errors.Is(err, domain.ErrPersistence) {
				err = &domain.PersistenceError{Op: "persist trip", Err: err}
			}
			return nil, err
		}
		trip = trip.WithKey(key)
	}

	return &Itinerary{Trip: trip, Days: plans}, nil
}

// Get loads a previously planned trip.
func (p *ItineraryPlanner) Get(ctx context.Context, key string) (*domain.Trip, error) {
	if p.repo == nil {
		return nil, domain.ErrNotFound
	}
	if strings.TrimSpace(key) == "" {
		return nil, domain.NewValidationError("key", "must not be empty")
	}
	return p.repo.Load(ctx, key)
}

// List returns summaries of every stored trip, oldest first.
func (p *ItineraryPlanner) List(ctx context.Context) ([]*domain.Trip, error) {
	if p.repo == nil {
		return []*domain.Trip{}, nil
	}
	return p.repo.List(ctx)
}

// resolveDestination swaps the free-text destination for the canonical
// place name. Text that matches no place is kept as typed.
func (p *ItineraryPlanner) resolveDestination(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return text, nil
	}

	opts := p.routes.lookupOptions()
	var details domain.PlaceDetails
	err := retry.Do(ctx, opts.policy(), func(ctx context.Context) error {
		id, err := p.resolver.ResolvePlace(ctx, text)
		if err != nil {
			return err
		}
		if id == "" {
			return domain.ErrNotFound
		}
		details, err = p.routes.places.GetPlaceDetails(ctx, id)
		return err
	})
	switch {
	case err == nil && strings.TrimSpace(details.Name) != "":
		return details.Name, nil
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return text, nil
	case isContextErr(err):
		return "", err
	default:
		return "", &domain.LookupError{Op: "resolve_destination", Key: text, Err: err}
	}
}

// resolveAll turns every PlanStop into a place id, resolving queries
// concurrently. Order is preserved.
func (p *ItineraryPlanner) resolveAll(ctx context.Context, origin PlanStop, stops []PlanStop) (string, []string, error) {
	all := append([]PlanStop{origin}, stops...)
	ids := make([]string, len(all))

	for i, s := range all {
		if strings.TrimSpace(s.PlaceID) == "" && strings.TrimSpace(s.Query) == "" {
			field := "stops"
			if i == 0 {
				field = "origin"
			}
			return "", nil, domain.NewValidationError(field, "entry %d needs a place id or a query", i)
		}
	}

	opts := p.routes.lookupOptions()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	for i, s := range all {
		if id := strings.TrimSpace(s.PlaceID); id != "" {
			ids[i] = id
			continue
		}

		query := strings.TrimSpace(s.Query)
		g.Go(func() error {
			var id string
			err := retry.Do(gctx, opts.policy(), func(ctx context.Context) error {
				var err error
				id, err = p.resolver.ResolvePlace(ctx, query)
				if err == nil && id == "" {
					err = domain.ErrNotFound
				}
				return err
			})
			if err != nil {
				if isContextErr(err) {
					return err
				}
				return &domain.LookupError{Op: "resolve_place", Key: query, Err: err}
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return ids[0], ids[1:], nil
}
