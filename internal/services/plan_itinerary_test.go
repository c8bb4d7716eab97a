package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"trip-planner-service/internal/adapters/places"
	"trip-planner-service/internal/domain"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTripRepo struct {
	mu    sync.Mutex
	trips map[string]*domain.Trip
	err   error
}

func newMemoryTripRepo() *memoryTripRepo {
	return &memoryTripRepo{trips: map[string]*domain.Trip{}}
}

func (r *memoryTripRepo) Persist(_ context.Context, trip *domain.Trip) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	key := "trip-" + string(rune('0'+len(r.trips)+1))
	r.trips[key] = trip.WithKey(key)
	return key, nil
}

func (r *memoryTripRepo) Load(_ context.Context, key string) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *memoryTripRepo) List(_ context.Context) ([]*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := lo.Keys(r.trips)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) *domain.Trip { return r.trips[k] }), nil
}

func newTestItineraryPlanner(repo *memoryTripRepo) (*ItineraryPlanner, func() int64) {
	city := testCity()
	routes := NewRoutePlanner(city, city, testSolverConfig())
	if repo == nil {
		return NewItineraryPlanner(city, routes, nil), city.Calls
	}
	return NewItineraryPlanner(city, routes, repo), city.Calls
}

func TestItineraryPlannerPlan_SingleDay(t *testing.T) {
	repo := newMemoryTripRepo()
	planner, _ := newTestItineraryPlanner(repo)

	it, err := planner.Plan(context.Background(), PlanItineraryRequest{
		TripName:    "Museum day",
		Destination: "Line City",
		StartDate:   "2026-03-02",
		Origin:      PlanStop{Query: "hotel"},
		Stops: []PlanStop{
			{Query: "Museum"},
			{PlaceID: "park"},
			{PlaceID: "cafe", DwellMinutes: 30},
		},
		DepartAt: 540,
	})
	require.NoError(t, err)

	trip := it.Trip
	assert.Equal(t, "trip-1", trip.Key())
	assert.Equal(t, "Line City", trip.DestinationName())
	assert.Equal(t, 1, trip.NumDays())

	days := trip.Days()
	require.Len(t, days, 1)
	assert.Equal(t, "hotel", days[0].Origin())
	assert.Equal(t, "park", days[0].Destination())
	assert.Equal(t, []string{"cafe", "museum", "park"}, days[0].Locations())

	events := days[0].Events()
	require.Len(t, events, 3)
	assert.Equal(t, "Corner Cafe", events[0].Name())
	assert.Equal(t, "09:07", events[0].StartClock())
	assert.Equal(t, "09:37", events[0].EndClock())
	// Reached at 09:49, waits for the 10:00 opening.
	assert.Equal(t, "10:00", events[1].StartClock())
	assert.Equal(t, "11:00", events[1].EndClock())
	assert.Equal(t, "11:17", events[2].StartClock())

	stored, err := planner.Get(context.Background(), "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "Museum day", stored.Name())
}

func TestItineraryPlannerPlan_SplitsAcrossDays(t *testing.T) {
	planner, _ := newTestItineraryPlanner(nil)

	it, err := planner.Plan(context.Background(), PlanItineraryRequest{
		TripName:  "Long weekend",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-04",
		Origin:    PlanStop{PlaceID: "hotel"},
		Stops:     []PlanStop{{PlaceID: "park"}, {PlaceID: "museum"}, {PlaceID: "cafe"}},
		DepartAt:  540,
	})
	require.NoError(t, err)

	days := it.Trip.Days()
	require.Len(t, days, 3)
	assert.Equal(t, []string{"cafe"}, days[0].Locations())
	assert.Equal(t, "2026-03-03", days[1].Date())
	assert.Equal(t, []string{"museum"}, days[1].Locations())
	assert.Equal(t, []string{"park"}, days[2].Locations())
	assert.Empty(t, it.Trip.Key())
	require.Len(t, it.Days, 3)
	assert.NotNil(t, it.Days[2])
}

func TestItineraryPlannerPlan_EmptyDays(t *testing.T) {
	planner, _ := newTestItineraryPlanner(nil)

	it, err := planner.Plan(context.Background(), PlanItineraryRequest{
		TripName:  "Rest",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
		Origin:    PlanStop{PlaceID: "hotel"},
		Stops:     []PlanStop{{PlaceID: "park"}},
		DepartAt:  540,
	})
	require.NoError(t, err)

	days := it.Trip.Days()
	require.Len(t, days, 2)
	assert.Empty(t, days[1].Events())
	assert.Equal(t, "hotel", days[1].Destination())
	assert.Nil(t, it.Days[1])
}

func TestItineraryPlannerPlan_Errors(t *testing.T) {
	base := PlanItineraryRequest{
		TripName:  "Trip",
		StartDate: "2026-03-02",
		Origin:    PlanStop{PlaceID: "hotel"},
		Stops:     []PlanStop{{PlaceID: "park"}},
		DepartAt:  540,
	}

	cases := []struct {
		name      string
		mutate    func(r *PlanItineraryRequest)
		want      error
		noLookups bool
	}{
		{"empty name", func(r *PlanItineraryRequest) { r.TripName = "" }, domain.ErrValidation, true},
		{"end before start", func(r *PlanItineraryRequest) { r.EndDate = "2026-03-01" }, domain.ErrValidation, true},
		{"negative dwell", func(r *PlanItineraryRequest) { r.Stops[0].DwellMinutes = -5 }, domain.ErrValidation, true},
		{"blank stop", func(r *PlanItineraryRequest) { r.Stops = []PlanStop{{}} }, domain.ErrValidation, true},
		{"unknown query", func(r *PlanItineraryRequest) { r.Stops = []PlanStop{{Query: "Zoo"}} }, domain.ErrNotFound, false},
		{"same place twice", func(r *PlanItineraryRequest) { r.Stops = []PlanStop{{PlaceID: "park"}, {Query: "Park"}} }, domain.ErrValidation, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner, calls := newTestItineraryPlanner(nil)
			req := base
			req.Stops = append([]PlanStop{}, base.Stops...)
			tc.mutate(&req)

			_, err := planner.Plan(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
			if tc.noLookups {
				assert.Zero(t, calls())
			}
		})
	}
}

func TestItineraryPlannerPlan_PersistFailure(t *testing.T) {
	repo := newMemoryTripRepo()
	repo.err = errors.New("disk full")
	planner, _ := newTestItineraryPlanner(repo)

	_, err := planner.Plan(context.Background(), PlanItineraryRequest{
		TripName:  "Trip",
		StartDate: "2026-03-02",
		Origin:    PlanStop{PlaceID: "hotel"},
		Stops:     []PlanStop{{PlaceID: "park"}},
		DepartAt:  540,
	})
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestItineraryPlannerPlan_ResolvesDestinationName(t *testing.T) {
	base := PlanItineraryRequest{
		TripName:  "Trip",
		StartDate: "2026-03-02",
		Origin:    PlanStop{PlaceID: "hotel"},
		Stops:     []PlanStop{{PlaceID: "park"}},
		DepartAt:  540,
	}

	cases := []struct {
		name        string
		destination string
		want        string
	}{
		{"known place", "  Downtown ", "Line City Downtown"},
		{"unknown text kept", "Somewhere Else", "Somewhere Else"},
		{"blank", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner, _ := newTestItineraryPlanner(nil)
			req := base
			req.Destination = tc.destination

			it, err := planner.Plan(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, it.Trip.DestinationName())
		})
	}
}

func TestItineraryPlannerPlan_DestinationLookupFailure(t *testing.T) {
	city := testCity()
	city.FailNext("downtown", 10)
	cfg := testSolverConfig()
	cfg.LookupMaxAttempts = 2
	planner := NewItineraryPlanner(city, NewRoutePlanner(city, city, cfg), nil)

	_, err := planner.Plan(context.Background(), PlanItineraryRequest{
		TripName:    "Trip",
		Destination: "Downtown",
		StartDate:   "2026-03-02",
		Origin:      PlanStop{PlaceID: "hotel"},
		Stops:       []PlanStop{{PlaceID: "park"}},
		DepartAt:    540,
	})

	require.ErrorIs(t, err, domain.ErrLookup)
	require.ErrorIs(t, err, places.ErrMockUnavailable)
}

func TestItineraryPlannerList(t *testing.T) {
	repo := newMemoryTripRepo()
	planner, _ := newTestItineraryPlanner(repo)
	ctx := context.Background()

	for _, name := range []string{"First", "Second"} {
		_, err := planner.Plan(ctx, PlanItineraryRequest{
			TripName:  name,
			StartDate: "2026-03-02",
			Origin:    PlanStop{PlaceID: "hotel"},
			Stops:     []PlanStop{{PlaceID: "park"}},
			DepartAt:  540,
		})
		require.NoError(t, err)
	}

	trips, err := planner.List(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "trip-1", trips[0].Key())
	assert.Equal(t, "First", trips[0].Name())
	assert.Equal(t, "Second", trips[1].Name())

	noRepo, _ := newTestItineraryPlanner(nil)
	none, err := noRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestItineraryPlannerGet_Unknown(t *testing.T) {
	planner, _ := newTestItineraryPlanner(newMemoryTripRepo())

	_, err := planner.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
