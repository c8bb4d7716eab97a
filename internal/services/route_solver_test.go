package services

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-03-02 is a Monday.
const testWeekday = time.Monday

func mustMatrix(t *testing.T, rows [][]int) *domain.DistanceMatrix {
	t.Helper()
	m, err := domain.NewDistanceMatrix(rows)
	require.NoError(t, err)
	return m
}

func problem(t *testing.T, rows [][]int, windows map[int][]domain.OpeningWindow, start, dwell int) RouteProblem {
	t.Helper()
	locs := make([]domain.Location, len(rows))
	dw := make([]int, len(rows))
	for i := range rows {
		locs[i] = domain.Location{ID: string(rune('O' + i)), Index: i, OpeningWindows: windows[i]}
		if i > 0 {
			dw[i] = dwell
		}
	}
	return RouteProblem{
		Matrix:    mustMatrix(t, rows),
		Locations: locs,
		Weekday:   testWeekday,
		StartTime: start,
		Dwell:     dw,
	}
}

func monday(start, end int) domain.OpeningWindow {
	return domain.OpeningWindow{Day: testWeekday, Start: start, End: end}
}

func TestSolveRoute_PicksCheapestOrder(t *testing.T) {
	rows := [][]int{
		{0, 10, 20},
		{10, 0, 5},
		{20, 5, 0},
	}

	sol, err := SolveRoute(context.Background(), problem(t, rows, nil, 540, 60), config.DefaultSolver())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, sol.Path())
	assert.Equal(t, 15, sol.TotalCost())
	assert.Equal(t, []int{550, 615}, sol.ArrivalTimes())
	assert.Equal(t, []int{610, 675}, sol.DepartureTimes())
	assert.Equal(t, domain.StrategyExact, sol.Strategy())
}

func TestSolveRoute_Trivial(t *testing.T) {
	sol, err := SolveRoute(context.Background(), problem(t, [][]int{{0}}, nil, 540, 60), config.DefaultSolver())
	require.NoError(t, err)

	assert.Empty(t, sol.Path())
	assert.Equal(t, 0, sol.TotalCost())
	assert.Equal(t, domain.StrategyTrivial, sol.Strategy())
}

func TestSolveRoute_SingleStop(t *testing.T) {
	rows := [][]int{{0, 17}, {9, 0}}

	sol, err := SolveRoute(context.Background(), problem(t, rows, nil, 600, 30), config.DefaultSolver())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, sol.Path())
	assert.Equal(t, 17, sol.TotalCost())
}

func TestSolveRoute_ReturnToOriginAddsClosingLeg(t *testing.T) {
	rows := [][]int{{0, 17}, {9, 0}}
	cfg := config.DefaultSolver()
	cfg.ReturnToOrigin = true

	sol, err := SolveRoute(context.Background(), problem(t, rows, nil, 600, 30), cfg)
	require.NoError(t, err)
	assert.Equal(t, 26, sol.TotalCost())
}

func TestSolveRoute_WindowsForceCostlierOrder(t *testing.T) {
	rows := [][]int{
		{0, 10, 20},
		{10, 0, 5},
		{20, 5, 0},
	}
	windows := map[int][]domain.OpeningWindow{
		1: {monday(840, 960)},
		2: {monday(540, 630)},
	}

	sol, err := SolveRoute(context.Background(), problem(t, rows, windows, 540, 60), config.DefaultSolver())
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, sol.Path())
	assert.Equal(t, 25, sol.TotalCost())
	// A is reached at 10:25 and waits for the 14:00 opening.
	assert.Equal(t, []int{560, 840}, sol.ArrivalTimes())
}

func TestSolveRoute_EarlyArrivalRejectedWhenWaitingDisabled(t *testing.T) {
	rows := [][]int{{0, 10}, {10, 0}}
	windows := map[int][]domain.OpeningWindow{1: {monday(840, 960)}}
	cfg := config.DefaultSolver()
	cfg.AllowEarlyArrival = false

	_, err := SolveRoute(context.Background(), problem(t, rows, windows, 540, 60), cfg)
	require.ErrorIs(t, err, domain.ErrInfeasibleRoute)

	// Leaving later lands inside the window.
	sol, err := SolveRoute(context.Background(), problem(t, rows, windows, 835, 60), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{845}, sol.ArrivalTimes())
}

func TestSolveRoute_WindowClosedBeforeEarliestArrival(t *testing.T) {
	rows := [][]int{
		{0, 10, 20},
		{10, 0, 5},
		{20, 5, 0},
	}
	windows := map[int][]domain.OpeningWindow{2: {monday(480, 520)}}

	_, err := SolveRoute(context.Background(), problem(t, rows, windows, 540, 60), config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrInfeasibleRoute)

	var infeasible *domain.InfeasibleRouteError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, "Q", infeasible.LocationID)
}

func TestSolveRoute_ClosedOnTravelDay(t *testing.T) {
	rows := [][]int{{0, 10}, {10, 0}}
	windows := map[int][]domain.OpeningWindow{
		1: {{Day: time.Sunday, Start: 0, End: 1439}},
	}

	_, err := SolveRoute(context.Background(), problem(t, rows, windows, 540, 60), config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrInfeasibleRoute)
}

func TestSolveRoute_VisitMustEndBeforeMidnight(t *testing.T) {
	rows := [][]int{{0, 10}, {10, 0}}

	sol, err := SolveRoute(context.Background(), problem(t, rows, nil, 1369, 60), config.DefaultSolver())
	require.NoError(t, err)
	assert.Equal(t, []int{1439}, sol.DepartureTimes())

	_, err = SolveRoute(context.Background(), problem(t, rows, nil, 1370, 60), config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrInfeasibleRoute)
}

func TestSolveRoute_TooManyLocations(t *testing.T) {
	cfg := config.DefaultSolver()
	cfg.MaxNonOriginLocations = 2

	rows := symmetricRows(rand.New(rand.NewSource(1)), 4, 30)
	_, err := SolveRoute(context.Background(), problem(t, rows, nil, 540, 30), cfg)

	var tooMany *domain.TooManyLocationsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 3, tooMany.Count)
	assert.Equal(t, 2, tooMany.Max)
}

func TestSolveRoute_RejectsBadInput(t *testing.T) {
	rows := [][]int{{0, 10}, {10, 0}}

	p := problem(t, rows, nil, 540, 60)
	p.Dwell = []int{0}
	_, err := SolveRoute(context.Background(), p, config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrValidation)

	p = problem(t, rows, nil, 540, 0)
	_, err = SolveRoute(context.Background(), p, config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrValidation)

	p = problem(t, rows, nil, 1440, 60)
	_, err = SolveRoute(context.Background(), p, config.DefaultSolver())
	require.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestSolveRoute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := symmetricRows(rand.New(rand.NewSource(2)), 6, 30)
	_, err := SolveRoute(ctx, problem(t, rows, nil, 480, 20), config.DefaultSolver())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSolveRoute_Deterministic(t *testing.T) {
	// Every leg costs the same, so all orders tie on cost and finish time
	// and the lexicographically smallest path must win.
	rows := [][]int{
		{0, 5, 5, 5},
		{5, 0, 5, 5},
		{5, 5, 0, 5},
		{5, 5, 5, 0},
	}

	first, err := SolveRoute(context.Background(), problem(t, rows, nil, 540, 30), config.DefaultSolver())
	require.NoError(t, err)
	second, err := SolveRoute(context.Background(), problem(t, rows, nil, 540, 30), config.DefaultSolver())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, first.Path())
	assert.Equal(t, first.Path(), second.Path())
	assert.Equal(t, first.TotalCost(), second.TotalCost())
}

// The DP must agree with brute force on cost, finish and path, windows or not.
func TestSolveRoute_ExactMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 60; trial++ {
		n := 2 + rng.Intn(6)
		rows := asymmetricRows(rng, n, 45)
		windows := randomWindows(rng, n)

		cfg := config.DefaultSolver()
		cfg.AllowEarlyArrival = trial%3 != 0
		cfg.ReturnToOrigin = trial%4 == 0

		p := problem(t, rows, windows, 480+rng.Intn(120), 15+rng.Intn(60))
		want, feasible := bruteForce(t, p, cfg)

		got, err := SolveRoute(context.Background(), p, cfg)
		if !feasible {
			require.ErrorIs(t, err, domain.ErrInfeasibleRoute, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.Equal(t, want.path, got.Path(), "trial %d", trial)
		assert.Equal(t, want.cost, got.TotalCost(), "trial %d", trial)
		assert.Equal(t, want.arrivals, got.ArrivalTimes(), "trial %d", trial)
	}
}

func TestSolveRoute_HeuristicProducesFeasiblePermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := symmetricRows(rng, 8, 40)

	exactCfg := config.DefaultSolver()
	exact, err := SolveRoute(context.Background(), problem(t, rows, nil, 480, 20), exactCfg)
	require.NoError(t, err)

	cfg := config.DefaultSolver()
	cfg.ExactSolveCap = 3
	p := problem(t, rows, nil, 480, 20)
	sol, err := SolveRoute(context.Background(), p, cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyHeuristic, sol.Strategy())
	sorted := sol.Path()
	slices.Sort(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, sorted)
	assert.Equal(t, p.Matrix.PathCost(0, sol.Path()), sol.TotalCost())
	assert.GreaterOrEqual(t, sol.TotalCost(), exact.TotalCost())
}

func TestSolveRoute_HeuristicHonorsWindows(t *testing.T) {
	rows := [][]int{
		{0, 10, 20},
		{10, 0, 5},
		{20, 5, 0},
	}
	windows := map[int][]domain.OpeningWindow{
		1: {monday(840, 960)},
		2: {monday(540, 630)},
	}
	cfg := config.DefaultSolver()
	cfg.ExactSolveCap = 0

	sol, err := SolveRoute(context.Background(), problem(t, rows, windows, 540, 60), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, sol.Path())
	assert.Equal(t, domain.StrategyHeuristic, sol.Strategy())
}

func TestSolveRoute_HeuristicMatchesExactOnEasyInstance(t *testing.T) {
	// Stops on a line: the sweep outward is optimal and greedy finds it.
	rows := make([][]int, 6)
	for i := range rows {
		rows[i] = make([]int, 6)
		for j := range rows[i] {
			rows[i][j] = 7 * max(i-j, j-i)
		}
	}
	cfg := config.DefaultSolver()
	cfg.ExactSolveCap = 0

	sol, err := SolveRoute(context.Background(), problem(t, rows, nil, 480, 10), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, sol.Path())
	assert.Equal(t, 35, sol.TotalCost())
}

func bruteForce(t *testing.T, p RouteProblem, cfg config.Solver) (route, bool) {
	t.Helper()
	in, err := newInstance(p, cfg)
	require.NoError(t, err)

	perm := make([]int, in.m)
	for i := range perm {
		perm[i] = i + 1
	}

	var best route
	found := false
	var walk func(k int)
	walk = func(k int) {
		if k == len(perm) {
			r, ok := in.evaluate(slices.Clone(perm))
			if ok && (!found || r.better(best)) {
				best, found = r, true
			}
			return
		}
		for i := k; i < len(perm); i++ {
			perm[k], perm[i] = perm[i], perm[k]
			walk(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	walk(0)
	return best, found
}

func symmetricRows(rng *rand.Rand, n, maxLeg int) [][]int {
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1 + rng.Intn(maxLeg)
			rows[i][j], rows[j][i] = d, d
		}
	}
	return rows
}

func asymmetricRows(rng *rand.Rand, n, maxLeg int) [][]int {
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = make([]int, n)
		for j := range rows[i] {
			if i != j {
				rows[i][j] = rng.Intn(maxLeg)
			}
		}
	}
	return rows
}

// randomWindows leaves some stops unconstrained and gives others one or
// two Monday windows somewhere between 08:00 and 18:00.
func randomWindows(rng *rand.Rand, n int) map[int][]domain.OpeningWindow {
	out := make(map[int][]domain.OpeningWindow)
	for i := 1; i < n; i++ {
		switch rng.Intn(3) {
		case 0:
			continue
		case 1:
			s := 480 + rng.Intn(480)
			out[i] = []domain.OpeningWindow{monday(s, s+30+rng.Intn(180))}
		default:
			s := 480 + rng.Intn(180)
			e := s + 30 + rng.Intn(90)
			s2 := e + 60 + rng.Intn(120)
			out[i] = []domain.OpeningWindow{monday(s2, s2+60), monday(s, e)}
		}
	}
	return out
}
