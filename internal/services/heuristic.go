package services

import (
	"context"
	"slices"
	"trip-planner-service/internal/domain"
)

// solveHeuristic builds a route greedily and improves it with 2-opt.
//
// Two constructions are tried: nearest feasible neighbor, and earliest
// closing window first. The better feasible one seeds the local search,
// which only accepts moves that stay feasible and strictly lower the cost.
// It does not guarantee optimality.
func (in *instance) solveHeuristic(ctx context.Context) (route, error) {
	var best route
	found := false

	for _, pick := range []func(cur, arr, j, leg int) [3]int{in.byNearest, in.byClosing} {
		if err := ctx.Err(); err != nil {
			return route{}, err
		}
		r, ok := in.construct(pick)
		if ok && (!found || r.better(best)) {
			best, found = r, true
		}
	}

	if !found {
		return route{}, &domain.InfeasibleRouteError{Reason: "no feasible visiting order found by greedy construction"}
	}

	return in.twoOpt(ctx, best)
}

// construct extends the route one stop at a time, always picking the
// feasible candidate with the smallest key. The final key element is the
// location index, which keeps the choice deterministic.
func (in *instance) construct(key func(cur, arr, j, leg int) [3]int) (route, bool) {
	remaining := make([]bool, in.n)
	for k := 1; k < in.n; k++ {
		remaining[k] = true
	}

	path := make([]int, 0, in.m)
	cur, depart := 0, in.start

	for len(path) < in.m {
		best := -1
		var bestKey [3]int
		for j := 1; j < in.n; j++ {
			if !remaining[j] {
				continue
			}
			leg := in.at(cur, j)
			arr, ok := in.serviceStart(j, depart+leg)
			if !ok {
				continue
			}
			k := key(cur, arr, j, leg)
			if best < 0 || less3(k, bestKey) {
				best, bestKey = j, k
			}
		}

		if best < 0 {
			return route{}, false
		}

		arr, _ := in.serviceStart(best, depart+in.at(cur, best))
		path = append(path, best)
		remaining[best] = false
		cur, depart = best, arr+in.dwell[best]
	}

	return in.evaluate(path)
}

func (in *instance) byNearest(_, arr, j, leg int) [3]int {
	return [3]int{leg, arr, j}
}

func (in *instance) byClosing(_, _, j, leg int) [3]int {
	return [3]int{in.closesAt(j), leg, j}
}

// closesAt is the end of the last window on the travel day; unconstrained
// locations close at the day boundary.
func (in *instance) closesAt(k int) int {
	if in.open[k] || len(in.windows[k]) == 0 {
		return in.boundary
	}
	last := 0
	for _, w := range in.windows[k] {
		last = max(last, w.End)
	}
	return last
}

func less3(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// twoOpt applies the first feasible segment reversal that lowers the cost,
// and repeats until none does.
func (in *instance) twoOpt(ctx context.Context, r route) (route, error) {
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(r.path)-1 && !improved; i++ {
			if err := ctx.Err(); err != nil {
				return route{}, err
			}
			for k := i + 1; k < len(r.path); k++ {
				cand := make([]int, len(r.path))
				copy(cand, r.path)
				slices.Reverse(cand[i : k+1])

				c, ok := in.evaluate(cand)
				if ok && c.cost < r.cost {
					r = c
					improved = true
					break
				}
			}
		}
	}
	return r, nil
}
