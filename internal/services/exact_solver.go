package services

import (
	"context"
	"slices"
	"trip-planner-service/internal/domain"
)

// label is one non-dominated partial route ending at a fixed location with a
// fixed visited set.
type label struct {
	cost    int
	arrival int // service start at the current location
	path    []uint8
}

// solveExact runs a subset DP where each (visited set, current location)
// state keeps a Pareto frontier of labels over cost and arrival time. A single
// best-cost label per state is not enough once windows are involved: a
// costlier prefix that arrives earlier can be the only one that makes a later
// window.
func (in *instance) solveExact(ctx context.Context) (route, error) {
	m := in.m
	full := 1<<m - 1
	frontier := make([][]label, (full+1)*m)
	slot := func(mask, k int) int { return mask*m + (k - 1) }

	for k := 1; k <= m; k++ {
		if arr, ok := in.serviceStart(k, in.start+in.at(0, k)); ok {
			frontier[slot(1<<(k-1), k)] = []label{{cost: in.at(0, k), arrival: arr, path: []uint8{uint8(k)}}}
		}
	}

	// Adding a stop always yields a numerically larger mask, so increasing
	// order visits every subset before its supersets.
	for mask := 1; mask < full; mask++ {
		for k := 1; k <= m; k++ {
			labels := frontier[slot(mask, k)]
			if len(labels) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return route{}, err
			}

			for _, l := range labels {
				depart := l.arrival + in.dwell[k]
				for j := 1; j <= m; j++ {
					bit := 1 << (j - 1)
					if mask&bit != 0 {
						continue
					}
					leg := in.at(k, j)
					arr, ok := in.serviceStart(j, depart+leg)
					if !ok {
						continue
					}

					path := make([]uint8, len(l.path)+1)
					copy(path, l.path)
					path[len(l.path)] = uint8(j)

					s := slot(mask|bit, j)
					frontier[s] = in.insert(frontier[s], label{cost: l.cost + leg, arrival: arr, path: path})
				}
			}
		}
	}

	var best route
	found := false
	for k := 1; k <= m; k++ {
		for _, l := range frontier[slot(full, k)] {
			path := make([]int, len(l.path))
			for i, v := range l.path {
				path[i] = int(v)
			}
			r, ok := in.evaluate(path)
			if !ok {
				// Only the return leg can fail here.
				continue
			}
			if !found || r.better(best) {
				best, found = r, true
			}
		}
	}

	if !found {
		if in.closing {
			return route{}, &domain.InfeasibleRouteError{Reason: "no visiting order returns to the origin before the end of the day"}
		}
		return route{}, &domain.InfeasibleRouteError{Reason: "no visiting order satisfies every opening window"}
	}
	return best, nil
}

// insert adds l to the frontier unless an existing label dominates it, and
// drops the labels l dominates.
func (in *instance) insert(frontier []label, l label) []label {
	for _, e := range frontier {
		if in.dominates(e, l) {
			return frontier
		}
	}

	kept := frontier[:0]
	for _, e := range frontier {
		if !in.dominates(l, e) {
			kept = append(kept, e)
		}
	}
	return append(kept, l)
}

// dominates reports whether every completion of b is matched or beaten by
// the same completion of a, including on the final tie-breaks.
//
// With waiting allowed, an earlier arrival can never make a later stop
// infeasible, so a label is dominated by any label that is no costlier and
// no later. Without waiting an earlier arrival may miss a window the later
// one hits, so only labels with the same arrival are comparable.
func (in *instance) dominates(a, b label) bool {
	if in.early {
		if a.arrival > b.arrival || a.cost > b.cost {
			return false
		}
	} else if a.arrival != b.arrival || a.cost > b.cost {
		return false
	}

	if a.cost < b.cost {
		return true
	}
	return slices.Compare(a.path, b.path) < 0
}
