package decode

import (
	"fmt"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// successors maps every stop to the head of its selected outbound arc.
// A stop with two selected outbound arcs has no single successor.
func successors[N comparable](arcs []constraints.Arc[N], sol *solver.Solution) (map[N]N, []N, error) {
	next := make(map[N]N)
	var order []N
	for _, a := range arcs {
		if !sol.Bool(a.Var) {
			continue
		}
		if to, ok := next[a.From]; ok {
			return nil, nil, fmt.Errorf("%v leaves to both %v and %v: %w", a.From, to, a.To, ErrBranchingRoute)
		}
		next[a.From] = a.To
		order = append(order, a.From)
	}
	return next, order, nil
}

// Route walks the selected arcs from start until end. A return to an
// already visited stop yields a CycleError holding the partial route.
func Route[N comparable](arcs []constraints.Arc[N], sol *solver.Solution, start, end N) ([]N, error) {
	next, _, err := successors(arcs, sol)
	if err != nil {
		return nil, err
	}
	route := []N{start}
	visited := map[N]bool{start: true}
	at := start
	for at != end {
		to, ok := next[at]
		if !ok {
			return route, fmt.Errorf("no selected arc leaves %v: %w", at, ErrBrokenRoute)
		}
		route = append(route, to)
		if visited[to] {
			return route, &CycleError[N]{Route: route, At: to}
		}
		visited[to] = true
		at = to
	}
	return route, nil
}

// Tour walks a closed tour of n stops from start. The result begins and
// ends with start. Returning to start early, or to any other visited
// stop, yields a CycleError.
func Tour[N comparable](arcs []constraints.Arc[N], sol *solver.Solution, start N, n int) ([]N, error) {
	next, _, err := successors(arcs, sol)
	if err != nil {
		return nil, err
	}
	tour := []N{start}
	visited := map[N]bool{start: true}
	at := start
	for {
		to, ok := next[at]
		if !ok {
			return tour, fmt.Errorf("no selected arc leaves %v: %w", at, ErrBrokenRoute)
		}
		tour = append(tour, to)
		if to == start && len(tour) == n+1 {
			return tour, nil
		}
		if visited[to] {
			return tour, &CycleError[N]{Route: tour, At: to}
		}
		visited[to] = true
		at = to
	}
}

// Cycles decomposes the selected arcs into the cycles they form, each
// starting at the stop whose outbound arc appears first in arcs. Open
// chains are returned as they are walked.
func Cycles[N comparable](arcs []constraints.Arc[N], sol *solver.Solution) ([][]N, error) {
	next, order, err := successors(arcs, sol)
	if err != nil {
		return nil, err
	}
	seen := make(map[N]bool)
	var out [][]N
	for _, from := range order {
		if seen[from] {
			continue
		}
		var cycle []N
		at := from
		for !seen[at] {
			seen[at] = true
			cycle = append(cycle, at)
			to, ok := next[at]
			if !ok {
				break
			}
			at = to
		}
		out = append(out, cycle)
	}
	return out, nil
}

// Length sums weight over consecutive stops of route.
func Length[N comparable](route []N, weight func(from, to N) float64) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += weight(route[i-1], route[i])
	}
	return total
}

// Path is the route chosen between two endpoints.
type Path[N comparable] struct {
	From  N
	To    N
	Stops []N
}

// HopTraffic sums, for every consecutive hop, the demand of every path
// that traverses it. Hops appear in the order they are first traversed.
func HopTraffic[N comparable](paths []Path[N], demand func(from, to N) float64) ([]index.Pair[N, N], map[index.Pair[N, N]]float64) {
	var order []index.Pair[N, N]
	traffic := make(map[index.Pair[N, N]]float64)
	for _, p := range paths {
		d := demand(p.From, p.To)
		if d == 0 {
			continue
		}
		for i := 1; i < len(p.Stops); i++ {
			hop := index.P(p.Stops[i-1], p.Stops[i])
			if _, ok := traffic[hop]; !ok {
				order = append(order, hop)
			}
			traffic[hop] += d
		}
	}
	return order, traffic
}
