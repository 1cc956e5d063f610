package decode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

func solve(t *testing.T, m *solver.Model) *solver.Solution {
	t.Helper()
	sol, err := solver.NewMIPEngine().Solve(context.Background(), m)
	require.NoError(t, err)
	require.True(t, sol.Status().HasValues())
	return sol
}

// arcsFixing declares one boolean per ordered pair of nodes and fixes the
// selected ones to true and every other to false.
func arcsFixing(m *solver.Model, nodes []string, selected ...index.Pair[string, string]) []constraints.Arc[string] {
	chosen := make(map[index.Pair[string, string]]bool)
	for _, s := range selected {
		chosen[s] = true
	}
	var arcs []constraints.Arc[string]
	for _, from := range nodes {
		for _, to := range nodes {
			if from == to {
				continue
			}
			v := m.NewBool(from + "->" + to)
			if chosen[index.P(from, to)] {
				m.Post(solver.Require(v.Lit()))
			} else {
				m.Post(solver.Prohibit(v.Lit()))
			}
			arcs = append(arcs, constraints.Arc[string]{From: from, To: to, Var: v})
		}
	}
	return arcs
}

func TestChosenAndSum(t *testing.T) {
	m := solver.NewModel("chosen")
	ix := index.New[index.Pair[string, string]](m, "eats", nil)
	require.NoError(t, ix.DeclareAll(index.Pairs([]string{"ann", "bob"}, []string{"soup", "tart"}), solver.Bool, 0, 1))
	for _, k := range []index.Pair[string, string]{index.P("ann", "tart"), index.P("bob", "soup")} {
		l, _ := ix.Lit(k)
		m.Post(solver.Require(l))
	}
	for _, k := range []index.Pair[string, string]{index.P("ann", "soup"), index.P("bob", "tart")} {
		l, _ := ix.Lit(k)
		m.Post(solver.Prohibit(l))
	}
	sol := solve(t, m)

	first := func(k index.Pair[string, string]) string { return k.First }
	second := func(k index.Pair[string, string]) string { return k.Second }
	a := Chosen(ix, sol, first, second)
	assert.Equal(t, []string{"ann", "bob"}, a.Groups)
	got, ok := a.Get("ann")
	assert.True(t, ok)
	assert.Equal(t, "tart", got)
	assert.Equal(t, a, Chosen(ix, sol, first, second))

	order, totals := Sum(ix, sol, second, func(k index.Pair[string, string]) float64 {
		if k.First == "ann" {
			return 3
		}
		return 2
	})
	assert.Equal(t, []string{"soup", "tart"}, order)
	assert.Equal(t, map[string]float64{"soup": 2, "tart": 3}, totals)
	assert.Len(t, Values(ix, sol), 2)
}

func TestFractions(t *testing.T) {
	parts := map[string]map[string]float64{
		"c1": {"iron": 30, "plastic": 10},
		"c2": {"iron": 0},
	}
	fs := Fractions(parts)
	assert.Equal(t, map[string]map[string]float64{"c1": {"iron": 0.75, "plastic": 0.25}}, fs)
}

func TestRoute(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	type tc struct {
		Name     string
		Selected []index.Pair[string, string]
		Expected []string
		Cycle    bool
		Broken   bool
	}

	for _, tt := range []tc{
		{
			Name:     "simple path",
			Selected: []index.Pair[string, string]{index.P("a", "c"), index.P("c", "d")},
			Expected: []string{"a", "c", "d"},
		},
		{
			Name:     "detached loop is ignored",
			Selected: []index.Pair[string, string]{index.P("a", "d"), index.P("b", "c"), index.P("c", "b")},
			Expected: []string{"a", "d"},
		},
		{
			Name:     "cycle before the end",
			Selected: []index.Pair[string, string]{index.P("a", "b"), index.P("b", "c"), index.P("c", "b")},
			Expected: []string{"a", "b", "c", "b"},
			Cycle:    true,
		},
		{
			Name:     "dead end",
			Selected: []index.Pair[string, string]{index.P("a", "b")},
			Expected: []string{"a", "b"},
			Broken:   true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := solver.NewModel(tt.Name)
			arcs := arcsFixing(m, nodes, tt.Selected...)
			sol := solve(t, m)

			route, err := Route(arcs, sol, "a", "d")
			assert.Equal(t, tt.Expected, route)
			switch {
			case tt.Cycle:
				assert.ErrorIs(t, err, ErrDecodeCycle)
				var cerr *CycleError[string]
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, "b", cerr.At)
			case tt.Broken:
				assert.ErrorIs(t, err, ErrBrokenRoute)
			default:
				assert.NoError(t, err)
				again, _ := Route(arcs, sol, "a", "d")
				assert.Equal(t, route, again)
			}
		})
	}
}

func TestTourAndCycles(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}

	m := solver.NewModel("tour")
	arcs := arcsFixing(m, nodes, index.P("a", "c"), index.P("c", "b"), index.P("b", "d"), index.P("d", "a"))
	sol := solve(t, m)
	tour, err := Tour(arcs, sol, "a", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d", "a"}, tour)
	cycles, err := Cycles(arcs, sol)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c", "b", "d"}}, cycles)

	dist := map[index.Pair[string, string]]float64{
		index.P("a", "c"): 1, index.P("c", "b"): 2, index.P("b", "d"): 3, index.P("d", "a"): 4,
	}
	assert.Equal(t, 10.0, Length(tour, func(from, to string) float64 { return dist[index.P(from, to)] }))

	m = solver.NewModel("subtours")
	arcs = arcsFixing(m, nodes, index.P("a", "b"), index.P("b", "a"), index.P("c", "d"), index.P("d", "c"))
	sol = solve(t, m)
	_, err = Tour(arcs, sol, "a", 4)
	assert.ErrorIs(t, err, ErrDecodeCycle)
	cycles, err = Cycles(arcs, sol)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, cycles)
}

func TestBranchingSelection(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	m := solver.NewModel("branching")
	arcs := arcsFixing(m, nodes, index.P("a", "b"), index.P("a", "c"), index.P("b", "d"), index.P("c", "d"))
	sol := solve(t, m)

	for _, tt := range []struct {
		Name   string
		Decode func() error
	}{
		{Name: "route", Decode: func() error { _, err := Route(arcs, sol, "a", "d"); return err }},
		{Name: "tour", Decode: func() error { _, err := Tour(arcs, sol, "a", 4); return err }},
		{Name: "cycles", Decode: func() error { _, err := Cycles(arcs, sol); return err }},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			err := tt.Decode()
			assert.ErrorIs(t, err, ErrBranchingRoute)
			assert.ErrorContains(t, err, "a leaves to both b and c")
		})
	}
}

func TestHopTraffic(t *testing.T) {
	paths := []Path[string]{
		{From: "a", To: "c", Stops: []string{"a", "b", "c"}},
		{From: "b", To: "c", Stops: []string{"b", "c"}},
		{From: "c", To: "a", Stops: []string{"c", "b", "a"}},
	}
	demand := map[index.Pair[string, string]]float64{index.P("a", "c"): 10, index.P("b", "c"): 5}

	order, traffic := HopTraffic(paths, func(from, to string) float64 { return demand[index.P(from, to)] })
	assert.Equal(t, []index.Pair[string, string]{index.P("a", "b"), index.P("b", "c")}, order)
	assert.Equal(t, 10.0, traffic[index.P("a", "b")])
	assert.Equal(t, 15.0, traffic[index.P("b", "c")])
	_, ok := traffic[index.P("c", "b")]
	assert.False(t, ok)
}
