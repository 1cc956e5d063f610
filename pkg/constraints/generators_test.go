package constraints

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

func count(t *testing.T, m *solver.Model) int {
	t.Helper()
	it, err := solver.NewSATEngine().Enumerate(context.Background(), m)
	require.NoError(t, err)
	defer it.Close()
	n := 0
	for {
		_, err := it.Next(context.Background())
		if errors.Is(err, solver.Done) {
			return n
		}
		require.NoError(t, err)
		n++
	}
}

func bools(m *solver.Model, names ...string) []solver.Lit {
	out := make([]solver.Lit, len(names))
	for i, name := range names {
		out[i] = m.NewBool(name).Lit()
	}
	return out
}

func TestCardinalityGenerators(t *testing.T) {
	type tc struct {
		Name     string
		Post     func(b *ConstraintBuilder, lits []solver.Lit)
		Expected int
	}

	for _, tt := range []tc{
		{
			Name:     "exactly one",
			Post:     func(b *ConstraintBuilder, lits []solver.Lit) { ExactlyOne(b, "one", lits) },
			Expected: 3,
		},
		{
			Name:     "at least one",
			Post:     func(b *ConstraintBuilder, lits []solver.Lit) { AtLeastOne(b, "some", lits) },
			Expected: 7,
		},
		{
			Name:     "at most one",
			Post:     func(b *ConstraintBuilder, lits []solver.Lit) { AtMostOne(b, "few", lits) },
			Expected: 4,
		},
		{
			Name:     "mutually exclusive",
			Post:     func(b *ConstraintBuilder, lits []solver.Lit) { MutuallyExclusive(b, "pairs", lits) },
			Expected: 4,
		},
		{
			Name:     "exactly one of nothing is infeasible",
			Post:     func(b *ConstraintBuilder, lits []solver.Lit) { ExactlyOne(b, "none", nil) },
			Expected: 0,
		},
		{
			Name: "require and forbid",
			Post: func(b *ConstraintBuilder, lits []solver.Lit) {
				Require(b, "fixed", lits[0])
				Forbid(b, "fixed", lits[1])
			},
			Expected: 2,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := solver.NewModel(tt.Name)
			b := NewConstraintBuilder(m, nil)
			tt.Post(b, bools(m, "a", "b", "c"))
			assert.Equal(t, tt.Expected, count(t, m))
		})
	}
}

func TestPerGroupGenerators(t *testing.T) {
	people := []string{"ann", "bob"}
	dishes := []string{"soup", "tart", "pie"}

	m := solver.NewModel("groups")
	b := NewConstraintBuilder(m, nil)
	ix := index.New[index.Pair[string, string]](m, "eats", nil)
	require.NoError(t, ix.DeclareAll(index.Pairs(people, dishes), solver.Bool, 0, 1))

	ExactlyOnePerGroup(b, "one dish each", ix, func(k index.Pair[string, string]) string { return k.First })
	Distinct(b, "no shared dish", ix, func(k index.Pair[string, string]) string { return k.Second })

	assert.Equal(t, 2, b.Count("one dish each"))
	assert.Equal(t, 3, b.Count("no shared dish"))
	assert.Equal(t, []Family{{Name: "one dish each", Count: 2}, {Name: "no shared dish", Count: 3}}, b.Families())
	// 3 choices for ann, 2 left for bob
	assert.Equal(t, 6, count(t, m))
}

func TestRangeSkipsSatisfiedConstants(t *testing.T) {
	m := solver.NewModel("range")
	b := NewConstraintBuilder(m, nil)
	Range(b, "trivial", solver.Expr{Const: 2}, 0, 5)
	assert.Empty(t, m.Constraints())

	Range(b, "violated", solver.Expr{Const: 7}, 0, 5)
	assert.Len(t, m.Constraints(), 1)
	assert.Equal(t, 0, count(t, m))
}

func TestFlowConservationSelectsPaths(t *testing.T) {
	type edge struct{ from, to string }
	edges := []edge{{"s", "a"}, {"s", "b"}, {"a", "t"}, {"b", "t"}, {"a", "b"}}

	m := solver.NewModel("flow")
	b := NewConstraintBuilder(m, nil)
	arcs := make([]Arc[string], len(edges))
	for i, e := range edges {
		arcs[i] = Arc[string]{From: e.from, To: e.to, Var: m.NewBool(e.from + e.to)}
	}
	FlowConservation(b, "flow", arcs, []string{"s", "a", "b", "t"}, "s", "t")

	// s-a-t, s-b-t, s-a-b-t
	assert.Equal(t, 3, count(t, m))
}

func TestSubtourElimination(t *testing.T) {
	type tc struct {
		Name  string
		Nodes int
		Cuts  int
		Tours int
	}

	for _, tt := range []tc{
		{Name: "three nodes", Nodes: 3, Cuts: 3, Tours: 2},
		{Name: "four nodes", Nodes: 4, Cuts: 10, Tours: 6},
		{Name: "five nodes", Nodes: 5, Cuts: 25, Tours: 24},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := solver.NewModel(tt.Name)
			b := NewConstraintBuilder(m, nil)
			nodes := make([]int, tt.Nodes)
			for i := range nodes {
				nodes[i] = i
			}
			arcs := index.New[index.Pair[int, int]](m, "x", func(k index.Pair[int, int]) bool { return k.First != k.Second })
			require.NoError(t, arcs.DeclareAll(index.Pairs(nodes, nodes), solver.Bool, 0, 1))

			var list []Arc[int]
			for _, k := range arcs.Keys() {
				v, _ := arcs.Lookup(k)
				list = append(list, Arc[int]{From: k.First, To: k.Second, Var: v})
			}
			Degree(b, "degree", list, nodes)
			cuts, err := SubtourElimination(b, "subtour", nodes, func(from, to int) (solver.Var, bool) {
				return arcs.Lookup(index.P(from, to))
			})
			require.NoError(t, err)
			assert.Equal(t, tt.Cuts, cuts)
			// directed Hamiltonian cycles: (n-1)!
			assert.Equal(t, tt.Tours, count(t, m))
		})
	}
}

func TestSubtourEliminationRejectsLargeInstances(t *testing.T) {
	nodes := make([]int, MaxSubtourNodes+1)
	b := NewConstraintBuilder(solver.NewModel("big"), nil)
	_, err := SubtourElimination(b, "subtour", nodes, func(int, int) (solver.Var, bool) { return solver.Var{}, false })
	assert.Error(t, err)
}

func TestBalancedPair(t *testing.T) {
	m := solver.NewModel("pair")
	b := NewConstraintBuilder(m, nil)
	lits := bools(m, "ew", "er", "sw", "sr")
	ew, er, sw, sr := lits[0], lits[1], lits[2], lits[3]
	ExactlyOne(b, "emily drinks", []solver.Lit{ew, er})
	ExactlyOne(b, "sophie drinks", []solver.Lit{sw, sr})
	BalancedPair(b, "wine",
		Side{Condition: solver.Require(ew), Complement: solver.Require(er)},
		Side{Condition: solver.Require(sw), Complement: solver.Require(sr)},
	)
	assert.Equal(t, 2, count(t, m))

	Require(b, "emily white", ew)
	sol, err := solver.NewSATEngine().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, sol.LitValue(sr))
	assert.False(t, sol.LitValue(sw))
}
