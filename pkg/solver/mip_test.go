package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIPEngineSolve(t *testing.T) {
	type tc struct {
		Name      string
		Build     func(m *Model) []Var
		Status    Status
		Expected  []float64
		Objective float64
	}

	for _, tt := range []tc{
		{
			Name: "binary knapsack",
			Build: func(m *Model) []Var {
				vs := []Var{m.NewBool("a"), m.NewBool("b"), m.NewBool("c")}
				m.Post(LessEq(WeightedSum(vs, []float64{2, 3, 1}), 5))
				require.NoError(t, m.SetObjective(WeightedSum(vs, []float64{5, 4, 3}), Maximize))
				return vs
			},
			Status:    StatusOptimal,
			Expected:  []float64{1, 1, 0},
			Objective: 9,
		},
		{
			Name: "integer rounding",
			Build: func(m *Model) []Var {
				x, _ := m.NewVar(Integer, 0, 10, "x")
				y, _ := m.NewVar(Integer, 0, 10, "y")
				m.Post(LessEq(WeightedSum([]Var{x, y}, []float64{2, 2}), 7))
				m.Post(LessEq(Sum(y), 0))
				require.NoError(t, m.SetObjective(Sum(x, y), Maximize))
				return []Var{x, y}
			},
			Status:    StatusOptimal,
			Expected:  []float64{3, 0},
			Objective: 3,
		},
		{
			Name: "conditional linear constraint",
			Build: func(m *Model) []Var {
				open := m.NewBool("open")
				flow, _ := m.NewVar(Continuous, 0, 100, "flow")
				m.PostConditional(open.Not(), LessEq(Sum(flow), 0))
				m.Post(GreaterEq(Sum(flow), 30))
				obj := Sum(flow)
				obj.Add(open, 50)
				require.NoError(t, m.SetObjective(obj, Minimize))
				return []Var{open, flow}
			},
			Status:    StatusOptimal,
			Expected:  []float64{1, 30},
			Objective: 80,
		},
		{
			Name: "disjunction of linear constraints",
			Build: func(m *Model) []Var {
				x, _ := m.NewVar(Integer, 0, 10, "x")
				m.Post(Or(LessEq(Sum(x), 2), GreaterEq(Sum(x), 8)))
				m.Post(Not(Equal(Sum(x), 8)))
				require.NoError(t, m.SetObjective(Sum(x), Maximize))
				return []Var{x}
			},
			Status:    StatusOptimal,
			Expected:  []float64{10},
			Objective: 10,
		},
		{
			Name: "infeasible",
			Build: func(m *Model) []Var {
				x, _ := m.NewVar(Continuous, 0, 1, "x")
				m.Post(GreaterEq(Sum(x), 2))
				return nil
			},
			Status: StatusInfeasible,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := NewModel(tt.Name)
			vars := tt.Build(m)
			sol, err := NewMIPEngine().Solve(context.Background(), m)
			require.NoError(t, err)
			assert.Equal(t, tt.Status, sol.Status())
			for i, v := range vars {
				assert.InDelta(t, tt.Expected[i], sol.Value(v), 1e-6, v.String())
			}
			assert.InDelta(t, tt.Objective, sol.Objective(), 1e-6)
		})
	}
}

func TestMIPEngineUnbounded(t *testing.T) {
	m := NewModel("unbounded")
	x, err := m.NewVar(Continuous, 0, math.Inf(1), "x")
	require.NoError(t, err)
	require.NoError(t, m.SetObjective(Sum(x), Maximize))
	_, err = NewMIPEngine().Solve(context.Background(), m)
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestMIPEngineCancelledIsUnknown(t *testing.T) {
	m := NewModel("cancelled")
	x, err := m.NewVar(Integer, 0, 5, "x")
	require.NoError(t, err)
	require.NoError(t, m.SetObjective(Sum(x), Maximize))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := NewMIPEngine().Solve(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, sol.Status())
}

func TestMIPEnumerateRejectsIntegers(t *testing.T) {
	m := NewModel("ints")
	_, err := m.NewVar(Integer, 0, 3, "x")
	require.NoError(t, err)
	_, err = NewMIPEngine().Enumerate(context.Background(), m)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEnginesAgreeOnFormulaCounts(t *testing.T) {
	build := func() *Model {
		m := NewModel("formula")
		a, b, c, d := m.NewBool("a"), m.NewBool("b"), m.NewBool("c"), m.NewBool("d")
		m.Post(Iff(a.Lit(), Clause(b.Lit(), c.Lit())))
		m.Post(Or(
			And(Require(c.Lit()), Prohibit(d.Lit())),
			And(Prohibit(c.Lit()), Require(d.Lit())),
		))
		m.Post(Implies(b.Lit(), AtMost(1, c.Lit(), d.Lit())))
		return m
	}

	// c xor d: (c=1,d=0) or (c=0,d=1); a <-> (b or c).
	// c=1,d=0: a=1, b free -> 2. c=0,d=1: a=b -> 2.
	for _, engine := range []Engine{NewSATEngine(), NewMIPEngine()} {
		t.Run(engine.Name(), func(t *testing.T) {
			it, err := engine.Enumerate(context.Background(), build())
			require.NoError(t, err)
			assert.Len(t, drain(t, it), 4)
		})
	}
}

func TestEnginesAgreeOnOptimum(t *testing.T) {
	type tc struct {
		Name string
		// Build returns the rows every solution must satisfy.
		Build     func(t *testing.T, m *Model) []Constraint
		Objective float64
	}

	integer := func(t *testing.T, m *Model, name string, lb, ub float64) Var {
		v, err := m.NewVar(Integer, lb, ub, name)
		require.NoError(t, err)
		return v
	}

	for _, tt := range []tc{
		{
			Name: "shifted lower bound",
			Build: func(t *testing.T, m *Model) []Constraint {
				x := integer(t, m, "x", 3, 10)
				require.NoError(t, m.SetObjective(Sum(x), Minimize))
				return nil
			},
			Objective: 3,
		},
		{
			Name: "covering row",
			Build: func(t *testing.T, m *Model) []Constraint {
				x, y := integer(t, m, "x", 0, 10), integer(t, m, "y", 0, 10)
				rows := []Constraint{GreaterEq(WeightedSum([]Var{x, y}, []float64{2, 3}), 7)}
				require.NoError(t, m.SetObjective(WeightedSum([]Var{x, y}, []float64{3, 2}), Minimize))
				return rows
			},
			Objective: 6,
		},
		{
			Name: "nonzero lower bounds",
			Build: func(t *testing.T, m *Model) []Constraint {
				x, y := integer(t, m, "x", 2, 6), integer(t, m, "y", 1, 4)
				rows := []Constraint{
					LessEq(Sum(x, y), 7),
					GreaterEq(WeightedSum([]Var{x, y}, []float64{1, -1}), 0),
				}
				require.NoError(t, m.SetObjective(WeightedSum([]Var{x, y}, []float64{2, 3}), Maximize))
				return rows
			},
			Objective: 17,
		},
		{
			Name: "negative lower bounds",
			Build: func(t *testing.T, m *Model) []Constraint {
				x, y := integer(t, m, "x", -5, 5), integer(t, m, "y", -3, 4)
				rows := []Constraint{
					GreaterEq(Sum(x, y), 1),
					LessEq(WeightedSum([]Var{x, y}, []float64{1, -1}), 2),
				}
				require.NoError(t, m.SetObjective(WeightedSum([]Var{x, y}, []float64{1, -2}), Minimize))
				return rows
			},
			Objective: -11,
		},
		{
			Name: "capacity range with negative weights",
			Build: func(t *testing.T, m *Model) []Constraint {
				vs := []Var{m.NewBool("a"), m.NewBool("b"), m.NewBool("c"), m.NewBool("d")}
				rows := []Constraint{
					Linear(WeightedSum(vs, []float64{2, 3, 1, 2}), 2, 5),
					GreaterEq(WeightedSum(vs[:3], []float64{3, -2, 1}), 1),
				}
				require.NoError(t, m.SetObjective(WeightedSum(vs, []float64{5, 4, 3, 2}), Maximize))
				return rows
			},
			Objective: 10,
		},
	} {
		for _, engine := range []Engine{NewSATEngine(), NewMIPEngine()} {
			t.Run(tt.Name+"/"+engine.Name(), func(t *testing.T) {
				m := NewModel(tt.Name)
				rows := tt.Build(t, m)
				for _, r := range rows {
					m.Post(r)
				}
				sol, err := engine.Solve(context.Background(), m)
				require.NoError(t, err)
				require.Equal(t, StatusOptimal, sol.Status())
				assert.InDelta(t, tt.Objective, sol.Objective(), 1e-6)
				obj, _, _ := m.Objective()
				assert.InDelta(t, tt.Objective, obj.Eval(sol.Value), 1e-6)
				for _, r := range rows {
					lin := r.(*linear)
					v := lin.expr.Eval(sol.Value)
					assert.True(t, v >= lin.lo-1e-6 && v <= lin.hi+1e-6, "%s violated: %g", r, v)
				}
			})
		}
	}
}
