package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/solver"
)

func choose(n, k int) *solver.Model {
	m := solver.NewModel("choose")
	lits := make([]solver.Lit, n)
	for i := range lits {
		lits[i] = m.NewBool("").Lit()
	}
	m.Post(solver.Exactly(k, lits...))
	return m
}

func TestEnumerate(t *testing.T) {
	type tc struct {
		Name    string
		Model   *solver.Model
		Options []Option
		Count   int
		Outcome Outcome
	}

	for _, tt := range []tc{
		{
			Name:    "exhausts every solution",
			Model:   choose(4, 2),
			Count:   6,
			Outcome: OutcomeExhausted,
		},
		{
			Name:    "stops at the limit",
			Model:   choose(4, 2),
			Options: []Option{WithMaxSolutions(4)},
			Count:   4,
			Outcome: OutcomeLimited,
		},
		{
			Name:    "limit above the solution count",
			Model:   choose(3, 1),
			Options: []Option{WithMaxSolutions(10)},
			Count:   3,
			Outcome: OutcomeExhausted,
		},
		{
			Name:    "no solution is infeasible",
			Model:   choose(2, 3),
			Outcome: OutcomeInfeasible,
		},
	} {
		for _, engine := range []solver.Engine{solver.NewSATEngine(), solver.NewMIPEngine()} {
			t.Run(tt.Name+"/"+engine.Name(), func(t *testing.T) {
				seq := Enumerate(context.Background(), engine, tt.Model, tt.Options...)
				defer seq.Close()
				seen := map[string]bool{}
				for seq.Next() {
					key := ""
					for i := 0; i < tt.Model.NumVars(); i++ {
						if seq.Solution().Bool(tt.Model.Var(i)) {
							key += "1"
						} else {
							key += "0"
						}
					}
					assert.False(t, seen[key], "duplicate solution %s", key)
					seen[key] = true
				}
				require.NoError(t, seq.Err())
				assert.Equal(t, tt.Count, seq.Count())
				assert.Equal(t, tt.Outcome, seq.Outcome())
				assert.False(t, seq.Next())
				assert.Nil(t, seq.Solution())
			})
		}
	}
}

func TestEnumerateTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seq := Enumerate(ctx, solver.NewSATEngine(), choose(3, 1))
	assert.False(t, seq.Next())
	assert.NoError(t, seq.Err())
	assert.Equal(t, OutcomeTimedOut, seq.Outcome())
	assert.Equal(t, v1alpha1.StateTimedOut, seq.Outcome().State())
}

func TestEnumerateFailure(t *testing.T) {
	m := solver.NewModel("ints")
	_, err := m.NewVar(solver.Integer, 0, 3, "x")
	require.NoError(t, err)

	seq := Enumerate(context.Background(), solver.NewMIPEngine(), m)
	assert.False(t, seq.Next())
	assert.ErrorIs(t, seq.Err(), solver.ErrUnsupported)
	assert.Equal(t, OutcomeFailed, seq.Outcome())
}

func TestForEach(t *testing.T) {
	var positions []int
	err := ForEach(Enumerate(context.Background(), solver.NewSATEngine(), choose(3, 1)), func(i int, sol *solver.Solution) error {
		positions = append(positions, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, positions)

	stop := errors.New("stop")
	seq := Enumerate(context.Background(), solver.NewSATEngine(), choose(3, 1))
	err = ForEach(seq, func(i int, sol *solver.Solution) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seq.Count())
	assert.Equal(t, OutcomeLimited, seq.Outcome())
}

func TestSolve(t *testing.T) {
	type tc struct {
		Name    string
		Model   func() *solver.Model
		Outcome Outcome
		State   v1alpha1.State
	}

	for _, tt := range []tc{
		{
			Name: "optimal",
			Model: func() *solver.Model {
				m := choose(3, 1)
				require.NoError(t, m.SetObjective(solver.WeightedSum([]solver.Var{m.Var(0), m.Var(1), m.Var(2)}, []float64{3, 1, 2}), solver.Minimize))
				return m
			},
			Outcome: OutcomeOptimal,
			State:   v1alpha1.StateOptimal,
		},
		{
			Name:    "infeasible",
			Model:   func() *solver.Model { return choose(1, 2) },
			Outcome: OutcomeInfeasible,
			State:   v1alpha1.StateInfeasible,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			outcome, sol, err := Solve(context.Background(), solver.NewSATEngine(), tt.Model())
			require.NoError(t, err)
			assert.Equal(t, tt.Outcome, outcome)
			assert.Equal(t, tt.State, outcome.State())
			assert.Equal(t, outcome.HasSolution(), sol.Status().HasValues())
			if outcome == OutcomeOptimal {
				assert.Equal(t, 1.0, sol.Objective())
			}
		})
	}
}
