package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(idx []int, val []float64, lo, hi float64) lpRow {
	return lpRow{idx: idx, val: val, lo: lo, hi: hi}
}

func TestSolveLP(t *testing.T) {
	inf := math.Inf(1)
	type tc struct {
		Name    string
		Problem lpProblem
		Status  lpStatus
		X       []float64
		Obj     float64
	}

	for _, tt := range []tc{
		{
			Name: "textbook maximization",
			Problem: lpProblem{
				cost: []float64{-3, -5},
				lb:   []float64{0, 0},
				ub:   []float64{4, inf},
				rows: []lpRow{
					row([]int{1}, []float64{2}, -inf, 12),
					row([]int{0, 1}, []float64{3, 2}, -inf, 18),
				},
			},
			Status: lpOptimal,
			X:      []float64{2, 6},
			Obj:    -36,
		},
		{
			Name: "covering rows need phase one",
			Problem: lpProblem{
				cost: []float64{1, 1},
				lb:   []float64{0, 0},
				ub:   []float64{inf, inf},
				rows: []lpRow{
					row([]int{0, 1}, []float64{1, 2}, 4, inf),
					row([]int{0, 1}, []float64{3, 1}, 6, inf),
				},
			},
			Status: lpOptimal,
			X:      []float64{1.6, 1.2},
			Obj:    2.8,
		},
		{
			Name: "equality with shifted bounds",
			Problem: lpProblem{
				cost:   []float64{2, 1},
				offset: 10,
				lb:     []float64{1, 2},
				ub:     []float64{5, 5},
				rows: []lpRow{
					row([]int{0, 1}, []float64{1, 1}, 6, 6),
				},
			},
			Status: lpOptimal,
			X:      []float64{1, 5},
			Obj:    17,
		},
		{
			Name: "two sided row with negative coefficients keeps its lower half",
			Problem: lpProblem{
				cost: []float64{1},
				lb:   []float64{0},
				ub:   []float64{10},
				rows: []lpRow{
					row([]int{0}, []float64{-1}, -6, -2),
				},
			},
			Status: lpOptimal,
			X:      []float64{2},
			Obj:    2,
		},
		{
			Name: "two sided row with negative coefficients keeps its upper half",
			Problem: lpProblem{
				cost: []float64{-1},
				lb:   []float64{0},
				ub:   []float64{10},
				rows: []lpRow{
					row([]int{0}, []float64{-1}, -6, -2),
				},
			},
			Status: lpOptimal,
			X:      []float64{6},
			Obj:    -6,
		},
		{
			Name: "objective of a shifted variable",
			Problem: lpProblem{
				cost: []float64{1},
				lb:   []float64{3},
				ub:   []float64{10},
			},
			Status: lpOptimal,
			X:      []float64{3},
			Obj:    3,
		},
		{
			Name: "free variable",
			Problem: lpProblem{
				cost: []float64{1},
				lb:   []float64{math.Inf(-1)},
				ub:   []float64{inf},
				rows: []lpRow{
					row([]int{0}, []float64{1}, -3, inf),
				},
			},
			Status: lpOptimal,
			X:      []float64{-3},
			Obj:    -3,
		},
		{
			Name: "infeasible",
			Problem: lpProblem{
				cost: []float64{1},
				lb:   []float64{0},
				ub:   []float64{1},
				rows: []lpRow{
					row([]int{0}, []float64{1}, 2, inf),
				},
			},
			Status: lpInfeasible,
		},
		{
			Name: "unbounded",
			Problem: lpProblem{
				cost: []float64{-1, 0},
				lb:   []float64{0, 0},
				ub:   []float64{inf, inf},
				rows: []lpRow{
					row([]int{0, 1}, []float64{1, -1}, -inf, 1),
				},
			},
			Status: lpUnbounded,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			p := tt.Problem
			res, err := solveLP(context.Background(), &p, p.lb, p.ub)
			require.NoError(t, err)
			assert.Equal(t, tt.Status, res.status)
			if tt.Status != lpOptimal {
				return
			}
			assert.InDelta(t, tt.Obj, res.obj, 1e-6)
			for j, v := range tt.X {
				assert.InDelta(t, v, res.x[j], 1e-6)
			}
		})
	}
}
