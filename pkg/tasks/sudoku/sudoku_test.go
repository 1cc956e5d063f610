package sudoku

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/solver"
)

var classicSolution = []string{
	"534678912",
	"672195348",
	"198342567",
	"859761423",
	"426853791",
	"713924856",
	"961537284",
	"287419635",
	"345286179",
}

func TestParseGrid(t *testing.T) {
	type tc struct {
		Name  string
		Rows  []string
		Clues int
		Error bool
	}

	for _, tt := range []tc{
		{Name: "four by four", Rows: []string{"1...", "..2.", ".3..", "...4"}, Clues: 4},
		{Name: "zeros are empty", Rows: []string{"1000", "0020", "0300", "0004"}, Clues: 4},
		{Name: "spaced cells", Rows: []string{"1 . . .", ". . 2 .", ". 3 . .", ". . . 4"}, Clues: 4},
		{Name: "not a square", Rows: []string{"12", "21", "12"}, Error: true},
		{Name: "short row", Rows: []string{"1...", "..2", ".3..", "...4"}, Error: true},
		{Name: "digit too large", Rows: []string{"5...", "....", "....", "...."}, Error: true},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			g, err := ParseGrid(tt.Rows)
			if tt.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Clues, g.Clues())
		})
	}
}

func TestClassicPuzzle(t *testing.T) {
	b, err := datasets.Load("sudoku-classic")
	require.NoError(t, err)
	g, err := Load(b)
	require.NoError(t, err)
	assert.Equal(t, 28, g.Clues())

	m, err := Build(g, nil)
	require.NoError(t, err)
	grids, outcome, err := Enumerate(context.Background(), solver.NewSATEngine(), m)
	require.NoError(t, err)
	assert.Equal(t, driver.OutcomeExhausted, outcome)
	require.Len(t, grids, 1)

	expected, err := ParseGrid(classicSolution)
	require.NoError(t, err)
	assert.Equal(t, expected, grids[0])
	for i, row := range g {
		for j, d := range row {
			if d != 0 {
				assert.Equal(t, d, grids[0][i][j])
			}
		}
	}
}

func TestSmallGridCompletions(t *testing.T) {
	type tc struct {
		Name  string
		Rows  []string
		Count int
	}

	for _, tt := range []tc{
		{Name: "empty 4x4 grid", Rows: []string{"....", "....", "....", "...."}, Count: 288},
		{Name: "contradicting clues", Rows: []string{"11..", "....", "....", "...."}, Count: 0},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			g, err := ParseGrid(tt.Rows)
			require.NoError(t, err)
			m, err := Build(g, nil)
			require.NoError(t, err)
			grids, outcome, err := Enumerate(context.Background(), solver.NewSATEngine(), m)
			require.NoError(t, err)
			assert.Len(t, grids, tt.Count)
			if tt.Count == 0 {
				assert.Equal(t, driver.OutcomeInfeasible, outcome)
			}
			for _, s := range grids {
				for i := 0; i < 4; i++ {
					row, col := map[int]bool{}, map[int]bool{}
					for j := 0; j < 4; j++ {
						row[s[i][j]] = true
						col[s[j][i]] = true
					}
					assert.Len(t, row, 4)
					assert.Len(t, col, 4)
				}
			}
		})
	}
}

func TestEnumerateLimit(t *testing.T) {
	g, err := ParseGrid([]string{"....", "....", "....", "...."})
	require.NoError(t, err)
	m, err := Build(g, nil)
	require.NoError(t, err)
	grids, outcome, err := Enumerate(context.Background(), solver.NewSATEngine(), m, driver.WithMaxSolutions(5))
	require.NoError(t, err)
	assert.Len(t, grids, 5)
	assert.Equal(t, driver.OutcomeLimited, outcome)
}
