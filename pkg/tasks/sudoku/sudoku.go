// Package sudoku completes N×N sudoku grids, N a perfect square.
package sudoku

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

// Grid holds digits 1..N, zero for an empty cell.
type Grid [][]int

// ParseGrid reads one string per row. Digits are clues; '.' and '0'
// are empty cells. Grids larger than 9×9 separate cells with spaces.
func ParseGrid(rows []string) (Grid, error) {
	n := len(rows)
	box := int(math.Sqrt(float64(n)))
	if n == 0 || box*box != n {
		return nil, fmt.Errorf("grid has %d rows, expected a perfect square", n)
	}
	g := make(Grid, n)
	for i, row := range rows {
		var cells []string
		if strings.ContainsRune(row, ' ') {
			cells = strings.Fields(row)
		} else {
			cells = strings.Split(row, "")
		}
		if len(cells) != n {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(cells), n)
		}
		g[i] = make([]int, n)
		for j, c := range cells {
			if c == "." {
				continue
			}
			d, err := strconv.Atoi(c)
			if err != nil || d < 0 || d > n {
				return nil, fmt.Errorf("row %d column %d: invalid cell %q", i+1, j+1, c)
			}
			g[i][j] = d
		}
	}
	return g, nil
}

// Load reads the grid table of a dataset, one row per entry in order.
func Load(b *table.Book) (Grid, error) {
	t, err := b.Table("grid")
	if err != nil {
		return nil, err
	}
	rows := make([]string, 0, len(t.Rows()))
	for _, r := range t.Rows() {
		s, _ := t.Text(r, t.Column())
		rows = append(rows, s)
	}
	return ParseGrid(rows)
}

func (g Grid) Size() int {
	return len(g)
}

func (g Grid) Clues() int {
	n := 0
	for _, row := range g {
		for _, d := range row {
			if d != 0 {
				n++
			}
		}
	}
	return n
}

func (g Grid) String() string {
	var b strings.Builder
	for _, row := range g {
		for j, d := range row {
			if j > 0 && len(g) > 9 {
				b.WriteByte(' ')
			}
			if d == 0 {
				b.WriteByte('.')
			} else {
				b.WriteString(strconv.Itoa(d))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Cell is (row, column, digit), zero based row and column.
type Cell = index.Triple[int, int, int]

type Model struct {
	*solver.Model
	Grid  Grid
	Cells *index.Index[Cell]
}

// Build declares one boolean per (row, column, digit). A clue cell only
// has its clue digit applicable.
func Build(g Grid, logger *zap.Logger) (*Model, error) {
	n := g.Size()
	box := int(math.Sqrt(float64(n)))
	m := &Model{Model: solver.NewModel("sudoku"), Grid: g}
	m.Cells = index.New[Cell](m.Model, "cell", func(k Cell) bool {
		clue := g[k.First][k.Second]
		return clue == 0 || clue == k.Third
	})

	var keys []Cell
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			for d := 1; d <= n; d++ {
				keys = append(keys, index.T(r, c, d))
			}
		}
	}
	if err := m.Cells.DeclareAll(keys, solver.Bool, 0, 1); err != nil {
		return nil, err
	}

	b := constraints.NewConstraintBuilder(m.Model, logger)
	constraints.ExactlyOnePerGroup(b, "one digit per cell", m.Cells, func(k Cell) index.Pair[int, int] {
		return index.P(k.First, k.Second)
	})
	constraints.Distinct(b, "row", m.Cells, func(k Cell) index.Pair[int, int] { return index.P(k.First, k.Third) })
	constraints.Distinct(b, "column", m.Cells, func(k Cell) index.Pair[int, int] { return index.P(k.Second, k.Third) })
	constraints.Distinct(b, "box", m.Cells, func(k Cell) index.Pair[int, int] {
		return index.P((k.First/box)*box+k.Second/box, k.Third)
	})
	b.Log()
	return m, nil
}

// Decode fills the grid from a solution.
func (m *Model) Decode(sol *solver.Solution) Grid {
	n := m.Grid.Size()
	out := make(Grid, n)
	for i := range out {
		out[i] = make([]int, n)
	}
	digits := decode.Chosen(m.Cells, sol,
		func(k Cell) index.Pair[int, int] { return index.P(k.First, k.Second) },
		func(k Cell) int { return k.Third })
	for _, rc := range digits.Groups {
		out[rc.First][rc.Second] = digits.Values[rc]
	}
	return out
}

// Enumerate returns every completion of the grid.
func Enumerate(ctx context.Context, engine solver.Engine, m *Model, opts ...driver.Option) ([]Grid, driver.Outcome, error) {
	var out []Grid
	seq := driver.Enumerate(ctx, engine, m.Model, opts...)
	err := driver.ForEach(seq, func(_ int, sol *solver.Solution) error {
		out = append(out, m.Decode(sol))
		return nil
	})
	return out, seq.Outcome(), err
}
