package table

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/util/sets"
)

type cellKind int

const (
	numberCell cellKind = iota + 1
	textCell
)

// Cell is a present table value, either a number or a string.
type Cell struct {
	kind cellKind
	num  float64
	text string
}

func Num(v float64) Cell {
	return Cell{kind: numberCell, num: v}
}

func Str(s string) Cell {
	return Cell{kind: textCell, text: s}
}

func (c Cell) IsNumber() bool {
	return c.kind == numberCell
}

// Float returns the numeric value of the cell.
func (c Cell) Float() (float64, bool) {
	return c.num, c.kind == numberCell
}

// Text returns the cell as a string; numbers are formatted.
func (c Cell) Text() string {
	if c.kind == numberCell {
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	}
	return c.text
}

// Interface returns the underlying float64 or string.
func (c Cell) Interface() interface{} {
	if c.kind == numberCell {
		return c.num
	}
	return c.text
}

func (c Cell) String() string {
	return c.Text()
}

type cellKey struct {
	row string
	col string
}

// Table is a sparse relation over a row key and a column key. A cell
// that is not present marks an inapplicable combination.
type Table struct {
	name        string
	description string
	column      string
	single      bool
	rows        []string
	cols        []string
	rowSet      sets.String
	colSet      sets.String
	byRow       map[string][]string
	byCol       map[string][]string
	cells       map[cellKey]Cell
}

// NewTable returns an empty two-key table.
func NewTable(name string) *Table {
	return &Table{
		name:   name,
		rowSet: sets.NewString(),
		colSet: sets.NewString(),
		byRow:  make(map[string][]string),
		byCol:  make(map[string][]string),
		cells:  make(map[cellKey]Cell),
	}
}

// NewSeries returns an empty single-key table whose values live in
// column.
func NewSeries(name, column string) *Table {
	t := NewTable(name)
	t.column = column
	t.single = true
	return t
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Description() string {
	return t.description
}

func (t *Table) SetDescription(s string) {
	t.description = s
}

// Single reports whether the table is keyed by rows only.
func (t *Table) Single() bool {
	return t.single
}

// Column is the value column of a single-key table.
func (t *Table) Column() string {
	return t.column
}

// Set stores a cell, replacing any previous value.
func (t *Table) Set(row, col string, c Cell) {
	k := cellKey{row: row, col: col}
	if _, ok := t.cells[k]; !ok {
		if !t.rowSet.Has(row) {
			t.rowSet.Insert(row)
			t.rows = append(t.rows, row)
		}
		if !t.colSet.Has(col) {
			t.colSet.Insert(col)
			t.cols = append(t.cols, col)
		}
		t.byRow[row] = append(t.byRow[row], col)
		t.byCol[col] = append(t.byCol[col], row)
	}
	t.cells[k] = c
}

func (t *Table) SetFloat(row, col string, v float64) {
	t.Set(row, col, Num(v))
}

// SetValue stores the value of row in a single-key table.
func (t *Table) SetValue(row string, c Cell) {
	t.Set(row, t.column, c)
}

func (t *Table) Has(row, col string) bool {
	_, ok := t.cells[cellKey{row: row, col: col}]
	return ok
}

func (t *Table) Get(row, col string) (Cell, bool) {
	c, ok := t.cells[cellKey{row: row, col: col}]
	return c, ok
}

// Float returns a numeric cell. Absent and text cells report false.
func (t *Table) Float(row, col string) (float64, bool) {
	c, ok := t.Get(row, col)
	if !ok {
		return 0, false
	}
	return c.Float()
}

func (t *Table) Text(row, col string) (string, bool) {
	c, ok := t.Get(row, col)
	if !ok {
		return "", false
	}
	return c.Text(), true
}

// Value returns the numeric value of row in a single-key table.
func (t *Table) Value(row string) (float64, bool) {
	return t.Float(row, t.column)
}

// Rows returns every row key with at least one cell, in insertion order.
func (t *Table) Rows() []string {
	return t.rows
}

// Cols returns every column key with at least one cell, in insertion order.
func (t *Table) Cols() []string {
	return t.cols
}

// ColsOf returns the present columns of row.
func (t *Table) ColsOf(row string) []string {
	return t.byRow[row]
}

// RowsOf returns the present rows of col.
func (t *Table) RowsOf(col string) []string {
	return t.byCol[col]
}

// Len is the number of present cells.
func (t *Table) Len() int {
	return len(t.cells)
}

// Each visits every present cell, row by row in insertion order.
func (t *Table) Each(fn func(row, col string, c Cell)) {
	for _, row := range t.rows {
		for _, col := range t.byRow[row] {
			fn(row, col, t.cells[cellKey{row: row, col: col}])
		}
	}
}

// Select returns a copy of the table holding the cells accepted by f.
func (t *Table) Select(f *Filter) (*Table, error) {
	out := NewTable(t.name)
	out.description, out.column, out.single = t.description, t.column, t.single
	var err error
	t.Each(func(row, col string, c Cell) {
		if err != nil {
			return
		}
		var keep bool
		keep, err = f.Match(row, col, c)
		if keep {
			out.Set(row, col, c)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("filtering table %q: %w", t.name, err)
	}
	return out, nil
}
