package table

import (
	"fmt"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
)

// Filter is an expression deciding whether a cell is applicable. The
// expression sees row, col, value (numeric cells, else 0), text and
// number (whether the cell is numeric) and must return a bool.
type Filter struct {
	Expression string
	program    *vm.Program
}

func NewFilter(expression string) (*Filter, error) {
	f := &Filter{Expression: expression}
	if err := f.compile(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filter) compile() error {
	if f.program != nil {
		return nil
	}
	program, err := expr.Compile(f.Expression)
	if err != nil {
		return fmt.Errorf("compiling filter %q: %w", f.Expression, err)
	}
	f.program = program
	return nil
}

func (f *Filter) Match(row, col string, c Cell) (bool, error) {
	if err := f.compile(); err != nil {
		return false, err
	}
	value, _ := c.Float()
	env := map[string]interface{}{
		"row":    row,
		"col":    col,
		"value":  value,
		"text":   c.Text(),
		"number": c.IsNumber(),
	}
	output, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q on (%s, %s): %w", f.Expression, row, col, err)
	}
	keep, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, expected bool", f.Expression, output)
	}
	return keep, nil
}
