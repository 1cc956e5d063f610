package sudoku

import (
	"context"
	"strings"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type Task struct{}

func (Task) Name() string {
	return "sudoku"
}

func (Task) Description() string {
	return "every completion of a sudoku grid"
}

func (Task) DefaultDataset() string {
	return "sudoku"
}

func (Task) DefaultMode() v1alpha1.Mode {
	return v1alpha1.ModeEnumerate
}

func (Task) Run(ctx context.Context, book *table.Book, env tasks.Env) (*tasks.Result, error) {
	env = env.Defaults()
	g, err := Load(book)
	if err != nil {
		return nil, err
	}
	m, err := Build(g, env.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("sat")
	if err != nil {
		return nil, err
	}

	var grids []Grid
	var outcome driver.Outcome
	if env.Mode == v1alpha1.ModeSingle {
		var sol *solver.Solution
		outcome, sol, err = driver.Solve(ctx, engine, m.Model, env.DriverOptions()...)
		if err == nil && outcome.HasSolution() {
			grids = append(grids, m.Decode(sol))
		}
	} else {
		grids, outcome, err = Enumerate(ctx, engine, m, env.DriverOptions()...)
	}
	if err != nil {
		return nil, err
	}

	r := report.New("Sudoku")
	puzzle := r.Section("Puzzle (%d clues)", g.Clues())
	for _, l := range strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n") {
		puzzle.Line("%s", l)
	}
	for i, s := range grids {
		sec := r.Section("Solution %d", i+1)
		for _, l := range strings.Split(strings.TrimSuffix(s.String(), "\n"), "\n") {
			sec.Line("%s", l)
		}
	}
	r.Section("Outcome").Line("%s, %d solution(s)", outcome, len(grids))
	return &tasks.Result{Outcome: outcome, Solutions: len(grids), Report: r}, nil
}
