package dining

import (
	"context"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

// Assignment is what every person ordered, by course.
type Assignment struct {
	People []string
	Orders map[string]map[string]string
}

// Decode reads the orders of a solution.
func (m *Model) Decode(sol *solver.Solution) Assignment {
	chosen := decode.Chosen(m.Orders, sol,
		func(k Order) personCourse { return personCourse{k.First, k.Second} },
		func(k Order) string { return k.Third })
	a := Assignment{People: m.Instance.People, Orders: make(map[string]map[string]string)}
	for _, g := range chosen.Groups {
		if a.Orders[g.person] == nil {
			a.Orders[g.person] = make(map[string]string)
		}
		a.Orders[g.person][g.course] = chosen.Values[g]
	}
	return a
}

type personCourse struct {
	person string
	course string
}

// Who returns the person who ordered item in course.
func (a Assignment) Who(course, item string) (string, bool) {
	for _, p := range a.People {
		if a.Orders[p][course] == item {
			return p, true
		}
	}
	return "", false
}

// Enumerate returns every assignment satisfying the puzzle.
func Enumerate(ctx context.Context, engine solver.Engine, m *Model, opts ...driver.Option) ([]Assignment, driver.Outcome, error) {
	var out []Assignment
	seq := driver.Enumerate(ctx, engine, m.Model, opts...)
	err := driver.ForEach(seq, func(_ int, sol *solver.Solution) error {
		out = append(out, m.Decode(sol))
		return nil
	})
	return out, seq.Outcome(), err
}

type Task struct{}

func (Task) Name() string {
	return "dining"
}

func (Task) Description() string {
	return "who has tiramisu at the dinner party"
}

func (Task) DefaultDataset() string {
	return "dining"
}

func (Task) DefaultMode() v1alpha1.Mode {
	return v1alpha1.ModeEnumerate
}

func (Task) Run(ctx context.Context, book *table.Book, env tasks.Env) (*tasks.Result, error) {
	env = env.Defaults()
	inst, err := Load(book)
	if err != nil {
		return nil, err
	}
	m, err := Build(inst, env.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("sat")
	if err != nil {
		return nil, err
	}

	r := report.New("Dining")
	var assignments []Assignment
	outcome := driver.OutcomeFailed
	if env.Mode == v1alpha1.ModeSingle {
		var sol *solver.Solution
		outcome, sol, err = driver.Solve(ctx, engine, m.Model, env.DriverOptions()...)
		if err == nil && outcome.HasSolution() {
			assignments = append(assignments, m.Decode(sol))
		}
	} else {
		assignments, outcome, err = Enumerate(ctx, engine, m, env.DriverOptions()...)
	}
	if err != nil {
		return nil, err
	}
	for i, a := range assignments {
		s := r.Section("Solution %d", i+1)
		g := s.Table(append([]string{"person"}, Courses...)...)
		for _, p := range a.People {
			row := []interface{}{p}
			for _, c := range Courses {
				row = append(row, a.Orders[p][c])
			}
			g.Row(row...)
		}
		if who, ok := a.Who("dessert", "Tiramisu"); ok {
			s.Line("%s has the tiramisu", who)
		}
	}
	r.Section("Outcome").Line("%s, %d solution(s)", outcome, len(assignments))
	return &tasks.Result{Outcome: outcome, Solutions: len(assignments), Report: r}, nil
}
