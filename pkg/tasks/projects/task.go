package projects

import (
	"context"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type Task struct{}

func (Task) Name() string {
	return "projects"
}

func (Task) Description() string {
	return "project plans and contractor schedules meeting a minimum profit"
}

func (Task) DefaultDataset() string {
	return "projects"
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
	if env.Config.Projects.Margin != nil {
		inst.Margin = *env.Config.Projects.Margin
	}
	m, err := Build(inst, env.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("sat")
	if err != nil {
		return nil, err
	}

	var plans []Plan
	var outcome driver.Outcome
	res := &tasks.Result{}
	if env.Mode == v1alpha1.ModeSingle {
		var best Plan
		best, outcome, err = BestPlan(ctx, engine, m, env.DriverOptions()...)
		if err == nil && outcome.HasSolution() {
			plans = append(plans, best)
			res.Objective = tasks.Objective(best.Profit)
		}
	} else {
		plans, outcome, err = Enumerate(ctx, engine, m, env.DriverOptions()...)
	}
	if err != nil {
		return nil, err
	}

	r := report.New("Projects")
	r.Section("Minimum profit").Line("%s", report.Number(inst.Margin))
	for i, p := range plans {
		s := r.Section("Plan %d", i+1)
		s.Line("projects: %v", p.Projects)
		s.Line("profit: %s", report.Number(p.Profit))
		g := s.Table("project", "month", "job", "contractor", "quote")
		for _, a := range p.Assignments {
			g.Row(a.Project, a.Month, a.Job, a.Contractor, a.Quote)
		}
	}
	r.Section("Outcome").Line("%s, %d plan(s)", outcome, len(plans))
	res.Outcome, res.Solutions, res.Report = outcome, len(plans), r
	return res, nil
}
