package rail

import (
	"context"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type Task struct{}

func (Task) Name() string {
	return "rail"
}

func (Task) Description() string {
	return "fastest passenger journeys and trains needed per line"
}

func (Task) DefaultDataset() string {
	return "rail"
}

func (Task) DefaultMode() v1alpha1.Mode {
	return v1alpha1.ModeSingle
}

func (Task) Run(ctx context.Context, book *table.Book, env tasks.Env) (*tasks.Result, error) {
	env = env.Defaults()
	inst, err := Load(book)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("mip")
	if err != nil {
		return nil, err
	}
	plan, outcome, err := Solve(ctx, engine, inst, env.Config.Rail.CapacityMode, env.Logger, env.DriverOptions()...)
	if err != nil {
		return nil, err
	}

	r := report.New("Rail")
	journeys := r.Section("Journeys with passengers").Table("from", "to", "passengers", "minutes", "route", "lines")
	for _, j := range plan.Journeys {
		if d := inst.Demand(j.From, j.To); d > 0 {
			journeys.Row(j.From, j.To, d, j.Minutes, j.Stops, j.Lines)
		}
	}
	traffic := r.Section("Hop traffic").Table("from", "to", "passengers")
	for _, hop := range plan.Hops {
		traffic.Row(hop.First, hop.Second, plan.Traffic[hop])
	}
	if len(plan.Unreachable) > 0 {
		s := r.Section("Unreachable")
		for _, p := range plan.Unreachable {
			s.Line("%s to %s", p.First, p.Second)
		}
	}
	res := &tasks.Result{Outcome: outcome, Report: r}
	if outcome.HasSolution() {
		res.Solutions = 1
		res.Objective = tasks.Objective(float64(plan.Total))
		trains := r.Section("Trains").Table("line", "capacity", "trains")
		for _, l := range inst.Lines {
			trains.Row(l.Name, l.Capacity, plan.Trains[l.Name])
		}
		r.Section("Total trains").Line("%d", plan.Total)
	}
	r.Section("Outcome").Line("%s", outcome)
	return res, nil
}
