package routing

import (
	"context"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type Task struct{}

func (Task) Name() string {
	return "routing"
}

func (Task) Description() string {
	return "shortest closed tour through a set of towns"
}

func (Task) DefaultDataset() string {
	return "routing"
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
	strategy := Strategy(env.Config.Routing, len(inst.Stops))
	m, err := Build(inst, strategy, env.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("mip")
	if err != nil {
		return nil, err
	}
	rounds := 0
	if strategy == config.StrategyLazy {
		rounds = env.Config.Routing.MaxCutRounds
	}
	tour, outcome, err := Solve(ctx, engine, m, rounds, env.DriverOptions()...)
	if err != nil {
		return nil, err
	}

	r := report.New("Routing")
	r.Section("Instance").
		Line("%d stops from %s", len(inst.Stops), inst.Depot()).
		Line("strategy: %s", strategy)
	res := &tasks.Result{Outcome: outcome, Report: r}
	if outcome.HasSolution() {
		res.Solutions = 1
		res.Objective = tasks.Objective(tour.Length)
		s := r.Section("Tour")
		s.Line("length: %s", report.Number(tour.Length))
		if tour.Cuts > 0 {
			s.Line("subtour cuts: %d", tour.Cuts)
		}
		g := s.Table("#", "from", "to", "distance")
		for i := 1; i < len(tour.Stops); i++ {
			d, _ := inst.Distance(tour.Stops[i-1], tour.Stops[i])
			g.Row(i, tour.Stops[i-1], tour.Stops[i], d)
		}
	}
	r.Section("Outcome").Line("%s", outcome)
	return res, nil
}
