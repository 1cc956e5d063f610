package projects

import (
	"context"
	"fmt"

	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// Assignment is one job carried out by a contractor.
type Assignment struct {
	Project    string
	Contractor string
	Month      string
	Job        string
	Quote      float64
}

// Plan is one way of taking on projects.
type Plan struct {
	Projects    []string
	Assignments []Assignment
	Profit      float64
}

func (p Plan) String() string {
	return fmt.Sprintf("%v profit %g", p.Projects, p.Profit)
}

// Decode reads the plan of a solution.
func (m *Model) Decode(sol *solver.Solution) Plan {
	plan := Plan{
		Projects: decode.Selected(m.Taken, sol),
		Profit:   m.Profit.Expr().Eval(sol.Value),
	}
	for _, k := range decode.Selected(m.Jobs, sol) {
		q, _ := m.Instance.quote(k)
		plan.Assignments = append(plan.Assignments, Assignment{
			Project: k.First, Contractor: k.Second, Month: k.Third, Job: k.Fourth, Quote: q,
		})
	}
	return plan
}

// Enumerate returns every plan meeting the minimum profit.
func Enumerate(ctx context.Context, engine solver.Engine, m *Model, opts ...driver.Option) ([]Plan, driver.Outcome, error) {
	var out []Plan
	seq := driver.Enumerate(ctx, engine, m.Model, opts...)
	err := driver.ForEach(seq, func(_ int, sol *solver.Solution) error {
		out = append(out, m.Decode(sol))
		return nil
	})
	return out, seq.Outcome(), err
}

// BestPlan returns the plan with the highest profit.
func BestPlan(ctx context.Context, engine solver.Engine, m *Model, opts ...driver.Option) (Plan, driver.Outcome, error) {
	if _, _, ok := m.Objective(); !ok {
		if err := m.Profit.Apply(m.Model); err != nil {
			return Plan{}, driver.OutcomeFailed, err
		}
	}
	outcome, sol, err := driver.Solve(ctx, engine, m.Model, opts...)
	if err != nil || !outcome.HasSolution() {
		return Plan{}, outcome, err
	}
	return m.Decode(sol), outcome, nil
}
