package rail

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/objective"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// TrainModel sizes the integer number of trains per line so that every
// hop carries its traffic.
type TrainModel struct {
	*solver.Model
	Trains *index.Index[string]
	// Capacity is the per-train capacity used for each line.
	Capacity map[string]float64
}

// Capacities returns the per-train capacity of each line. In uniform
// mode every line takes the capacity of the first line.
func Capacities(inst *Instance, mode string, logger *zap.Logger) (map[string]float64, error) {
	out := make(map[string]float64, len(inst.Lines))
	switch mode {
	case config.CapacityPerLine, "":
		for _, l := range inst.Lines {
			out[l.Name] = l.Capacity
		}
	case config.CapacityUniform:
		c := inst.Lines[0].Capacity
		for _, l := range inst.Lines {
			if l.Capacity != c {
				logger.Warn("lines differ in capacity, sizing all with one",
					zap.String("line", l.Name),
					zap.Float64("capacity", l.Capacity),
					zap.Float64("used", c))
			}
			out[l.Name] = c
		}
	default:
		return nil, fmt.Errorf("unknown capacity mode %q", mode)
	}
	return out, nil
}

func BuildTrains(inst *Instance, hops []Hop, order []index.Pair[string, string], traffic map[index.Pair[string, string]]float64, capacity map[string]float64, logger *zap.Logger) (*TrainModel, error) {
	m := &TrainModel{Model: solver.NewModel("trains"), Capacity: capacity}
	m.Trains = index.New[string](m.Model, "trains", nil)

	var total float64
	for _, hop := range order {
		total += traffic[hop]
	}
	for _, l := range inst.Lines {
		ub := math.Ceil(total/capacity[l.Name]) + 1
		if _, err := m.Trains.Declare(l.Name, solver.Integer, 0, ub); err != nil {
			return nil, err
		}
	}

	b := constraints.NewConstraintBuilder(m.Model, logger)
	serving := Serving(hops)
	for _, hop := range order {
		lines := serving[hop]
		if len(lines) == 0 {
			return nil, fmt.Errorf("no line runs from %s to %s", hop.First, hop.Second)
		}
		carried := m.Trains.Sum(lines, func(line string) (float64, bool) {
			c, ok := capacity[line]
			return c, ok
		})
		constraints.Range(b, "hop capacity", carried, traffic[hop], math.Inf(1))
	}
	if err := objective.AddAll(objective.New(solver.Minimize), m.Trains, func(string) (float64, bool) { return 1, true }).Apply(m.Model); err != nil {
		return nil, err
	}
	b.Log()
	return m, nil
}

// Decode returns the trains on each line.
func (m *TrainModel) Decode(sol *solver.Solution) map[string]int {
	out := make(map[string]int)
	m.Trains.Each(func(line string, v solver.Var) {
		out[line] = sol.Int(v)
	})
	return out
}

// Plan is the outcome of routing every journey and sizing the lines.
type Plan struct {
	Journeys    []Journey
	Unreachable []index.Pair[string, string]
	Hops        []index.Pair[string, string]
	Traffic     map[index.Pair[string, string]]float64
	Trains      map[string]int
	Total       int
}

// Solve routes every journey, aggregates the traffic and sizes the
// lines. A demanded journey that cannot be made is an error.
func Solve(ctx context.Context, engine solver.Engine, inst *Instance, mode string, logger *zap.Logger, opts ...driver.Option) (*Plan, driver.Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	journeys, unreachable, err := Journeys(ctx, engine, inst, logger, opts...)
	if err != nil {
		return nil, driver.OutcomeFailed, err
	}
	for _, pair := range unreachable {
		if inst.Demand(pair.First, pair.Second) > 0 {
			return nil, driver.OutcomeFailed, fmt.Errorf("%s cannot reach %s: %w", pair.First, pair.Second, decode.ErrBrokenRoute)
		}
	}
	plan := &Plan{Journeys: journeys, Unreachable: unreachable}
	plan.Hops, plan.Traffic = Traffic(inst, journeys)

	capacity, err := Capacities(inst, mode, logger)
	if err != nil {
		return nil, driver.OutcomeFailed, err
	}
	hops, err := inst.Hops()
	if err != nil {
		return nil, driver.OutcomeFailed, err
	}
	m, err := BuildTrains(inst, hops, plan.Hops, plan.Traffic, capacity, logger)
	if err != nil {
		return nil, driver.OutcomeFailed, err
	}
	outcome, sol, err := driver.Solve(ctx, engine, m.Model, opts...)
	if err != nil || !outcome.HasSolution() {
		return plan, outcome, err
	}
	plan.Trains = m.Decode(sol)
	for _, n := range plan.Trains {
		plan.Total += n
	}
	return plan, outcome, nil
}
