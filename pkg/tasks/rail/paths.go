package rail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/objective"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// PathModel is the fastest journey between two stations as a unit flow
// over the hops of the network.
type PathModel struct {
	*solver.Model
	From, To string
	Hops     *index.Index[Hop]
	Arcs     []constraints.Arc[string]
}

func BuildPath(inst *Instance, hops []Hop, from, to string, logger *zap.Logger) (*PathModel, error) {
	m := &PathModel{Model: solver.NewModel(fmt.Sprintf("path %s-%s", from, to)), From: from, To: to}
	m.Hops = index.New[Hop](m.Model, "hop", nil)
	minutes := objective.New(solver.Minimize)
	for _, h := range hops {
		v, err := m.Hops.DeclareBool(h)
		if err != nil {
			return nil, err
		}
		m.Arcs = append(m.Arcs, constraints.Arc[string]{From: h.Second, To: h.Third, Var: v})
		t, _ := inst.Minutes(h.Second, h.Third)
		minutes.AddVar(v, t)
	}
	b := constraints.NewConstraintBuilder(m.Model, logger)
	constraints.FlowConservation(b, "flow", m.Arcs, inst.Stations, from, to)
	if err := minutes.Apply(m.Model); err != nil {
		return nil, err
	}
	b.Log()
	return m, nil
}

// Journey is a decoded path with the lines it rides.
type Journey struct {
	decode.Path[string]
	// Lines in ride order, one entry per change of line.
	Lines   []string
	Minutes float64
}

func (m *PathModel) Decode(inst *Instance, sol *solver.Solution) (Journey, error) {
	stops, err := decode.Route(m.Arcs, sol, m.From, m.To)
	if err != nil {
		return Journey{}, err
	}
	j := Journey{Path: decode.Path[string]{From: m.From, To: m.To, Stops: stops}}
	ridden := make(map[index.Pair[string, string]]string)
	for _, h := range decode.Selected(m.Hops, sol) {
		ridden[index.P(h.Second, h.Third)] = h.First
	}
	for i := 1; i < len(stops); i++ {
		line := ridden[index.P(stops[i-1], stops[i])]
		if n := len(j.Lines); n == 0 || j.Lines[n-1] != line {
			j.Lines = append(j.Lines, line)
		}
	}
	j.Minutes = decode.Length(stops, func(a, b string) float64 {
		t, _ := inst.Minutes(a, b)
		return t
	})
	return j, nil
}

// Journeys solves the path model of every ordered pair of distinct
// stations. Unreachable pairs are returned separately.
func Journeys(ctx context.Context, engine solver.Engine, inst *Instance, logger *zap.Logger, opts ...driver.Option) ([]Journey, []index.Pair[string, string], error) {
	hops, err := inst.Hops()
	if err != nil {
		return nil, nil, err
	}
	var out []Journey
	var unreachable []index.Pair[string, string]
	for _, pair := range index.Pairs(inst.Stations, inst.Stations) {
		if pair.First == pair.Second {
			continue
		}
		m, err := BuildPath(inst, hops, pair.First, pair.Second, logger)
		if err != nil {
			return nil, nil, err
		}
		outcome, sol, err := driver.Solve(ctx, engine, m.Model, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("routing %s to %s: %w", pair.First, pair.Second, err)
		}
		switch {
		case outcome == driver.OutcomeInfeasible:
			unreachable = append(unreachable, pair)
			continue
		case !outcome.HasSolution():
			return nil, nil, fmt.Errorf("routing %s to %s: %s", pair.First, pair.Second, outcome)
		}
		j, err := m.Decode(inst, sol)
		if err != nil {
			return nil, nil, fmt.Errorf("routing %s to %s: %w", pair.First, pair.Second, err)
		}
		out = append(out, j)
	}
	return out, unreachable, nil
}

// Traffic sums passenger demand over the hops each journey uses.
func Traffic(inst *Instance, journeys []Journey) ([]index.Pair[string, string], map[index.Pair[string, string]]float64) {
	paths := make([]decode.Path[string], len(journeys))
	for i, j := range journeys {
		paths[i] = j.Path
	}
	return decode.HopTraffic(paths, inst.Demand)
}
