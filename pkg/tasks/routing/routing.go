// Package routing finds the shortest closed tour through a set of stops.
package routing

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/objective"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

// ErrNoStops is returned for an instance without stops.
var ErrNoStops = errors.New("no stops to visit")

type Leg = index.Pair[string, string]

type Instance struct {
	// Stops are visited in a tour that starts and ends at Stops[0].
	Stops     []string
	Distances *table.Table
}

// Load reads the stops series and the distances table. Stops rejected
// by the series filter are not visited.
func Load(b *table.Book) (*Instance, error) {
	if err := b.Require(nil, []string{"stops", "distances"}); err != nil {
		return nil, err
	}
	stops, _ := b.Table("stops")
	distances, _ := b.Table("distances")
	inst := &Instance{Distances: distances}
	for _, s := range stops.Rows() {
		if _, ok := stops.Value(s); ok {
			inst.Stops = append(inst.Stops, s)
		}
	}
	if len(inst.Stops) == 0 {
		return nil, ErrNoStops
	}
	return inst, nil
}

// Distance is symmetric: a pair may be listed in either order.
func (inst *Instance) Distance(from, to string) (float64, bool) {
	if from == to {
		return 0, true
	}
	if d, ok := inst.Distances.Float(from, to); ok {
		return d, true
	}
	return inst.Distances.Float(to, from)
}

func (inst *Instance) Depot() string {
	return inst.Stops[0]
}

// Strategy picks exhaustive or lazy subtour elimination for n stops.
func Strategy(cfg config.Routing, n int) string {
	switch cfg.Strategy {
	case config.StrategyExhaustive, config.StrategyLazy:
		return cfg.Strategy
	}
	if n <= cfg.MaxExhaustiveStops && n <= constraints.MaxSubtourNodes {
		return config.StrategyExhaustive
	}
	return config.StrategyLazy
}

type Model struct {
	*solver.Model
	Instance *Instance
	Legs     *index.Index[Leg]
	Arcs     []constraints.Arc[string]
	Builder  *constraints.ConstraintBuilder
	logger   *zap.Logger
}

func (m *Model) arc(from, to string) (solver.Var, bool) {
	return m.Legs.Lookup(index.P(from, to))
}

// Build compiles the tour model over every ordered pair of distinct
// stops. With the exhaustive strategy every subtour is eliminated up
// front; otherwise cuts are added by Solve.
func Build(inst *Instance, strategy string, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{Model: solver.NewModel("routing"), Instance: inst, logger: logger}
	m.Legs = index.New[Leg](m.Model, "leg", func(k Leg) bool { return k.First != k.Second })
	weights := objective.New(solver.Minimize)
	var missing []string
	for _, k := range index.Pairs(inst.Stops, inst.Stops) {
		if k.First == k.Second {
			continue
		}
		d, ok := inst.Distance(k.First, k.Second)
		if !ok {
			missing = append(missing, k.String())
			continue
		}
		v, err := m.Legs.DeclareBool(k)
		if err != nil {
			return nil, err
		}
		m.Arcs = append(m.Arcs, constraints.Arc[string]{From: k.First, To: k.Second, Var: v})
		weights.AddVar(v, d)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no distance for %v", missing)
	}

	b := constraints.NewConstraintBuilder(m.Model, logger)
	m.Builder = b
	if len(inst.Stops) > 1 {
		constraints.Degree(b, "enter and leave once", m.Arcs, inst.Stops)
	}
	if strategy == config.StrategyExhaustive {
		if _, err := constraints.SubtourElimination(b, "subtour elimination", inst.Stops, m.arc); err != nil {
			return nil, err
		}
	}
	if err := weights.Apply(m.Model); err != nil {
		return nil, err
	}
	b.Log()
	return m, nil
}
