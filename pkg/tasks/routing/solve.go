package routing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// Tour is a closed route starting and ending at the depot.
type Tour struct {
	Stops  []string
	Length float64
	// Cuts is the number of subtour cuts added while solving lazily.
	Cuts int
}

// Decode reads the tour of a solution. A solution made of several
// cycles yields a decode.CycleError.
func (m *Model) Decode(sol *solver.Solution) (Tour, error) {
	inst := m.Instance
	if len(inst.Stops) == 1 {
		return Tour{Stops: []string{inst.Depot(), inst.Depot()}}, nil
	}
	stops, err := decode.Tour(m.Arcs, sol, inst.Depot(), len(inst.Stops))
	if err != nil {
		return Tour{}, err
	}
	length := decode.Length(stops, func(from, to string) float64 {
		d, _ := inst.Distance(from, to)
		return d
	})
	return Tour{Stops: stops, Length: length}, nil
}

// Solve finds the shortest tour. When maxRounds is positive, subtours
// of each solution are cut off and the model solved again, at most
// maxRounds times; exhaustively built models finish in one round.
func Solve(ctx context.Context, engine solver.Engine, m *Model, maxRounds int, opts ...driver.Option) (Tour, driver.Outcome, error) {
	cuts := 0
	for round := 0; ; round++ {
		outcome, sol, err := driver.Solve(ctx, engine, m.Model, opts...)
		if err != nil || !outcome.HasSolution() {
			return Tour{}, outcome, err
		}
		tour, err := m.Decode(sol)
		if err == nil {
			tour.Cuts = cuts
			return tour, outcome, nil
		}
		if !errors.Is(err, decode.ErrDecodeCycle) {
			return Tour{}, driver.OutcomeFailed, err
		}
		if round >= maxRounds {
			return Tour{}, driver.OutcomeLimited, nil
		}
		cycles, err := decode.Cycles(m.Arcs, sol)
		if err != nil {
			return Tour{}, driver.OutcomeFailed, err
		}
		for _, c := range cycles {
			if len(c) < len(m.Instance.Stops) && constraints.SubtourCut(m.Builder, "subtour cut", c, m.arc) {
				cuts++
			}
		}
		m.logger.Debug("cut subtours", zap.Int("round", round), zap.Int("cuts", cuts))
	}
}
