package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"go.uber.org/zap"
)

const tryInterval = 100 * time.Millisecond

// SATEngine solves models over boolean and bounded integer variables
// with the gini SAT solver. Objectives are optimized by repeatedly
// tightening a bound on the objective adder until the formula becomes
// unsatisfiable.
type SATEngine struct {
	options
}

var _ Engine = &SATEngine{}

func NewSATEngine(opts ...Option) *SATEngine {
	return &SATEngine{options: newOptions(opts)}
}

func (e *SATEngine) Name() string {
	return "sat"
}

func (e *SATEngine) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	lm, err := NewLitMapping(m)
	if err != nil {
		return nil, fmt.Errorf("compiling model %q: %w", m.name, err)
	}

	obj, sense, hasObj := m.Objective()
	var objTerms []wlit
	var objConst float64
	var objBits []z.Lit
	if hasObj {
		objTerms, objConst, err = lm.weighted(obj)
		if err != nil {
			return nil, fmt.Errorf("compiling objective of %q: %w", m.name, err)
		}
		objBits = sumBits(lm.c, objTerms)
	}

	g := gini.New()
	lm.AddConstraints(g)
	e.logger.Debug("compiled model",
		zap.String("model", m.name),
		zap.Int("variables", len(m.vars)),
		zap.Int("constraints", len(m.constraints)),
		zap.Int("nodes", lm.c.Len()))

	var best *Solution
	for {
		switch solveWithin(ctx, g) {
		case 1:
			values := lm.Values(g)
			if !hasObj {
				best = newSolution(StatusOptimal, values, 0)
				observeSolve(e.Name(), best.status, start)
				return best, nil
			}
			s := bitsValue(objBits, g.Value)
			best = newSolution(StatusFeasible, values, objConst+float64(s))
			e.logger.Debug("improved objective", zap.String("model", m.name), zap.Float64("objective", best.objective))
			if sense == Minimize {
				lm.Assert(g, leqConst(lm.c, objBits, s-1))
			} else {
				lm.Assert(g, geqConst(lm.c, objBits, s+1))
			}
		case -1:
			if best == nil {
				best = newSolution(StatusInfeasible, nil, 0)
			} else {
				best.status = StatusOptimal
			}
			observeSolve(e.Name(), best.status, start)
			return best, nil
		default:
			if best == nil {
				best = newSolution(StatusUnknown, nil, 0)
			}
			e.logger.Info("time limit reached", zap.String("model", m.name), zap.Stringer("status", best.status))
			observeSolve(e.Name(), best.status, start)
			return best, nil
		}
	}
}

// Enumerate returns every assignment of the model variables that
// satisfies the constraints, ignoring the objective. Each solution is
// excluded from later ones by a blocking clause.
func (e *SATEngine) Enumerate(ctx context.Context, m *Model) (Iterator, error) {
	lm, err := NewLitMapping(m)
	if err != nil {
		return nil, fmt.Errorf("compiling model %q: %w", m.name, err)
	}
	g := gini.New()
	lm.AddConstraints(g)
	return &satIterator{
		engine:   e,
		model:    m,
		lm:       lm,
		g:        g,
		decision: lm.DecisionLits(),
	}, nil
}

type satIterator struct {
	engine   *SATEngine
	model    *Model
	lm       *LitMapping
	g        *gini.Gini
	decision []z.Lit
	done     bool
	count    int
}

func (it *satIterator) Next(ctx context.Context) (*Solution, error) {
	if it.done {
		return nil, Done
	}
	start := time.Now()
	ctx, cancel := it.engine.withDeadline(ctx)
	defer cancel()

	switch solveWithin(ctx, it.g) {
	case 1:
		values := it.lm.Values(it.g)
		it.count++
		if len(it.decision) == 0 {
			it.done = true
		}
		for _, m := range it.decision {
			if it.g.Value(m) {
				it.g.Add(m.Not())
			} else {
				it.g.Add(m)
			}
		}
		it.g.Add(z.LitNull)
		sol := newSolution(StatusFeasible, values, 0)
		observeSolve(it.engine.Name(), sol.status, start)
		return sol, nil
	case -1:
		it.done = true
		it.engine.logger.Debug("enumeration exhausted", zap.String("model", it.model.name), zap.Int("solutions", it.count))
		return nil, Done
	}
	it.done = true
	observeSolve(it.engine.Name(), StatusUnknown, start)
	return newSolution(StatusUnknown, nil, 0), nil
}

func (it *satIterator) Close() {
	it.done = true
}

// solveWithin runs g until it decides or ctx ends. It returns 1 when
// satisfiable, -1 when unsatisfiable and 0 otherwise.
func solveWithin(ctx context.Context, g *gini.Gini) int {
	for {
		if ctx.Err() != nil {
			return 0
		}
		slice := tryInterval
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining < slice {
				slice = remaining
			}
		}
		if slice <= 0 {
			return 0
		}
		if r := g.Try(slice); r != 0 {
			return r
		}
	}
}
