package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// MIPEngine solves models by branch and bound over linear relaxations.
// Boolean formulas are linearized with auxiliary binaries.
type MIPEngine struct {
	options
}

var _ Engine = &MIPEngine{}

func NewMIPEngine(opts ...Option) *MIPEngine {
	return &MIPEngine{options: newOptions(opts)}
}

func (e *MIPEngine) Name() string {
	return "mip"
}

func (e *MIPEngine) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	l, err := linearize(m)
	if err != nil {
		return nil, fmt.Errorf("linearizing model %q: %w", m.name, err)
	}
	e.logger.Debug("linearized model",
		zap.String("model", m.name),
		zap.Int("columns", l.p.numCols()),
		zap.Int("rows", len(l.p.rows)))

	_, _, hasObj := m.Objective()
	status, x, err := e.branchAndBound(ctx, l, hasObj)
	if err != nil {
		return nil, fmt.Errorf("solving model %q: %w", m.name, err)
	}
	sol := e.solution(m, status, x)
	observeSolve(e.Name(), sol.status, start)
	if status == StatusUnknown || status == StatusFeasible {
		e.logger.Info("search stopped early", zap.String("model", m.name), zap.Stringer("status", status))
	}
	return sol, nil
}

func (e *MIPEngine) solution(m *Model, status Status, x []float64) *Solution {
	if !status.HasValues() {
		return newSolution(status, nil, 0)
	}
	values := make([]float64, len(m.vars))
	copy(values, x)
	obj, _, _ := m.Objective()
	s := newSolution(status, values, 0)
	s.objective = obj.Eval(s.Value)
	return s
}

// branchAndBound runs a depth first search, branching on the most
// fractional integer column. Without an objective the first integral
// solution ends the search.
func (e *MIPEngine) branchAndBound(ctx context.Context, l *linearizer, hasObj bool) (Status, []float64, error) {
	if l.infeasible {
		return StatusInfeasible, nil, nil
	}
	p := l.p
	type node struct {
		lb, ub []float64
	}
	stack := []node{{lb: append([]float64(nil), p.lb...), ub: append([]float64(nil), p.ub...)}}

	var incumbent []float64
	incumbentObj := math.Inf(1)
	stopped := false
	explored := 0
	defer func() {
		branchNodes.Add(float64(explored))
	}()

	for len(stack) > 0 {
		if ctx.Err() != nil || explored >= e.nodeLimit {
			stopped = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		explored++

		res, err := solveLP(ctx, p, nd.lb, nd.ub)
		if err != nil {
			return StatusUnknown, nil, err
		}
		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			return StatusUnknown, nil, ErrUnbounded
		case lpStopped:
			stopped = true
		}
		if stopped {
			break
		}
		if res.obj >= incumbentObj-1e-9 {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range res.x {
			if !p.integer[j] {
				continue
			}
			f := math.Abs(v - math.Round(v))
			if f > intTol && f > frac {
				branch, frac = j, f
			}
		}
		if branch < 0 {
			incumbent = res.x
			for j, isInt := range p.integer {
				if isInt {
					incumbent[j] = math.Round(incumbent[j])
				}
			}
			incumbentObj = res.obj
			e.logger.Debug("new incumbent", zap.Float64("objective", incumbentObj), zap.Int("nodes", explored))
			if !hasObj {
				break
			}
			continue
		}

		v := res.x[branch]
		down := node{lb: nd.lb, ub: append([]float64(nil), nd.ub...)}
		down.ub[branch] = math.Floor(v)
		up := node{lb: append([]float64(nil), nd.lb...), ub: nd.ub}
		up.lb[branch] = math.Floor(v) + 1
		if v-math.Floor(v) > 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	switch {
	case incumbent == nil && stopped:
		return StatusUnknown, nil, nil
	case incumbent == nil:
		return StatusInfeasible, nil, nil
	case stopped && hasObj:
		return StatusFeasible, incumbent, nil
	}
	return StatusOptimal, incumbent, nil
}

// Enumerate returns every distinct assignment of the model variables.
// After each solution a no-good row excludes it, so every model
// variable must be boolean. The objective is ignored.
func (e *MIPEngine) Enumerate(ctx context.Context, m *Model) (Iterator, error) {
	for _, info := range m.vars {
		if info.kind != Bool {
			return nil, fmt.Errorf("enumerating %q: variable %q of kind %s: %w", m.name, info.name, info.kind, ErrUnsupported)
		}
	}
	l, err := linearize(m)
	if err != nil {
		return nil, fmt.Errorf("linearizing model %q: %w", m.name, err)
	}
	for j := range l.p.cost {
		l.p.cost[j] = 0
	}
	l.p.offset = 0
	return &mipIterator{engine: e, model: m, l: l}, nil
}

type mipIterator struct {
	engine *MIPEngine
	model  *Model
	l      *linearizer
	done   bool
}

func (it *mipIterator) Next(ctx context.Context) (*Solution, error) {
	if it.done {
		return nil, Done
	}
	start := time.Now()
	ctx, cancel := it.engine.withDeadline(ctx)
	defer cancel()

	status, x, err := it.engine.branchAndBound(ctx, it.l, false)
	if err != nil {
		it.done = true
		return nil, err
	}
	switch status {
	case StatusInfeasible:
		it.done = true
		return nil, Done
	case StatusUnknown:
		it.done = true
		observeSolve(it.engine.Name(), status, start)
		return newSolution(StatusUnknown, nil, 0), nil
	}

	n := len(it.model.vars)
	if n == 0 {
		it.done = true
	}
	var cut lexpr
	for j := 0; j < n; j++ {
		if x[j] > 0.5 {
			cut.addIndicator(indicator{col: j, neg: true}, 1)
		} else {
			cut.add(j, 1)
		}
	}
	it.l.addRow(cut, 1, math.Inf(1))

	sol := it.engine.solution(it.model, StatusFeasible, x)
	observeSolve(it.engine.Name(), sol.status, start)
	return sol, nil
}

func (it *mipIterator) Close() {
	it.done = true
}
