package solver

import (
	"fmt"
	"math"
)

const intTol = 1e-6

// lpRow is lo <= Σ val·x[idx] <= hi.
type lpRow struct {
	idx []int
	val []float64
	lo  float64
	hi  float64
}

// lpProblem is: minimize cost·x + offset subject to rows and bounds.
type lpProblem struct {
	cost    []float64
	offset  float64
	lb      []float64
	ub      []float64
	integer []bool
	rows    []lpRow
}

func (p *lpProblem) numCols() int {
	return len(p.cost)
}

// indicator is a 0/1 column, or its complement when neg is set.
type indicator struct {
	col int
	neg bool
}

// lexpr is Σ val·x[idx] + k over columns of an lpProblem.
type lexpr struct {
	idx []int
	val []float64
	k   float64
}

func (e *lexpr) add(col int, v float64) {
	if v == 0 {
		return
	}
	e.idx = append(e.idx, col)
	e.val = append(e.val, v)
}

func (e *lexpr) addIndicator(y indicator, v float64) {
	if y.neg {
		e.k += v
		e.add(y.col, -v)
		return
	}
	e.add(y.col, v)
}

// linearizer rewrites the constraint formulas of a Model as rows of a
// mixed integer program. Disjunctions and conditional constraints get
// auxiliary binary columns and big-M rows, so every variable under a
// conditional linear constraint needs finite bounds.
type linearizer struct {
	model      *Model
	p          *lpProblem
	infeasible bool
	errs       compileErrors
}

func linearize(m *Model) (*linearizer, error) {
	n := len(m.vars)
	l := &linearizer{
		model: m,
		p: &lpProblem{
			cost:    make([]float64, n),
			lb:      make([]float64, n),
			ub:      make([]float64, n),
			integer: make([]bool, n),
		},
	}
	for i, info := range m.vars {
		l.p.lb[i], l.p.ub[i] = info.lb, info.ub
		l.p.integer[i] = info.kind != Continuous
	}
	for _, c := range m.constraints {
		l.assert(c)
	}
	if obj, sense, ok := m.Objective(); ok {
		scale := 1.0
		if sense == Maximize {
			scale = -1
		}
		for _, t := range obj.Terms {
			if !m.has(t.Var) {
				l.errs = append(l.errs, UnknownVariable(t.Var))
				continue
			}
			l.p.cost[t.Var.Index()] += scale * t.Coef
		}
		l.p.offset = scale * obj.Const
	}
	if err := l.errs.err(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *linearizer) newAux() indicator {
	l.p.cost = append(l.p.cost, 0)
	l.p.lb = append(l.p.lb, 0)
	l.p.ub = append(l.p.ub, 1)
	l.p.integer = append(l.p.integer, true)
	return indicator{col: len(l.p.cost) - 1}
}

func (l *linearizer) indicatorOf(x Lit) (indicator, bool) {
	if !l.model.has(x.v) {
		l.errs = append(l.errs, UnknownVariable(x.v))
		return indicator{}, false
	}
	if l.model.vars[x.v.Index()].kind != Bool {
		l.errs = append(l.errs, fmt.Errorf("variable %q used as a literal but has kind %s", x.v, l.model.vars[x.v.Index()].kind))
		return indicator{}, false
	}
	return indicator{col: x.v.Index(), neg: x.neg}, true
}

func (l *linearizer) litsExpr(lits []Lit) (lexpr, bool) {
	var e lexpr
	for _, x := range lits {
		y, ok := l.indicatorOf(x)
		if !ok {
			return e, false
		}
		e.addIndicator(y, 1)
	}
	return e, true
}

func (l *linearizer) exprOf(x Expr) (lexpr, bool) {
	e := lexpr{k: x.Const}
	for _, t := range x.Terms {
		if !l.model.has(t.Var) {
			l.errs = append(l.errs, UnknownVariable(t.Var))
			return e, false
		}
		e.add(t.Var.Index(), t.Coef)
	}
	return e, true
}

// addRow posts lo <= e <= hi.
func (l *linearizer) addRow(e lexpr, lo, hi float64) {
	lo, hi = lo-e.k, hi-e.k
	if len(e.idx) == 0 {
		if lo > 1e-9 || hi < -1e-9 {
			l.infeasible = true
		}
		return
	}
	l.p.rows = append(l.p.rows, lpRow{idx: e.idx, val: e.val, lo: lo, hi: hi})
}

// span returns the smallest and largest value e can take within the
// column bounds.
func (l *linearizer) span(e lexpr) (float64, float64) {
	lo, hi := e.k, e.k
	for i, col := range e.idx {
		v := e.val[i]
		if v > 0 {
			lo += v * l.p.lb[col]
			hi += v * l.p.ub[col]
		} else {
			lo += v * l.p.ub[col]
			hi += v * l.p.lb[col]
		}
	}
	return lo, hi
}

func (l *linearizer) assert(c Constraint) {
	switch c := c.(type) {
	case *literal:
		if y, ok := l.indicatorOf(c.lit); ok {
			var e lexpr
			e.addIndicator(y, 1)
			l.addRow(e, 1, math.Inf(1))
		}
	case *clause:
		if e, ok := l.litsExpr(c.lits); ok {
			l.addRow(e, 1, math.Inf(1))
		}
	case *cardinality:
		if e, ok := l.litsExpr(c.lits); ok {
			l.addRow(e, float64(c.min), float64(c.max))
		}
	case *linear:
		if e, ok := l.exprOf(c.expr); ok {
			l.addRow(e, c.lo, c.hi)
		}
	case *and:
		for _, each := range c.clauses {
			l.assert(each)
		}
	case *or:
		var e lexpr
		for _, each := range c.clauses {
			e.addIndicator(l.reify(each), 1)
		}
		l.addRow(e, 1, math.Inf(1))
	case *not:
		l.assert(l.negate(c.clause))
	case *implies:
		if y, ok := l.indicatorOf(c.antecedent); ok {
			l.implyBy(y, c.consequent)
		}
	case *zeroConstraint:
	default:
		l.errs = append(l.errs, fmt.Errorf("constraint %q: %w", c, ErrUnsupported))
	}
}

// reify returns an indicator whose truth forces c. A literal is its own
// indicator; anything else gets an auxiliary column.
func (l *linearizer) reify(c Constraint) indicator {
	if lit, ok := c.(*literal); ok {
		if y, ok := l.indicatorOf(lit.lit); ok {
			return y
		}
	}
	y := l.newAux()
	l.implyBy(y, c)
	return y
}

// implyBy posts y => c.
func (l *linearizer) implyBy(y indicator, c Constraint) {
	switch c := c.(type) {
	case *literal:
		if x, ok := l.indicatorOf(c.lit); ok {
			var e lexpr
			e.addIndicator(x, 1)
			e.addIndicator(y, -1)
			l.addRow(e, 0, math.Inf(1))
		}
	case *clause:
		if e, ok := l.litsExpr(c.lits); ok {
			e.addIndicator(y, -1)
			l.addRow(e, 0, math.Inf(1))
		}
	case *cardinality:
		if e, ok := l.litsExpr(c.lits); ok {
			l.bigM(y, e, float64(c.min), float64(c.max))
		}
	case *linear:
		if e, ok := l.exprOf(c.expr); ok {
			l.bigM(y, e, c.lo, c.hi)
		}
	case *and:
		for _, each := range c.clauses {
			l.implyBy(y, each)
		}
	case *or:
		var e lexpr
		for _, each := range c.clauses {
			e.addIndicator(l.reify(each), 1)
		}
		e.addIndicator(y, -1)
		l.addRow(e, 0, math.Inf(1))
	case *not:
		l.implyBy(y, l.negate(c.clause))
	case *implies:
		l.implyBy(y, Or(Require(c.antecedent.Not()), c.consequent))
	case *zeroConstraint:
	default:
		l.errs = append(l.errs, fmt.Errorf("constraint %q: %w", c, ErrUnsupported))
	}
}

// bigM posts y => lo <= e <= hi using the bounds of e.
func (l *linearizer) bigM(y indicator, e lexpr, lo, hi float64) {
	minE, maxE := l.span(e)
	if !math.IsInf(hi, 1) && maxE > hi+1e-9 {
		if math.IsInf(maxE, 1) {
			l.errs = append(l.errs, fmt.Errorf("conditional upper bound needs bounded variables: %w", ErrUnsupported))
			return
		}
		m := maxE - hi
		row := cloneExpr(e)
		row.addIndicator(y, m)
		l.addRow(row, math.Inf(-1), hi+m)
	}
	if !math.IsInf(lo, -1) && minE < lo-1e-9 {
		if math.IsInf(minE, -1) {
			l.errs = append(l.errs, fmt.Errorf("conditional lower bound needs bounded variables: %w", ErrUnsupported))
			return
		}
		m := lo - minE
		row := cloneExpr(e)
		row.addIndicator(y, -m)
		l.addRow(row, lo-m, math.Inf(1))
	}
}

// negate pushes a negation one level down the formula.
func (l *linearizer) negate(c Constraint) Constraint {
	switch c := c.(type) {
	case *literal:
		return &literal{lit: c.lit.Not()}
	case *clause:
		return AtMost(0, c.lits...)
	case *cardinality:
		var parts []Constraint
		if c.min > 0 {
			parts = append(parts, AtMost(c.min-1, c.lits...))
		}
		if c.max < len(c.lits) {
			parts = append(parts, AtLeast(c.max+1, c.lits...))
		}
		return Or(parts...)
	case *linear:
		if !l.integral(c.expr) {
			l.errs = append(l.errs, fmt.Errorf("negation of %q needs integral terms: %w", c, ErrUnsupported))
			return ZeroConstraint
		}
		var parts []Constraint
		if !math.IsInf(c.lo, -1) {
			parts = append(parts, LessEq(c.expr, math.Ceil(c.lo-1e-9)-1))
		}
		if !math.IsInf(c.hi, 1) {
			parts = append(parts, GreaterEq(c.expr, math.Floor(c.hi+1e-9)+1))
		}
		return Or(parts...)
	case *and:
		parts := make([]Constraint, len(c.clauses))
		for i, each := range c.clauses {
			parts[i] = Not(each)
		}
		return Or(parts...)
	case *or:
		parts := make([]Constraint, len(c.clauses))
		for i, each := range c.clauses {
			parts[i] = Not(each)
		}
		return And(parts...)
	case *not:
		return c.clause
	case *implies:
		return And(Require(c.antecedent), Not(c.consequent))
	case *zeroConstraint:
		return Or()
	}
	l.errs = append(l.errs, fmt.Errorf("constraint %q: %w", c, ErrUnsupported))
	return ZeroConstraint
}

func (l *linearizer) integral(e Expr) bool {
	for _, t := range e.Terms {
		if !l.model.has(t.Var) || l.model.vars[t.Var.Index()].kind == Continuous {
			return false
		}
		if math.Abs(t.Coef-math.Round(t.Coef)) > 1e-9 {
			return false
		}
	}
	return true
}

func cloneExpr(e lexpr) lexpr {
	return lexpr{
		idx: append([]int(nil), e.idx...),
		val: append([]float64(nil), e.val...),
		k:   e.k,
	}
}
