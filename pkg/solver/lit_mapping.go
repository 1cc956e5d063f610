package solver

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// maxIntRange bounds the domain width of integer variables encoded in bits.
const maxIntRange = 1 << 40

// LitMapping performs translation between the variables of a Model and
// the literals of the circuit handed to the SAT solver. Boolean
// variables map to one literal; bounded integers map to the bits of
// their offset from the lower bound.
type LitMapping struct {
	model  *Model
	c      *logic.C
	bits   [][]z.Lit
	offset []int64
	roots  []z.Lit
	marks  []int8
	errs   compileErrors
}

// NewLitMapping builds the circuit of every constraint posted to m.
func NewLitMapping(m *Model) (*LitMapping, error) {
	lm := &LitMapping{
		model:  m,
		c:      logic.NewCCap(len(m.vars) * 4),
		bits:   make([][]z.Lit, len(m.vars)),
		offset: make([]int64, len(m.vars)),
	}

	for i, info := range m.vars {
		switch info.kind {
		case Bool:
			lm.bits[i] = []z.Lit{lm.c.Lit()}
		case Integer:
			if math.IsInf(info.lb, 0) || math.IsInf(info.ub, 0) || info.ub-info.lb > maxIntRange {
				return nil, fmt.Errorf("integer variable %q needs finite bounds: %w", info.name, ErrUnsupported)
			}
			r := int64(info.ub - info.lb)
			lm.offset[i] = int64(info.lb)
			n := bits.Len64(uint64(r))
			bs := make([]z.Lit, n)
			for j := range bs {
				bs[j] = lm.c.Lit()
			}
			lm.bits[i] = bs
			if r != int64(1)<<uint(n)-1 {
				lm.roots = append(lm.roots, leqConst(lm.c, bs, r))
			}
		default:
			return nil, fmt.Errorf("variable %q of kind %s: %w", info.name, info.kind, ErrUnsupported)
		}
	}

	for _, constraint := range m.constraints {
		lm.roots = append(lm.roots, constraint.Apply(lm.c, lm))
	}
	if err := lm.Error(); err != nil {
		return nil, err
	}
	return lm, nil
}

// LitOf returns the circuit literal of a boolean literal.
func (lm *LitMapping) LitOf(l Lit) z.Lit {
	if !lm.model.has(l.v) {
		lm.errs = append(lm.errs, UnknownVariable(l.v))
		return lm.c.F
	}
	i := l.v.Index()
	if lm.model.vars[i].kind != Bool {
		lm.errs = append(lm.errs, fmt.Errorf("variable %q used as a literal but has kind %s", l.v, lm.model.vars[i].kind))
		return lm.c.F
	}
	m := lm.bits[i][0]
	if l.neg {
		return m.Not()
	}
	return m
}

func (lm *LitMapping) LitsOf(ls []Lit) []z.Lit {
	out := make([]z.Lit, len(ls))
	for i, l := range ls {
		out[i] = lm.LitOf(l)
	}
	return out
}

// weighted rewrites e as K + Σ w·m with positive integral weights.
func (lm *LitMapping) weighted(e Expr) ([]wlit, float64, error) {
	e = e.merged()
	k := e.Const
	ts := make([]wlit, 0, len(e.Terms))
	for _, t := range e.Terms {
		if !lm.model.has(t.Var) {
			return nil, 0, UnknownVariable(t.Var)
		}
		coef := math.Round(t.Coef)
		if math.Abs(coef-t.Coef) > 1e-9 {
			return nil, 0, fmt.Errorf("coefficient %g of %q is not integral: %w", t.Coef, t.Var, ErrUnsupported)
		}
		i := t.Var.Index()
		k += coef * float64(lm.offset[i])
		for j, b := range lm.bits[i] {
			w := int64(coef) << uint(j)
			if w < 0 {
				k += float64(w)
				ts = append(ts, wlit{w: -w, m: b.Not()})
			} else {
				ts = append(ts, wlit{w: w, m: b})
			}
		}
	}
	return ts, k, nil
}

func (lm *LitMapping) linear(c *logic.C, e Expr, lo, hi float64) z.Lit {
	ts, k, err := lm.weighted(e)
	if err != nil {
		lm.errs = append(lm.errs, err)
		return c.F
	}
	top := maxSum(ts)
	upper, lower := int64(math.MaxInt64), int64(math.MinInt64)
	if !math.IsInf(hi, 1) {
		if hi-k < 0 {
			return c.F
		}
		upper = int64(math.Floor(hi - k + 1e-9))
	}
	if !math.IsInf(lo, -1) {
		if lo-k > float64(top) {
			return c.F
		}
		lower = int64(math.Ceil(lo - k - 1e-9))
	}
	if lower > upper {
		return c.F
	}
	if lower <= 0 && upper >= top {
		return c.T
	}
	bs := sumBits(c, ts)
	return c.And(geqConst(c, bs, lower), leqConst(c, bs, upper))
}

// AddConstraints adds the current constraints encoded in the embedded
// circuit to the solver g and asserts every posted constraint.
func (lm *LitMapping) AddConstraints(g inter.Adder) {
	lm.c.ToCnf(g)
	g.Add(lm.c.T)
	g.Add(z.LitNull)
	for _, bs := range lm.bits {
		for _, m := range bs {
			g.Add(m)
			g.Add(lm.c.T)
			g.Add(z.LitNull)
		}
	}
	for _, m := range lm.roots {
		g.Add(m)
		g.Add(z.LitNull)
	}
	lm.marks = make([]int8, lm.c.Len())
	for i := range lm.marks {
		lm.marks[i] = 1
	}
}

// Assert translates the circuit grown since the last call and adds m
// as a unit clause.
func (lm *LitMapping) Assert(g inter.Adder, m z.Lit) {
	lm.marks, _ = lm.c.CnfSince(g, lm.marks, m)
	g.Add(m)
	g.Add(z.LitNull)
}

// DecisionLits returns the literals whose values distinguish solutions.
func (lm *LitMapping) DecisionLits() []z.Lit {
	var out []z.Lit
	for _, bs := range lm.bits {
		out = append(out, bs...)
	}
	return out
}

// Values decodes the assignment of every model variable.
func (lm *LitMapping) Values(g inter.Model) []float64 {
	values := make([]float64, len(lm.bits))
	for i, bs := range lm.bits {
		values[i] = float64(lm.offset[i] + bitsValue(bs, g.Value))
	}
	return values
}

// Error returns a single error value that is an aggregation of all
// errors encountered while building the circuit, or nil.
func (lm *LitMapping) Error() error {
	return lm.errs.err()
}
