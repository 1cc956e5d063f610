package solver

import (
	"fmt"
	"strings"
)

// VarKind is the domain of a decision variable.
type VarKind int

const (
	Bool VarKind = iota
	Integer
	Continuous
)

func (k VarKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Integer:
		return "int"
	case Continuous:
		return "continuous"
	}
	return fmt.Sprintf("VarKind(%d)", int(k))
}

// Var is a handle to a decision variable of a single Model. The zero
// Var is not a valid handle.
type Var struct {
	id   int
	name string
}

func (v Var) Index() int {
	return v.id - 1
}

func (v Var) Valid() bool {
	return v.id > 0
}

func (v Var) String() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("x%d", v.id)
}

// Lit returns the positive literal of a boolean variable.
func (v Var) Lit() Lit {
	return Lit{v: v}
}

// Not returns the negative literal of a boolean variable.
func (v Var) Not() Lit {
	return Lit{v: v, neg: true}
}

// Lit is a boolean variable or its negation.
type Lit struct {
	v   Var
	neg bool
}

func (l Lit) Var() Var {
	return l.v
}

func (l Lit) Negated() bool {
	return l.neg
}

func (l Lit) Not() Lit {
	return Lit{v: l.v, neg: !l.neg}
}

func (l Lit) String() string {
	if l.neg {
		return "not " + l.v.String()
	}
	return l.v.String()
}

// Lits returns the positive literals of vs.
func Lits(vs ...Var) []Lit {
	out := make([]Lit, len(vs))
	for i, v := range vs {
		out[i] = v.Lit()
	}
	return out
}

type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression Σ coef·var + Const.
type Expr struct {
	Terms []Term
	Const float64
}

// Sum returns the expression adding every variable with coefficient one.
func Sum(vs ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vs))}
	for _, v := range vs {
		e.Add(v, 1)
	}
	return e
}

// WeightedSum returns Σ coefs[i]·vs[i]. Both slices must have the same length.
func WeightedSum(vs []Var, coefs []float64) Expr {
	e := Expr{Terms: make([]Term, 0, len(vs))}
	for i, v := range vs {
		e.Add(v, coefs[i])
	}
	return e
}

func (e *Expr) Add(v Var, coef float64) {
	if coef == 0 {
		return
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddLit adds coef·l, where a negative literal counts as 1 - v.
func (e *Expr) AddLit(l Lit, coef float64) {
	if l.neg {
		e.Const += coef
		e.Add(l.v, -coef)
		return
	}
	e.Add(l.v, coef)
}

func (e *Expr) AddConst(k float64) {
	e.Const += k
}

// AddExpr adds scale·o to e.
func (e *Expr) AddExpr(o Expr, scale float64) {
	for _, t := range o.Terms {
		e.Add(t.Var, t.Coef*scale)
	}
	e.Const += o.Const * scale
}

// Eval evaluates the expression under the given assignment.
func (e Expr) Eval(value func(Var) float64) float64 {
	total := e.Const
	for _, t := range e.Terms {
		total += t.Coef * value(t.Var)
	}
	return total
}

// merged returns the expression with duplicate variables combined and
// zero coefficients dropped, in first-occurrence order.
func (e Expr) merged() Expr {
	pos := make(map[int]int, len(e.Terms))
	out := Expr{Const: e.Const, Terms: make([]Term, 0, len(e.Terms))}
	for _, t := range e.Terms {
		if i, ok := pos[t.Var.id]; ok {
			out.Terms[i].Coef += t.Coef
			continue
		}
		pos[t.Var.id] = len(out.Terms)
		out.Terms = append(out.Terms, t)
	}
	kept := out.Terms[:0]
	for _, t := range out.Terms {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	out.Terms = kept
	return out
}

func (e Expr) String() string {
	if len(e.Terms) == 0 {
		return fmt.Sprintf("%g", e.Const)
	}
	s := make([]string, 0, len(e.Terms)+1)
	for _, t := range e.Terms {
		if t.Coef == 1 {
			s = append(s, t.Var.String())
			continue
		}
		s = append(s, fmt.Sprintf("%g*%s", t.Coef, t.Var))
	}
	if e.Const != 0 {
		s = append(s, fmt.Sprintf("%g", e.Const))
	}
	return strings.Join(s, " + ")
}
