package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Constraint is a boolean formula over the variables of a Model. Leaves
// are literals, cardinality bounds over literals and linear ranges;
// inner nodes are And, Or, Not and Implies.
type Constraint interface {
	// Apply builds the circuit of the constraint and returns the
	// literal that is true exactly when the constraint holds.
	Apply(c *logic.C, lm *LitMapping) z.Lit
	String() string
}

type literal struct {
	lit Lit
}

func (constraint *literal) String() string {
	if constraint.lit.neg {
		return fmt.Sprintf("%s is prohibited", constraint.lit.v)
	}
	return fmt.Sprintf("%s is mandatory", constraint.lit.v)
}

func (constraint *literal) Apply(_ *logic.C, lm *LitMapping) z.Lit {
	return lm.LitOf(constraint.lit)
}

// Require returns a Constraint satisfied only when l is true.
func Require(l Lit) Constraint {
	return &literal{lit: l}
}

// Prohibit returns a Constraint satisfied only when l is false.
func Prohibit(l Lit) Constraint {
	return &literal{lit: l.Not()}
}

type clause struct {
	lits []Lit
}

func (constraint *clause) String() string {
	if len(constraint.lits) == 0 {
		return "empty clause"
	}
	return fmt.Sprintf("at least one of %s", joinLits(constraint.lits))
}

func (constraint *clause) Apply(c *logic.C, lm *LitMapping) z.Lit {
	if len(constraint.lits) == 0 {
		return c.F
	}
	return c.Ors(lm.LitsOf(constraint.lits)...)
}

// Clause returns a Constraint requiring at least one of lits. An empty
// clause is unsatisfiable.
func Clause(lits ...Lit) Constraint {
	return &clause{lits: lits}
}

// Conflict permits a, b or neither, but not both.
func Conflict(a, b Lit) Constraint {
	return &clause{lits: []Lit{a.Not(), b.Not()}}
}

type cardinality struct {
	lits []Lit
	min  int
	max  int
}

func (constraint *cardinality) String() string {
	ids := joinLits(constraint.lits)
	switch {
	case constraint.min == constraint.max:
		return fmt.Sprintf("exactly %d of %s are permitted", constraint.min, ids)
	case constraint.min <= 0:
		return fmt.Sprintf("at most %d of %s are permitted", constraint.max, ids)
	case constraint.max >= len(constraint.lits):
		return fmt.Sprintf("at least %d of %s are required", constraint.min, ids)
	}
	return fmt.Sprintf("between %d and %d of %s are permitted", constraint.min, constraint.max, ids)
}

func (constraint *cardinality) Apply(c *logic.C, lm *LitMapping) z.Lit {
	n := len(constraint.lits)
	if constraint.min > n || constraint.max < 0 || constraint.min > constraint.max {
		return c.F
	}
	if constraint.min <= 0 && constraint.max >= n {
		return c.T
	}
	ms := lm.LitsOf(constraint.lits)
	if constraint.max == 0 {
		return c.Ands(negate(ms)...)
	}
	if constraint.min == n {
		return c.Ands(ms...)
	}
	cs := c.CardSort(ms)
	return c.And(cs.Geq(constraint.min), cs.Leq(constraint.max))
}

func (constraint *cardinality) expr() Expr {
	var e Expr
	for _, l := range constraint.lits {
		e.AddLit(l, 1)
	}
	return e
}

// AtMost forbids solutions in which more than n of lits are true.
func AtMost(n int, lits ...Lit) Constraint {
	return &cardinality{lits: lits, min: 0, max: n}
}

// AtLeast requires at least n of lits to be true.
func AtLeast(n int, lits ...Lit) Constraint {
	return &cardinality{lits: lits, min: n, max: len(lits)}
}

// Exactly requires exactly n of lits to be true. Exactly(1) of no
// literals is unsatisfiable.
func Exactly(n int, lits ...Lit) Constraint {
	return &cardinality{lits: lits, min: n, max: n}
}

type linear struct {
	expr Expr
	lo   float64
	hi   float64
}

func (constraint *linear) String() string {
	switch {
	case constraint.lo == constraint.hi:
		return fmt.Sprintf("%s = %g", constraint.expr, constraint.lo)
	case math.IsInf(constraint.lo, -1):
		return fmt.Sprintf("%s <= %g", constraint.expr, constraint.hi)
	case math.IsInf(constraint.hi, 1):
		return fmt.Sprintf("%s >= %g", constraint.expr, constraint.lo)
	}
	return fmt.Sprintf("%g <= %s <= %g", constraint.lo, constraint.expr, constraint.hi)
}

func (constraint *linear) Apply(c *logic.C, lm *LitMapping) z.Lit {
	return lm.linear(c, constraint.expr, constraint.lo, constraint.hi)
}

// Linear requires lo <= e <= hi. Either bound may be infinite.
func Linear(e Expr, lo, hi float64) Constraint {
	return &linear{expr: e.merged(), lo: lo, hi: hi}
}

func LessEq(e Expr, k float64) Constraint {
	return Linear(e, math.Inf(-1), k)
}

func GreaterEq(e Expr, k float64) Constraint {
	return Linear(e, k, math.Inf(1))
}

func Equal(e Expr, k float64) Constraint {
	return Linear(e, k, k)
}

type and struct {
	clauses []Constraint
}

// And holds when every clause holds. And of nothing always holds.
func And(clauses ...Constraint) Constraint {
	return &and{clauses: clauses}
}

func (constraint *and) String() string {
	return fmt.Sprintf("%s are required", joinConstraints(constraint.clauses, " and "))
}

func (constraint *and) Apply(c *logic.C, lm *LitMapping) z.Lit {
	if len(constraint.clauses) == 0 {
		return c.T
	}
	terms := make([]z.Lit, len(constraint.clauses))
	for i, clause := range constraint.clauses {
		terms[i] = clause.Apply(c, lm)
	}
	return c.Ands(terms...)
}

type or struct {
	clauses []Constraint
}

// Or holds when at least one clause holds. Or of nothing never holds.
func Or(clauses ...Constraint) Constraint {
	return &or{clauses: clauses}
}

func (constraint *or) String() string {
	return fmt.Sprintf("%s are required", joinConstraints(constraint.clauses, " or "))
}

func (constraint *or) Apply(c *logic.C, lm *LitMapping) z.Lit {
	if len(constraint.clauses) == 0 {
		return c.F
	}
	terms := make([]z.Lit, len(constraint.clauses))
	for i, clause := range constraint.clauses {
		terms[i] = clause.Apply(c, lm)
	}
	return c.Ors(terms...)
}

type not struct {
	clause Constraint
}

func Not(clause Constraint) Constraint {
	return &not{clause: clause}
}

func (constraint *not) String() string {
	return fmt.Sprintf("not %s", constraint.clause.String())
}

func (constraint *not) Apply(c *logic.C, lm *LitMapping) z.Lit {
	return constraint.clause.Apply(c, lm).Not()
}

type implies struct {
	antecedent Lit
	consequent Constraint
}

// Implies requires consequent whenever antecedent is true. The converse
// is not implied.
func Implies(antecedent Lit, consequent Constraint) Constraint {
	return &implies{antecedent: antecedent, consequent: consequent}
}

// Iff requires consequent exactly when antecedent is true.
func Iff(antecedent Lit, consequent Constraint) Constraint {
	return And(
		Implies(antecedent, consequent),
		Implies(antecedent.Not(), Not(consequent)),
	)
}

func (constraint *implies) String() string {
	return fmt.Sprintf("%s implies %s", constraint.antecedent, constraint.consequent)
}

func (constraint *implies) Apply(c *logic.C, lm *LitMapping) z.Lit {
	return c.Or(lm.LitOf(constraint.antecedent).Not(), constraint.consequent.Apply(c, lm))
}

// zeroConstraint always holds.
type zeroConstraint struct{}

var _ Constraint = &zeroConstraint{}

var ZeroConstraint = &zeroConstraint{}

func (*zeroConstraint) String() string {
	return "true"
}

func (*zeroConstraint) Apply(c *logic.C, _ *LitMapping) z.Lit {
	return c.T
}

func joinLits(lits []Lit) string {
	s := make([]string, len(lits))
	for i, l := range lits {
		s[i] = l.String()
	}
	return strings.Join(s, ", ")
}

func joinConstraints(cs []Constraint, sep string) string {
	s := make([]string, len(cs))
	for i, c := range cs {
		s[i] = c.String()
	}
	return strings.Join(s, sep)
}

func negate(ms []z.Lit) []z.Lit {
	out := make([]z.Lit, len(ms))
	for i, m := range ms {
		out[i] = m.Not()
	}
	return out
}
