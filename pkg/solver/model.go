package solver

import (
	"fmt"
	"math"
)

// Sense is the optimization direction of an objective.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

type varInfo struct {
	kind VarKind
	lb   float64
	ub   float64
	name string
}

// Model is a set of decision variables, the constraints posted over them
// and an optional objective. A Model is built by one goroutine and is
// not modified by the engines that solve it.
type Model struct {
	name        string
	vars        []varInfo
	constraints []Constraint
	objective   Expr
	sense       Sense
	hasObj      bool
}

func NewModel(name string) *Model {
	return &Model{name: name}
}

func (m *Model) Name() string {
	return m.name
}

// NewVar declares a decision variable. Bool variables always have bounds
// [0, 1]; Integer bounds are rounded inwards.
func (m *Model) NewVar(kind VarKind, lb, ub float64, name string) (Var, error) {
	switch kind {
	case Bool:
		lb, ub = 0, 1
	case Integer:
		lb, ub = math.Ceil(lb), math.Floor(ub)
	case Continuous:
	default:
		return Var{}, fmt.Errorf("variable %q: unknown kind %s", name, kind)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || lb > ub {
		return Var{}, fmt.Errorf("variable %q: empty domain [%g, %g]", name, lb, ub)
	}
	m.vars = append(m.vars, varInfo{kind: kind, lb: lb, ub: ub, name: name})
	return Var{id: len(m.vars), name: name}, nil
}

// NewBool declares a boolean variable.
func (m *Model) NewBool(name string) Var {
	v, _ := m.NewVar(Bool, 0, 1, name)
	return v
}

func (m *Model) NumVars() int {
	return len(m.vars)
}

// Var returns the handle of the i-th declared variable.
func (m *Model) Var(i int) Var {
	return Var{id: i + 1, name: m.vars[i].name}
}

func (m *Model) Kind(v Var) VarKind {
	return m.vars[v.Index()].kind
}

func (m *Model) Bounds(v Var) (float64, float64) {
	info := m.vars[v.Index()]
	return info.lb, info.ub
}

func (m *Model) has(v Var) bool {
	return v.id > 0 && v.id <= len(m.vars)
}

// Post adds a constraint that every solution must satisfy.
func (m *Model) Post(c Constraint) {
	if c == nil {
		return
	}
	m.constraints = append(m.constraints, c)
}

// PostConditional adds c only for solutions in which a holds.
func (m *Model) PostConditional(a Lit, c Constraint) {
	if c == nil {
		return
	}
	m.Post(Implies(a, c))
}

func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// SetObjective sets the single objective of the model.
func (m *Model) SetObjective(e Expr, sense Sense) error {
	if m.hasObj {
		return fmt.Errorf("model %q: %w", m.name, ErrObjectiveSet)
	}
	m.objective = e.merged()
	m.sense = sense
	m.hasObj = true
	return nil
}

// Objective returns the objective and its sense, if one is set.
func (m *Model) Objective() (Expr, Sense, bool) {
	return m.objective, m.sense, m.hasObj
}

// decisionVars are the variables whose values distinguish two solutions.
func (m *Model) decisionVars() []Var {
	out := make([]Var, len(m.vars))
	for i := range m.vars {
		out[i] = m.Var(i)
	}
	return out
}
