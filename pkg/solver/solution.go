package solver

import (
	"context"
	"fmt"
	"math"
)

// Status is the outcome of a solve call.
type Status int

const (
	// StatusUnknown means the engine stopped before it could decide,
	// typically because its time limit expired.
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	}
	return "UNKNOWN"
}

// HasValues reports whether a solution with this status carries an assignment.
func (s Status) HasValues() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Solution is an immutable snapshot of solved variable values.
type Solution struct {
	status    Status
	values    []float64
	objective float64
}

func newSolution(status Status, values []float64, objective float64) *Solution {
	return &Solution{status: status, values: values, objective: objective}
}

func (s *Solution) Status() Status {
	return s.status
}

// Objective is the objective value of the assignment; zero if the model
// has no objective.
func (s *Solution) Objective() float64 {
	return s.objective
}

// Value returns the solved value of v, or zero if the solution carries
// no assignment.
func (s *Solution) Value(v Var) float64 {
	i := v.Index()
	if i < 0 || i >= len(s.values) {
		return 0
	}
	return s.values[i]
}

// Bool reports whether a boolean variable is true.
func (s *Solution) Bool(v Var) bool {
	return s.Value(v) > 0.5
}

// LitValue reports whether a literal is true.
func (s *Solution) LitValue(l Lit) bool {
	return s.Bool(l.v) != l.neg
}

// Int returns the value of v rounded to the nearest integer.
func (s *Solution) Int(v Var) int {
	return int(math.Round(s.Value(v)))
}

func (s *Solution) String() string {
	if !s.status.HasValues() {
		return s.status.String()
	}
	return fmt.Sprintf("%s objective=%g", s.status, s.objective)
}

// Iterator is a lazy, non-restartable sequence of distinct solutions.
// Next returns Done once the sequence is exhausted. When the time limit
// expires Next returns a solution with StatusUnknown.
type Iterator interface {
	Next(ctx context.Context) (*Solution, error)
	Close()
}

// Engine solves models.
type Engine interface {
	Name() string
	Solve(ctx context.Context, m *Model) (*Solution, error)
	Enumerate(ctx context.Context, m *Model) (Iterator, error)
}
