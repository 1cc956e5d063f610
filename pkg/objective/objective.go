// Package objective accumulates a linear objective over indexed
// decision variables.
package objective

import (
	"errors"
	"fmt"

	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// ErrDirectionConflict is returned when terms with opposite directions
// are combined, or when the model already carries an objective in the
// other direction.
var ErrDirectionConflict = errors.New("objective direction conflict")

// Builder sums cost or value terms in a single direction.
type Builder struct {
	sense solver.Sense
	expr  solver.Expr
}

func New(sense solver.Sense) *Builder {
	return &Builder{sense: sense}
}

func (b *Builder) Sense() solver.Sense {
	return b.sense
}

// Add adds Σ coef(k)·var(k) over keys. Keys absent from ix or without a
// coefficient contribute nothing.
func Add[K comparable](b *Builder, ix *index.Index[K], keys []K, coef func(K) (float64, bool)) *Builder {
	b.expr.AddExpr(ix.Sum(keys, coef), 1)
	return b
}

// AddAll is Add over every declared key of ix.
func AddAll[K comparable](b *Builder, ix *index.Index[K], coef func(K) (float64, bool)) *Builder {
	return Add(b, ix, ix.Keys(), coef)
}

func (b *Builder) AddVar(v solver.Var, coef float64) *Builder {
	b.expr.Add(v, coef)
	return b
}

func (b *Builder) AddExpr(e solver.Expr) *Builder {
	b.expr.AddExpr(e, 1)
	return b
}

func (b *Builder) AddConst(k float64) *Builder {
	b.expr.AddConst(k)
	return b
}

// Merge adds the terms of o, which must share the direction of b.
func (b *Builder) Merge(o *Builder) error {
	if o.sense != b.sense {
		return fmt.Errorf("merging %s into %s: %w", o.sense, b.sense, ErrDirectionConflict)
	}
	b.expr.AddExpr(o.expr, 1)
	return nil
}

func (b *Builder) Expr() solver.Expr {
	return b.expr
}

// Apply sets the objective of m.
func (b *Builder) Apply(m *solver.Model) error {
	if _, sense, ok := m.Objective(); ok && sense != b.sense {
		return fmt.Errorf("model %q already %ss: %w", m.Name(), sense, ErrDirectionConflict)
	}
	return m.SetObjective(b.expr, b.sense)
}
