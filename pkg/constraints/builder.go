package constraints

import (
	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/solver"
)

// Family counts the constraints posted under one name.
type Family struct {
	Name  string
	Count int
}

// ConstraintBuilder posts named families of constraints to a model and
// keeps count of them for diagnostics.
type ConstraintBuilder struct {
	model    *solver.Model
	logger   *zap.Logger
	families map[string]int
	order    []string
}

func NewConstraintBuilder(m *solver.Model, logger *zap.Logger) *ConstraintBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintBuilder{
		model:    m,
		logger:   logger,
		families: make(map[string]int),
	}
}

func (b *ConstraintBuilder) Model() *solver.Model {
	return b.model
}

// Post adds c to the model under family.
func (b *ConstraintBuilder) Post(family string, c solver.Constraint) {
	if c == nil {
		return
	}
	if _, ok := b.families[family]; !ok {
		b.order = append(b.order, family)
	}
	b.families[family]++
	b.model.Post(c)
}

func (b *ConstraintBuilder) Count(family string) int {
	return b.families[family]
}

// Families returns the posted families in the order first seen.
func (b *ConstraintBuilder) Families() []Family {
	out := make([]Family, len(b.order))
	for i, name := range b.order {
		out[i] = Family{Name: name, Count: b.families[name]}
	}
	return out
}

// Log writes the family counts at debug level.
func (b *ConstraintBuilder) Log() {
	for _, f := range b.Families() {
		b.logger.Debug("posted constraints", zap.String("model", b.model.Name()), zap.String("family", f.Name), zap.Int("count", f.Count))
	}
}
