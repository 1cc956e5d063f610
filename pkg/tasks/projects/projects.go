// Package projects plans which projects to take on and which contractor
// does each job, subject to contractor availability, project
// dependencies and a minimum profit.
package projects

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/objective"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

// DefaultMargin is the minimum profit when the dataset sets none.
const DefaultMargin = 2160

const (
	Required = "required"
	Conflict = "conflict"
)

// Job is (project, contractor, month, job).
type Job = index.Quad[string, string, string, string]

type Instance struct {
	// Schedule holds the job each project runs in a month.
	Schedule *table.Table
	// Quotes holds the price of a contractor for a job.
	Quotes       *table.Table
	Dependencies *table.Table
	Value        *table.Table
	Margin       float64
}

// Load reads the projects, quotes, dependencies and value tables. The
// margin comes from the settings table when present.
func Load(b *table.Book) (*Instance, error) {
	if err := b.Require(nil, []string{"projects", "quotes", "value"}); err != nil {
		return nil, err
	}
	inst := &Instance{Margin: DefaultMargin}
	inst.Schedule, _ = b.Table("projects")
	inst.Quotes, _ = b.Table("quotes")
	inst.Value, _ = b.Table("value")
	if deps, err := b.Table("dependencies"); err == nil {
		inst.Dependencies = deps
	} else {
		inst.Dependencies = table.NewTable("dependencies")
	}
	if settings, err := b.Table("settings"); err == nil {
		if v, ok := settings.Value("margin"); ok {
			inst.Margin = v
		}
	}
	for _, p := range inst.Schedule.Rows() {
		if _, ok := inst.Value.Value(p); !ok {
			return nil, fmt.Errorf("project %s has no value", p)
		}
	}
	return inst, nil
}

func (inst *Instance) Projects() []string {
	return inst.Schedule.Rows()
}

func (inst *Instance) Months() []string {
	return inst.Schedule.Cols()
}

func (inst *Instance) Contractors() []string {
	return inst.Quotes.Rows()
}

// applicable accepts a job when the project runs it in that month and
// the contractor quotes for it.
func (inst *Instance) applicable(k Job) bool {
	job, ok := inst.Schedule.Text(k.First, k.Third)
	return ok && job == k.Fourth && inst.Quotes.Has(k.Second, k.Fourth)
}

func (inst *Instance) quote(k Job) (float64, bool) {
	return inst.Quotes.Float(k.Second, k.Fourth)
}

type Model struct {
	*solver.Model
	Instance *Instance
	Taken    *index.Index[string]
	Jobs     *index.Index[Job]
	// Profit is Σ value of taken projects - Σ quotes of assigned jobs.
	Profit *objective.Builder
}

// Build compiles the plan model. A scheduled job nobody quotes for
// makes its project impossible to take on.
func Build(inst *Instance, logger *zap.Logger) (*Model, error) {
	m := &Model{Model: solver.NewModel("projects"), Instance: inst}
	m.Taken = index.New[string](m.Model, "take", nil)
	if err := m.Taken.DeclareAll(inst.Projects(), solver.Bool, 0, 1); err != nil {
		return nil, err
	}
	m.Jobs = index.New[Job](m.Model, "job", inst.applicable)
	for _, p := range inst.Projects() {
		for _, c := range inst.Contractors() {
			for _, month := range inst.Schedule.ColsOf(p) {
				job, _ := inst.Schedule.Text(p, month)
				if err := m.Jobs.DeclareAll([]Job{index.Q(p, c, month, job)}, solver.Bool, 0, 1); err != nil {
					return nil, err
				}
			}
		}
	}

	b := constraints.NewConstraintBuilder(m.Model, logger)
	_, byContractorMonth := index.GroupBy(m.Jobs, func(k Job) index.Pair[string, string] { return index.P(k.Second, k.Third) })
	for _, c := range inst.Contractors() {
		for _, month := range inst.Months() {
			constraints.AtMostOne(b, "contractor works one job a month", m.Jobs.Lits(byContractorMonth[index.P(c, month)]...))
		}
	}

	_, byProjectMonth := index.GroupBy(m.Jobs, func(k Job) index.Pair[string, string] { return index.P(k.First, k.Third) })
	for _, p := range inst.Projects() {
		taken, _ := m.Taken.Lit(p)
		for _, month := range inst.Schedule.ColsOf(p) {
			lits := m.Jobs.Lits(byProjectMonth[index.P(p, month)]...)
			constraints.Implies(b, "taken project has one contractor per job", taken, solver.Exactly(1, lits...))
			constraints.Implies(b, "dropped project has no contractor", taken.Not(), solver.AtMost(0, lits...))
		}
	}

	var errs []error
	inst.Dependencies.Each(func(p1, p2 string, c table.Cell) {
		l1, ok1 := m.Taken.Lit(p1)
		l2, ok2 := m.Taken.Lit(p2)
		if !ok1 || !ok2 {
			errs = append(errs, fmt.Errorf("dependency between unknown projects %s and %s", p1, p2))
			return
		}
		switch c.Text() {
		case Required:
			constraints.Implies(b, "required", l1, solver.Require(l2))
		case Conflict:
			constraints.Implies(b, "conflict", l1, solver.Prohibit(l2))
		default:
			errs = append(errs, fmt.Errorf("unknown dependency %q between %s and %s", c.Text(), p1, p2))
		}
	})
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, err
	}

	var cost solver.Expr
	cost.AddExpr(m.Jobs.Sum(m.Jobs.Keys(), inst.quote), -1)
	m.Profit = objective.AddAll(objective.New(solver.Maximize), m.Taken, inst.Value.Value).AddExpr(cost)
	constraints.Range(b, "minimum profit", m.Profit.Expr(), inst.Margin, math.Inf(1))
	b.Log()
	return m, nil
}
