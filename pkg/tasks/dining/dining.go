// Package dining solves the dinner party puzzle: four friends each order
// one starter, main course, dessert and drink, nobody orders the same
// item as anyone else, and nine rules narrow the orders down.
package dining

import (
	"fmt"

	"go.uber.org/zap"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

// Courses are the domains of a dataset holding the menu, in serving
// order.
var Courses = []string{"starter", "main", "dessert", "drink"}

const (
	Female = "female"
	Male   = "male"
)

// Order is (person, course, item).
type Order = index.Triple[string, string, string]

type Instance struct {
	People []string
	Menu   map[string][]string
	Women  []string
	Men    []string
}

// Load reads the people, menu and gender table of a dataset.
func Load(b *table.Book) (*Instance, error) {
	if err := b.Require(append([]string{"people"}, Courses...), []string{"gender"}); err != nil {
		return nil, err
	}
	people, _ := b.Domain("people")
	gender, _ := b.Table("gender")
	inst := &Instance{People: people.Values(), Menu: make(map[string][]string)}
	for _, course := range Courses {
		d, _ := b.Domain(course)
		inst.Menu[course] = d.Values()
	}
	for _, p := range inst.People {
		g, ok := gender.Text(p, gender.Column())
		switch {
		case !ok:
			return nil, fmt.Errorf("no gender for %s", p)
		case g == Female:
			inst.Women = append(inst.Women, p)
		case g == Male:
			inst.Men = append(inst.Men, p)
		default:
			return nil, fmt.Errorf("unknown gender %q for %s", g, p)
		}
	}
	if len(inst.Women) != 2 || len(inst.Men) != 2 {
		return nil, fmt.Errorf("expected two women and two men, got %d and %d", len(inst.Women), len(inst.Men))
	}
	return inst, nil
}

func (inst *Instance) offered(k Order) bool {
	for _, item := range inst.Menu[k.Second] {
		if item == k.Third {
			return true
		}
	}
	return false
}

// Model is the compiled puzzle.
type Model struct {
	*solver.Model
	Instance *Instance
	Orders   *index.Index[Order]
	Builder  *constraints.ConstraintBuilder
}

// Build declares one boolean per (person, course, item) and posts the
// menu and puzzle rules.
func Build(inst *Instance, logger *zap.Logger) (*Model, error) {
	m := &Model{Model: solver.NewModel("dining"), Instance: inst}
	m.Orders = index.New[Order](m.Model, "orders", inst.offered)
	m.Builder = constraints.NewConstraintBuilder(m.Model, logger)
	for _, p := range inst.People {
		for _, course := range Courses {
			for _, item := range inst.Menu[course] {
				if _, err := m.Orders.DeclareBool(index.T(p, course, item)); err != nil {
					return nil, err
				}
			}
		}
	}

	b := m.Builder
	byPersonCourse := func(k Order) index.Pair[string, string] { return index.P(k.First, k.Second) }
	byCourseItem := func(k Order) index.Pair[string, string] { return index.P(k.Second, k.Third) }
	constraints.AtLeastOnePerGroup(b, "one item per course", m.Orders, byPersonCourse)
	constraints.ExclusivePerGroup(b, "one item per course", m.Orders, byPersonCourse)
	constraints.Distinct(b, "nobody shares an item", m.Orders, byCourseItem)

	if err := m.rules(); err != nil {
		return nil, err
	}
	b.Log()
	return m, nil
}

// rules posts the nine puzzle rules. An item or person missing from
// the dataset is reported rather than skipped.
func (m *Model) rules() error {
	var errs []error
	lit := func(person, course, item string) solver.Lit {
		l, ok := m.Orders.Lit(index.T(person, course, item))
		if !ok {
			errs = append(errs, fmt.Errorf("rule refers to unknown order %s/%s/%s", person, course, item))
		}
		return l
	}
	b := m.Builder
	inst := m.Instance
	post := func(family string, c func() solver.Constraint) {
		if cons := c(); len(errs) == 0 {
			b.Post(family, cons)
		}
	}

	// 1
	post("rule 1", func() solver.Constraint { return solver.Prohibit(lit("Emily", "starter", "Prawn Cocktail")) })
	post("rule 1", func() solver.Constraint { return solver.Prohibit(lit("Emily", "main", "Baked Mackerel")) })
	// 2
	post("rule 2", func() solver.Constraint { return solver.Prohibit(lit("Daniel", "starter", "Prawn Cocktail")) })
	post("rule 2", func() solver.Constraint { return solver.Prohibit(lit("James", "drink", "Beer")) })
	// 3
	post("rule 3", func() solver.Constraint {
		return solver.Implies(lit("Sophie", "starter", "Prawn Cocktail"), solver.Prohibit(lit("Sophie", "main", "Fried Chicken")))
	})

	for _, p := range inst.People {
		// 4
		post("rule 4", func() solver.Constraint {
			return solver.Implies(lit(p, "main", "Filet Steak"), solver.And(
				solver.Require(lit(p, "starter", "Onion Soup")),
				solver.Require(lit(p, "dessert", "Apple Crumble")),
			))
		})
		// 5
		post("rule 5", func() solver.Constraint {
			return solver.Implies(lit(p, "starter", "Mushroom Tart"), solver.Require(lit(p, "drink", "Red Wine")))
		})
		// 6
		post("rule 6", func() solver.Constraint {
			return solver.Implies(lit(p, "main", "Baked Mackerel"), solver.Prohibit(lit(p, "dessert", "Ice Cream")))
		})
		post("rule 6", func() solver.Constraint {
			return solver.Implies(lit(p, "main", "Vegan Pie"), solver.And(
				solver.Prohibit(lit(p, "starter", "Prawn Cocktail")),
				solver.Prohibit(lit(p, "starter", "Carpaccio")),
			))
		})
		// 7
		post("rule 7", func() solver.Constraint {
			return solver.Implies(lit(p, "main", "Filet Steak"), solver.Clause(lit(p, "drink", "Beer"), lit(p, "drink", "Coke")))
		})
	}

	// 8: one woman drinks white wine, the other red wine.
	w1, w2 := inst.Women[0], inst.Women[1]
	white1, red1 := lit(w1, "drink", "White Wine"), lit(w1, "drink", "Red Wine")
	white2, red2 := lit(w2, "drink", "White Wine"), lit(w2, "drink", "Red Wine")
	if len(errs) == 0 {
		constraints.BalancedPair(b, "rule 8",
			constraints.Side{Condition: solver.Require(white1), Complement: solver.Require(red1)},
			constraints.Side{Condition: solver.Require(white2), Complement: solver.Require(red2)},
		)
	}

	// 9: one man has chocolate cake, the other ice cream or coke.
	m1, m2 := inst.Men[0], inst.Men[1]
	cake1, cake2 := lit(m1, "dessert", "Chocolate Cake"), lit(m2, "dessert", "Chocolate Cake")
	fallback1 := solver.Clause(lit(m1, "dessert", "Ice Cream"), lit(m1, "drink", "Coke"))
	fallback2 := solver.Clause(lit(m2, "dessert", "Ice Cream"), lit(m2, "drink", "Coke"))
	if len(errs) == 0 {
		constraints.BalancedPair(b, "rule 9",
			constraints.Side{Condition: solver.Require(cake1), Complement: fallback1},
			constraints.Side{Condition: solver.Require(cake2), Complement: fallback2},
		)
	}
	return utilerrors.NewAggregate(errs)
}
