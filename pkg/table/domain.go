package table

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Domain is a named, ordered set of entity values. Order is only used
// for presentation.
type Domain struct {
	name   string
	values []string
	set    sets.String
}

func NewDomain(name string, values ...string) (*Domain, error) {
	d := &Domain{name: name, set: sets.NewString()}
	for _, v := range values {
		if d.set.Has(v) {
			return nil, fmt.Errorf("domain %q: duplicate value %q", name, v)
		}
		d.set.Insert(v)
		d.values = append(d.values, v)
	}
	return d, nil
}

func (d *Domain) Name() string {
	return d.name
}

// Values returns the values in declaration order.
func (d *Domain) Values() []string {
	return d.values
}

func (d *Domain) Has(v string) bool {
	return d.set.Has(v)
}

func (d *Domain) Len() int {
	return len(d.values)
}

// Index returns the position of v, or -1.
func (d *Domain) Index(v string) int {
	for i, each := range d.values {
		if each == v {
			return i
		}
	}
	return -1
}
