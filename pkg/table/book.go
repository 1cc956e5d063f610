package table

import (
	"errors"
	"fmt"

	"github.com/blang/semver/v4"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/api/v1alpha1"
)

var (
	ErrNotFound = errors.New("not found")

	// SupportedSchemas is the range of dataset schema versions this
	// package can read.
	SupportedSchemas = semver.MustParseRange(">=1.0.0 <2.0.0")
)

// Book is a named collection of domains and tables loaded from one
// dataset.
type Book struct {
	name        string
	description string
	schema      semver.Version
	domains     map[string]*Domain
	domainOrder []string
	tables      map[string]*Table
	tableOrder  []string
}

func NewBook(name string) *Book {
	return &Book{
		name:    name,
		schema:  semver.MustParse(v1alpha1.SchemaVersion),
		domains: make(map[string]*Domain),
		tables:  make(map[string]*Table),
	}
}

func (b *Book) Name() string {
	return b.name
}

func (b *Book) Description() string {
	return b.description
}

func (b *Book) SetDescription(s string) {
	b.description = s
}

func (b *Book) Schema() semver.Version {
	return b.schema
}

// SetSchema records the schema version of the source document and
// rejects versions outside SupportedSchemas.
func (b *Book) SetSchema(version string) error {
	v, err := semver.Parse(version)
	if err != nil {
		return fmt.Errorf("dataset %q: invalid schema version %q: %w", b.name, version, err)
	}
	if !SupportedSchemas(v) {
		return fmt.Errorf("dataset %q: unsupported schema version %s", b.name, v)
	}
	b.schema = v
	return nil
}

func (b *Book) AddDomain(d *Domain) error {
	if _, ok := b.domains[d.Name()]; ok {
		return fmt.Errorf("dataset %q: duplicate domain %q", b.name, d.Name())
	}
	b.domains[d.Name()] = d
	b.domainOrder = append(b.domainOrder, d.Name())
	return nil
}

func (b *Book) AddTable(t *Table) error {
	if _, ok := b.tables[t.Name()]; ok {
		return fmt.Errorf("dataset %q: duplicate table %q", b.name, t.Name())
	}
	b.tables[t.Name()] = t
	b.tableOrder = append(b.tableOrder, t.Name())
	return nil
}

func (b *Book) Domain(name string) (*Domain, error) {
	d, ok := b.domains[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q: domain %q: %w", b.name, name, ErrNotFound)
	}
	return d, nil
}

func (b *Book) Table(name string) (*Table, error) {
	t, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q: table %q: %w", b.name, name, ErrNotFound)
	}
	return t, nil
}

func (b *Book) Domains() []*Domain {
	out := make([]*Domain, len(b.domainOrder))
	for i, name := range b.domainOrder {
		out[i] = b.domains[name]
	}
	return out
}

func (b *Book) Tables() []*Table {
	out := make([]*Table, len(b.tableOrder))
	for i, name := range b.tableOrder {
		out[i] = b.tables[name]
	}
	return out
}

// Require checks that every named domain and table is present and
// reports all missing ones at once.
func (b *Book) Require(domains []string, tables []string) error {
	var errs []error
	for _, name := range domains {
		if _, err := b.Domain(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range tables {
		if _, err := b.Table(name); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}
