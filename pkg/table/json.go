package table

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/api/v1alpha1"
)

// FromJSON reads a Dataset document encoded as JSON. Object member
// order is kept for domains, rows and columns.
func FromJSON(data []byte) (*Book, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parsing dataset: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if kind := doc.Get("kind").String(); kind != "" && kind != v1alpha1.KindDataset {
		return nil, fmt.Errorf("document has kind %q, expected %q", kind, v1alpha1.KindDataset)
	}

	b := NewBook(doc.Get("metadata.name").String())
	b.SetDescription(doc.Get("metadata.description").String())
	if err := b.SetSchema(doc.Get("spec.schemaVersion").String()); err != nil {
		return nil, err
	}

	var errs []error
	doc.Get("spec.domains").ForEach(func(key, value gjson.Result) bool {
		var values []string
		for _, v := range value.Array() {
			values = append(values, v.String())
		}
		d, err := NewDomain(key.String(), values...)
		if err == nil {
			err = b.AddDomain(d)
		}
		if err != nil {
			errs = append(errs, err)
		}
		return true
	})

	for _, spec := range doc.Get("spec.tables").Array() {
		t, err := tableFromJSON(spec)
		if err == nil {
			err = b.AddTable(t)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", b.name, err)
	}
	return b, nil
}

func tableFromJSON(spec gjson.Result) (*Table, error) {
	name := spec.Get("name").String()
	column := spec.Get("column").String()
	var t *Table
	var err error
	spec.Get("cells").ForEach(func(row, value gjson.Result) bool {
		if value.IsObject() {
			if t == nil {
				t = NewTable(name)
			} else if t.Single() {
				err = fmt.Errorf("table %q mixes single-key and two-key rows", name)
				return false
			}
			value.ForEach(func(col, cell gjson.Result) bool {
				var c Cell
				var present bool
				c, present, err = jsonCell(cell)
				if present {
					t.Set(row.String(), col.String(), c)
				}
				return err == nil
			})
			return err == nil
		}
		if t == nil {
			if column == "" {
				column = v1alpha1.DefaultColumn
			}
			t = NewSeries(name, column)
		} else if !t.Single() {
			err = fmt.Errorf("table %q mixes single-key and two-key rows", name)
			return false
		}
		var c Cell
		var present bool
		c, present, err = jsonCell(value)
		if present {
			t.SetValue(row.String(), c)
		}
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	if t == nil {
		t = NewTable(name)
	}
	t.SetDescription(spec.Get("description").String())
	if filter := spec.Get("filter").String(); filter != "" {
		f, err := NewFilter(filter)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		return t.Select(f)
	}
	return t, nil
}

func jsonCell(r gjson.Result) (Cell, bool, error) {
	switch r.Type {
	case gjson.Null:
		return Cell{}, false, nil
	case gjson.Number:
		return Num(r.Float()), true, nil
	case gjson.String:
		return Str(r.String()), true, nil
	}
	return Cell{}, false, fmt.Errorf("unsupported value %s", r.Raw)
}
