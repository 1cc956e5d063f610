package table

import (
	"fmt"
	"math"

	yaml "gopkg.in/yaml.v2"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/api/v1alpha1"
)

// FromYAML parses a Dataset document.
func FromYAML(data []byte) (*Book, error) {
	var ds v1alpha1.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return FromDataset(&ds)
}

// FromDataset builds a Book from a decoded Dataset.
func FromDataset(ds *v1alpha1.Dataset) (*Book, error) {
	if ds.Kind != "" && ds.Kind != v1alpha1.KindDataset {
		return nil, fmt.Errorf("document %q has kind %q, expected %q", ds.Metadata.Name, ds.Kind, v1alpha1.KindDataset)
	}
	b := NewBook(ds.Metadata.Name)
	b.SetDescription(ds.Metadata.Description)
	if err := b.SetSchema(ds.Spec.SchemaVersion); err != nil {
		return nil, err
	}

	var errs []error
	for _, item := range ds.Spec.Domains {
		name := fmt.Sprint(item.Key)
		raw, ok := item.Value.([]interface{})
		if !ok {
			errs = append(errs, fmt.Errorf("domain %q: expected a list of values", name))
			continue
		}
		values := make([]string, len(raw))
		for i, v := range raw {
			values[i] = fmt.Sprint(v)
		}
		d, err := NewDomain(name, values...)
		if err == nil {
			err = b.AddDomain(d)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, spec := range ds.Spec.Tables {
		t, err := tableFromSpec(spec)
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

func tableFromSpec(spec v1alpha1.TableSpec) (*Table, error) {
	column := spec.Column
	if column == "" {
		column = v1alpha1.DefaultColumn
	}
	single := NewSeries(spec.Name, column)
	double := NewTable(spec.Name)
	isSingle, isDouble := false, false

	for _, row := range spec.Cells {
		rowKey := fmt.Sprint(row.Key)
		if cols, ok := row.Value.(yaml.MapSlice); ok {
			isDouble = true
			for _, col := range cols {
				c, present, err := cellOf(col.Value)
				if err != nil {
					return nil, fmt.Errorf("table %q cell (%s, %v): %w", spec.Name, rowKey, col.Key, err)
				}
				if present {
					double.Set(rowKey, fmt.Sprint(col.Key), c)
				}
			}
			continue
		}
		isSingle = true
		c, present, err := cellOf(row.Value)
		if err != nil {
			return nil, fmt.Errorf("table %q row %s: %w", spec.Name, rowKey, err)
		}
		if present {
			single.SetValue(rowKey, c)
		}
	}
	if isSingle && isDouble {
		return nil, fmt.Errorf("table %q mixes single-key and two-key rows", spec.Name)
	}

	t := double
	if isSingle || (!isDouble && spec.Column != "") {
		t = single
	}
	t.SetDescription(spec.Description)
	if spec.Filter == "" {
		return t, nil
	}
	f, err := NewFilter(spec.Filter)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", spec.Name, err)
	}
	return t.Select(f)
}

// cellOf converts a decoded scalar. Nulls and NaNs are absent cells.
func cellOf(v interface{}) (Cell, bool, error) {
	switch v := v.(type) {
	case nil:
		return Cell{}, false, nil
	case int:
		return Num(float64(v)), true, nil
	case int64:
		return Num(float64(v)), true, nil
	case uint64:
		return Num(float64(v)), true, nil
	case float64:
		if math.IsNaN(v) {
			return Cell{}, false, nil
		}
		return Num(v), true, nil
	case string:
		return Str(v), true, nil
	}
	return Cell{}, false, fmt.Errorf("unsupported value %v of type %T", v, v)
}

// ToDataset converts a Book back to its document form.
func ToDataset(b *Book) *v1alpha1.Dataset {
	ds := &v1alpha1.Dataset{
		APIVersion: v1alpha1.GroupVersion,
		Kind:       v1alpha1.KindDataset,
		Metadata:   v1alpha1.ObjectMeta{Name: b.name, Description: b.description},
		Spec:       v1alpha1.DatasetSpec{SchemaVersion: b.schema.String()},
	}
	for _, d := range b.Domains() {
		ds.Spec.Domains = append(ds.Spec.Domains, yaml.MapItem{Key: d.Name(), Value: d.Values()})
	}
	for _, t := range b.Tables() {
		spec := v1alpha1.TableSpec{Name: t.Name(), Description: t.Description()}
		if t.Single() {
			if t.Column() != v1alpha1.DefaultColumn {
				spec.Column = t.Column()
			}
			for _, row := range t.Rows() {
				c, _ := t.Get(row, t.Column())
				spec.Cells = append(spec.Cells, yaml.MapItem{Key: row, Value: c.Interface()})
			}
		} else {
			for _, row := range t.Rows() {
				var cols yaml.MapSlice
				for _, col := range t.ColsOf(row) {
					c, _ := t.Get(row, col)
					cols = append(cols, yaml.MapItem{Key: col, Value: c.Interface()})
				}
				spec.Cells = append(spec.Cells, yaml.MapItem{Key: row, Value: cols})
			}
		}
		ds.Spec.Tables = append(ds.Spec.Tables, spec)
	}
	return ds
}

func ToYAML(b *Book) ([]byte, error) {
	return yaml.Marshal(ToDataset(b))
}
