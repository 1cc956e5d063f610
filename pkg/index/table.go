package index

import "github.com/perdasilva/ormodel/pkg/table"

// FromTable accepts a (row, col) pair when t has a cell for it.
func FromTable(t *table.Table) Predicate[Pair[string, string]] {
	return func(k Pair[string, string]) bool {
		return t.Has(k.First, k.Second)
	}
}

// FromSeries accepts a key when the single-key table s has a value for it.
func FromSeries(s *table.Table) Predicate[string] {
	return func(k string) bool {
		_, ok := s.Get(k, s.Column())
		return ok
	}
}

// Project lifts a predicate on a derived key to a predicate on K.
func Project[K, J any](p Predicate[J], fn func(K) J) Predicate[K] {
	return func(k K) bool {
		return p(fn(k))
	}
}

// TableCells returns the present (row, col) pairs of t in Each order.
func TableCells(t *table.Table) []Pair[string, string] {
	out := make([]Pair[string, string], 0, t.Len())
	t.Each(func(row, col string, _ table.Cell) {
		out = append(out, P(row, col))
	})
	return out
}
