// Package decode turns solved variable values back into domain results.
// Decoding only reads the solution and is idempotent.
package decode

import (
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// Selected returns the keys of ix whose boolean variable is true, in
// declaration order.
func Selected[K comparable](ix *index.Index[K], sol *solver.Solution) []K {
	var out []K
	ix.Each(func(key K, v solver.Var) {
		if sol.Bool(v) {
			out = append(out, key)
		}
	})
	return out
}

// Values returns the non-zero values of ix keyed by index key.
func Values[K comparable](ix *index.Index[K], sol *solver.Solution) map[K]float64 {
	out := make(map[K]float64)
	ix.Each(func(key K, v solver.Var) {
		if x := sol.Value(v); x != 0 {
			out[key] = x
		}
	})
	return out
}

// Assignment maps each group to the value selected for it, keeping the
// order in which groups were first selected.
type Assignment[G comparable, V any] struct {
	Groups []G
	Values map[G]V
}

func (a Assignment[G, V]) Get(g G) (V, bool) {
	v, ok := a.Values[g]
	return v, ok
}

func (a Assignment[G, V]) Len() int {
	return len(a.Groups)
}

// Chosen returns, for every group that has a selected key, the value of
// that key. With exactly-one constraints per group each group has a
// single selected key; otherwise the first in declaration order wins.
func Chosen[K, G comparable, V any](ix *index.Index[K], sol *solver.Solution, group func(K) G, value func(K) V) Assignment[G, V] {
	a := Assignment[G, V]{Values: make(map[G]V)}
	for _, key := range Selected(ix, sol) {
		g := group(key)
		if _, ok := a.Values[g]; ok {
			continue
		}
		a.Groups = append(a.Groups, g)
		a.Values[g] = value(key)
	}
	return a
}

// Sum aggregates weight(k)·value(k) by group. A nil weight weighs every
// key one. Groups appear in declaration order of their first key.
func Sum[K, G comparable](ix *index.Index[K], sol *solver.Solution, group func(K) G, weight func(K) float64) ([]G, map[G]float64) {
	var order []G
	totals := make(map[G]float64)
	ix.Each(func(key K, v solver.Var) {
		g := group(key)
		if _, ok := totals[g]; !ok {
			order = append(order, g)
		}
		w := 1.0
		if weight != nil {
			w = weight(key)
		}
		totals[g] += w * sol.Value(v)
	})
	return order, totals
}

// Fractions normalizes each group of parts by its total. Groups whose
// total is zero are omitted, so every returned group sums to one.
func Fractions[G, C comparable](parts map[G]map[C]float64) map[G]map[C]float64 {
	out := make(map[G]map[C]float64, len(parts))
	for g, ps := range parts {
		var total float64
		for _, p := range ps {
			total += p
		}
		if total == 0 {
			continue
		}
		fs := make(map[C]float64, len(ps))
		for c, p := range ps {
			fs[c] = p / total
		}
		out[g] = fs
	}
	return out
}
