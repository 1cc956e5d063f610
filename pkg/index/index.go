package index

import (
	"errors"
	"fmt"

	"github.com/perdasilva/ormodel/pkg/solver"
)

// ErrInapplicable is returned when declaring a key the applicability
// predicate rejects.
var ErrInapplicable = errors.New("inapplicable key")

// ErrDuplicateKey matches every DuplicateKey error.
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKey is returned when a key is declared twice in one index.
type DuplicateKey struct {
	Index string
	Key   any
}

func (e DuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key %v in index %q", e.Key, e.Index)
}

func (e DuplicateKey) Is(target error) bool {
	return target == ErrDuplicateKey
}

// Index maps fully-qualified composite keys to the decision variables of
// a model. A variable exists only for keys accepted by the index's
// applicability predicate.
type Index[K comparable] struct {
	model      *solver.Model
	name       string
	applicable Predicate[K]
	vars       map[K]solver.Var
	keys       []K
}

func New[K comparable](m *solver.Model, name string, applicable Predicate[K]) *Index[K] {
	if applicable == nil {
		applicable = All[K]()
	}
	return &Index[K]{
		model:      m,
		name:       name,
		applicable: applicable,
		vars:       make(map[K]solver.Var),
	}
}

func (ix *Index[K]) Name() string {
	return ix.name
}

func (ix *Index[K]) Model() *solver.Model {
	return ix.model
}

// Declare creates the variable of key. Declaring a key twice fails with
// DuplicateKey; declaring an inapplicable key fails with ErrInapplicable.
func (ix *Index[K]) Declare(key K, kind solver.VarKind, lb, ub float64) (solver.Var, error) {
	if !ix.applicable(key) {
		return solver.Var{}, fmt.Errorf("%s%v: %w", ix.name, key, ErrInapplicable)
	}
	if _, ok := ix.vars[key]; ok {
		return solver.Var{}, DuplicateKey{Index: ix.name, Key: key}
	}
	v, err := ix.model.NewVar(kind, lb, ub, fmt.Sprintf("%s%v", ix.name, key))
	if err != nil {
		return solver.Var{}, err
	}
	ix.vars[key] = v
	ix.keys = append(ix.keys, key)
	return v, nil
}

func (ix *Index[K]) DeclareBool(key K) (solver.Var, error) {
	return ix.Declare(key, solver.Bool, 0, 1)
}

// DeclareAll declares every applicable key in keys and silently skips
// the rest.
func (ix *Index[K]) DeclareAll(keys []K, kind solver.VarKind, lb, ub float64) error {
	for _, key := range keys {
		if _, err := ix.Declare(key, kind, lb, ub); err != nil && !errors.Is(err, ErrInapplicable) {
			return err
		}
	}
	return nil
}

func (ix *Index[K]) Lookup(key K) (solver.Var, bool) {
	v, ok := ix.vars[key]
	return v, ok
}

func (ix *Index[K]) Lit(key K) (solver.Lit, bool) {
	v, ok := ix.vars[key]
	if !ok {
		return solver.Lit{}, false
	}
	return v.Lit(), true
}

// Keys returns the declared keys in declaration order.
func (ix *Index[K]) Keys() []K {
	return ix.keys
}

func (ix *Index[K]) Len() int {
	return len(ix.keys)
}

// Each visits every declared key and its variable in declaration order.
func (ix *Index[K]) Each(fn func(key K, v solver.Var)) {
	for _, key := range ix.keys {
		fn(key, ix.vars[key])
	}
}

// Select returns the declared keys accepted by predicate, in
// declaration order.
func (ix *Index[K]) Select(predicate Predicate[K]) []K {
	var out []K
	for _, key := range ix.keys {
		if predicate(key) {
			out = append(out, key)
		}
	}
	return out
}

// Vars returns the variables of the declared keys among keys; missing
// keys contribute nothing.
func (ix *Index[K]) Vars(keys ...K) []solver.Var {
	out := make([]solver.Var, 0, len(keys))
	for _, key := range keys {
		if v, ok := ix.vars[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Lits is Vars as positive literals.
func (ix *Index[K]) Lits(keys ...K) []solver.Lit {
	return solver.Lits(ix.Vars(keys...)...)
}

// GroupBy partitions the declared keys by group, preserving the order in
// which groups and keys were declared.
func GroupBy[K comparable, G comparable](ix *Index[K], group func(K) G) ([]G, map[G][]K) {
	var order []G
	groups := make(map[G][]K)
	for _, key := range ix.keys {
		g := group(key)
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], key)
	}
	return order, groups
}

// Sum returns Σ coef(k)·var(k) over keys. Keys without a variable or
// without a coefficient contribute nothing. A nil coef weighs every
// variable one.
func (ix *Index[K]) Sum(keys []K, coef func(K) (float64, bool)) solver.Expr {
	var e solver.Expr
	for _, key := range keys {
		v, ok := ix.vars[key]
		if !ok {
			continue
		}
		w := 1.0
		if coef != nil {
			if w, ok = coef(key); !ok {
				continue
			}
		}
		e.Add(v, w)
	}
	return e
}
