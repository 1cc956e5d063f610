package constraints

import (
	"fmt"
	"math"

	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// ExactlyOne requires exactly one of lits. An empty group cannot be
// satisfied.
func ExactlyOne(b *ConstraintBuilder, family string, lits []solver.Lit) {
	b.Post(family, solver.Exactly(1, lits...))
}

// AtLeastOne requires at least one of lits.
func AtLeastOne(b *ConstraintBuilder, family string, lits []solver.Lit) {
	b.Post(family, solver.Clause(lits...))
}

// AtMostOne permits at most one of lits.
func AtMostOne(b *ConstraintBuilder, family string, lits []solver.Lit) {
	if len(lits) < 2 {
		return
	}
	b.Post(family, solver.AtMost(1, lits...))
}

// MutuallyExclusive posts a conflict for every pair of lits.
func MutuallyExclusive(b *ConstraintBuilder, family string, lits []solver.Lit) {
	for i := range lits {
		for j := i + 1; j < len(lits); j++ {
			b.Post(family, solver.Conflict(lits[i], lits[j]))
		}
	}
}

// ExactlyOnePerGroup requires exactly one declared variable per group of
// keys, where group maps a key to its fixed prefix.
func ExactlyOnePerGroup[K, G comparable](b *ConstraintBuilder, family string, ix *index.Index[K], group func(K) G) {
	order, groups := index.GroupBy(ix, group)
	for _, g := range order {
		ExactlyOne(b, family, ix.Lits(groups[g]...))
	}
}

// AtLeastOnePerGroup requires at least one declared variable per group.
func AtLeastOnePerGroup[K, G comparable](b *ConstraintBuilder, family string, ix *index.Index[K], group func(K) G) {
	order, groups := index.GroupBy(ix, group)
	for _, g := range order {
		AtLeastOne(b, family, ix.Lits(groups[g]...))
	}
}

// ExclusivePerGroup posts pairwise conflicts among the siblings of
// every group.
func ExclusivePerGroup[K, G comparable](b *ConstraintBuilder, family string, ix *index.Index[K], group func(K) G) {
	order, groups := index.GroupBy(ix, group)
	for _, g := range order {
		MutuallyExclusive(b, family, ix.Lits(groups[g]...))
	}
}

// Distinct permits at most one holder per value, where value maps a key
// to the suffix that must not be shared.
func Distinct[K, G comparable](b *ConstraintBuilder, family string, ix *index.Index[K], value func(K) G) {
	order, groups := index.GroupBy(ix, value)
	for _, g := range order {
		AtMostOne(b, family, ix.Lits(groups[g]...))
	}
}

// Implies posts a => c. The converse is not posted.
func Implies(b *ConstraintBuilder, family string, a solver.Lit, c solver.Constraint) {
	b.Post(family, solver.Implies(a, c))
}

// Range requires lo <= e <= hi; hi may be +Inf.
func Range(b *ConstraintBuilder, family string, e solver.Expr, lo, hi float64) {
	if len(e.Terms) == 0 && e.Const >= lo && e.Const <= hi {
		return
	}
	b.Post(family, solver.Linear(e, lo, hi))
}

// Capacity bounds Σ weight(k)·var(k) over keys by hi. Missing keys and
// missing weights contribute nothing.
func Capacity[K comparable](b *ConstraintBuilder, family string, ix *index.Index[K], keys []K, weight func(K) (float64, bool), hi float64) {
	Range(b, family, ix.Sum(keys, weight), math.Inf(-1), hi)
}

// Arc is a directed edge carried by a boolean variable.
type Arc[N comparable] struct {
	From N
	To   N
	Var  solver.Var
}

// FlowConservation posts, for every node, out - in = 0 except at the
// source (out = 1, in = 0) and the sink (in = 1, out = 0).
func FlowConservation[N comparable](b *ConstraintBuilder, family string, arcs []Arc[N], nodes []N, source, sink N) {
	in, out := incidence(arcs)
	for _, n := range nodes {
		switch n {
		case source:
			Range(b, family, solver.Sum(out[n]...), 1, 1)
			Range(b, family, solver.Sum(in[n]...), 0, 0)
		case sink:
			Range(b, family, solver.Sum(in[n]...), 1, 1)
			Range(b, family, solver.Sum(out[n]...), 0, 0)
		default:
			e := solver.Sum(out[n]...)
			for _, v := range in[n] {
				e.Add(v, -1)
			}
			Range(b, family, e, 0, 0)
		}
	}
}

// Degree requires exactly one selected inbound and one selected
// outbound arc at every node, the degree form of a closed tour.
func Degree[N comparable](b *ConstraintBuilder, family string, arcs []Arc[N], nodes []N) {
	in, out := incidence(arcs)
	for _, n := range nodes {
		ExactlyOne(b, family, solver.Lits(out[n]...))
		ExactlyOne(b, family, solver.Lits(in[n]...))
	}
}

func incidence[N comparable](arcs []Arc[N]) (map[N][]solver.Var, map[N][]solver.Var) {
	in := make(map[N][]solver.Var)
	out := make(map[N][]solver.Var)
	for _, a := range arcs {
		out[a.From] = append(out[a.From], a.Var)
		in[a.To] = append(in[a.To], a.Var)
	}
	return in, out
}

// MaxSubtourNodes bounds exhaustive subtour elimination.
const MaxSubtourNodes = 24

// SubtourElimination posts, for every proper subset S of nodes with
// 2 <= |S| <= n-1, that at most |S|-1 selected arcs have both endpoints
// in S. The family has 2^n - n - 2 members and is only meant for small
// instances; larger ones should add SubtourCut lazily.
func SubtourElimination[N comparable](b *ConstraintBuilder, family string, nodes []N, arc func(from, to N) (solver.Var, bool)) (int, error) {
	n := len(nodes)
	if n > MaxSubtourNodes {
		return 0, fmt.Errorf("exhaustive subtour elimination over %d nodes exceeds %d", n, MaxSubtourNodes)
	}
	posted := 0
	subset := make([]N, 0, n)
	full := uint64(1)<<uint(n) - 1
	for mask := uint64(1); mask < full; mask++ {
		subset = subset[:0]
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				subset = append(subset, nodes[i])
			}
		}
		if len(subset) < 2 {
			continue
		}
		if SubtourCut(b, family, subset, arc) {
			posted++
		}
	}
	return posted, nil
}

// SubtourCut posts Σ arcs inside subset <= |subset|-1 and reports
// whether anything was posted.
func SubtourCut[N comparable](b *ConstraintBuilder, family string, subset []N, arc func(from, to N) (solver.Var, bool)) bool {
	var e solver.Expr
	for _, from := range subset {
		for _, to := range subset {
			if from == to {
				continue
			}
			if v, ok := arc(from, to); ok {
				e.Add(v, 1)
			}
		}
	}
	if len(e.Terms) == 0 {
		return false
	}
	b.Post(family, solver.LessEq(e, float64(len(subset)-1)))
	return true
}

// Side is one half of a balanced pair: a condition and the complement
// that applies when the other side takes the condition.
type Side struct {
	Condition  solver.Constraint
	Complement solver.Constraint
}

// BalancedPair requires that one side satisfies its condition while the
// other satisfies its complement.
func BalancedPair(b *ConstraintBuilder, family string, first, second Side) {
	b.Post(family, solver.Or(
		solver.And(first.Condition, second.Complement),
		solver.And(second.Condition, first.Complement),
	))
}

// Require forces l to be true.
func Require(b *ConstraintBuilder, family string, l solver.Lit) {
	b.Post(family, solver.Require(l))
}

// Forbid forces l to be false.
func Forbid(b *ConstraintBuilder, family string, l solver.Lit) {
	b.Post(family, solver.Prohibit(l))
}
