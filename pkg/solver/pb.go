package solver

import (
	"math/bits"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// wlit is a literal with a positive integral weight.
type wlit struct {
	w int64
	m z.Lit
}

func maxSum(ts []wlit) int64 {
	var total int64
	for _, t := range ts {
		total += t.w
	}
	return total
}

// sumBits builds an adder network over ts and returns the bits of
// Σ w·m, least significant first.
func sumBits(c *logic.C, ts []wlit) []z.Lit {
	var cols [][]z.Lit
	grow := func(j int) {
		for len(cols) <= j {
			cols = append(cols, nil)
		}
	}
	for _, t := range ts {
		for w, j := uint64(t.w), 0; w != 0; w, j = w>>1, j+1 {
			if w&1 == 1 {
				grow(j)
				cols[j] = append(cols[j], t.m)
			}
		}
	}
	out := make([]z.Lit, 0, len(cols)+1)
	for j := 0; j < len(cols); j++ {
		col := cols[j]
		for len(col) > 2 {
			a, b, d := col[0], col[1], col[2]
			grow(j + 1)
			cols[j+1] = append(cols[j+1], c.Or(c.Or(c.And(a, b), c.And(a, d)), c.And(b, d)))
			col = append(col[3:], c.Xor(c.Xor(a, b), d))
		}
		if len(col) == 2 {
			grow(j + 1)
			cols[j+1] = append(cols[j+1], c.And(col[0], col[1]))
			col = []z.Lit{c.Xor(col[0], col[1])}
		}
		if len(col) == 1 {
			out = append(out, col[0])
		} else {
			out = append(out, c.F)
		}
	}
	return out
}

// leqConst returns a literal that is true iff the number encoded by
// bits is at most k.
func leqConst(c *logic.C, bs []z.Lit, k int64) z.Lit {
	if k < 0 {
		return c.F
	}
	if bits.Len64(uint64(k)) > len(bs) {
		return c.T
	}
	r := c.T
	for i, b := range bs {
		if k&(1<<uint(i)) != 0 {
			r = c.Or(b.Not(), r)
		} else {
			r = c.And(b.Not(), r)
		}
	}
	return r
}

// geqConst returns a literal that is true iff the number encoded by
// bits is at least k.
func geqConst(c *logic.C, bs []z.Lit, k int64) z.Lit {
	if k <= 0 {
		return c.T
	}
	return leqConst(c, bs, k-1).Not()
}

// bitsValue decodes bs under the given assignment.
func bitsValue(bs []z.Lit, value func(z.Lit) bool) int64 {
	var v int64
	for i, b := range bs {
		if value(b) {
			v |= 1 << uint(i)
		}
	}
	return v
}
