package solver

import (
	"context"
	"errors"
	"math"
)

const (
	pivotTol    = 1e-9
	feasTol     = 1e-6
	dropTol     = 1e-11
	blandAfter  = 50
	ctxInterval = 64
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	lpStopped
)

var errIterationLimit = errors.New("simplex iteration limit reached")

type lpResult struct {
	status lpStatus
	x      []float64
	obj    float64
}

// column maps a structural variable onto tableau columns:
// x = shift + sign·y[col] (+ y[col2]·-1 for free variables).
type column struct {
	shift float64
	sign  float64
	col   int
	col2  int
}

// tableau is a dense simplex tableau. The last entry of every row is
// the right hand side; d holds reduced costs with -z in its last entry.
type tableau struct {
	a        [][]float64
	d        []float64
	basis    []int
	width    int
	artStart int
	pivots   int
}

// solveLP minimizes p.cost·x over the rows of p with the given bounds
// using a two-phase primal simplex.
func solveLP(ctx context.Context, p *lpProblem, lb, ub []float64) (lpResult, error) {
	n := p.numCols()
	cols := make([]column, n)
	ny := 0
	type stdRow struct {
		coef map[int]float64
		kind int // -1: <=, 0: =, 1: >=
		rhs  float64
	}
	var rows []stdRow

	for j := 0; j < n; j++ {
		switch {
		case !math.IsInf(lb[j], -1):
			cols[j] = column{shift: lb[j], sign: 1, col: ny, col2: -1}
			ny++
			if !math.IsInf(ub[j], 1) {
				if ub[j] < lb[j]-feasTol {
					return lpResult{status: lpInfeasible}, nil
				}
				rows = append(rows, stdRow{coef: map[int]float64{cols[j].col: 1}, kind: -1, rhs: ub[j] - lb[j]})
			}
		case !math.IsInf(ub[j], 1):
			cols[j] = column{shift: ub[j], sign: -1, col: ny, col2: -1}
			ny++
		default:
			cols[j] = column{sign: 1, col: ny, col2: ny + 1}
			ny += 2
		}
	}

	for _, r := range p.rows {
		coef := make(map[int]float64, len(r.idx))
		k := 0.0
		for i, j := range r.idx {
			v := r.val[i]
			c := cols[j]
			k += v * c.shift
			coef[c.col] += v * c.sign
			if c.col2 >= 0 {
				coef[c.col2] -= v
			}
		}
		lo, hi := r.lo-k, r.hi-k
		if math.Abs(hi-lo) <= 1e-12 {
			rows = append(rows, stdRow{coef: coef, kind: 0, rhs: hi})
			continue
		}
		// Each half of a range row owns its coefficients; normalization
		// below negates them in place.
		if !math.IsInf(hi, 1) && !math.IsInf(lo, -1) {
			rows = append(rows, stdRow{coef: coef, kind: -1, rhs: hi})
			rows = append(rows, stdRow{coef: cloneCoef(coef), kind: 1, rhs: lo})
			continue
		}
		if !math.IsInf(hi, 1) {
			rows = append(rows, stdRow{coef: coef, kind: -1, rhs: hi})
		}
		if !math.IsInf(lo, -1) {
			rows = append(rows, stdRow{coef: coef, kind: 1, rhs: lo})
		}
	}

	// Normalize to non-negative right hand sides, preferring slack rows.
	slacks, arts := 0, 0
	for i := range rows {
		r := &rows[i]
		if (r.kind == 1 && r.rhs <= 0) || (r.kind == -1 && r.rhs < 0) || (r.kind == 0 && r.rhs < 0) {
			for j := range r.coef {
				r.coef[j] = -r.coef[j]
			}
			r.rhs = -r.rhs
			r.kind = -r.kind
		}
		if r.kind != 0 {
			slacks++
		}
		if r.kind != -1 {
			arts++
		}
	}

	m := len(rows)
	width := ny + slacks + arts
	t := &tableau{
		a:        make([][]float64, m),
		d:        make([]float64, width+1),
		basis:    make([]int, m),
		width:    width,
		artStart: ny + slacks,
	}
	s, a := ny, ny+slacks
	for i, r := range rows {
		row := make([]float64, width+1)
		for j, v := range r.coef {
			row[j] = v
		}
		row[width] = r.rhs
		switch r.kind {
		case -1:
			row[s] = 1
			t.basis[i] = s
			s++
		case 1:
			row[s] = -1
			s++
			row[a] = 1
			t.basis[i] = a
			a++
		case 0:
			row[a] = 1
			t.basis[i] = a
			a++
		}
		t.a[i] = row
	}

	if arts > 0 {
		cost := make([]float64, width)
		for j := t.artStart; j < width; j++ {
			cost[j] = 1
		}
		t.price(cost)
		status, err := t.run(ctx, width)
		simplexPivots.Add(float64(t.pivots))
		if err != nil || status == lpStopped {
			return lpResult{status: lpStopped}, err
		}
		if -t.d[width] > feasTol {
			return lpResult{status: lpInfeasible}, nil
		}
		t.evictArtificials()
		t.pivots = 0
	}

	cost := make([]float64, width)
	for j := 0; j < n; j++ {
		c := cols[j]
		cost[c.col] += p.cost[j] * c.sign
		if c.col2 >= 0 {
			cost[c.col2] -= p.cost[j]
		}
	}
	t.price(cost)
	status, err := t.run(ctx, t.artStart)
	simplexPivots.Add(float64(t.pivots))
	if err != nil || status != lpOptimal {
		return lpResult{status: status}, err
	}

	y := make([]float64, width)
	for i, b := range t.basis {
		y[b] = t.a[i][width]
	}
	x := make([]float64, n)
	// x already carries its shift, so the objective starts from the
	// model constant alone.
	obj := p.offset
	for j, c := range cols {
		v := c.shift + c.sign*y[c.col]
		if c.col2 >= 0 {
			v -= y[c.col2]
		}
		x[j] = v
		obj += p.cost[j] * v
	}
	return lpResult{status: lpOptimal, x: x, obj: obj}, nil
}

func cloneCoef(coef map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(coef))
	for j, v := range coef {
		out[j] = v
	}
	return out
}

// price computes reduced costs for the current basis.
func (t *tableau) price(cost []float64) {
	for j := 0; j < t.width; j++ {
		t.d[j] = cost[j]
	}
	t.d[t.width] = 0
	for i, b := range t.basis {
		cb := cost[b]
		if cb == 0 {
			continue
		}
		for j, v := range t.a[i] {
			if v != 0 {
				t.d[j] -= cb * v
			}
		}
	}
}

// run pivots until no column below limit has a negative reduced cost.
// Dantzig pricing is used until the objective stalls, then Bland's rule
// takes over until progress resumes.
func (t *tableau) run(ctx context.Context, limit int) (lpStatus, error) {
	maxIter := 50*(len(t.a)+t.width) + 1000
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter%ctxInterval == 0 && ctx.Err() != nil {
			return lpStopped, nil
		}
		if iter > maxIter {
			return lpStopped, errIterationLimit
		}
		bland := degenerate > blandAfter
		enter := -1
		best := -pivotTol
		for j := 0; j < limit; j++ {
			if t.d[j] < best {
				enter = j
				if bland {
					break
				}
				best = t.d[j]
			}
		}
		if enter < 0 {
			return lpOptimal, nil
		}
		leave := -1
		var ratio float64
		for i, row := range t.a {
			v := row[enter]
			if v <= pivotTol {
				continue
			}
			r := row[t.width] / v
			if leave < 0 || r < ratio-1e-12 || (r <= ratio+1e-12 && t.basis[i] < t.basis[leave]) {
				leave, ratio = i, r
			}
		}
		if leave < 0 {
			return lpUnbounded, nil
		}
		if ratio <= 1e-12 {
			degenerate++
		} else {
			degenerate = 0
		}
		t.pivot(leave, enter)
	}
}

func (t *tableau) pivot(r, j int) {
	t.pivots++
	row := t.a[r]
	p := row[j]
	nz := make([]int, 0, 32)
	for k, v := range row {
		if v != 0 {
			row[k] = v / p
			nz = append(nz, k)
		}
	}
	row[j] = 1
	eliminate := func(target []float64) {
		f := target[j]
		if f == 0 {
			return
		}
		for _, k := range nz {
			v := target[k] - f*row[k]
			if math.Abs(v) < dropTol {
				v = 0
			}
			target[k] = v
		}
		target[j] = 0
	}
	for i, other := range t.a {
		if i != r {
			eliminate(other)
		}
	}
	eliminate(t.d)
	t.basis[r] = j
}

// evictArtificials pivots artificial columns out of the basis after
// phase one. Rows where that is impossible are redundant and keep their
// artificial at zero.
func (t *tableau) evictArtificials() {
	for i, b := range t.basis {
		if b < t.artStart {
			continue
		}
		for j := 0; j < t.artStart; j++ {
			if math.Abs(t.a[i][j]) > pivotTol {
				t.pivot(i, j)
				break
			}
		}
	}
}
