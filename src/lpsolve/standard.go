package lpsolve

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

const boundTol = 1e-9

var errInfeasibleBounds = errors.New("lpsolve: inconsistent bounds")

// rowRef maps a standard-form row back to the model row it came from. Rows
// generated from column upper bounds have row == -1.
type rowRef struct {
	row  int
	sign float64
}

// standardForm is the model rewritten as
//
//	minimize   cᵀ x'
//	s.t.       a x' = b,  x' >= 0
//
// with x = shift + x' on the non-fixed columns.
type standardForm struct {
	c      []float64
	a      *mat.Dense
	b      []float64
	offset float64
	shift  []float64
	cols   []int
	rows   []rowRef
}

type pendingRow struct {
	coefs []float64
	rhs   float64
	slack bool
	ref   rowRef
}

// toStandardForm shifts every column by its lower bound, drops fixed columns,
// turns inequalities and finite upper bounds into rows with slack columns and,
// when split is set, writes each equality as two opposite inequalities. The
// split form always has full row rank.
func toStandardForm(m *Model, split bool) (*standardForm, error) {
	nCols := m.NumCols()
	nRows := m.NumRows()

	coef := make([][]float64, nRows)
	for i := range coef {
		coef[i] = make([]float64, nCols)
	}
	for _, nz := range m.ConstMatrix {
		coef[nz.Row][nz.Col] += nz.Val
	}

	free := make([]bool, nCols)
	sf := &standardForm{shift: make([]float64, nCols)}
	for j := range nCols {
		lo, up := m.ColLower[j], m.ColUpper[j]
		if up < lo-boundTol {
			return nil, errInfeasibleBounds
		}
		free[j] = up-lo > boundTol
		sf.shift[j] = lo
		sf.offset += m.ColCosts[j] * lo
	}

	masked := func(row []float64, sign float64) ([]float64, bool) {
		out := make([]float64, nCols)
		nonzero := false
		for j, v := range row {
			if free[j] && v != 0 {
				out[j] = sign * v
				nonzero = true
			}
		}
		return out, nonzero
	}

	pending := make([]pendingRow, 0, nRows)
	for i := range nRows {
		sh := 0.0
		for j, v := range coef[i] {
			sh += v * sf.shift[j]
		}
		lo, up := m.RowLower[i]-sh, m.RowUpper[i]-sh

		pos, nonzero := masked(coef[i], 1)
		if !nonzero {
			if lo > boundTol || up < -boundTol {
				return nil, errInfeasibleBounds
			}
			continue
		}
		if lo > up+boundTol {
			return nil, errInfeasibleBounds
		}

		if !split && !math.IsInf(lo, 0) && !math.IsInf(up, 0) && up-lo <= boundTol {
			pending = append(pending, pendingRow{coefs: pos, rhs: (lo + up) / 2, ref: rowRef{row: i, sign: 1}})
			continue
		}
		if !math.IsInf(up, 1) {
			pending = append(pending, pendingRow{coefs: pos, rhs: up, slack: true, ref: rowRef{row: i, sign: 1}})
		}
		if !math.IsInf(lo, -1) {
			neg, _ := masked(coef[i], -1)
			pending = append(pending, pendingRow{coefs: neg, rhs: -lo, slack: true, ref: rowRef{row: i, sign: -1}})
		}
	}

	for j := range nCols {
		if !free[j] || math.IsInf(m.ColUpper[j], 1) {
			continue
		}
		unit := make([]float64, nCols)
		unit[j] = 1
		pending = append(pending, pendingRow{coefs: unit, rhs: m.ColUpper[j] - m.ColLower[j], slack: true, ref: rowRef{row: -1, sign: 1}})
	}

	used := make([]bool, nCols)
	for _, r := range pending {
		for j, v := range r.coefs {
			if v != 0 {
				used[j] = true
			}
		}
	}
	for j := range nCols {
		if !free[j] || used[j] {
			continue
		}
		// An unconstrained column sits at its lower bound unless it pays to
		// push it to infinity.
		if m.ColCosts[j] < 0 {
			return nil, ErrUnbounded
		}
	}

	for j := range nCols {
		if used[j] {
			sf.cols = append(sf.cols, j)
			sf.c = append(sf.c, m.ColCosts[j])
		}
	}
	structural := len(sf.cols)
	for _, r := range pending {
		if r.slack {
			sf.cols = append(sf.cols, -1)
			sf.c = append(sf.c, 0)
		}
	}

	if len(pending) == 0 {
		return sf, nil
	}

	sf.a = mat.NewDense(len(pending), len(sf.cols), nil)
	sf.b = make([]float64, len(pending))
	sf.rows = make([]rowRef, len(pending))
	slack := structural
	for i, r := range pending {
		for k := 0; k < structural; k++ {
			if v := r.coefs[sf.cols[k]]; v != 0 {
				sf.a.Set(i, k, v)
			}
		}
		if r.slack {
			sf.a.Set(i, slack, 1)
			slack++
		}
		sf.b[i] = r.rhs
		sf.rows[i] = r.ref
	}
	return sf, nil
}

func (sf *standardForm) dims() (rows, cols int) {
	return len(sf.b), len(sf.c)
}

// toModel maps a standard-form point back to model space. A nil xStd gives
// the shift alone.
func (sf *standardForm) toModel(xStd []float64) []float64 {
	x := make([]float64, len(sf.shift))
	copy(x, sf.shift)
	for k, j := range sf.cols {
		if j >= 0 && xStd != nil {
			x[j] += xStd[k]
		}
	}
	return x
}
