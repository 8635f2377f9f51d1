package lpsolve

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inf = math.Inf(1)

// reducedCosts returns c - Aᵀy for every column.
func reducedCosts(m *Model, duals []float64) []float64 {
	rc := make([]float64, m.NumCols())
	copy(rc, m.ColCosts)
	for _, nz := range m.ConstMatrix {
		rc[nz.Col] -= nz.Val * duals[nz.Row]
	}
	return rc
}

func TestSolveLP_Inequalities(t *testing.T) {
	// minimize -x - y s.t. x + 2y <= 4, 3x + y <= 6
	m := new(Model)
	x := m.AddColumn(-1, 0, inf, ContinuousType)
	y := m.AddColumn(-1, 0, inf, ContinuousType)
	m.AddSparseRow(math.Inf(-1), []int{x, y}, []float64{1, 2}, 4)
	m.AddSparseRow(math.Inf(-1), []int{x, y}, []float64{3, 1}, 6)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, -2.8, res.Objective, 1e-9)
	assert.InDelta(t, 1.6, res.Primal[x], 1e-9)
	assert.InDelta(t, 1.2, res.Primal[y], 1e-9)

	require.Len(t, res.Duals, 2)
	assert.InDelta(t, -0.4, res.Duals[0], 1e-9)
	assert.InDelta(t, -0.2, res.Duals[1], 1e-9)
}

func TestSolveLP_SetPartitioningDuals(t *testing.T) {
	// Two elements, columns {0}, {1}, {0,1} with costs 2, 2, 3.
	m := new(Model)
	m.AddColumn(2, 0, inf, ContinuousType)
	m.AddColumn(2, 0, inf, ContinuousType)
	m.AddColumn(3, 0, inf, ContinuousType)
	m.AddSparseRow(1, []int{0, 2}, []float64{1, 1}, 1)
	m.AddSparseRow(1, []int{1, 2}, []float64{1, 1}, 1)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 3.0, res.Objective, 1e-9)
	assert.InDelta(t, 1.0, res.Primal[2], 1e-9)

	// Any optimal dual works: it must price every column non-negatively and
	// the basic column at zero.
	rc := reducedCosts(m, res.Duals)
	for j, v := range rc {
		assert.GreaterOrEqual(t, v, -1e-9, "column %d", j)
	}
	assert.InDelta(t, 0.0, rc[2], 1e-9)
	assert.InDelta(t, 3.0, res.Duals[0]+res.Duals[1], 1e-9)
}

func TestSolveLP_ShiftedBoundsAndFixedColumns(t *testing.T) {
	// minimize x + 2y + z s.t. x + y + z >= 4, 1 <= x <= 2, y fixed at 1, z >= 0
	m := new(Model)
	m.AddColumn(1, 1, 2, ContinuousType)
	m.AddColumn(2, 1, 1, ContinuousType)
	m.AddColumn(1, 0, inf, ContinuousType)
	m.AddSparseRow(4, []int{0, 1, 2}, []float64{1, 1, 1}, inf)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 5.0, res.Objective, 1e-9)
	assert.InDelta(t, 1.0, res.Primal[1], 1e-12)
	assert.InDelta(t, 3.0, res.Primal[0]+res.Primal[2], 1e-9)
	assert.InDelta(t, 1.0, res.Duals[0], 1e-9)
}

func TestSolveLP_Infeasible(t *testing.T) {
	m := new(Model)
	m.AddColumn(1, 0, inf, ContinuousType)
	m.AddSparseRow(2, []int{0}, []float64{1}, inf)
	m.AddSparseRow(math.Inf(-1), []int{0}, []float64{1}, 1)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
	assert.False(t, res.HasSolution())
}

func TestSolveLP_EmptyRowIsInfeasible(t *testing.T) {
	m := new(Model)
	m.AddColumn(1, 0, inf, ContinuousType)
	m.AddSparseRow(1, nil, nil, 1)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
}

func TestSolveLP_Unbounded(t *testing.T) {
	m := new(Model)
	m.AddColumn(-1, 0, inf, ContinuousType)

	_, err := NewSimplex().SolveLP(context.Background(), m)
	require.ErrorIs(t, err, ErrUnbounded)
}

func TestSolveLP_BadModel(t *testing.T) {
	m := &Model{
		ColCosts: []float64{1},
		ColLower: []float64{math.Inf(-1)},
		ColUpper: []float64{inf},
	}
	_, err := NewSimplex().SolveLP(context.Background(), m)
	require.ErrorIs(t, err, ErrBadModel)
}

func TestSolveLP_CancelledContext(t *testing.T) {
	m := new(Model)
	m.AddColumn(1, 0, 1, ContinuousType)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewSimplex().SolveLP(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, TimeLimitReached, res.Status)
}

func TestSolveLP_DependentEqualities(t *testing.T) {
	// The third row is the sum of the first two.
	m := new(Model)
	for range 3 {
		m.AddColumn(1, 0, inf, ContinuousType)
	}
	m.AddSparseRow(1, []int{0, 1}, []float64{1, 1}, 1)
	m.AddSparseRow(1, []int{1, 2}, []float64{1, 1}, 1)
	m.AddSparseRow(2, []int{0, 1, 2}, []float64{1, 2, 1}, 2)

	res, err := NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 1.0, res.Objective, 1e-9)
	assert.InDelta(t, 1.0, res.Primal[1], 1e-9)
}
