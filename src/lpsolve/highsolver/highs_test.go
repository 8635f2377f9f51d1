//go:build highs

package highsolver

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrp_column_generation/src/lpsolve"
)

var inf = math.Inf(1)

// inequalities: minimize -x - y s.t. x + 2y <= 4, 3x + y <= 6.
func inequalities() *lpsolve.Model {
	m := new(lpsolve.Model)
	x := m.AddColumn(-1, 0, inf, lpsolve.ContinuousType)
	y := m.AddColumn(-1, 0, inf, lpsolve.ContinuousType)
	m.AddSparseRow(math.Inf(-1), []int{x, y}, []float64{1, 2}, 4)
	m.AddSparseRow(math.Inf(-1), []int{x, y}, []float64{3, 1}, 6)
	return m
}

func TestSolveLP_DualsMatchSimplex(t *testing.T) {
	m := inequalities()

	want, err := lpsolve.NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)

	got, err := New(nil).SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, lpsolve.Optimal, got.Status)
	assert.InDelta(t, want.Objective, got.Objective, 1e-7)
	require.Len(t, got.Duals, len(want.Duals))
	for i := range want.Duals {
		assert.InDelta(t, want.Duals[i], got.Duals[i], 1e-7, "row %d", i)
	}
}

func TestSolveLP_UnitSquareMaster(t *testing.T) {
	// Set partitioning over clients {0,1,2}: round trips and pair routes of
	// the unit square with the depot at the origin.
	diag := 2 * math.Sqrt2
	cols := []struct {
		cost float64
		rows []int
	}{
		{2, []int{0}},
		{diag, []int{1}},
		{2, []int{2}},
		{2 + math.Sqrt2, []int{0, 1}},
		{2 + math.Sqrt2, []int{1, 2}},
		{4, []int{0, 2}},
	}
	m := new(lpsolve.Model)
	for range 3 {
		m.AddSparseRow(1, nil, nil, 1)
	}
	for _, c := range cols {
		j := m.AddColumn(c.cost, 0, inf, lpsolve.ContinuousType)
		for _, r := range c.rows {
			m.ConstMatrix = append(m.ConstMatrix, lpsolve.Nonzero{Row: r, Col: j, Val: 1})
		}
	}

	want, err := lpsolve.NewSimplex().SolveLP(context.Background(), m)
	require.NoError(t, err)
	got, err := New(nil).SolveLP(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, lpsolve.Optimal, got.Status)
	assert.InDelta(t, want.Objective, got.Objective, 1e-7)

	// Duals may differ between optimal bases; both must price every column
	// non-negatively.
	for _, c := range cols {
		rc := c.cost
		for _, r := range c.rows {
			rc -= got.Duals[r]
		}
		assert.GreaterOrEqual(t, rc, -1e-7)
	}
}

func TestSolveMIP_Knapsack(t *testing.T) {
	m := new(lpsolve.Model)
	m.AddColumn(-5, 0, 1, lpsolve.IntegerType)
	m.AddColumn(-4, 0, 1, lpsolve.IntegerType)
	m.AddColumn(-3, 0, 1, lpsolve.IntegerType)
	m.AddDenseRow(math.Inf(-1), []float64{2, 3, 1}, 5)

	res, err := New(nil).SolveMIP(context.Background(), m, time.Minute)
	require.NoError(t, err)
	require.Equal(t, lpsolve.Optimal, res.Status)
	assert.InDelta(t, -9.0, res.Objective, 1e-7)
	assert.Nil(t, res.Duals)
}

func TestSolveMIP_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(nil).SolveMIP(ctx, inequalities(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, lpsolve.TimeLimitReached, res.Status)
	assert.False(t, res.HasSolution())
}

func TestRemaining(t *testing.T) {
	limit, ok := remaining(context.Background(), time.Minute)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, limit)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	limit, ok = remaining(ctx, time.Minute)
	assert.True(t, ok)
	assert.LessOrEqual(t, limit, time.Second)
}
