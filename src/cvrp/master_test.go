package cvrp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrp_column_generation/src/lpsolve"
)

type stubLP struct {
	status lpsolve.Status
	err    error
}

func (s stubLP) SolveLP(context.Context, *lpsolve.Model) (*lpsolve.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &lpsolve.Result{Status: s.status, Objective: math.Inf(1)}, nil
}

func newTestMaster(inst *Instance) *Master {
	s := lpsolve.NewSimplex()
	return NewMaster(inst, s, s)
}

func TestMaster_BuildOrExtend(t *testing.T) {
	inst := unitSquare(t)
	m := newTestMaster(inst)
	pool := NewPatternPool()
	pool.Seed(inst)

	model, err := m.BuildOrExtend(nil, pool)
	require.NoError(t, err)
	assert.Equal(t, 3, model.NumRows())
	assert.Equal(t, 3, model.NumCols())
	for row := range model.NumRows() {
		assert.Equal(t, 1.0, model.RowLower[row])
		assert.Equal(t, 1.0, model.RowUpper[row])
	}
	assert.Len(t, model.ConstMatrix, 3)

	p, err := NewPattern(inst, RouteArcs(1, []int{2, 3}))
	require.NoError(t, err)
	pool.Add(p)

	extended, err := m.BuildOrExtend(model, pool)
	require.NoError(t, err)
	assert.Same(t, model, extended)
	assert.Equal(t, 4, extended.NumCols())
	assert.InDelta(t, p.Cost, extended.ColCosts[3], 1e-12)
	assert.Contains(t, extended.ConstMatrix, lpsolve.Nonzero{Row: 0, Col: 3, Val: 1})
	assert.Contains(t, extended.ConstMatrix, lpsolve.Nonzero{Row: 1, Col: 3, Val: 1})
	assert.Len(t, extended.ConstMatrix, 5)

	rebuilt, err := m.BuildOrExtend(nil, pool)
	require.NoError(t, err)
	assert.Equal(t, extended.ConstMatrix, rebuilt.ConstMatrix)

	_, err = m.BuildOrExtend(&lpsolve.Model{}, pool)
	require.ErrorIs(t, err, lpsolve.ErrBadModel)
}

func TestMaster_SolveRelaxationOnSeeds(t *testing.T) {
	inst := unitSquare(t)
	m := newTestMaster(inst)
	pool := NewPatternPool()
	pool.Seed(inst)
	model, err := m.BuildOrExtend(nil, pool)
	require.NoError(t, err)

	rel, err := m.SolveRelaxation(context.Background(), model)
	require.NoError(t, err)
	assert.InDelta(t, 4+2*math.Sqrt2, rel.Objective, 1e-9)
	// Each seed is the only column of its row, so the dual is its cost.
	assert.InDelta(t, 2.0, rel.Duals[2], 1e-9)
	assert.InDelta(t, 2*math.Sqrt2, rel.Duals[3], 1e-9)
	assert.InDelta(t, 2.0, rel.Duals[4], 1e-9)
	for _, v := range rel.Primal {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestMaster_SolveRelaxationStatuses(t *testing.T) {
	inst := unitSquare(t)
	pool := NewPatternPool()
	pool.Seed(inst)

	tests := []struct {
		name string
		lp   stubLP
		want error
	}{
		{"infeasible", stubLP{status: lpsolve.Infeasible}, ErrInfeasible},
		{"time limit", stubLP{status: lpsolve.TimeLimitReached}, ErrSolverTimeout},
		{"numerical", stubLP{err: lpsolve.ErrNumerical}, lpsolve.ErrNumerical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaster(inst, tt.lp, lpsolve.NewSimplex())
			model, err := m.BuildOrExtend(nil, pool)
			require.NoError(t, err)
			_, err = m.SolveRelaxation(context.Background(), model)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMaster_SolveInteger(t *testing.T) {
	inst := unitSquare(t)
	m := newTestMaster(inst)
	pool := NewPatternPool()
	pool.Seed(inst)
	for _, route := range [][]int{{2, 3}, {3, 4}} {
		p, err := NewPattern(inst, RouteArcs(1, route))
		require.NoError(t, err)
		pool.Add(p)
	}

	sol, err := m.SolveInteger(context.Background(), pool, true)
	require.NoError(t, err)
	assert.True(t, sol.Optimal)
	assert.InDelta(t, 4+math.Sqrt2, sol.Objective, 1e-9)
	assert.Len(t, sol.Selected, 2)

	_, err = m.SolveInteger(context.Background(), pool, false)
	require.ErrorIs(t, err, ErrUnrestrictedRecovery)
}

func TestMaster_SolveIntegerHeavyClient(t *testing.T) {
	inst := unitSquare(t, 3, 12, 5)
	m := newTestMaster(inst)
	pool := NewPatternPool()
	pool.Seed(inst)

	_, err := m.SolveInteger(context.Background(), pool, true)
	require.ErrorIs(t, err, ErrInfeasible)
}
