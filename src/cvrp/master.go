package cvrp

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

// Master builds and solves the set-partitioning master over a pattern pool.
// Row i covers the i-th client in increasing id order; column j is pattern j.
type Master struct {
	inst *Instance
	lp   lpsolve.LPSolver
	mip  lpsolve.MIPSolver

	// MIPTimeLimit bounds each integer solve; 0 leaves only the context.
	MIPTimeLimit time.Duration
	Logger       *zap.Logger
}

func NewMaster(inst *Instance, lp lpsolve.LPSolver, mip lpsolve.MIPSolver) *Master {
	return &Master{inst: inst, lp: lp, mip: mip, Logger: zap.NewNop()}
}

type Relaxation struct {
	Objective float64
	// Primal is indexed by pattern id.
	Primal []float64
	Duals  Duals
}

type IntegerSolution struct {
	Objective float64
	Selected  []int
	// Optimal is false when the solver stopped on its time limit with an
	// incumbent.
	Optimal bool
}

func (m *Master) Instance() *Instance {
	return m.inst
}

func (m *Master) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func (m *Master) coveringRows() *lpsolve.Model {
	model := new(lpsolve.Model)
	for range m.inst.clients {
		model.AddSparseRow(1, nil, nil, 1)
	}
	return model
}

func (m *Master) addColumn(model *lpsolve.Model, p *Pattern, upper float64, vt lpsolve.VariableType) {
	col := model.AddColumn(p.Cost, 0, upper, vt)
	for row, c := range m.inst.clients {
		if p.Covers(c) {
			model.ConstMatrix = append(model.ConstMatrix, lpsolve.Nonzero{Row: row, Col: col, Val: 1})
		}
	}
}

// BuildOrExtend returns the relaxed master over pool. A nil model is built
// from scratch; otherwise the columns for the patterns added since model was
// built are appended to it.
// Columns have no upper bound; x <= 1 follows from the covering rows.
func (m *Master) BuildOrExtend(model *lpsolve.Model, pool *PatternPool) (*lpsolve.Model, error) {
	if model == nil {
		model = m.coveringRows()
	}
	if model.NumRows() != len(m.inst.clients) {
		return nil, fmt.Errorf("%w: model has %d rows for %d clients", lpsolve.ErrBadModel, model.NumRows(), len(m.inst.clients))
	}
	if model.NumCols() > pool.Len() {
		return nil, fmt.Errorf("%w: model has %d columns, pool only %d patterns", lpsolve.ErrBadModel, model.NumCols(), pool.Len())
	}
	for j := model.NumCols(); j < pool.Len(); j++ {
		m.addColumn(model, pool.At(j), math.Inf(1), lpsolve.ContinuousType)
	}
	return model, nil
}

// SolveRelaxation solves the relaxed master and maps the row duals back to
// client ids.
func (m *Master) SolveRelaxation(ctx context.Context, model *lpsolve.Model) (*Relaxation, error) {
	res, err := m.lp.SolveLP(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("master relaxation: %w", err)
	}

	switch res.Status {
	case lpsolve.Optimal:
	case lpsolve.Infeasible:
		return nil, fmt.Errorf("master relaxation: %w", ErrInfeasible)
	case lpsolve.TimeLimitReached:
		return nil, fmt.Errorf("master relaxation: %w", ErrSolverTimeout)
	default:
		return nil, fmt.Errorf("master relaxation: status: %v", res.Status)
	}
	if len(res.Duals) != model.NumRows() {
		return nil, fmt.Errorf("master relaxation: %w: %d duals for %d rows", lpsolve.ErrNumerical, len(res.Duals), model.NumRows())
	}

	duals := make(Duals, len(m.inst.clients))
	for row, c := range m.inst.clients {
		duals[c] = res.Duals[row]
	}
	return &Relaxation{Objective: res.Objective, Primal: res.Primal, Duals: duals}, nil
}

// SolveInteger solves the binary master over the capacity-feasible patterns
// of pool. Only restrictToPool=true is supported: leaving the pool would need
// branch-and-price.
func (m *Master) SolveInteger(ctx context.Context, pool *PatternPool, restrictToPool bool) (*IntegerSolution, error) {
	if !restrictToPool {
		return nil, ErrUnrestrictedRecovery
	}

	model := m.coveringRows()
	var cols []int
	for _, p := range pool.patterns {
		if !p.Fits(m.inst) {
			continue
		}
		m.addColumn(model, p, 1, lpsolve.IntegerType)
		cols = append(cols, p.ID)
	}
	m.logger().Debug("solving integer master",
		zap.Int("columns", len(cols)),
		zap.Int("skipped", pool.Len()-len(cols)))

	res, err := m.mip.SolveMIP(ctx, model, m.MIPTimeLimit)
	if err != nil {
		return nil, fmt.Errorf("integer master: %w", err)
	}

	switch res.Status {
	case lpsolve.Optimal, lpsolve.TimeLimitReached:
		if !res.HasSolution() {
			return nil, fmt.Errorf("integer master: %w", ErrSolverTimeout)
		}
	case lpsolve.Infeasible:
		return nil, fmt.Errorf("integer master: %w", ErrInfeasible)
	default:
		return nil, fmt.Errorf("integer master: status: %v", res.Status)
	}

	sol := &IntegerSolution{Optimal: res.Status == lpsolve.Optimal}
	for k, id := range cols {
		if res.Primal[k] > 0.5 {
			sol.Selected = append(sol.Selected, id)
			sol.Objective += pool.At(id).Cost
		}
	}
	return sol, nil
}
