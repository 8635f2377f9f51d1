// Package highsolver runs lpsolve models through the HiGHS library.
package highsolver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lanl/highs"
	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

const feasTol = 1e-6

type Solver struct {
	Logger *zap.Logger
}

func New(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{Logger: logger}
}

func toHighs(m *lpsolve.Model, relax bool) *highs.Model {
	hm := &highs.Model{
		ColCosts: m.ColCosts,
		ColLower: m.ColLower,
		ColUpper: m.ColUpper,
		RowLower: m.RowLower,
		RowUpper: m.RowUpper,
	}
	hm.ConstMatrix = make([]highs.Nonzero, len(m.ConstMatrix))
	for k, nz := range m.ConstMatrix {
		hm.ConstMatrix[k] = highs.Nonzero{Row: nz.Row, Col: nz.Col, Val: nz.Val}
	}
	if !relax && m.IsMIP() {
		hm.VarTypes = make([]highs.VariableType, len(m.VarTypes))
		for j, vt := range m.VarTypes {
			if vt == lpsolve.IntegerType {
				hm.VarTypes[j] = highs.IntegerType
			} else {
				hm.VarTypes[j] = highs.ContinuousType
			}
		}
	}
	return hm
}

func (s *Solver) runHighsSolver(hm *highs.Model, timeLimit time.Duration) (highs.Solution, error) {
	raw, err := hm.ToRawModel()
	if err != nil {
		return highs.Solution{}, err
	}
	if err := raw.SetBoolOption("output_flag", false); err != nil {
		return highs.Solution{}, err
	}
	if timeLimit > 0 {
		if err := raw.SetFloat64Option("time_limit", timeLimit.Seconds()); err != nil {
			return highs.Solution{}, err
		}
	}
	sol, err := raw.Solve()
	if err != nil {
		return highs.Solution{}, err
	}
	return sol.Solution, nil
}

func remaining(ctx context.Context, limit time.Duration) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, false
		}
		if limit <= 0 || left < limit {
			limit = left
		}
	}
	return limit, true
}

func (s *Solver) solve(ctx context.Context, m *lpsolve.Model, relax bool, timeLimit time.Duration) (*lpsolve.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	limit, ok := remaining(ctx, timeLimit)
	if !ok {
		return &lpsolve.Result{Status: lpsolve.TimeLimitReached, Objective: math.Inf(1)}, nil
	}

	solution, err := s.runHighsSolver(toHighs(m, relax), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", lpsolve.ErrNumerical, err)
	}
	s.Logger.Debug("highs finished",
		zap.String("status", solution.Status.String()),
		zap.Float64("objective", solution.Objective))

	switch solution.Status {
	case highs.Optimal:
		res := &lpsolve.Result{
			Status:    lpsolve.Optimal,
			Objective: solution.Objective,
			Primal:    solution.ColumnPrimal,
		}
		if relax || !m.IsMIP() {
			res.Duals = solution.RowDual
		}
		return res, nil
	case highs.Infeasible:
		return &lpsolve.Result{Status: lpsolve.Infeasible, Objective: math.Inf(1)}, nil
	case highs.Unbounded:
		return nil, lpsolve.ErrUnbounded
	case highs.TimeLimit:
		res := &lpsolve.Result{Status: lpsolve.TimeLimitReached, Objective: math.Inf(1)}
		if m.Feasible(solution.ColumnPrimal, feasTol) {
			res.Primal = solution.ColumnPrimal
			res.Objective = m.Objective(solution.ColumnPrimal)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: status: %v", lpsolve.ErrNumerical, solution.Status.String())
	}
}

// SolveLP drops the integrality of m and returns the row duals reported by
// HiGHS.
func (s *Solver) SolveLP(ctx context.Context, m *lpsolve.Model) (*lpsolve.Result, error) {
	return s.solve(ctx, m, true, 0)
}

func (s *Solver) SolveMIP(ctx context.Context, m *lpsolve.Model, timeLimit time.Duration) (*lpsolve.Result, error) {
	return s.solve(ctx, m, false, timeLimit)
}
