// Package lpsolvebackend runs lpsolve models through lp_solve via golp. It
// only offers MIP solves; master relaxations go through simplex or HiGHS.
package lpsolvebackend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/draffensperger/golp"
	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

// lp_solve treats magnitudes from 1e30 up as infinite.
const lpInfinity = 1e30

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

func clamp(v float64) float64 {
	return math.Max(-lpInfinity, math.Min(lpInfinity, v))
}

func defMIP(m *lpsolve.Model) (*golp.LP, error) {
	n := m.NumCols()
	prob := golp.NewLP(0, n)
	prob.SetObjFn(m.ColCosts)

	for j := range n {
		prob.SetBounds(j, clamp(m.ColLower[j]), clamp(m.ColUpper[j]))
		if m.VarTypes != nil && m.VarTypes[j] == lpsolve.IntegerType {
			prob.SetInt(j, true)
		}
	}

	rows := make([][]float64, m.NumRows())
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for _, nz := range m.ConstMatrix {
		rows[nz.Row][nz.Col] += nz.Val
	}
	for i, row := range rows {
		lo, up := m.RowLower[i], m.RowUpper[i]
		var err error
		switch {
		case lo == up:
			err = prob.AddConstraint(row, golp.EQ, lo)
		default:
			if !math.IsInf(lo, -1) {
				err = prob.AddConstraint(row, golp.GE, lo)
			}
			if err == nil && !math.IsInf(up, 1) {
				err = prob.AddConstraint(row, golp.LE, up)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return prob, nil
}

// timeoutSeconds clips limit to the context deadline and rounds it up to
// the whole seconds lp_solve accepts. 0 means no limit; ok is false once the
// context is done.
func timeoutSeconds(ctx context.Context, limit time.Duration) (secs int, ok bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	if dl, has := ctx.Deadline(); has {
		left := time.Until(dl)
		if left <= 0 {
			return 0, false
		}
		if limit <= 0 || left < limit {
			limit = left
		}
	}
	if limit <= 0 {
		return 0, true
	}
	return int(math.Ceil(limit.Seconds())), true
}

// SolveMIP solves m with lp_solve within timeLimit, clipped to the context
// deadline. The context is not watched while lp_solve runs.
func (s *Solver) SolveMIP(ctx context.Context, m *lpsolve.Model, timeLimit time.Duration) (*lpsolve.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	secs, ok := timeoutSeconds(ctx, timeLimit)
	if !ok {
		return &lpsolve.Result{Status: lpsolve.TimeLimitReached, Objective: math.Inf(1)}, nil
	}

	prob, err := defMIP(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", lpsolve.ErrBadModel, err)
	}
	if secs > 0 {
		prob.SetTimeout(secs)
	}

	start := time.Now()
	status := prob.Solve()
	s.Logger.Debug("lp_solve finished",
		zap.Int("status", int(status)),
		zap.Duration("elapsed", time.Since(start)))

	switch status {
	case golp.OPTIMAL, golp.SUBOPTIMAL:
		x := prob.Variables()
		if !m.Feasible(x, feasTol) {
			return nil, fmt.Errorf("%w: lp_solve returned an infeasible point", lpsolve.ErrNumerical)
		}
		res := &lpsolve.Result{Status: lpsolve.Optimal, Objective: prob.Objective(), Primal: x}
		if status == golp.SUBOPTIMAL {
			res.Status = lpsolve.TimeLimitReached
		}
		return res, nil
	case golp.TIMEOUT:
		return &lpsolve.Result{Status: lpsolve.TimeLimitReached, Objective: math.Inf(1)}, nil
	case golp.INFEASIBLE:
		return &lpsolve.Result{Status: lpsolve.Infeasible, Objective: math.Inf(1)}, nil
	case golp.UNBOUNDED:
		return nil, lpsolve.ErrUnbounded
	default:
		return nil, fmt.Errorf("%w: status: %v", lpsolve.ErrNumerical, status)
	}
}
