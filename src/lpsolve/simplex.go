package lpsolve

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	defaultTol    = 1e-9
	defaultIntTol = 1e-6
	dualGapTol    = 1e-6
)

var errRetrySplit = errors.New("lpsolve: retry with split equalities")

// Simplex is the pure Go backend. LPs are solved with gonum's dense simplex,
// MIPs with branch-and-bound on top of it. It is meant for small models; use
// the HiGHS backend for anything of realistic size.
type Simplex struct {
	// Tol is the reduced-cost tolerance handed to lp.Simplex.
	Tol float64
	// IntTol is how far from an integer a value may be and still count as
	// integral.
	IntTol        float64
	NodeSelection NodeSelection
	// MaxNodes bounds the branch-and-bound tree; 0 means unbounded.
	MaxNodes int
	Logger   *zap.Logger
}

func NewSimplex() *Simplex {
	return &Simplex{
		Tol:           defaultTol,
		IntTol:        defaultIntTol,
		NodeSelection: DiveThenBestFirst,
		Logger:        zap.NewNop(),
	}
}

type lpSolution struct {
	status    Status
	objective float64
	x         []float64
	sf        *standardForm
}

func (s *Simplex) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// SolveLP solves the continuous relaxation of m and computes row duals.
func (s *Simplex) SolveLP(ctx context.Context, m *Model) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return &Result{Status: TimeLimitReached, Objective: math.Inf(1)}, nil
	}

	sol, err := s.solveRelaxation(m)
	if err != nil {
		return nil, err
	}
	if sol.status != Optimal {
		return &Result{Status: sol.status, Objective: math.Inf(1)}, nil
	}

	duals, err := s.duals(sol, m.NumRows())
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:    Optimal,
		Objective: sol.objective,
		Primal:    sol.x,
		Duals:     duals,
	}, nil
}

func (s *Simplex) solveRelaxation(m *Model) (*lpSolution, error) {
	sol, err := s.trySolve(m, false)
	if errors.Is(err, errRetrySplit) {
		s.logger().Debug("retrying relaxation with split equality rows")
		sol, err = s.trySolve(m, true)
	}
	return sol, err
}

func (s *Simplex) trySolve(m *Model, split bool) (*lpSolution, error) {
	sf, err := toStandardForm(m, split)
	if errors.Is(err, errInfeasibleBounds) {
		return &lpSolution{status: Infeasible}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, cols := sf.dims()
	if rows == 0 {
		return &lpSolution{status: Optimal, objective: sf.offset, x: sf.toModel(nil), sf: sf}, nil
	}
	if rows > cols {
		if !split {
			return nil, errRetrySplit
		}
		return nil, fmt.Errorf("%w: %d rows for %d columns", ErrNumerical, rows, cols)
	}

	z, xStd, err := lp.Simplex(sf.c, sf.a, sf.b, s.tol(), nil)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return &lpSolution{status: Infeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, ErrUnbounded
	default:
		// Singular bases, Bland failures and Phase I errors (which gonum does
		// not wrap) usually come from dependent equality rows.
		if !split {
			return nil, errRetrySplit
		}
		return nil, fmt.Errorf("%w: %v", ErrNumerical, err)
	}

	return &lpSolution{
		status:    Optimal,
		objective: z + sf.offset,
		x:         sf.toModel(xStd),
		sf:        sf,
	}, nil
}

// duals solves the dual of the standard form,
//
//	minimize   bᵀ ν
//	s.t.       -aᵀ ν <= c
//
// and folds y = -ν back onto the model rows.
func (s *Simplex) duals(sol *lpSolution, nRows int) ([]float64, error) {
	duals := make([]float64, nRows)
	sf := sol.sf
	if sf == nil || sf.a == nil {
		return duals, nil
	}
	m, _ := sf.a.Dims()

	negAT := mat.DenseCopyOf(sf.a.T())
	negAT.Scale(-1, negAT)
	c, a, b := lp.Convert(sf.b, negAT, sf.c, nil, nil)

	z, nu, err := lp.Simplex(c, a, b, s.tol(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dual solve: %v", ErrNumerical, err)
	}

	primal := sol.objective - sf.offset
	if math.Abs(-z-primal) > dualGapTol*(1+math.Abs(primal)) {
		return nil, fmt.Errorf("%w: primal %v and dual %v disagree", ErrNumerical, primal, -z)
	}

	for k, ref := range sf.rows {
		if ref.row < 0 {
			continue
		}
		y := -(nu[k] - nu[m+k])
		duals[ref.row] += ref.sign * y
	}
	return duals, nil
}

func (s *Simplex) tol() float64 {
	if s.Tol <= 0 {
		return defaultTol
	}
	return s.Tol
}

func (s *Simplex) intTol() float64 {
	if s.IntTol <= 0 {
		return defaultIntTol
	}
	return s.IntTol
}
