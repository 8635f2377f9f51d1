package lpsolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

type VariableType int

const (
	ContinuousType VariableType = iota
	IntegerType
)

type Status int

const (
	Optimal Status = iota
	Infeasible
	TimeLimitReached
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case TimeLimitReached:
		return "TimeLimitReached"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var (
	ErrUnbounded = errors.New("lpsolve: problem is unbounded")
	ErrNumerical = errors.New("lpsolve: numerical failure")
	ErrBadModel  = errors.New("lpsolve: malformed model")
)

// Nonzero is one entry of the sparse constraint matrix.
type Nonzero struct {
	Row int
	Col int
	Val float64
}

// Model is a minimisation problem
//
//	minimize   ColCostsᵀ x
//	s.t.       RowLower <= A x <= RowUpper
//	           ColLower <= x <= ColUpper
//
// with A given by ConstMatrix. It mirrors the layout of highs.Model so that
// backends can copy it field by field.
type Model struct {
	ColCosts    []float64
	ColLower    []float64
	ColUpper    []float64
	RowLower    []float64
	RowUpper    []float64
	ConstMatrix []Nonzero
	VarTypes    []VariableType
}

// Result holds what a backend returns. Duals is only filled by LP solves and
// follows the convention reduced cost = c - Aᵀy.
type Result struct {
	Status    Status
	Objective float64
	Primal    []float64
	Duals     []float64
}

// HasSolution reports whether Primal carries a feasible point.
func (r *Result) HasSolution() bool {
	return r != nil && r.Primal != nil
}

type LPSolver interface {
	SolveLP(ctx context.Context, m *Model) (*Result, error)
}

// MIPSolver solves a model honouring VarTypes. A zero timeLimit means no
// limit other than the context deadline.
type MIPSolver interface {
	SolveMIP(ctx context.Context, m *Model, timeLimit time.Duration) (*Result, error)
}

type Solver interface {
	LPSolver
	MIPSolver
}

func (m *Model) NumCols() int {
	return len(m.ColCosts)
}

func (m *Model) NumRows() int {
	return len(m.RowLower)
}

// AddColumn appends a variable and returns its index.
func (m *Model) AddColumn(cost, lower, upper float64, vt VariableType) int {
	m.ColCosts = append(m.ColCosts, cost)
	m.ColLower = append(m.ColLower, lower)
	m.ColUpper = append(m.ColUpper, upper)
	m.VarTypes = append(m.VarTypes, vt)
	return len(m.ColCosts) - 1
}

// AddSparseRow appends lower <= Σ vals[k]*x[cols[k]] <= upper and returns the
// row index.
func (m *Model) AddSparseRow(lower float64, cols []int, vals []float64, upper float64) int {
	row := len(m.RowLower)
	for k, j := range cols {
		if vals[k] == 0 {
			continue
		}
		m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: j, Val: vals[k]})
	}
	m.RowLower = append(m.RowLower, lower)
	m.RowUpper = append(m.RowUpper, upper)
	return row
}

func (m *Model) AddDenseRow(lower float64, coeffs []float64, upper float64) int {
	row := len(m.RowLower)
	for j, v := range coeffs {
		if v != 0 {
			m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: j, Val: v})
		}
	}
	m.RowLower = append(m.RowLower, lower)
	m.RowUpper = append(m.RowUpper, upper)
	return row
}

func (m *Model) Clone() *Model {
	return &Model{
		ColCosts:    slices.Clone(m.ColCosts),
		ColLower:    slices.Clone(m.ColLower),
		ColUpper:    slices.Clone(m.ColUpper),
		RowLower:    slices.Clone(m.RowLower),
		RowUpper:    slices.Clone(m.RowUpper),
		ConstMatrix: slices.Clone(m.ConstMatrix),
		VarTypes:    slices.Clone(m.VarTypes),
	}
}

// IsMIP reports whether at least one variable is integer.
func (m *Model) IsMIP() bool {
	return slices.Contains(m.VarTypes, IntegerType)
}

// Relaxed returns a copy with every variable continuous.
func (m *Model) Relaxed() *Model {
	r := m.Clone()
	for j := range r.VarTypes {
		r.VarTypes[j] = ContinuousType
	}
	return r
}

// Validate checks the dimensions and the finiteness of the lower bounds.
func (m *Model) Validate() error {
	n := len(m.ColCosts)
	if len(m.ColLower) != n || len(m.ColUpper) != n {
		return fmt.Errorf("%w: %d costs, %d lower bounds, %d upper bounds", ErrBadModel, n, len(m.ColLower), len(m.ColUpper))
	}
	if m.VarTypes != nil && len(m.VarTypes) != n {
		return fmt.Errorf("%w: %d variable types for %d columns", ErrBadModel, len(m.VarTypes), n)
	}
	if len(m.RowLower) != len(m.RowUpper) {
		return fmt.Errorf("%w: %d row lower bounds, %d row upper bounds", ErrBadModel, len(m.RowLower), len(m.RowUpper))
	}
	for j := range n {
		if math.IsInf(m.ColLower[j], 0) || math.IsNaN(m.ColLower[j]) {
			return fmt.Errorf("%w: column %d has no finite lower bound", ErrBadModel, j)
		}
		if math.IsNaN(m.ColCosts[j]) || math.IsInf(m.ColCosts[j], 0) {
			return fmt.Errorf("%w: column %d has cost %v", ErrBadModel, j, m.ColCosts[j])
		}
	}
	for _, nz := range m.ConstMatrix {
		if nz.Row < 0 || nz.Row >= len(m.RowLower) || nz.Col < 0 || nz.Col >= n {
			return fmt.Errorf("%w: nonzero (%d, %d) out of range", ErrBadModel, nz.Row, nz.Col)
		}
	}
	return nil
}

// Objective evaluates the cost of x.
func (m *Model) Objective(x []float64) float64 {
	obj := 0.0
	for j, c := range m.ColCosts {
		obj += c * x[j]
	}
	return obj
}

func (m *Model) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "N. columns: %d\n", m.NumCols())
	fmt.Fprintf(s, "N. rows: %d\n", m.NumRows())
	fmt.Fprintf(s, "N. nonzeros: %d\n", len(m.ConstMatrix))
	return s.String()
}

// Feasible reports whether x satisfies every bound and row of m within tol,
// integrality included.
func (m *Model) Feasible(x []float64, tol float64) bool {
	if len(x) != m.NumCols() {
		return false
	}
	for j, v := range x {
		if v < m.ColLower[j]-tol || v > m.ColUpper[j]+tol {
			return false
		}
		if m.VarTypes != nil && m.VarTypes[j] == IntegerType && math.Abs(v-math.Round(v)) > tol {
			return false
		}
	}
	act := make([]float64, m.NumRows())
	for _, nz := range m.ConstMatrix {
		act[nz.Row] += nz.Val * x[nz.Col]
	}
	for i, a := range act {
		if a < m.RowLower[i]-tol || a > m.RowUpper[i]+tol {
			return false
		}
	}
	return true
}
