package cvrp

import (
	"context"
	"fmt"
	"math"
	"time"

	"vrp_column_generation/src/lpsolve"
)

// SolveCompact solves the whole instance as one MIP: a binary per ordered
// pair of nodes, in- and out-degree one at every client and MTZ load
// variables. It only fits small instances and serves as a baseline for
// column generation.
func SolveCompact(ctx context.Context, inst *Instance, solver lpsolve.MIPSolver, timeLimit time.Duration) (*Solution, error) {
	if heavy := inst.Oversized(); len(heavy) > 0 {
		return nil, fmt.Errorf("compact model: %w: clients %v exceed capacity", ErrInfeasible, heavy)
	}

	nodes := append([]int{inst.Depot}, inst.clients...)
	n := len(nodes)
	m := new(lpsolve.Model)
	arcCol := make([][]int, n)
	for a := range n {
		arcCol[a] = make([]int, n)
		for b := range n {
			arcCol[a][b] = -1
			if a != b {
				arcCol[a][b] = m.AddColumn(inst.Cost(nodes[a], nodes[b]), 0, 1, lpsolve.IntegerType)
			}
		}
	}

	steps, bigM := loadSteps(inst, inst.clients)
	loadCol := make([]int, n)
	for a := 1; a < n; a++ {
		loadCol[a] = m.AddColumn(0, steps[nodes[a]], bigM, lpsolve.ContinuousType)
	}

	for k := 1; k < n; k++ {
		var in, out []int
		var ones []float64
		for a := range n {
			if a == k {
				continue
			}
			in = append(in, arcCol[a][k])
			out = append(out, arcCol[k][a])
			ones = append(ones, 1)
		}
		m.AddSparseRow(1, in, ones, 1)
		m.AddSparseRow(1, out, ones, 1)
	}
	for a := 1; a < n; a++ {
		for b := 1; b < n; b++ {
			if a != b {
				m.AddSparseRow(math.Inf(-1),
					[]int{loadCol[a], loadCol[b], arcCol[a][b]},
					[]float64{1, -1, bigM},
					bigM-steps[nodes[b]])
			}
		}
	}

	res, err := solver.SolveMIP(ctx, m, timeLimit)
	if err != nil {
		return nil, fmt.Errorf("compact model: %w", err)
	}
	switch res.Status {
	case lpsolve.Optimal, lpsolve.TimeLimitReached:
		if !res.HasSolution() {
			return nil, fmt.Errorf("compact model: %w", ErrSolverTimeout)
		}
	case lpsolve.Infeasible:
		return nil, fmt.Errorf("compact model: %w", ErrInfeasible)
	default:
		return nil, fmt.Errorf("compact model: status: %v", res.Status)
	}

	sol := &Solution{Optimal: res.Status == lpsolve.Optimal}
	for first := 1; first < n; first++ {
		if res.Primal[arcCol[0][first]] < 0.5 {
			continue
		}
		var clients []int
		for at := first; at != 0; {
			clients = append(clients, nodes[at])
			next := -1
			for b := range n {
				if arcCol[at][b] >= 0 && res.Primal[arcCol[at][b]] > 0.5 {
					next = b
					break
				}
			}
			if next < 0 || len(clients) > n {
				return nil, fmt.Errorf("compact model: %w: broken route from %d", lpsolve.ErrNumerical, nodes[first])
			}
			at = next
		}
		p, err := NewPattern(inst, RouteArcs(inst.Depot, clients))
		if err != nil {
			return nil, fmt.Errorf("compact model: %w", err)
		}
		r := p.Route()
		sol.Routes = append(sol.Routes, r)
		sol.TotalCost += r.Cost
	}
	return sol, nil
}
