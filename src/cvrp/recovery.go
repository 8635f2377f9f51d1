package cvrp

import (
	"context"
	"errors"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

type RecoveryOptions struct {
	// Greedy falls back to GreedyCover when the integer master stops on its
	// time limit without an incumbent.
	Greedy bool
	// Hint is the last relaxation primal, indexed by pattern id.
	Hint []float64
}

// Recover solves the binary master restricted to pool and checks that the
// selected routes cover every client exactly once within capacity.
func Recover(ctx context.Context, master *Master, pool *PatternPool, opts RecoveryOptions) (*Solution, error) {
	inst := master.Instance()
	if heavy := inst.Oversized(); len(heavy) > 0 {
		master.logger().Info("clients exceed vehicle capacity", zap.Ints("clients", heavy))
	}

	optimal := false
	var selected []int
	sol, err := master.SolveInteger(ctx, pool, true)
	switch {
	case err == nil:
		selected, optimal = sol.Selected, sol.Optimal
	case errors.Is(err, ErrSolverTimeout) && opts.Greedy:
		master.logger().Warn("integer master timed out, using greedy cover")
		selected, err = GreedyCover(inst, pool, opts.Hint)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := verifyCover(inst, pool, selected); err != nil {
		return nil, err
	}
	return newSolution(pool, selected, optimal), nil
}

func verifyCover(inst *Instance, pool *PatternPool, selected []int) error {
	covered := mapset.NewThreadUnsafeSet[int]()
	for _, id := range selected {
		p := pool.At(id)
		if !p.Fits(inst) {
			return fmt.Errorf("%w: pattern %d carries %d over capacity %d", ErrInfeasible, id, p.Load, inst.Capacity)
		}
		if overlap := covered.Intersect(p.Coverage); overlap.Cardinality() > 0 {
			return fmt.Errorf("%w: clients %v covered twice", ErrInfeasible, overlap.ToSlice())
		}
		covered = covered.Union(p.Coverage)
	}
	for _, c := range inst.clients {
		if !covered.Contains(c) {
			return fmt.Errorf("%w: client %d not covered", ErrInfeasible, c)
		}
	}
	return nil
}

func newSolution(pool *PatternPool, selected []int, optimal bool) *Solution {
	ids := slices.Clone(selected)
	slices.Sort(ids)
	sol := &Solution{Optimal: optimal}
	for _, id := range ids {
		r := pool.At(id).Route()
		sol.Routes = append(sol.Routes, r)
		sol.TotalCost += r.Cost
	}
	return sol
}
