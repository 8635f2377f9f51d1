package cvrp

import (
	"context"
	"math"
	"time"
)

// PricingOracle searches for the route of minimum reduced cost under the
// given duals. budget bounds the wall-clock time of one call; 0 leaves only
// the context deadline.
type PricingOracle interface {
	Price(ctx context.Context, duals Duals, budget time.Duration) (PricingResult, error)
}

type PricingResult struct {
	ReducedCost float64
	// Arcs is nil when no capacity-feasible route exists or none was found
	// within the budget.
	Arcs []Arc
	// Certified reports that ReducedCost is the optimum of the subproblem.
	Certified bool
}

// Improving reports whether the result carries a column with reduced cost
// below -eps.
func (r PricingResult) Improving(eps float64) bool {
	return r.Arcs != nil && r.ReducedCost < -eps
}

// ReducedCost is cost(route) minus the dual of every client on the route,
// each charged once.
func ReducedCost(inst *Instance, arcs []Arc, duals Duals) float64 {
	rc := 0.0
	for _, a := range arcs {
		rc += inst.Cost(a.From, a.To)
		if a.To != inst.Depot {
			rc -= duals[a.To]
		}
	}
	return rc
}

// noRoute is the result when no client fits in a vehicle.
func noRoute() PricingResult {
	return PricingResult{ReducedCost: math.Inf(1), Certified: true}
}

func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget > 0 {
		return context.WithTimeout(ctx, budget)
	}
	return context.WithCancel(ctx)
}
