package cvrp

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

// MIPPricer solves the pricing subproblem as a MIP: one binary per ordered
// pair of nodes, flow conservation and in-degree at most one at every client,
// exactly one departure from the depot and MTZ load variables for capacity
// and subtour elimination. The pure Go backend handles a handful of clients;
// larger instances need HiGHS or the labeling pricer.
type MIPPricer struct {
	inst   *Instance
	solver lpsolve.MIPSolver
	Logger *zap.Logger
}

func NewMIPPricer(inst *Instance, solver lpsolve.MIPSolver) *MIPPricer {
	return &MIPPricer{inst: inst, solver: solver, Logger: zap.NewNop()}
}

type pricingModel struct {
	model *lpsolve.Model
	nodes []int
	// arcCol[a][b] is the column of arc nodes[a] -> nodes[b], -1 if absent.
	arcCol [][]int
}

// loadSteps returns the MTZ increment of every client and the load bound.
// Zero-demand clients get a step below 1/zeros so that the integer load
// bound is unchanged while the linking stays strict.
func loadSteps(inst *Instance, clients []int) (map[int]float64, float64) {
	zeros := 0
	for _, c := range clients {
		if inst.Demand(c) == 0 {
			zeros++
		}
	}
	step := 1 / float64(zeros+1)

	steps := make(map[int]float64, len(clients))
	for _, c := range clients {
		steps[c] = float64(inst.Demand(c))
		if steps[c] == 0 {
			steps[c] = step
		}
	}
	return steps, float64(inst.Capacity) + float64(zeros)*step
}

// routable returns the clients that fit in an empty vehicle.
func routable(inst *Instance) []int {
	var out []int
	for _, c := range inst.clients {
		if inst.Demand(c) <= inst.Capacity {
			out = append(out, c)
		}
	}
	return out
}

func (p *MIPPricer) defPricing(duals Duals, clients []int) *pricingModel {
	inst := p.inst
	nodes := append([]int{inst.Depot}, clients...)
	n := len(nodes)
	pm := &pricingModel{model: new(lpsolve.Model), nodes: nodes, arcCol: make([][]int, n)}
	m := pm.model

	for a := range n {
		pm.arcCol[a] = make([]int, n)
		for b := range n {
			pm.arcCol[a][b] = -1
			if a == b {
				continue
			}
			cost := inst.Cost(nodes[a], nodes[b])
			if b > 0 {
				cost -= duals[nodes[b]]
			}
			pm.arcCol[a][b] = m.AddColumn(cost, 0, 1, lpsolve.IntegerType)
		}
	}

	steps, bigM := loadSteps(inst, clients)
	loadCol := make([]int, n)
	for a := 1; a < n; a++ {
		loadCol[a] = m.AddColumn(0, steps[nodes[a]], bigM, lpsolve.ContinuousType)
	}

	out := make([]float64, 0, n)
	depotOut := make([]int, 0, n)
	for b := 1; b < n; b++ {
		depotOut = append(depotOut, pm.arcCol[0][b])
		out = append(out, 1)
	}
	m.AddSparseRow(1, depotOut, out, 1)

	for k := 1; k < n; k++ {
		var cols []int
		var vals []float64
		var inCols []int
		var ones []float64
		for a := range n {
			if a == k {
				continue
			}
			cols = append(cols, pm.arcCol[a][k], pm.arcCol[k][a])
			vals = append(vals, 1, -1)
			inCols = append(inCols, pm.arcCol[a][k])
			ones = append(ones, 1)
		}
		m.AddSparseRow(0, cols, vals, 0)
		m.AddSparseRow(math.Inf(-1), inCols, ones, 1)
	}

	// u_a - u_b + M x_ab <= M - step_b
	for a := 1; a < n; a++ {
		for b := 1; b < n; b++ {
			if a == b {
				continue
			}
			m.AddSparseRow(math.Inf(-1),
				[]int{loadCol[a], loadCol[b], pm.arcCol[a][b]},
				[]float64{1, -1, bigM},
				bigM-steps[nodes[b]])
		}
	}
	return pm
}

// decode follows the used arcs from the depot.
func (pm *pricingModel) decode(x []float64) ([]Arc, error) {
	var arcs []Arc
	at := 0
	for range pm.nodes {
		next := -1
		for b, col := range pm.arcCol[at] {
			if col >= 0 && x[col] > 0.5 {
				next = b
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("%w: pricing route breaks at node %d", ErrInvalidPattern, pm.nodes[at])
		}
		arcs = append(arcs, Arc{From: pm.nodes[at], To: pm.nodes[next]})
		if next == 0 {
			return arcs, nil
		}
		at = next
	}
	return nil, fmt.Errorf("%w: pricing route does not return to the depot", ErrInvalidPattern)
}

// Price solves the pricing MIP within budget. The result is certified only
// when the solver proves optimality.
func (p *MIPPricer) Price(ctx context.Context, duals Duals, budget time.Duration) (PricingResult, error) {
	clients := routable(p.inst)
	if len(clients) == 0 {
		return noRoute(), nil
	}

	pm := p.defPricing(duals, clients)
	res, err := p.solver.SolveMIP(ctx, pm.model, budget)
	if err != nil {
		return PricingResult{}, fmt.Errorf("pricing: %w", err)
	}

	switch res.Status {
	case lpsolve.Optimal, lpsolve.TimeLimitReached:
	case lpsolve.Infeasible:
		return noRoute(), nil
	default:
		return PricingResult{}, fmt.Errorf("pricing: status: %v", res.Status)
	}

	certified := res.Status == lpsolve.Optimal
	if !res.HasSolution() {
		p.Logger.Debug("pricing stopped without a route", zap.Stringer("status", res.Status))
		return PricingResult{ReducedCost: math.Inf(1), Certified: false}, nil
	}

	arcs, err := pm.decode(res.Primal)
	if err != nil {
		return PricingResult{}, err
	}
	return PricingResult{
		ReducedCost: ReducedCost(p.inst, arcs, duals),
		Arcs:        arcs,
		Certified:   certified,
	}, nil
}
