package lpsolve

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

type NodeSelection int

const (
	// BestFirst explores the open node with the lowest relaxation bound.
	BestFirst NodeSelection = iota
	// DepthFirst dives on the most recent node, finding incumbents early.
	DepthFirst
	// DiveThenBestFirst dives until the first incumbent, then moves the open
	// nodes to a best-bound queue.
	DiveThenBestFirst
)

const pruneTol = 1e-9

type bbNode struct {
	lower []float64
	upper []float64
	bound float64
	depth int
}

type frontier struct {
	push func(*bbNode)
	pop  func() *bbNode
	size func() int
	// found is called on every new incumbent.
	found func()
}

func newFrontier(sel NodeSelection) frontier {
	switch sel {
	case DepthFirst:
		stack := NewStack[*bbNode]()
		return frontier{push: stack.Push, pop: stack.Pop, size: stack.Size, found: func() {}}
	case DiveThenBestFirst:
		return newDivingFrontier()
	}
	pq := priorityqueue.New[*bbNode, float64](priorityqueue.MinHeap)
	return frontier{
		push:  func(n *bbNode) { pq.Put(n, n.bound) },
		pop:   func() *bbNode { return pq.Get().Value },
		size:  pq.Len,
		found: func() {},
	}
}

func newDivingFrontier() frontier {
	stack := NewStack[*bbNode]()
	pq := priorityqueue.New[*bbNode, float64](priorityqueue.MinHeap)
	diving := true
	return frontier{
		push: func(n *bbNode) {
			if diving {
				stack.Push(n)
				return
			}
			pq.Put(n, n.bound)
		},
		pop: func() *bbNode {
			if diving {
				return stack.Pop()
			}
			return pq.Get().Value
		},
		size: func() int { return stack.Size() + pq.Len() },
		found: func() {
			if !diving {
				return
			}
			diving = false
			for stack.Size() > 0 {
				n := stack.Pop()
				pq.Put(n, n.bound)
			}
		},
	}
}

type branchAndBound struct {
	solver       *Simplex
	model        *Model
	incumbent    []float64
	incumbentObj float64
	nodes        int
}

// SolveMIP runs branch-and-bound over the LP relaxation. When the time limit,
// the context deadline or MaxNodes stops the search, the result carries
// TimeLimitReached and the best incumbent found, if any.
func (s *Simplex) SolveMIP(ctx context.Context, m *Model, timeLimit time.Duration) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	if !m.IsMIP() {
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
		return &Result{Status: Optimal, Objective: sol.objective, Primal: sol.x}, nil
	}

	bb := &branchAndBound{
		solver:       s,
		model:        m,
		incumbentObj: math.Inf(1),
	}
	return bb.run(ctx)
}

func (bb *branchAndBound) run(ctx context.Context) (*Result, error) {
	log := bb.solver.logger()
	tol := bb.solver.intTol()

	root := &bbNode{
		lower: slices.Clone(bb.model.ColLower),
		upper: slices.Clone(bb.model.ColUpper),
		bound: math.Inf(-1),
	}
	for j, vt := range bb.model.VarTypes {
		if vt != IntegerType {
			continue
		}
		root.lower[j] = math.Ceil(root.lower[j] - tol)
		root.upper[j] = math.Floor(root.upper[j] + tol)
	}

	open := newFrontier(bb.solver.NodeSelection)
	open.push(root)

	for open.size() > 0 {
		if ctx.Err() != nil || (bb.solver.MaxNodes > 0 && bb.nodes >= bb.solver.MaxNodes) {
			log.Debug("branch-and-bound interrupted",
				zap.Int("nodes", bb.nodes),
				zap.Int("open", open.size()),
				zap.Bool("incumbent", bb.incumbent != nil))
			return bb.result(TimeLimitReached), nil
		}

		node := open.pop()
		if node.bound >= bb.incumbentObj-pruneTol {
			continue
		}
		bb.nodes++

		sol, err := bb.solveNode(node)
		if errors.Is(err, ErrUnbounded) && node.depth > 0 {
			// A bounded parent cannot have an unbounded child; treat it as a
			// numerical artefact and drop the node.
			continue
		}
		if err != nil {
			return nil, err
		}
		if sol.status == Infeasible || sol.objective >= bb.incumbentObj-pruneTol {
			continue
		}

		j := bb.branchVariable(sol.x)
		if j < 0 {
			bb.update(sol.x)
			open.found()
			log.Debug("new incumbent",
				zap.Float64("objective", bb.incumbentObj),
				zap.Int("nodes", bb.nodes))
			continue
		}

		down, up := bb.branch(node, j, sol.x[j], sol.objective)
		// The stack pops the last push first, so the up branch is explored
		// first when diving.
		open.push(down)
		open.push(up)
	}

	if bb.incumbent == nil {
		return &Result{Status: Infeasible, Objective: math.Inf(1)}, nil
	}
	return bb.result(Optimal), nil
}

func (bb *branchAndBound) solveNode(node *bbNode) (*lpSolution, error) {
	work := *bb.model
	work.ColLower = node.lower
	work.ColUpper = node.upper
	return bb.solver.solveRelaxation(&work)
}

// branchVariable returns the integer variable whose value is closest to a
// half, or -1 when x is integral.
func (bb *branchAndBound) branchVariable(x []float64) int {
	tol := bb.solver.intTol()
	best, bestDist := -1, math.Inf(1)
	for j, vt := range bb.model.VarTypes {
		if vt != IntegerType {
			continue
		}
		_, f := math.Modf(x[j])
		f = math.Abs(f)
		if f < tol || f > 1-tol {
			continue
		}
		if d := math.Abs(0.5 - f); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func (bb *branchAndBound) branch(node *bbNode, j int, value, bound float64) (down, up *bbNode) {
	down = &bbNode{
		lower: slices.Clone(node.lower),
		upper: slices.Clone(node.upper),
		bound: bound,
		depth: node.depth + 1,
	}
	down.upper[j] = math.Floor(value)

	up = &bbNode{
		lower: slices.Clone(node.lower),
		upper: slices.Clone(node.upper),
		bound: bound,
		depth: node.depth + 1,
	}
	up.lower[j] = math.Ceil(value)
	return down, up
}

func (bb *branchAndBound) update(x []float64) {
	rounded := slices.Clone(x)
	for j, vt := range bb.model.VarTypes {
		if vt == IntegerType {
			rounded[j] = math.Round(rounded[j])
		}
	}
	obj := bb.model.Objective(rounded)
	if obj < bb.incumbentObj {
		bb.incumbent = rounded
		bb.incumbentObj = obj
	}
}

func (bb *branchAndBound) result(status Status) *Result {
	return &Result{
		Status:    status,
		Objective: bb.incumbentObj,
		Primal:    bb.incumbent,
	}
}
