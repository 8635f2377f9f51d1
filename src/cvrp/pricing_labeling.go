package cvrp

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/yourbasic/bit"
	"go.uber.org/zap"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

const (
	// labelCheckEvery is how many labels are expanded between deadline checks.
	labelCheckEvery = 256
	dominanceTol    = 1e-9
)

// LabelingPricer solves the pricing subproblem exactly with a label-setting
// algorithm. Labels are expanded in increasing reduced cost and pruned by
// dominance on (load, reduced cost, visited clients).
type LabelingPricer struct {
	inst *Instance
	// MaxLabels stops the search uncertified after that many labels; 0
	// means no limit.
	MaxLabels int
	Logger    *zap.Logger
}

func NewLabelingPricer(inst *Instance) *LabelingPricer {
	return &LabelingPricer{inst: inst, Logger: zap.NewNop()}
}

type label struct {
	node      int
	load      int
	cost      float64
	visited   *bit.Set
	parent    *label
	dominated bool
}

func (l *label) extend(next, demand int, arcCost float64) *label {
	visited := new(bit.Set)
	l.visited.Visit(func(n int) (skip bool) {
		visited.Add(n)
		return false
	})
	return &label{
		node:    next,
		load:    l.load + demand,
		cost:    l.cost + arcCost,
		visited: visited.Add(next),
		parent:  l,
	}
}

func (l *label) dominates(o *label) bool {
	return l.load <= o.load && l.cost <= o.cost+dominanceTol && l.visited.Subset(o.visited)
}

// path returns the node positions from the first client to l.
func (l *label) path() []int {
	var out []int
	for at := l; at.parent != nil; at = at.parent {
		out = append(out, at.node)
	}
	slices.Reverse(out)
	return out
}

type labeling struct {
	p        *LabelingPricer
	clients  []int
	reduced  [][]float64
	demand   []int
	buckets  [][]*label
	created  int
	best     *label
	bestCost float64
}

func (p *LabelingPricer) newLabeling(duals Duals, clients []int) *labeling {
	inst := p.inst
	nodes := append([]int{inst.Depot}, clients...)
	n := len(nodes)
	lb := &labeling{
		p:        p,
		clients:  clients,
		reduced:  make([][]float64, n),
		demand:   make([]int, n),
		buckets:  make([][]*label, n),
		bestCost: math.Inf(1),
	}
	for a := range n {
		lb.demand[a] = inst.Demand(nodes[a])
		lb.reduced[a] = make([]float64, n)
		for b := range n {
			if a == b {
				continue
			}
			lb.reduced[a][b] = inst.Cost(nodes[a], nodes[b])
			if b > 0 {
				lb.reduced[a][b] -= duals[nodes[b]]
			}
		}
	}
	return lb
}

// insert keeps l unless an existing label at its node dominates it, and
// marks the labels it dominates.
func (lb *labeling) insert(l *label) bool {
	bucket := lb.buckets[l.node]
	for _, o := range bucket {
		if o.dominates(l) {
			return false
		}
	}
	kept := bucket[:0]
	for _, o := range bucket {
		if l.dominates(o) {
			o.dominated = true
			continue
		}
		kept = append(kept, o)
	}
	lb.buckets[l.node] = append(kept, l)
	lb.created++
	return true
}

func (lb *labeling) close(l *label) {
	if l.node == 0 {
		return
	}
	if total := l.cost + lb.reduced[l.node][0]; total < lb.bestCost {
		lb.best, lb.bestCost = l, total
	}
}

// run returns false when the search was cut short.
func (lb *labeling) run(ctx context.Context) bool {
	capacity := lb.p.inst.Capacity
	root := &label{visited: new(bit.Set)}

	pq := priorityqueue.New[*label, float64](priorityqueue.MinHeap)
	pq.Put(root, 0)

	for expanded := 0; pq.Len() > 0; expanded++ {
		if expanded%labelCheckEvery == 0 && ctx.Err() != nil {
			return false
		}
		if lb.p.MaxLabels > 0 && lb.created >= lb.p.MaxLabels {
			return false
		}

		l := pq.Get().Value
		if l.dominated {
			continue
		}
		lb.close(l)

		for b := 1; b < len(lb.demand); b++ {
			if b == l.node || l.visited.Contains(b) || l.load+lb.demand[b] > capacity {
				continue
			}
			next := l.extend(b, lb.demand[b], lb.reduced[l.node][b])
			if lb.insert(next) {
				pq.Put(next, next.cost)
			}
		}
	}
	return true
}

func (lb *labeling) result(duals Duals, certified bool) PricingResult {
	if lb.best == nil {
		if certified {
			return noRoute()
		}
		return PricingResult{ReducedCost: math.Inf(1)}
	}
	route := make([]int, 0)
	for _, k := range lb.best.path() {
		route = append(route, lb.clients[k-1])
	}
	arcs := RouteArcs(lb.p.inst.Depot, route)
	return PricingResult{
		ReducedCost: ReducedCost(lb.p.inst, arcs, duals),
		Arcs:        arcs,
		Certified:   certified,
	}
}

// Price enumerates non-dominated labels until the queue is empty, the budget
// runs out or MaxLabels is reached. Only a complete enumeration is certified.
func (p *LabelingPricer) Price(ctx context.Context, duals Duals, budget time.Duration) (PricingResult, error) {
	clients := routable(p.inst)
	if len(clients) == 0 {
		return noRoute(), nil
	}

	ctx, cancel := withBudget(ctx, budget)
	defer cancel()

	start := time.Now()
	lb := p.newLabeling(duals, clients)
	complete := lb.run(ctx)
	p.Logger.Debug("labeling finished",
		zap.Int("labels", lb.created),
		zap.Bool("complete", complete),
		zap.Duration("elapsed", time.Since(start)))

	return lb.result(duals, complete), nil
}
