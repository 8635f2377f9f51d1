package cvrp

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// GreedyCover picks capacity-feasible patterns of pool disjoint from those
// already taken, cheapest per covered client first, until every client is
// covered. Patterns with hint value above 0.5 go first; hint may be nil.
func GreedyCover(inst *Instance, pool *PatternPool, hint []float64) ([]int, error) {
	pq := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for _, p := range pool.patterns {
		if !p.Fits(inst) {
			continue
		}
		if p.ID < len(hint) && hint[p.ID] > 0.5 {
			pq.Put(p.ID, -hint[p.ID])
		} else {
			pq.Put(p.ID, p.Cost/float64(p.Coverage.Cardinality()))
		}
	}

	covered := mapset.NewThreadUnsafeSet[int]()
	var selected []int
	for covered.Cardinality() < len(inst.clients) {
		if pq.Len() == 0 {
			return nil, fmt.Errorf("greedy cover: %w: %d of %d clients covered", ErrInfeasible, covered.Cardinality(), len(inst.clients))
		}
		item := pq.Get()
		p := pool.At(item.Value)
		if covered.Intersect(p.Coverage).Cardinality() > 0 {
			continue
		}
		covered = covered.Union(p.Coverage)
		selected = append(selected, p.ID)
	}
	return selected, nil
}
