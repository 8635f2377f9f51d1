package cvrp

import "slices"

// PatternPool is the append-only column set of the master. Column j of the
// master is pool.At(j). Every pattern fits the vehicle capacity except the
// seed round trip of a client heavier than the capacity; the integer master
// skips such patterns.
type PatternPool struct {
	patterns []*Pattern
}

func NewPatternPool() *PatternPool {
	return &PatternPool{}
}

// Seed adds one round trip per client, heavy clients included, so that the
// covering rows are feasible from the first iteration.
func (pool *PatternPool) Seed(inst *Instance) {
	for _, c := range inst.clients {
		pool.Add(roundTrip(inst, c))
	}
}

// Add stores a copy of p with its column index as ID and returns it.
// Duplicates are stored as distinct columns.
func (pool *PatternPool) Add(p *Pattern) *Pattern {
	q := *p
	q.ID = len(pool.patterns)
	pool.patterns = append(pool.patterns, &q)
	return &q
}

func (pool *PatternPool) Len() int {
	return len(pool.patterns)
}

func (pool *PatternPool) At(id int) *Pattern {
	return pool.patterns[id]
}

func (pool *PatternPool) Patterns() []*Pattern {
	return slices.Clone(pool.patterns)
}

// Covering returns the ids of the patterns visiting client.
func (pool *PatternPool) Covering(client int) []int {
	var ids []int
	for _, p := range pool.patterns {
		if p.Covers(client) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Contains reports whether a pattern with the same arc sequence is stored.
func (pool *PatternPool) Contains(p *Pattern) bool {
	return slices.ContainsFunc(pool.patterns, p.SameRoute)
}
