package cvrp

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Pattern is a depot-to-depot route used as a master column. It is never
// modified after creation; the pool assigns ID on insertion.
type Pattern struct {
	ID       int
	Arcs     []Arc
	Cost     float64
	Load     int
	Coverage mapset.Set[int]
}

// NewPattern checks that arcs form an elementary depot-to-depot route whose
// load fits the vehicle, then precomputes cost and coverage.
func NewPattern(inst *Instance, arcs []Arc) (*Pattern, error) {
	p, err := newPattern(inst, arcs)
	if err != nil {
		return nil, err
	}
	if p.Load > inst.Capacity {
		return nil, fmt.Errorf("%w: load %d exceeds capacity %d", ErrInvalidPattern, p.Load, inst.Capacity)
	}
	return p, nil
}

// roundTrip builds depot -> client -> depot without checking the capacity,
// so that every client has a covering column from the start.
func roundTrip(inst *Instance, client int) *Pattern {
	p, err := newPattern(inst, RouteArcs(inst.Depot, []int{client}))
	if err != nil {
		panic(err)
	}
	return p
}

func newPattern(inst *Instance, arcs []Arc) (*Pattern, error) {
	if len(arcs) < 2 {
		return nil, fmt.Errorf("%w: %d arcs, a route needs at least 2", ErrInvalidPattern, len(arcs))
	}
	if arcs[0].From != inst.Depot || arcs[len(arcs)-1].To != inst.Depot {
		return nil, fmt.Errorf("%w: route must start and end at depot %d", ErrInvalidPattern, inst.Depot)
	}

	p := &Pattern{
		ID:       -1,
		Arcs:     slices.Clone(arcs),
		Coverage: mapset.NewThreadUnsafeSet[int](),
	}
	for k, a := range arcs {
		if !inst.HasNode(a.From) || !inst.HasNode(a.To) {
			return nil, fmt.Errorf("%w: arc %v has an unknown node", ErrInvalidPattern, a)
		}
		if k > 0 && arcs[k-1].To != a.From {
			return nil, fmt.Errorf("%w: arc %v does not continue %v", ErrInvalidPattern, a, arcs[k-1])
		}
		if a.From == a.To {
			return nil, fmt.Errorf("%w: self loop on %d", ErrInvalidPattern, a.From)
		}
		p.Cost += inst.Cost(a.From, a.To)
		if k == len(arcs)-1 {
			continue
		}
		if a.To == inst.Depot {
			return nil, fmt.Errorf("%w: route returns to the depot early", ErrInvalidPattern)
		}
		if !p.Coverage.Add(a.To) {
			return nil, fmt.Errorf("%w: client %d visited twice", ErrInvalidPattern, a.To)
		}
		p.Load += inst.Demand(a.To)
	}
	return p, nil
}

// Clients returns the clients in visiting order.
func (p *Pattern) Clients() []int {
	out := make([]int, 0, len(p.Arcs)-1)
	for _, a := range p.Arcs[:len(p.Arcs)-1] {
		out = append(out, a.To)
	}
	return out
}

func (p *Pattern) Covers(client int) bool {
	return p.Coverage.Contains(client)
}

// Fits reports whether the pattern respects the vehicle capacity.
func (p *Pattern) Fits(inst *Instance) bool {
	return p.Load <= inst.Capacity
}

func (p *Pattern) Route() Route {
	return Route{
		PatternID: p.ID,
		Clients:   p.Clients(),
		Arcs:      slices.Clone(p.Arcs),
		Cost:      p.Cost,
		Load:      p.Load,
	}
}

// SameRoute reports whether both patterns use the same arc sequence.
func (p *Pattern) SameRoute(q *Pattern) bool {
	return slices.Equal(p.Arcs, q.Arcs)
}

func (p *Pattern) String() string {
	return fmt.Sprintf("pattern %d: %v cost %f load %d", p.ID, p.Clients(), p.Cost, p.Load)
}
