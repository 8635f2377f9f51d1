package cvrp

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/mat"
)

// Instance is an immutable CVRP instance with a single depot and a
// homogeneous fleet.
type Instance struct {
	Name     string
	Depot    int
	Capacity int

	nodes   map[int]Node
	ids     []int
	index   map[int]int
	clients []int
	cost    *mat.Dense
}

// NewInstance validates the nodes and precomputes the Euclidean cost matrix.
// A client heavier than the capacity is accepted; it only makes the instance
// infeasible at integer recovery.
func NewInstance(nodes []Node, depot, capacity int) (*Instance, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidInstance, capacity)
	}

	byID := make(map[int]Node, len(nodes))
	for _, n := range nodes {
		if _, ok := byID[n.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate node %d", ErrInvalidInstance, n.ID)
		}
		if n.Demand < 0 {
			return nil, fmt.Errorf("%w: node %d has demand %d", ErrInvalidInstance, n.ID, n.Demand)
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			return nil, fmt.Errorf("%w: node %d has coordinates (%v, %v)", ErrInvalidInstance, n.ID, n.X, n.Y)
		}
		byID[n.ID] = n
	}

	d, ok := byID[depot]
	if !ok {
		return nil, fmt.Errorf("%w: depot %d is not a node", ErrInvalidInstance, depot)
	}
	if d.Demand != 0 {
		return nil, fmt.Errorf("%w: depot %d has demand %d", ErrInvalidInstance, depot, d.Demand)
	}
	if len(byID) < 2 {
		return nil, fmt.Errorf("%w: no clients", ErrInvalidInstance)
	}

	ids := maps.Keys(byID)
	slices.Sort(ids)

	inst := &Instance{
		Depot:    depot,
		Capacity: capacity,
		nodes:    byID,
		ids:      ids,
		index:    make(map[int]int, len(ids)),
		cost:     mat.NewDense(len(ids), len(ids), nil),
	}
	for k, id := range ids {
		inst.index[id] = k
		if id != depot {
			inst.clients = append(inst.clients, id)
		}
	}
	for a, i := range ids {
		for b := a + 1; b < len(ids); b++ {
			j := ids[b]
			c := math.Hypot(byID[i].X-byID[j].X, byID[i].Y-byID[j].Y)
			inst.cost.Set(a, b, c)
			inst.cost.Set(b, a, c)
		}
	}
	return inst, nil
}

// Cost returns the travel cost between two node ids.
func (inst *Instance) Cost(i, j int) float64 {
	return inst.cost.At(inst.index[i], inst.index[j])
}

func (inst *Instance) Node(id int) (Node, bool) {
	n, ok := inst.nodes[id]
	return n, ok
}

func (inst *Instance) Demand(id int) int {
	return inst.nodes[id].Demand
}

func (inst *Instance) HasNode(id int) bool {
	_, ok := inst.nodes[id]
	return ok
}

// Clients returns the client ids in increasing order.
func (inst *Instance) Clients() []int {
	return slices.Clone(inst.clients)
}

func (inst *Instance) NumClients() int {
	return len(inst.clients)
}

// NodeIDs returns every node id, depot included, in increasing order.
func (inst *Instance) NodeIDs() []int {
	return slices.Clone(inst.ids)
}

// Nodes returns the nodes ordered by id.
func (inst *Instance) Nodes() []Node {
	out := make([]Node, len(inst.ids))
	for k, id := range inst.ids {
		out[k] = inst.nodes[id]
	}
	return out
}

// TotalDemand is the sum of the client demands.
func (inst *Instance) TotalDemand() int {
	total := 0
	for _, c := range inst.clients {
		total += inst.nodes[c].Demand
	}
	return total
}

// Oversized returns the clients whose demand exceeds the capacity.
func (inst *Instance) Oversized() []int {
	var out []int
	for _, c := range inst.clients {
		if inst.nodes[c].Demand > inst.Capacity {
			out = append(out, c)
		}
	}
	return out
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	if inst.Name != "" {
		fmt.Fprintf(s, "Name: %s\n", inst.Name)
	}
	fmt.Fprintf(s, "N. clients: %d\n", len(inst.clients))
	fmt.Fprintf(s, "Capacity: %d\n", inst.Capacity)
	fmt.Fprintf(s, "Depot: %d\n", inst.Depot)
	fmt.Fprintf(s, "Total demand: %d\n", inst.TotalDemand())
	return s.String()
}
