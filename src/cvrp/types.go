package cvrp

import (
	"fmt"
	"strings"
)

type Node struct {
	ID     int
	X, Y   float64
	Demand int
}

// Arc is a directed edge between two node ids.
type Arc struct {
	From, To int
}

// Duals maps a client id to the dual price of its covering row.
type Duals map[int]float64

type Route struct {
	PatternID int
	Clients   []int
	Arcs      []Arc
	Cost      float64
	Load      int
}

type Solution struct {
	Routes    []Route
	TotalCost float64
	// Optimal is false when the integer solve stopped on its time limit or
	// the routes come from the greedy fallback.
	Optimal bool
}

func (sol *Solution) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("Total cost: %f\n", sol.TotalCost))
	s.WriteString(fmt.Sprintf("Optimal over pool: %t\n", sol.Optimal))
	for i, r := range sol.Routes {
		fmt.Fprintf(s, "Route %d (load %d, cost %f): [ ", i+1, r.Load, r.Cost)
		for _, c := range r.Clients {
			fmt.Fprint(s, c)
			s.WriteString(" ")
		}
		s.WriteString("]\n")
	}
	return s.String()
}

// RouteArcs returns the depot-to-depot arcs visiting clients in order.
func RouteArcs(depot int, clients []int) []Arc {
	arcs := make([]Arc, 0, len(clients)+1)
	prev := depot
	for _, c := range clients {
		arcs = append(arcs, Arc{From: prev, To: c})
		prev = c
	}
	return append(arcs, Arc{From: prev, To: depot})
}
