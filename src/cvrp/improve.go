package cvrp

import "slices"

const improveTol = 1e-9

// TwoOpt reverses client segments of a route while that shortens it. The
// visited clients, and so the coverage and load, are unchanged.
func TwoOpt(inst *Instance, arcs []Arc) []Arc {
	if len(arcs) < 3 {
		return slices.Clone(arcs)
	}
	tour := make([]int, 0, len(arcs)+1)
	tour = append(tour, arcs[0].From)
	for _, a := range arcs {
		tour = append(tour, a.To)
	}

	for improved := true; improved; {
		improved = false
		for i := 1; i < len(tour)-2; i++ {
			for j := i + 1; j < len(tour)-1; j++ {
				delta := inst.Cost(tour[i-1], tour[j]) + inst.Cost(tour[i], tour[j+1]) -
					inst.Cost(tour[i-1], tour[i]) - inst.Cost(tour[j], tour[j+1])
				if delta < -improveTol {
					slices.Reverse(tour[i : j+1])
					improved = true
				}
			}
		}
	}
	return RouteArcs(inst.Depot, tour[1:len(tour)-1])
}
