package cvrp

import "math"

// LagrangianBound is the lower bound on the full master implied by a
// certified pricing result: no solution uses more than maxRoutes routes, so
// z* >= zRMP + maxRoutes * min(0, rc).
func LagrangianBound(zRMP, reducedCost float64, maxRoutes int) float64 {
	return zRMP + float64(maxRoutes)*math.Min(0, reducedCost)
}

// relativeGap is (upper - lower) / |upper|, or +Inf without a lower bound.
func relativeGap(upper, lower float64) float64 {
	if math.IsInf(lower, -1) {
		return math.Inf(1)
	}
	if upper == 0 {
		return math.Abs(upper - lower)
	}
	return (upper - lower) / math.Abs(upper)
}
