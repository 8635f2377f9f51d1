package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"vrp_column_generation/src/cvrp"
	"vrp_column_generation/src/tsplib"
)

// GenerateCVRPInstance places the depot in the middle of a size x size grid
// and the clients uniformly on it. Demands are uniform in [1, maxDemand].
func GenerateCVRPInstance(rng *rand.Rand, name string, numClients, capacity, maxDemand int, size float64) (*cvrp.Instance, error) {
	nodes := make([]cvrp.Node, 0, numClients+1)
	nodes = append(nodes, cvrp.Node{ID: 1, X: size / 2, Y: size / 2})
	for i := range numClients {
		nodes = append(nodes, cvrp.Node{
			ID:     i + 2,
			X:      float64(rng.Intn(int(size) + 1)),
			Y:      float64(rng.Intn(int(size) + 1)),
			Demand: 1 + rng.Intn(maxDemand),
		})
	}
	inst, err := cvrp.NewInstance(nodes, 1, capacity)
	if err != nil {
		return nil, err
	}
	inst.Name = name
	return inst, nil
}

func main() {
	var outPath, name string
	var numClients, capacity, maxDemand int
	var size float64
	var seed int64

	flag.StringVar(&outPath, "out", "out.vrp", "The output file")
	flag.StringVar(&name, "name", "random", "The instance name")
	flag.IntVar(&numClients, "clients", 0, "The number of clients")
	flag.IntVar(&capacity, "capacity", 0, "The vehicle capacity")
	flag.IntVar(&maxDemand, "maxdemand", 10, "The maximum client demand")
	flag.Float64Var(&size, "size", 100, "The side of the square the nodes lie in")
	flag.Int64Var(&seed, "seed", 1, "The random seed")

	flag.Parse()

	err := false
	if numClients <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of clients")
		err = true
	}
	if capacity <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the vehicle capacity")
		err = true
	}
	if maxDemand <= 0 {
		fmt.Fprintln(os.Stderr, "The maximum demand must be positive")
		err = true
	}
	if size < 1 {
		fmt.Fprintln(os.Stderr, "The grid size must be at least 1")
		err = true
	}

	if err {
		os.Exit(1)
	}

	inst, genErr := GenerateCVRPInstance(rand.New(rand.NewSource(seed)), name, numClients, capacity, maxDemand, size)
	if genErr != nil {
		fmt.Fprintln(os.Stderr, genErr)
		os.Exit(1)
	}
	if err := tsplib.Save(outPath, inst); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
