package cvrp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

type PricingKind string

const (
	LabelingPricing PricingKind = "labeling"
	MIPPricing      PricingKind = "mip"
)

// Solver runs column generation followed by integer recovery.
type Solver struct {
	LP      lpsolve.LPSolver
	MIP     lpsolve.MIPSolver
	Pricing PricingKind
	// MaxLabels is handed to the labeling pricer.
	MaxLabels    int
	Options      Options
	MIPTimeLimit time.Duration
	// Greedy enables the greedy fallback of Recover.
	Greedy   bool
	Logger   *zap.Logger
	Observer Observer
}

type Report struct {
	Generation *GenerationResult
	Solution   *Solution
}

func (s *Solver) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Solver) oracle(inst *Instance) (PricingOracle, error) {
	switch s.Pricing {
	case LabelingPricing, "":
		p := NewLabelingPricer(inst)
		p.MaxLabels = s.MaxLabels
		p.Logger = s.logger()
		return p, nil
	case MIPPricing:
		p := NewMIPPricer(inst, s.MIP)
		p.Logger = s.logger()
		return p, nil
	}
	return nil, fmt.Errorf("unknown pricing %q", s.Pricing)
}

// Solve returns the generation result even when recovery fails, so callers
// can report the relaxation bound.
func (s *Solver) Solve(ctx context.Context, inst *Instance) (*Report, error) {
	oracle, err := s.oracle(inst)
	if err != nil {
		return nil, err
	}
	master := NewMaster(inst, s.LP, s.MIP)
	master.MIPTimeLimit = s.MIPTimeLimit
	master.Logger = s.logger()

	cg := NewColumnGeneration(master, oracle, s.Options)
	cg.Logger = s.logger()
	cg.Observer = s.Observer

	gen, err := cg.Run(ctx)
	if err != nil {
		return &Report{Generation: gen}, err
	}

	sol, err := Recover(ctx, master, gen.Pool, RecoveryOptions{Greedy: s.Greedy, Hint: gen.Primal})
	if err != nil {
		return &Report{Generation: gen}, err
	}
	s.logger().Info("integer recovery done",
		zap.Float64("cost", sol.TotalCost),
		zap.Int("routes", len(sol.Routes)),
		zap.Bool("optimal", sol.Optimal))
	return &Report{Generation: gen, Solution: sol}, nil
}
