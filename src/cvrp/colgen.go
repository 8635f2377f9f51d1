package cvrp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"vrp_column_generation/src/lpsolve"
)

type State int

const (
	Initializing State = iota
	Iterating
	Converged
	BudgetExhausted
	Infeasible
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Iterating:
		return "Iterating"
	case Converged:
		return "Converged"
	case BudgetExhausted:
		return "BudgetExhausted"
	case Infeasible:
		return "Infeasible"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	DefaultEpsilon     = 1e-5
	DefaultMaxPatterns = 5000
	// objectiveTol is how much the master objective may rise between
	// iterations before it is reported.
	objectiveTol = 1e-7
)

type Options struct {
	// Epsilon is the reduced cost below which a column counts as improving.
	Epsilon float64
	// MaxPatterns caps the pool size, seeds included; 0 means no cap.
	MaxPatterns int
	// MaxIterations caps the number of pricing rounds; 0 means no cap.
	MaxIterations int
	TimeLimit     time.Duration
	// PricingTimeLimit is the budget of one pricing call.
	PricingTimeLimit time.Duration
	// ImproveRoutes runs TwoOpt on every priced route before adding it.
	ImproveRoutes bool
	// GapTolerance stops generation once the relative gap between the master
	// objective and the Lagrangian bound falls below it; 0 disables it.
	GapTolerance float64
}

func DefaultOptions() Options {
	return Options{
		Epsilon:     DefaultEpsilon,
		MaxPatterns: DefaultMaxPatterns,
	}
}

type IterationStats struct {
	Iteration   int
	Objective   float64
	ReducedCost float64
	Certified   bool
	LowerBound  float64
	Patterns    int
	Duration    time.Duration
}

// Observer is notified after every iteration and once at the end of a run.
type Observer interface {
	ObserveIteration(IterationStats)
	ObserveResult(*GenerationResult)
}

type GenerationResult struct {
	State State
	// Reason says why generation stopped.
	Reason     string
	Pool       *PatternPool
	Objective  float64
	LowerBound float64
	// Primal is the last relaxation primal, indexed by pattern id.
	Primal     []float64
	Duals      Duals
	Iterations []IterationStats
	Elapsed    time.Duration
}

func (r *GenerationResult) Converged() bool {
	return r.State == Converged
}

// ColumnGeneration alternates master relaxation and pricing. It owns the
// pattern pool, which only grows.
type ColumnGeneration struct {
	inst   *Instance
	master *Master
	oracle PricingOracle

	Options  Options
	Logger   *zap.Logger
	Observer Observer

	state State
	pool  *PatternPool
}

func NewColumnGeneration(master *Master, oracle PricingOracle, opts Options) *ColumnGeneration {
	return &ColumnGeneration{
		inst:    master.Instance(),
		master:  master,
		oracle:  oracle,
		Options: opts,
		Logger:  zap.NewNop(),
		state:   Initializing,
	}
}

func (cg *ColumnGeneration) State() State {
	return cg.state
}

// Pool returns the pattern pool, nil before Run.
func (cg *ColumnGeneration) Pool() *PatternPool {
	return cg.pool
}

func (cg *ColumnGeneration) epsilon() float64 {
	if cg.Options.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return cg.Options.Epsilon
}

// pricingBudget is the pricing time limit clipped to what is left of ctx.
func (cg *ColumnGeneration) pricingBudget(ctx context.Context) time.Duration {
	budget := cg.Options.PricingTimeLimit
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if budget <= 0 || left < budget {
			budget = max(left, time.Millisecond)
		}
	}
	return budget
}

func (cg *ColumnGeneration) finish(res *GenerationResult, state State, reason string, start time.Time) *GenerationResult {
	cg.state = state
	res.State = state
	res.Reason = reason
	res.Elapsed = time.Since(start)
	cg.Logger.Info("column generation stopped",
		zap.Stringer("state", state),
		zap.String("reason", reason),
		zap.Int("iterations", len(res.Iterations)),
		zap.Int("patterns", res.Pool.Len()),
		zap.Float64("objective", res.Objective),
		zap.Float64("lowerBound", res.LowerBound))
	if cg.Observer != nil {
		cg.Observer.ObserveResult(res)
	}
	return res
}

// Run seeds the pool with one round trip per client and iterates until the
// pricer certifies that no column improves, a budget runs out or the master
// turns out infeasible. The pool stays usable for Recover in every state but
// Infeasible.
func (cg *ColumnGeneration) Run(ctx context.Context) (*GenerationResult, error) {
	start := time.Now()
	if cg.Logger == nil {
		cg.Logger = zap.NewNop()
	}
	if cg.Options.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cg.Options.TimeLimit)
		defer cancel()
	}

	cg.state = Initializing
	cg.pool = NewPatternPool()
	cg.pool.Seed(cg.inst)
	res := &GenerationResult{
		Pool:       cg.pool,
		Objective:  math.Inf(1),
		LowerBound: math.Inf(-1),
	}
	eps := cg.epsilon()
	maxRoutes := cg.inst.NumClients()

	var model *lpsolve.Model
	for iter := 1; ; iter++ {
		cg.state = Iterating
		iterStart := time.Now()

		var err error
		model, err = cg.master.BuildOrExtend(model, cg.pool)
		if err != nil {
			return nil, err
		}
		rel, err := cg.master.SolveRelaxation(ctx, model)
		switch {
		case errors.Is(err, ErrInfeasible):
			cg.finish(res, Infeasible, "master relaxation infeasible", start)
			return res, err
		case errors.Is(err, ErrSolverTimeout):
			return cg.finish(res, BudgetExhausted, "master solve timed out", start), nil
		case err != nil:
			return nil, err
		}

		if rel.Objective > res.Objective+objectiveTol*(1+math.Abs(res.Objective)) {
			cg.Logger.Warn("master objective increased",
				zap.Float64("previous", res.Objective),
				zap.Float64("current", rel.Objective))
		}
		res.Objective, res.Primal, res.Duals = rel.Objective, rel.Primal, rel.Duals

		if cg.Options.MaxPatterns > 0 && cg.pool.Len() >= cg.Options.MaxPatterns {
			return cg.finish(res, BudgetExhausted, "pattern limit reached", start), nil
		}
		if cg.Options.MaxIterations > 0 && iter > cg.Options.MaxIterations {
			return cg.finish(res, BudgetExhausted, "iteration limit reached", start), nil
		}
		if ctx.Err() != nil {
			return cg.finish(res, BudgetExhausted, "time limit reached", start), nil
		}

		priced, err := cg.oracle.Price(ctx, rel.Duals, cg.pricingBudget(ctx))
		if err != nil {
			return nil, err
		}
		if cg.Options.ImproveRoutes && priced.Arcs != nil {
			priced.Arcs = TwoOpt(cg.inst, priced.Arcs)
			priced.ReducedCost = ReducedCost(cg.inst, priced.Arcs, rel.Duals)
		}

		stats := IterationStats{
			Iteration:   iter,
			Objective:   rel.Objective,
			ReducedCost: priced.ReducedCost,
			Certified:   priced.Certified,
			LowerBound:  math.Inf(-1),
			Duration:    time.Since(iterStart),
		}
		if priced.Certified {
			stats.LowerBound = LagrangianBound(rel.Objective, priced.ReducedCost, maxRoutes)
			res.LowerBound = max(res.LowerBound, stats.LowerBound)
		}

		improving := priced.Improving(eps)
		if improving {
			p, err := NewPattern(cg.inst, priced.Arcs)
			if err != nil {
				return nil, fmt.Errorf("priced route: %w", err)
			}
			if cg.pool.Contains(p) {
				cg.Logger.Debug("pricing returned a known route", zap.Stringer("pattern", p))
			}
			cg.pool.Add(p)
		}
		stats.Patterns = cg.pool.Len()
		res.Iterations = append(res.Iterations, stats)

		cg.Logger.Debug("iteration",
			zap.Int("iteration", iter),
			zap.Float64("objective", rel.Objective),
			zap.Float64("reducedCost", priced.ReducedCost),
			zap.Bool("certified", priced.Certified),
			zap.Int("patterns", stats.Patterns))
		if cg.Observer != nil {
			cg.Observer.ObserveIteration(stats)
		}

		switch {
		case !improving && priced.Certified:
			return cg.finish(res, Converged, "no improving column", start), nil
		case !improving && ctx.Err() != nil:
			return cg.finish(res, BudgetExhausted, "time limit reached", start), nil
		case !improving:
			return cg.finish(res, BudgetExhausted, "pricing stopped without certificate", start), nil
		case cg.Options.GapTolerance > 0 && relativeGap(rel.Objective, res.LowerBound) <= cg.Options.GapTolerance:
			return cg.finish(res, BudgetExhausted, "gap tolerance reached", start), nil
		}
	}
}
