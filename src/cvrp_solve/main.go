package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vrp_column_generation/src/config"
	"vrp_column_generation/src/cvrp"
	"vrp_column_generation/src/lpsolve"
	"vrp_column_generation/src/lpsolve/highsolver"
	"vrp_column_generation/src/lpsolve/lpsolvebackend"
	"vrp_column_generation/src/metrics"
	"vrp_column_generation/src/tsplib"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newBackend(b config.Backend, logger *zap.Logger) (lpsolve.LPSolver, lpsolve.MIPSolver) {
	switch b {
	case config.HighsBackend:
		s := highsolver.New(logger)
		return s, s
	case config.LpSolveBackend:
		return nil, lpsolvebackend.New(logger)
	default:
		s := lpsolve.NewSimplex()
		s.Logger = logger
		return s, s
	}
}

// parseFlags loads the optional YAML file and overrides it with the flags
// given on the command line.
func parseFlags() (*config.Config, error) {
	var configPath string
	var paths []string
	fs := flag.CommandLine
	def := config.Default()

	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.Func("inst", "a list of instance file paths, separated by a whitespace", func(s string) error {
		paths = strings.Fields(s)
		return nil
	})
	lp := fs.String("lp", string(def.LPBackend), "LP backend for the master relaxation: simplex or highs")
	mip := fs.String("mip", string(def.MIPBackend), "MIP backend: simplex, highs or lpsolve")
	pricing := fs.String("pricing", string(def.Pricing), "Pricing oracle: labeling or mip")
	maxLabels := fs.Int("max-labels", 0, "Stop the labeling pricer after this many labels (0: no limit)")
	maxPatterns := fs.Int("max-patterns", def.MaxPatterns, "Maximum number of patterns in the pool")
	maxIter := fs.Int("max-iterations", 0, "Maximum number of pricing rounds (0: no limit)")
	timeLimit := fs.Duration("time", 0, "Time limit of column generation")
	pricingTime := fs.Duration("pricing-time", 0, "Time limit of a single pricing call")
	mipTime := fs.Duration("mip-time", 0, "Time limit of the integer master")
	improve := fs.Bool("2opt", false, "Improve priced routes with 2-opt")
	gap := fs.Float64("gap", 0, "Stop once the relative Lagrangian gap falls below this value")
	greedy := fs.Bool("greedy", def.Greedy, "Fall back to a greedy cover when the integer master times out")
	compact := fs.Bool("compact", false, "Also solve the compact MTZ model")
	metricsFile := fs.String("metrics", "", "Write Prometheus metrics to this file")
	logLevel := fs.String("log-level", def.LogLevel, "Log level")
	dev := fs.Bool("dev", false, "Development logging")

	flag.Parse()

	cfg := def
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "inst":
			cfg.Instances = paths
		case "lp":
			cfg.LPBackend = config.Backend(*lp)
		case "mip":
			cfg.MIPBackend = config.Backend(*mip)
		case "pricing":
			cfg.Pricing = cvrp.PricingKind(*pricing)
		case "max-labels":
			cfg.MaxLabels = *maxLabels
		case "max-patterns":
			cfg.MaxPatterns = *maxPatterns
		case "max-iterations":
			cfg.MaxIterations = *maxIter
		case "time":
			cfg.TimeLimit = *timeLimit
		case "pricing-time":
			cfg.PricingTimeLimit = *pricingTime
		case "mip-time":
			cfg.MIPTimeLimit = *mipTime
		case "2opt":
			cfg.ImproveRoutes = *improve
		case "gap":
			cfg.GapTolerance = *gap
		case "greedy":
			cfg.Greedy = *greedy
		case "compact":
			cfg.Compact = *compact
		case "metrics":
			cfg.MetricsFile = *metricsFile
		case "log-level":
			cfg.LogLevel = *logLevel
		case "dev":
			cfg.Development = *dev
		}
	})
	return cfg, cfg.Validate()
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lp, _ := newBackend(cfg.LPBackend, logger)
	_, mip := newBackend(cfg.MIPBackend, logger)
	recorder := metrics.NewRecorder()

	solver := &cvrp.Solver{
		LP:           lp,
		MIP:          mip,
		Pricing:      cfg.Pricing,
		MaxLabels:    cfg.MaxLabels,
		Options:      cfg.Options(),
		MIPTimeLimit: cfg.MIPTimeLimit,
		Greedy:       cfg.Greedy,
		Logger:       logger,
		Observer:     recorder,
	}

	for _, p := range cfg.Instances {
		inst, err := tsplib.Load(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error for instance \"%v\": %v. Skipping...\n", p, err)
			continue
		}
		recorder.ForInstance(p)

		fmt.Printf("Solving %v...\n", p)
		start := time.Now()
		rep, err := solver.Solve(ctx, inst)
		if rep != nil && rep.Generation != nil {
			g := rep.Generation
			fmt.Printf("Column generation: %v (%s) after %d iterations, %d patterns\n",
				g.State, g.Reason, len(g.Iterations), g.Pool.Len())
			fmt.Printf("Relaxation: %f, lower bound: %f\n", g.Objective, g.LowerBound)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "An error occured while solving instance \"%v\": %v\n", p, err)
		} else {
			fmt.Printf("Instance %v (%v):\n%v\n", p, time.Since(start).Round(time.Millisecond), rep.Solution)
		}

		if cfg.Compact {
			sol, err := cvrp.SolveCompact(ctx, inst, mip, cfg.MIPTimeLimit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "An error occured while solving the compact model of \"%v\": %v\n", p, err)
			} else {
				fmt.Printf("Compact model:\n%v\n", sol)
			}
		}
		fmt.Println()
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteToTextfile(cfg.MetricsFile); err != nil {
			logger.Error("writing metrics", zap.Error(err))
		}
	}
}
