// Package config holds the run configuration of the cvrp_solve command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vrp_column_generation/src/cvrp"
)

type Backend string

const (
	SimplexBackend Backend = "simplex"
	HighsBackend   Backend = "highs"
	LpSolveBackend Backend = "lpsolve"
)

type Config struct {
	Instances []string `yaml:"instances"`
	// LPBackend solves master relaxations; lp_solve is not allowed here as
	// it reports no duals.
	LPBackend  Backend          `yaml:"lp_backend"`
	MIPBackend Backend          `yaml:"mip_backend"`
	Pricing    cvrp.PricingKind `yaml:"pricing"`
	MaxLabels  int              `yaml:"max_labels"`

	Epsilon          float64       `yaml:"epsilon"`
	MaxPatterns      int           `yaml:"max_patterns"`
	MaxIterations    int           `yaml:"max_iterations"`
	TimeLimit        time.Duration `yaml:"time_limit"`
	PricingTimeLimit time.Duration `yaml:"pricing_time_limit"`
	MIPTimeLimit     time.Duration `yaml:"mip_time_limit"`
	ImproveRoutes    bool          `yaml:"improve_routes"`
	GapTolerance     float64       `yaml:"gap_tolerance"`
	Greedy           bool          `yaml:"greedy_fallback"`
	// Compact also solves the compact MTZ model for comparison.
	Compact bool `yaml:"compact"`

	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`
	MetricsFile string `yaml:"metrics_file"`
}

func Default() *Config {
	return &Config{
		LPBackend:   SimplexBackend,
		MIPBackend:  SimplexBackend,
		Pricing:     cvrp.LabelingPricing,
		Epsilon:     cvrp.DefaultEpsilon,
		MaxPatterns: cvrp.DefaultMaxPatterns,
		Greedy:      true,
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LPBackend {
	case SimplexBackend, HighsBackend:
	default:
		errs = append(errs, fmt.Errorf("lp_backend %q: want simplex or highs", c.LPBackend))
	}
	switch c.MIPBackend {
	case SimplexBackend, HighsBackend, LpSolveBackend:
	default:
		errs = append(errs, fmt.Errorf("mip_backend %q: want simplex, highs or lpsolve", c.MIPBackend))
	}
	switch c.Pricing {
	case cvrp.LabelingPricing, cvrp.MIPPricing:
	default:
		errs = append(errs, fmt.Errorf("pricing %q: want labeling or mip", c.Pricing))
	}
	if c.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("epsilon %v is negative", c.Epsilon))
	}
	if c.MaxPatterns < 0 || c.MaxIterations < 0 || c.MaxLabels < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if c.TimeLimit < 0 || c.PricingTimeLimit < 0 || c.MIPTimeLimit < 0 {
		errs = append(errs, errors.New("time limits must not be negative"))
	}
	if c.GapTolerance < 0 {
		errs = append(errs, fmt.Errorf("gap_tolerance %v is negative", c.GapTolerance))
	}
	if len(c.Instances) == 0 {
		errs = append(errs, errors.New("no instances given"))
	}
	return errors.Join(errs...)
}

func (c *Config) Options() cvrp.Options {
	return cvrp.Options{
		Epsilon:          c.Epsilon,
		MaxPatterns:      c.MaxPatterns,
		MaxIterations:    c.MaxIterations,
		TimeLimit:        c.TimeLimit,
		PricingTimeLimit: c.PricingTimeLimit,
		ImproveRoutes:    c.ImproveRoutes,
		GapTolerance:     c.GapTolerance,
	}
}
