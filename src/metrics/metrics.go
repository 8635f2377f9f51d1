// Package metrics exposes column generation progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vrp_column_generation/src/cvrp"
)

// Recorder implements cvrp.Observer on a dedicated registry. One Recorder
// can observe several runs; the instance label keeps them apart.
type Recorder struct {
	Registry *prometheus.Registry

	instance string

	iterations         *prometheus.CounterVec
	patterns           *prometheus.GaugeVec
	objective          *prometheus.GaugeVec
	lowerBound         *prometheus.GaugeVec
	reducedCost        *prometheus.GaugeVec
	iterationTime      *prometheus.HistogramVec
	runs               *prometheus.CounterVec
	uncertifiedPricing *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cvrp_colgen_iterations_total", Help: "Column generation iterations."},
			[]string{"instance"},
		),
		patterns: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cvrp_colgen_patterns", Help: "Patterns in the pool."},
			[]string{"instance"},
		),
		objective: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cvrp_colgen_master_objective", Help: "Objective of the last master relaxation."},
			[]string{"instance"},
		),
		lowerBound: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cvrp_colgen_lower_bound", Help: "Best Lagrangian lower bound."},
			[]string{"instance"},
		),
		reducedCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cvrp_colgen_reduced_cost", Help: "Reduced cost of the last priced route."},
			[]string{"instance"},
		),
		iterationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "cvrp_colgen_iteration_duration_seconds", Help: "Master plus pricing time per iteration.", Buckets: prometheus.ExponentialBuckets(0.001, 4, 10)},
			[]string{"instance"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cvrp_colgen_runs_total", Help: "Finished column generation runs by final state."},
			[]string{"instance", "state"},
		),
		uncertifiedPricing: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cvrp_colgen_uncertified_pricing_total", Help: "Iterations whose pricing result was not certified."},
			[]string{"instance"},
		),
	}
	r.Registry.MustRegister(
		r.iterations,
		r.patterns,
		r.objective,
		r.lowerBound,
		r.reducedCost,
		r.iterationTime,
		r.runs,
		r.uncertifiedPricing,
		collectors.NewGoCollector(),
	)
	return r
}

// ForInstance sets the label attached to the following observations.
func (r *Recorder) ForInstance(name string) *Recorder {
	r.instance = name
	return r
}

func (r *Recorder) ObserveIteration(s cvrp.IterationStats) {
	r.iterations.WithLabelValues(r.instance).Inc()
	r.patterns.WithLabelValues(r.instance).Set(float64(s.Patterns))
	r.objective.WithLabelValues(r.instance).Set(s.Objective)
	r.reducedCost.WithLabelValues(r.instance).Set(s.ReducedCost)
	r.iterationTime.WithLabelValues(r.instance).Observe(s.Duration.Seconds())
	if s.Certified {
		r.lowerBound.WithLabelValues(r.instance).Set(s.LowerBound)
	} else {
		r.uncertifiedPricing.WithLabelValues(r.instance).Inc()
	}
}

func (r *Recorder) ObserveResult(res *cvrp.GenerationResult) {
	r.runs.WithLabelValues(r.instance, res.State.String()).Inc()
	r.patterns.WithLabelValues(r.instance).Set(float64(res.Pool.Len()))
}

// WriteToTextfile dumps the registry in the node exporter textfile format.
func (r *Recorder) WriteToTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, r.Registry)
}
