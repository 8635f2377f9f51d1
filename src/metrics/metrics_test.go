package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrp_column_generation/src/cvrp"
	"vrp_column_generation/src/lpsolve"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder().ForInstance("toy")

	r.ObserveIteration(cvrp.IterationStats{Iteration: 1, Objective: 8, ReducedCost: -1.5, Certified: true, LowerBound: 3.5, Patterns: 4, Duration: time.Millisecond})
	r.ObserveIteration(cvrp.IterationStats{Iteration: 2, Objective: 6, ReducedCost: 0.2, Patterns: 4, Duration: time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.iterations.WithLabelValues("toy")))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.objective.WithLabelValues("toy")))
	assert.Equal(t, 3.5, testutil.ToFloat64(r.lowerBound.WithLabelValues("toy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.uncertifiedPricing.WithLabelValues("toy")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.iterationTime))
}

func TestRecorderObservesRun(t *testing.T) {
	inst, err := cvrp.NewInstance([]cvrp.Node{
		{ID: 1},
		{ID: 2, X: 1, Demand: 3},
		{ID: 3, X: 1, Y: 1, Demand: 4},
		{ID: 4, Y: 1, Demand: 5},
	}, 1, 10)
	require.NoError(t, err)

	r := NewRecorder().ForInstance("square")
	s := lpsolve.NewSimplex()
	cg := cvrp.NewColumnGeneration(cvrp.NewMaster(inst, s, s), cvrp.NewLabelingPricer(inst), cvrp.DefaultOptions())
	cg.Observer = r

	res, err := cg.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(len(res.Iterations)), testutil.ToFloat64(r.iterations.WithLabelValues("square")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("square", "Converged")))
	assert.Equal(t, float64(res.Pool.Len()), testutil.ToFloat64(r.patterns.WithLabelValues("square")))

	out := filepath.Join(t.TempDir(), "cvrp.prom")
	require.NoError(t, r.WriteToTextfile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cvrp_colgen_runs_total")
}
