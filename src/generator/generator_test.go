package main

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrp_column_generation/src/tsplib"
)

func TestGenerateCVRPInstance(t *testing.T) {
	inst, err := GenerateCVRPInstance(rand.New(rand.NewSource(7)), "gen", 12, 30, 9, 50)
	require.NoError(t, err)

	assert.Equal(t, 12, inst.NumClients())
	for _, n := range inst.Nodes() {
		assert.GreaterOrEqual(t, n.X, 0.0)
		assert.LessOrEqual(t, n.X, 50.0)
		if n.ID == inst.Depot {
			continue
		}
		assert.GreaterOrEqual(t, n.Demand, 1)
		assert.LessOrEqual(t, n.Demand, 9)
	}

	file := filepath.Join(t.TempDir(), "gen.vrp")
	require.NoError(t, tsplib.Save(file, inst))
	back, err := tsplib.Load(file)
	require.NoError(t, err)
	assert.Equal(t, inst.Nodes(), back.Nodes())
	assert.Equal(t, "gen", back.Name)
}
