package tsplib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrp_column_generation/src/cvrp"
)

const unitSquare = `NAME : unit-square
COMMENT : depot plus three clients
TYPE : CVRP
DIMENSION : 4
EDGE_WEIGHT_TYPE : EUC_2D
CAPACITY : 10
NODE_COORD_SECTION
 1 0 0
 2 1 0
 3 1 1
 4 0 1
DEMAND_SECTION
1 0
2 3
3 4
4 5
DEPOT_SECTION
 1
 -1
EOF
`

func TestParse(t *testing.T) {
	inst, err := Parse(strings.NewReader(unitSquare))
	require.NoError(t, err)

	assert.Equal(t, "unit-square", inst.Name)
	assert.Equal(t, 1, inst.Depot)
	assert.Equal(t, 10, inst.Capacity)
	assert.Equal(t, []int{2, 3, 4}, inst.Clients())
	assert.Equal(t, 12, inst.TotalDemand())
	assert.InDelta(t, 1.0, inst.Cost(3, 4), 1e-12)
}

func TestWriteRoundTrip(t *testing.T) {
	inst, err := cvrp.NewInstance([]cvrp.Node{
		{ID: 5, X: 2.5, Y: -1},
		{ID: 1, X: 0, Y: 0, Demand: 7},
		{ID: 9, X: 1e3, Y: 0.125, Demand: 2},
	}, 5, 15)
	require.NoError(t, err)
	inst.Name = "round-trip"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, inst))

	back, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, inst.Name, back.Name)
	assert.Equal(t, inst.Depot, back.Depot)
	assert.Equal(t, inst.Capacity, back.Capacity)
	assert.Equal(t, inst.Nodes(), back.Nodes())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{
			name:  "bad capacity",
			input: "DIMENSION : 2\nCAPACITY : ten\n",
			line:  2,
		},
		{
			name:  "bad coordinate",
			input: "DIMENSION : 2\nCAPACITY : 10\nNODE_COORD_SECTION\n1 0 0\n2 x 0\n",
			line:  5,
		},
		{
			name:  "unknown demand node",
			input: "DIMENSION : 1\nCAPACITY : 10\nNODE_COORD_SECTION\n1 0 0\nDEMAND_SECTION\n3 1\n",
			line:  6,
		},
		{
			name:  "unsupported weights",
			input: "EDGE_WEIGHT_TYPE : EXPLICIT\n",
			line:  1,
		},
		{
			name:  "data outside a section",
			input: "DIMENSION : 2\n1 0 0\n",
			line:  2,
		},
		{
			name:  "missing colon",
			input: "DIMENSION 2\n",
			line:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestParse_Incomplete(t *testing.T) {
	tests := map[string]string{
		"two depots":       strings.Replace(unitSquare, " 1\n -1", " 1\n 2\n -1", 1),
		"unterminated":     strings.Replace(unitSquare, " -1\nEOF\n", "", 1),
		"missing demand":   strings.Replace(unitSquare, "4 5\n", "", 1),
		"dimension":        strings.Replace(unitSquare, "DIMENSION : 4", "DIMENSION : 5", 1),
		"depot has demand": strings.Replace(unitSquare, "1 0\n2 3", "1 2\n2 3", 1),
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}
