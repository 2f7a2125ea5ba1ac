package entitygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semlayer/lattice/internal/model"
)

func TestDetectCycles_DAG(t *testing.T) {
	g := retailGraph(t)
	assert.Empty(t, g.DetectCycles())
}

func TestDetectCycles_EmptyGraph(t *testing.T) {
	assert.Empty(t, New().DetectCycles())
}

// TestDetectCycles_MutualDimensions builds two dimensions that source
// each other, a dependency loop that can never be materialized.
func TestDetectCycles_MutualDimensions(t *testing.T) {
	m := retailModel()
	m.Dimensions = append(m.Dimensions,
		model.Dimension{Name: "alpha", SourceEntity: "beta", Key: "id"},
		model.Dimension{Name: "beta", SourceEntity: "alpha", Key: "id"},
	)

	g, err := Build(m)
	require.NoError(t, err)

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, cycles[0])
}

func TestValidate_ReportsCycle(t *testing.T) {
	m := retailModel()
	m.Dimensions = append(m.Dimensions,
		model.Dimension{Name: "alpha", SourceEntity: "beta", Key: "id"},
		model.Dimension{Name: "beta", SourceEntity: "alpha", Key: "id"},
	)

	g, err := Build(m)
	require.NoError(t, err)

	var cyclic []model.ValidationError
	for _, e := range g.Validate() {
		if e.Code == model.ErrCyclicDependency {
			cyclic = append(cyclic, e)
		}
	}
	assert.NotEmpty(t, cyclic, "cycles surface as M-series validation errors")
}
