package graphgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiuchuy/torchsyn/internal/graph"
)

func TestGenerateValid(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		cfg := DefaultConfig()
		cfg.Seed = seed
		g := Generate(fmt.Sprintf("g%d", seed), cfg)

		require.NoError(t, g.Validate(), "seed %d", seed)
		assert.GreaterOrEqual(t, len(g.Nodes), cfg.MinNodes, "seed %d", seed)
		assert.LessOrEqual(t, len(g.Nodes), cfg.MaxNodes, "seed %d", seed)
		assert.NotEmpty(t, g.Outputs, "seed %d", seed)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42

	a := Generate("g", cfg)
	b := Generate("g", cfg)

	assert.Equal(t, a, b)
}

func TestGenerateUnmapped(t *testing.T) {
	found := false
	for seed := int64(0); seed < 50 && !found; seed++ {
		cfg := DefaultConfig()
		cfg.Seed = seed
		cfg.AllowUnmapped = true
		g := Generate("g", cfg)
		for _, n := range g.Nodes {
			if n.Kind == graph.KindErfinv || n.Kind == graph.KindDigamma {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "no unmapped operator generated across 50 seeds")
}
