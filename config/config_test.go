package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/grid"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
predicate: q-approx+a-star
epsilon: 0.01
consolidation: transitive
track_optimal_actions: true
grid:
  height: 4
  width: 6
  goals:
    - {i: 3, j: 5}
    - {i: 0, j: 5}
  walls:
    - {i: 1, j: 1}
  slip_prob: 0.1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "q-approx+a-star", cfg.Predicate)
	assert.Equal(t, 0.01, cfg.Epsilon)
	assert.True(t, cfg.TrackOptimalActions)
	assert.Equal(t, 4, cfg.Grid.Height)
	assert.Len(t, cfg.Grid.Goals, 2)
	// untouched fields keep their defaults
	assert.Equal(t, 0.95, cfg.Grid.Discount)
	assert.Equal(t, 1000, cfg.Planner.MaxIterations)

	builder := cfg.BuilderConfig(zap.NewNop())
	assert.Equal(t, abstraction.Transitive, builder.Consolidation)
	assert.Equal(t, []grid.Position{{I: 3, J: 5}, {I: 0, J: 5}}, cfg.GoalPositions())
	gc := cfg.GridConfig()
	assert.Equal(t, []grid.Position{{I: 1, J: 1}}, gc.Walls)
	assert.Equal(t, 0.1, gc.SlipProb)

	p, err := cfg.PredicateImpl()
	require.NoError(t, err)
	assert.Equal(t, "q-approx+a-star", p.Name())
	assert.Equal(t, cfg.Planner.Delta, cfg.ValueIterationConfig(nil).Delta)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"negative epsilon":  "epsilon: -1\n",
		"unknown predicate": "predicate: bisimulation\n",
		"bad consolidation": "consolidation: greedy\n",
		"goal off grid":     "grid:\n  goals:\n    - {i: 9, j: 0}\n",
		"no goals":          "grid:\n  goals: []\n",
		"bad discount":      "grid:\n  discount: 1.5\n",
		"bad yaml":          "grid: [\n",
		"goal on wall":      "grid:\n  walls:\n    - {i: 4, j: 4}\n",
		"start on wall":     "grid:\n  walls:\n    - {i: 0, j: 0}\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateRejectsWallOverlap(t *testing.T) {
	cfg := Default()
	cfg.Grid.Walls = []Position{{I: 2, J: 2}}
	require.NoError(t, cfg.Validate())

	cfg.Grid.Goals = append(cfg.Grid.Goals, Position{I: 2, J: 2})
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal (2, 2) is a wall")

	cfg = Default()
	cfg.Grid.Walls = []Position{cfg.Grid.Start}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start (0, 0) is a wall")
}
