package grid

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/planning"
	"github.com/zeu5/state-abs/types"
)

func TestMoveBlockedByBordersAndWalls(t *testing.T) {
	config := DefaultGridConfig(3, 3)
	config.Walls = []Position{{1, 1}}
	g := NewGridWorld(config, Position{2, 2})

	assert.Equal(t, Position{0, 0}, g.move(Position{0, 0}, "Down"))
	assert.Equal(t, Position{0, 0}, g.move(Position{0, 0}, "Left"))
	assert.Equal(t, Position{1, 0}, g.move(Position{0, 0}, "Up"))
	assert.Equal(t, Position{0, 1}, g.move(Position{0, 1}, "Up"))
	assert.Equal(t, Position{2, 2}, g.move(Position{2, 2}, "Right"))
}

func TestSlipTransitions(t *testing.T) {
	config := DefaultGridConfig(3, 3)
	config.SlipProb = 0.2
	g := NewGridWorld(config, Position{2, 2})

	out := g.Transitions(&Position{1, 1}, MovementUp)
	require.Len(t, out, 3)
	probs := make(map[string]float64)
	total := 0.0
	for _, tr := range out {
		probs[tr.Next.Hash()] = tr.Prob
		total += tr.Prob
	}
	assert.InDelta(t, 1.0, total, 1e-12)
	assert.InDelta(t, 0.8, probs["(2, 1)"], 1e-12)
	assert.InDelta(t, 0.1, probs["(1, 0)"], 1e-12)
	assert.InDelta(t, 0.1, probs["(1, 2)"], 1e-12)

	// slipping into the border keeps the agent in place
	out = g.Transitions(&Position{0, 0}, MovementRight)
	probs = make(map[string]float64)
	for _, tr := range out {
		probs[tr.Next.Hash()] += tr.Prob
	}
	assert.InDelta(t, 0.1, probs["(0, 0)"], 1e-12)
	assert.InDelta(t, 0.1, probs["(1, 0)"], 1e-12)
}

func TestGoalIsAbsorbing(t *testing.T) {
	config := DefaultGridConfig(2, 2)
	config.StepCost = 0.1
	g := NewGridWorld(config, Position{1, 1})
	goal := &Position{1, 1}

	assert.True(t, g.IsTerminal(goal))
	assert.Equal(t, []types.Transition{{Next: goal, Prob: 1}}, g.Transitions(goal, MovementDown))
	assert.InDelta(t, 0.9, g.Reward(&Position{0, 1}, MovementUp, goal), 1e-12)
	assert.InDelta(t, -0.1, g.Reward(&Position{0, 0}, MovementUp, &Position{1, 0}), 1e-12)
	assert.Equal(t, "grid-2x2-goals[{1 1}]", g.Name())
}

func TestGoalDistribution(t *testing.T) {
	d, err := GoalDistribution(DefaultGridConfig(3, 3), []Position{{2, 2}, {0, 2}})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, 0.5, d.ProbabilityOf(1))
	assert.True(t, d.Instances()[1].(*GridWorld).IsGoal(Position{0, 2}))
}

func TestMultiGoalAbstractionRefinesEachGoal(t *testing.T) {
	config := DefaultGridConfig(3, 3)
	goals := []Position{{2, 2}, {0, 2}}
	dist, err := GoalDistribution(config, goals)
	require.NoError(t, err)
	planner := planning.NewValueIteration(planning.DefaultValueIterationConfig())
	builder := abstraction.DefaultBuilderConfig()
	builder.Epsilon = 1e-6
	builder.TrackOptimalActions = true

	merged, err := abstraction.BuildMultiTask(context.Background(), dist, planner, abstraction.QApprox(), builder)
	require.NoError(t, err)
	assert.Equal(t, 9, merged.NumGroundStates())

	for _, m := range dist.Instances() {
		single, err := abstraction.BuildFromMDP(context.Background(), m, planner, abstraction.QApprox(), builder)
		require.NoError(t, err)
		assert.True(t, merged.Partition().Refines(single.Partition()))
		assert.LessOrEqual(t, single.NumAbstractStates(), merged.NumAbstractStates())
	}
	for _, s := range merged.GroundStates() {
		record, ok := merged.OptimalActions(s)
		require.True(t, ok)
		assert.InDelta(t, 1.0, record.Weight(), 1e-9)
	}
}

func TestAbstractionDataSet(t *testing.T) {
	config := DefaultGridConfig(2, 3)
	config.Walls = []Position{{0, 1}}
	g := NewGridWorld(config, Position{1, 2})

	planner := planning.NewValueIteration(planning.DefaultValueIterationConfig())
	sa, err := abstraction.BuildFromMDP(context.Background(), g, planner, abstraction.VApprox(), abstraction.DefaultBuilderConfig())
	require.NoError(t, err)

	d, err := NewAbstractionDataSet(g, sa)
	require.NoError(t, err)
	c, r := d.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.True(t, math.IsNaN(d.Z(1, 0)), "wall has no abstract state")
	assert.False(t, math.IsNaN(d.Z(0, 0)))
	assert.Equal(t, float64(sa.NumAbstractStates()-1), d.Max())

	lines := strings.Split(strings.TrimRight(d.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "*")
	assert.Contains(t, lines[1], "#")
}

func TestSavePlot(t *testing.T) {
	config := DefaultGridConfig(3, 3)
	config.Walls = []Position{{1, 1}}
	g := NewGridWorld(config, Position{2, 2})
	planner := planning.NewValueIteration(planning.DefaultValueIterationConfig())
	sa, err := abstraction.BuildFromMDP(context.Background(), g, planner, abstraction.QApprox(), abstraction.DefaultBuilderConfig())
	require.NoError(t, err)
	d, err := NewAbstractionDataSet(g, sa)
	require.NoError(t, err)

	savePath := filepath.Join(t.TempDir(), "plots", "abstraction.png")
	require.NoError(t, d.SavePlot("q-approx", savePath))
	info, err := os.Stat(savePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSavePlotSingleAbstractState(t *testing.T) {
	g := NewGridWorld(DefaultGridConfig(2, 2), Position{1, 1})
	planner := planning.NewValueIteration(planning.DefaultValueIterationConfig())
	builder := abstraction.DefaultBuilderConfig()
	builder.Epsilon = 10
	sa, err := abstraction.BuildFromMDP(context.Background(), g, planner, abstraction.VApprox(), builder)
	require.NoError(t, err)
	require.Equal(t, 1, sa.NumAbstractStates())
	d, err := NewAbstractionDataSet(g, sa)
	require.NoError(t, err)

	savePath := filepath.Join(t.TempDir(), "single.svg")
	require.NoError(t, d.SavePlot("v-approx", savePath))
	_, err = os.Stat(savePath)
	assert.NoError(t, err)
}
