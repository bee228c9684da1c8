package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/state-abs/mdp"
	"github.com/zeu5/state-abs/types"
)

func chain() *mdp.TabularMDP {
	left, right := mdp.Named("left"), mdp.Named("right")
	s1, s2, s3, s4 := mdp.Named("s1"), mdp.Named("s2"), mdp.Named("s3"), mdp.Named("s4")
	m := mdp.NewTabularMDP("chain", s1, []types.Action{left, right}, 0.9)
	m.AddDeterministic(s1, left, s1, 0).
		AddDeterministic(s1, right, s2, 0).
		AddDeterministic(s2, left, s1, 0).
		AddDeterministic(s2, right, s3, 0).
		AddDeterministic(s3, left, s2, 0).
		AddDeterministic(s3, right, s4, 1).
		SetTerminal(s4)
	return m
}

func TestValueIterationChain(t *testing.T) {
	plan, err := NewValueIteration(DefaultValueIterationConfig()).Plan(context.Background(), chain())
	require.NoError(t, err)

	hashes := make([]string, 0)
	for _, s := range plan.States() {
		hashes = append(hashes, s.Hash())
	}
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, hashes)

	want := map[string]float64{"s1": 0.81, "s2": 0.9, "s3": 1, "s4": 0}
	for s, v := range want {
		assert.InDelta(t, v, plan.Value(mdp.Named(s)), 1e-8, s)
	}
	assert.InDelta(t, 0.729, plan.QValue(mdp.Named("s1"), mdp.Named("left")), 1e-8)
	assert.InDelta(t, 0.81, plan.QValue(mdp.Named("s1"), mdp.Named("right")), 1e-8)

	assert.Equal(t, []string{"right"}, types.ActionHashes(plan.OptimalActions(mdp.Named("s2"))))
	// every action ties in the terminal state
	assert.Equal(t, []string{"left", "right"}, types.ActionHashes(plan.OptimalActions(mdp.Named("s4"))))
	assert.Equal(t, 0.0, plan.QValue(mdp.Named("s4"), mdp.Named("right")))
}

func TestValueIterationNoActions(t *testing.T) {
	m := mdp.NewTabularMDP("empty", mdp.Named("s"), nil, 0.9)
	_, err := NewValueIteration(DefaultValueIterationConfig()).Plan(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoActions)
}

func TestValueIterationCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewValueIteration(DefaultValueIterationConfig()).Plan(ctx, chain())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValueIterationFillsDefaults(t *testing.T) {
	v := NewValueIteration(ValueIterationConfig{})
	assert.Equal(t, 1000, v.config.MaxIterations)
	assert.Equal(t, 1e-10, v.config.Delta)
	assert.NotNil(t, v.config.Logger)
}

func TestReachableSkipsTerminalSuccessors(t *testing.T) {
	a := mdp.Named("go")
	m := mdp.NewTabularMDP("line", mdp.Named("x"), []types.Action{a}, 0.5)
	m.AddDeterministic(mdp.Named("x"), a, mdp.Named("y"), 1).
		AddDeterministic(mdp.Named("y"), a, mdp.Named("z"), 1).
		SetTerminal(mdp.Named("y"))
	states := reachable(m)
	require.Len(t, states, 2)
	assert.Equal(t, "y", states[1].Hash())
}

func TestQTable(t *testing.T) {
	q := NewQTable()
	assert.Equal(t, 3.0, q.Get("s", "a", 3))
	assert.False(t, q.HasState("s"))

	q.Set("s", "a", 1)
	q.Set("s", "b", 2)
	q.Set("s", "c", 2)
	assert.True(t, q.HasState("s"))

	action, val := q.MaxAmong("s", []string{"a", "b", "c"}, 0)
	assert.Equal(t, "b", action)
	assert.Equal(t, 2.0, val)

	assert.Equal(t, []string{"b", "c"}, q.ArgMaxAmong("s", []string{"a", "b", "c"}, 0))
	assert.Equal(t, []string{"a", "b", "c"}, q.ArgMaxAmong("s", []string{"a", "b", "c"}, 1))

	action, val = q.MaxAmong("s", nil, -1)
	assert.Equal(t, "", action)
	assert.Equal(t, -1.0, val)
}
