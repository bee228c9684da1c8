package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type namedMDP string

var _ MDP = namedMDP("")

func (n namedMDP) Name() string { return string(n) }
func (n namedMDP) InitialState() State { return nil }
func (n namedMDP) Actions() []Action { return nil }
func (n namedMDP) Transitions(State, Action) []Transition { return nil }
func (n namedMDP) Reward(State, Action, State) float64 { return 0 }
func (n namedMDP) IsTerminal(State) bool { return false }
func (n namedMDP) Discount() float64 { return 1 }

func TestNewTaskDistributionValidates(t *testing.T) {
	_, err := NewTaskDistribution(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	_, err = NewTaskDistribution([]MDP{namedMDP("a")}, []float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrProbabilityMismatch)

	_, err = NewTaskDistribution([]MDP{namedMDP("a"), namedMDP("b")}, []float64{1.5, -0.5})
	assert.ErrorIs(t, err, ErrInvalidProbability)

	_, err = NewTaskDistribution([]MDP{namedMDP("a"), namedMDP("b")}, []float64{0.5, 0.4})
	assert.ErrorIs(t, err, ErrInvalidProbability)

	d, err := NewTaskDistribution([]MDP{namedMDP("a"), namedMDP("b")}, []float64{0.25, 0.75})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 0.75, d.ProbabilityOf(1))
	assert.Equal(t, 0.0, d.ProbabilityOf(2))
}

func TestUniformDistribution(t *testing.T) {
	d, err := NewUniformDistribution(namedMDP("a"), namedMDP("b"), namedMDP("a"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, d.ProbabilityOf(0), 1e-12)
	assert.InDelta(t, 2.0/3, d.ProbabilityOfName("a"), 1e-12)
	assert.Equal(t, 0.0, d.ProbabilityOfName("c"))

	_, err = NewUniformDistribution()
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestInstancesKeepOrder(t *testing.T) {
	d, err := NewUniformDistribution(namedMDP("b"), namedMDP("a"))
	require.NoError(t, err)
	instances := d.Instances()
	assert.Equal(t, "b", instances[0].Name())
	assert.Equal(t, "a", instances[1].Name())

	// the returned slice is a copy
	instances[0] = namedMDP("c")
	assert.Equal(t, "b", d.Instances()[0].Name())
}

func TestSampleFollowsProbabilities(t *testing.T) {
	d, err := NewTaskDistribution([]MDP{namedMDP("never"), namedMDP("always")}, []float64{0, 1})
	require.NoError(t, err)
	src := rand.NewSource(1)
	for i := 0; i < 20; i++ {
		assert.Equal(t, "always", d.Sample(src).Name())
	}
	assert.Equal(t, "always", d.Sample(nil).Name())
	// sampling does not consume the stored probabilities
	assert.Equal(t, 1.0, d.ProbabilityOf(1))
}

func TestActionHashes(t *testing.T) {
	assert.Empty(t, ActionHashes(nil))
}
