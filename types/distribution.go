package types

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// tolerance on the sum of task probabilities
const probabilityTolerance = 1e-6

var (
	ErrEmptyDistribution   = errors.New("task distribution has no instances")
	ErrInvalidProbability  = errors.New("invalid task probability")
	ErrProbabilityMismatch = errors.New("number of probabilities does not match number of instances")
)

// TaskDistribution is a finite set of decision processes paired
// with the probability of each of them being the task at hand
type TaskDistribution struct {
	instances []MDP
	probs     []float64
}

// NewTaskDistribution validates that the probabilities are in [0,1] and sum to 1
func NewTaskDistribution(instances []MDP, probs []float64) (*TaskDistribution, error) {
	if len(instances) == 0 {
		return nil, ErrEmptyDistribution
	}
	if len(instances) != len(probs) {
		return nil, fmt.Errorf("%w: %d instances, %d probabilities", ErrProbabilityMismatch, len(instances), len(probs))
	}
	for i, p := range probs {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: %f for task %s", ErrInvalidProbability, p, instances[i].Name())
		}
	}
	if sum := floats.Sum(probs); !scalar.EqualWithinAbs(sum, 1, probabilityTolerance) {
		return nil, fmt.Errorf("%w: probabilities sum to %f", ErrInvalidProbability, sum)
	}
	d := &TaskDistribution{
		instances: make([]MDP, len(instances)),
		probs:     make([]float64, len(probs)),
	}
	copy(d.instances, instances)
	copy(d.probs, probs)
	return d, nil
}

// NewUniformDistribution assigns the same probability to every instance
func NewUniformDistribution(instances ...MDP) (*TaskDistribution, error) {
	if len(instances) == 0 {
		return nil, ErrEmptyDistribution
	}
	probs := make([]float64, len(instances))
	for i := range probs {
		probs[i] = 1 / float64(len(instances))
	}
	return NewTaskDistribution(instances, probs)
}

// Instances returns the decision processes in their fixed order
func (d *TaskDistribution) Instances() []MDP {
	out := make([]MDP, len(d.instances))
	copy(out, d.instances)
	return out
}

// Len is the number of instances
func (d *TaskDistribution) Len() int {
	return len(d.instances)
}

// ProbabilityOf returns the probability of the i-th instance, 0 when out of range
func (d *TaskDistribution) ProbabilityOf(i int) float64 {
	if i < 0 || i >= len(d.probs) {
		return 0
	}
	return d.probs[i]
}

// ProbabilityOfName returns the summed probability of all instances with the given name
func (d *TaskDistribution) ProbabilityOfName(name string) float64 {
	p := 0.0
	for i, m := range d.instances {
		if m.Name() == name {
			p += d.probs[i]
		}
	}
	return p
}

// Sample draws one instance according to the probabilities.
// A nil source uses a time seeded one
func (d *TaskDistribution) Sample(src rand.Source) MDP {
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	weights := make([]float64, len(d.probs))
	copy(weights, d.probs)
	i, ok := sampleuv.NewWeighted(weights, src).Take()
	if !ok {
		// only when every weight is zero, which validation rules out
		return d.instances[0]
	}
	return d.instances[i]
}
