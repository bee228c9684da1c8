package abstraction

import (
	"github.com/zeu5/state-abs/mdp"
	"github.com/zeu5/state-abs/types"
)

// fakePlan is a hand written planner output
type fakePlan struct {
	states  []types.State
	actions []types.Action
	values  map[string]float64
	q       map[string]map[string]float64
	optimal map[string][]types.Action
}

var _ types.Plan = &fakePlan{}

func newFakePlan(actions ...types.Action) *fakePlan {
	return &fakePlan{
		states:  make([]types.State, 0),
		actions: actions,
		values:  make(map[string]float64),
		q:       make(map[string]map[string]float64),
		optimal: make(map[string][]types.Action),
	}
}

// add registers a state with its value, Q values in action order and optimal actions
func (f *fakePlan) add(s types.State, value float64, qs []float64, optimal ...types.Action) *fakePlan {
	f.states = append(f.states, s)
	f.values[s.Hash()] = value
	f.q[s.Hash()] = make(map[string]float64)
	for i, a := range f.actions {
		if i < len(qs) {
			f.q[s.Hash()][a.Hash()] = qs[i]
		}
	}
	f.optimal[s.Hash()] = optimal
	return f
}

func (f *fakePlan) States() []types.State {
	return f.states
}

func (f *fakePlan) Actions() []types.Action {
	return f.actions
}

func (f *fakePlan) Value(s types.State) float64 {
	return f.values[s.Hash()]
}

func (f *fakePlan) QValue(s types.State, a types.Action) float64 {
	return f.q[s.Hash()][a.Hash()]
}

func (f *fakePlan) OptimalActions(s types.State) []types.Action {
	return f.optimal[s.Hash()]
}

// pairPredicate holds exactly for the listed unordered pairs of hashes
func pairPredicate(pairs ...[2]string) Predicate {
	set := make(map[[2]string]bool)
	for _, p := range pairs {
		set[p] = true
		set[[2]string{p[1], p[0]}] = true
	}
	return NewPredicateFunc("pairs", func(s1, s2 types.State, _ types.Plan, _ []types.Action, _ float64) (bool, error) {
		return set[[2]string{s1.Hash(), s2.Hash()}], nil
	})
}

func constPredicate(result bool) Predicate {
	return NewPredicateFunc("const", func(_, _ types.State, _ types.Plan, _ []types.Action, _ float64) (bool, error) {
		return result, nil
	})
}

func named(names ...string) []types.State {
	out := make([]types.State, len(names))
	for i, n := range names {
		out[i] = mdp.Named(n)
	}
	return out
}

// planOver enumerates the named states in order with zero values
func planOver(names ...string) *fakePlan {
	p := newFakePlan(mdp.Named("a0"))
	for _, s := range named(names...) {
		p.add(s, 0, []float64{0}, mdp.Named("a0"))
	}
	return p
}

// abstractionOf builds an abstraction over the union of the blocks,
// one cluster per block
func abstractionOf(blocks ...[]string) *StateAbstraction {
	all := make([]string, 0)
	for _, b := range blocks {
		all = append(all, b...)
	}
	sa := NewStateAbstraction(named(all...))
	for _, b := range blocks {
		if _, err := sa.MakeCluster(named(b...)); err != nil {
			panic(err)
		}
	}
	return sa
}

// chainMDP is s1 - s2 - s3 - s4 with s4 the goal. With mirrored set,
// moving left from s2 lands in s1 or its mirror s1' with equal chance
func chainMDP(mirrored bool) *mdp.TabularMDP {
	left, right := mdp.Named("left"), mdp.Named("right")
	s1, s2, s3, s4 := mdp.Named("s1"), mdp.Named("s2"), mdp.Named("s3"), mdp.Named("s4")
	m := mdp.NewTabularMDP("chain", s1, []types.Action{left, right}, 0.9)
	m.AddDeterministic(s1, left, s1, 0).
		AddDeterministic(s1, right, s2, 0).
		AddDeterministic(s2, right, s3, 0).
		AddDeterministic(s3, left, s2, 0).
		AddDeterministic(s3, right, s4, 1).
		SetTerminal(s4)
	if mirrored {
		s1m := mdp.Named("s1'")
		m.AddTransition(s2, left, s1, 0.5, 0).
			AddTransition(s2, left, s1m, 0.5, 0).
			AddDeterministic(s1m, left, s1m, 0).
			AddDeterministic(s1m, right, s2, 0)
	} else {
		m.AddDeterministic(s2, left, s1, 0)
	}
	return m
}
