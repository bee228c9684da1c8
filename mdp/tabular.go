// Package mdp contains an explicitly enumerated decision process.
// Useful for small hand written processes such as chains
package mdp

import (
	"fmt"

	"github.com/zeu5/state-abs/types"
)

// Named is both a State and an Action identified by its name
type Named string

var _ types.State = Named("")
var _ types.Action = Named("")

func (n Named) Hash() string {
	return string(n)
}

// Actions of a Named state are resolved by the TabularMDP, not the state
func (n Named) Actions() []types.Action {
	return nil
}

type outcome struct {
	next   string
	prob   float64
	reward float64
}

// TabularMDP stores transitions and rewards in tables keyed by hashes
type TabularMDP struct {
	name     string
	initial  types.State
	actions  []types.Action
	discount float64

	states   map[string]types.State
	table    map[string]map[string][]outcome
	terminal map[string]bool
}

var _ types.MDP = &TabularMDP{}

func NewTabularMDP(name string, initial types.State, actions []types.Action, discount float64) *TabularMDP {
	t := &TabularMDP{
		name:     name,
		initial:  initial,
		actions:  actions,
		discount: discount,
		states:   make(map[string]types.State),
		table:    make(map[string]map[string][]outcome),
		terminal: make(map[string]bool),
	}
	t.states[initial.Hash()] = initial
	return t
}

// AddTransition adds an outcome of taking action a in state from
func (t *TabularMDP) AddTransition(from types.State, a types.Action, to types.State, prob, reward float64) *TabularMDP {
	fromKey := from.Hash()
	t.states[fromKey] = from
	t.states[to.Hash()] = to
	if _, ok := t.table[fromKey]; !ok {
		t.table[fromKey] = make(map[string][]outcome)
	}
	t.table[fromKey][a.Hash()] = append(t.table[fromKey][a.Hash()], outcome{
		next:   to.Hash(),
		prob:   prob,
		reward: reward,
	})
	return t
}

// AddDeterministic is AddTransition with probability 1
func (t *TabularMDP) AddDeterministic(from types.State, a types.Action, to types.State, reward float64) *TabularMDP {
	return t.AddTransition(from, a, to, 1, reward)
}

// SetTerminal marks the state as absorbing
func (t *TabularMDP) SetTerminal(s types.State) *TabularMDP {
	t.states[s.Hash()] = s
	t.terminal[s.Hash()] = true
	return t
}

func (t *TabularMDP) Name() string {
	return t.name
}

func (t *TabularMDP) InitialState() types.State {
	return t.initial
}

func (t *TabularMDP) Actions() []types.Action {
	return t.actions
}

func (t *TabularMDP) Discount() float64 {
	return t.discount
}

func (t *TabularMDP) IsTerminal(s types.State) bool {
	return t.terminal[s.Hash()]
}

// Transitions of an undefined (state, action) pair is a self loop
func (t *TabularMDP) Transitions(s types.State, a types.Action) []types.Transition {
	outcomes, ok := t.table[s.Hash()][a.Hash()]
	if !ok || t.terminal[s.Hash()] {
		return []types.Transition{{Next: s, Prob: 1}}
	}
	out := make([]types.Transition, len(outcomes))
	for i, o := range outcomes {
		out[i] = types.Transition{Next: t.states[o.next], Prob: o.prob}
	}
	return out
}

func (t *TabularMDP) Reward(s types.State, a types.Action, next types.State) float64 {
	for _, o := range t.table[s.Hash()][a.Hash()] {
		if o.next == next.Hash() {
			return o.reward
		}
	}
	return 0
}

func (t *TabularMDP) String() string {
	return fmt.Sprintf("%s(%d states)", t.name, len(t.states))
}
