package types

import "context"

// State of a decision process
type State interface {
	// Indexed by the Hash
	// Should be deterministic, two states are equal iff their hashes are
	Hash() string
	// Actions possible from the state
	Actions() []Action
}

// An Action that can be taken in a state
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

// Transition is one possible outcome of taking an action
type Transition struct {
	Next State
	Prob float64
}

// MDP is a finite decision process that can be planned over
type MDP interface {
	Name() string
	InitialState() State
	// All actions of the process, in a fixed order
	Actions() []Action
	// Outcome distribution of taking the action in the state.
	// Probabilities should sum to 1
	Transitions(State, Action) []Transition
	Reward(State, Action, State) float64
	IsTerminal(State) bool
	Discount() float64
}

// Plan is the output of a planner run over one MDP
type Plan interface {
	// Enumeration of the ground states, deterministic across calls
	States() []State
	Value(State) float64
	QValue(State, Action) float64
	// Actions tied for the best Q value
	OptimalActions(State) []Action
	// Actions of the planned process
	Actions() []Action
}

// Planner computes values and optimal actions for a decision process
type Planner interface {
	Plan(context.Context, MDP) (Plan, error)
}

// ActionHashes returns the hashes of the actions in the same order
func ActionHashes(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Hash()
	}
	return out
}
