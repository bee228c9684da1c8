package abstraction

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeu5/state-abs/types"
	"github.com/zeu5/state-abs/util"
	"gonum.org/v1/gonum/floats"
)

// AbstractState identifies one cluster of a StateAbstraction.
// Identifiers are dense, starting at 0, in the order clusters were made
type AbstractState int

// OptimalActions records the union of the optimal actions of a ground
// state across tasks, together with the probability mass of each task
// that contributed
type OptimalActions struct {
	actions map[string]types.Action
	weights map[string]float64
}

func newOptimalActions() *OptimalActions {
	return &OptimalActions{
		actions: make(map[string]types.Action),
		weights: make(map[string]float64),
	}
}

// Hashes of the recorded actions, sorted
func (o *OptimalActions) Hashes() []string {
	out := make([]string, 0, len(o.actions))
	for k := range o.actions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Actions sorted by hash
func (o *OptimalActions) Actions() []types.Action {
	keys := o.Hashes()
	out := make([]types.Action, len(keys))
	for i, k := range keys {
		out[i] = o.actions[k]
	}
	return out
}

func (o *OptimalActions) Contains(action string) bool {
	_, ok := o.actions[action]
	return ok
}

// Weight is the cumulative probability mass of the contributing tasks
func (o *OptimalActions) Weight() float64 {
	tasks := make([]string, 0, len(o.weights))
	for t := range o.weights {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	w := make([]float64, len(tasks))
	for i, t := range tasks {
		w[i] = o.weights[t]
	}
	return floats.Sum(w)
}

// Tasks that contributed to the record, sorted
func (o *OptimalActions) Tasks() []string {
	out := make([]string, 0, len(o.weights))
	for t := range o.weights {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (o *OptimalActions) add(actions []types.Action, task string, weight float64) {
	for _, a := range actions {
		o.actions[a.Hash()] = a
	}
	o.weights[task] = weight
}

func (o *OptimalActions) merge(other *OptimalActions) {
	for k, a := range other.actions {
		o.actions[k] = a
	}
	for t, w := range other.weights {
		o.weights[t] = w
	}
}

func (o *OptimalActions) copy() *OptimalActions {
	c := newOptimalActions()
	c.merge(o)
	return c
}

// StateAbstraction maps the ground states of a decision process to
// abstract states. The mapping is fixed once built, only the optimal
// action bookkeeping can be extended afterwards
type StateAbstraction struct {
	// ground states indexed by hash, and their enumeration order
	states map[string]types.State
	order  []string

	phi      map[string]AbstractState
	clusters [][]string

	lock    *sync.RWMutex
	optimal map[string]*OptimalActions
}

// NewStateAbstraction creates an abstraction over the given ground
// states with no clusters yet. Duplicate states are ignored
func NewStateAbstraction(states []types.State) *StateAbstraction {
	sa := &StateAbstraction{
		states:   make(map[string]types.State, len(states)),
		order:    make([]string, 0, len(states)),
		phi:      make(map[string]AbstractState, len(states)),
		clusters: make([][]string, 0),
		lock:     new(sync.RWMutex),
		optimal:  make(map[string]*OptimalActions),
	}
	for _, s := range states {
		key := s.Hash()
		if _, ok := sa.states[key]; ok {
			continue
		}
		sa.states[key] = s
		sa.order = append(sa.order, key)
	}
	return sa
}

// MakeCluster assigns a fresh abstract state to all the members
func (sa *StateAbstraction) MakeCluster(members []types.State) (AbstractState, error) {
	if len(members) == 0 {
		return 0, ErrEmptyCluster
	}
	keys := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		key := m.Hash()
		if _, ok := sa.states[key]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownState, key)
		}
		if a, ok := sa.phi[key]; ok {
			return 0, fmt.Errorf("%w: %s is in abstract state %d", ErrDoubleAssignment, key, a)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	id := AbstractState(len(sa.clusters))
	for _, key := range keys {
		sa.phi[key] = id
	}
	sa.clusters = append(sa.clusters, keys)
	return id, nil
}

// Phi returns the abstract state of a ground state
func (sa *StateAbstraction) Phi(s types.State) (AbstractState, error) {
	a, ok := sa.phi[s.Hash()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownState, s.Hash())
	}
	return a, nil
}

// PhiHash is Phi for a ground state identified by its hash
func (sa *StateAbstraction) PhiHash(key string) (AbstractState, error) {
	a, ok := sa.phi[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownState, key)
	}
	return a, nil
}

// GroundStates in enumeration order
func (sa *StateAbstraction) GroundStates() []types.State {
	out := make([]types.State, len(sa.order))
	for i, key := range sa.order {
		out[i] = sa.states[key]
	}
	return out
}

func (sa *StateAbstraction) NumGroundStates() int {
	return len(sa.order)
}

func (sa *StateAbstraction) NumAbstractStates() int {
	return len(sa.clusters)
}

// Cluster returns the ground states mapped to the abstract state
func (sa *StateAbstraction) Cluster(a AbstractState) ([]types.State, error) {
	if a < 0 || int(a) >= len(sa.clusters) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAbstractState, a)
	}
	keys := sa.clusters[a]
	out := make([]types.State, len(keys))
	for i, key := range keys {
		out[i] = sa.states[key]
	}
	return out, nil
}

// Clusters indexed by abstract state
func (sa *StateAbstraction) Clusters() [][]types.State {
	out := make([][]types.State, len(sa.clusters))
	for i := range sa.clusters {
		out[i], _ = sa.Cluster(AbstractState(i))
	}
	return out
}

// Partition of the ground state hashes induced by phi
func (sa *StateAbstraction) Partition() util.Partition {
	out := make(util.Partition, len(sa.clusters))
	for i, keys := range sa.clusters {
		out[i] = make([]string, len(keys))
		copy(out[i], keys)
	}
	return out
}

// complete is true when every ground state has an abstract state
func (sa *StateAbstraction) complete() bool {
	return len(sa.phi) == len(sa.order)
}

// SetOptimalActions adds the actions to the record of the ground state
// and sets the weight contributed by the task. Repeating a call for the
// same task does not change the record, distinct tasks add up
func (sa *StateAbstraction) SetOptimalActions(s types.State, actions []types.Action, task string, weight float64) error {
	key := s.Hash()
	if _, ok := sa.states[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownState, key)
	}
	sa.lock.Lock()
	defer sa.lock.Unlock()
	if _, ok := sa.optimal[key]; !ok {
		sa.optimal[key] = newOptimalActions()
	}
	sa.optimal[key].add(actions, task, weight)
	return nil
}

// OptimalActions returns a copy of the record of the ground state, if any
func (sa *StateAbstraction) OptimalActions(s types.State) (*OptimalActions, bool) {
	sa.lock.RLock()
	defer sa.lock.RUnlock()
	o, ok := sa.optimal[s.Hash()]
	if !ok {
		return nil, false
	}
	return o.copy(), true
}

// TracksOptimalActions is true when at least one record exists
func (sa *StateAbstraction) TracksOptimalActions() bool {
	sa.lock.RLock()
	defer sa.lock.RUnlock()
	return len(sa.optimal) > 0
}

// CommonOptimalActions returns the hashes of the actions optimal for
// every member of the abstract state that has a record
func (sa *StateAbstraction) CommonOptimalActions(a AbstractState) ([]string, error) {
	if a < 0 || int(a) >= len(sa.clusters) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAbstractState, a)
	}
	sa.lock.RLock()
	defer sa.lock.RUnlock()

	var common map[string]bool
	for _, key := range sa.clusters[a] {
		o, ok := sa.optimal[key]
		if !ok {
			continue
		}
		if common == nil {
			common = make(map[string]bool)
			for k := range o.actions {
				common[k] = true
			}
			continue
		}
		for k := range common {
			if !o.Contains(k) {
				delete(common, k)
			}
		}
	}
	out := make([]string, 0, len(common))
	for k := range common {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (sa *StateAbstraction) sameUniverse(other *StateAbstraction) bool {
	if len(sa.order) != len(other.order) {
		return false
	}
	for _, key := range sa.order {
		if _, ok := other.states[key]; !ok {
			return false
		}
	}
	return true
}

// Combine returns the abstraction in which two ground states share an
// abstract state only if they share one in both sa and other.
// Both abstractions must cover the same ground states. Abstract states
// are numbered in the enumeration order of sa
func (sa *StateAbstraction) Combine(other *StateAbstraction) (*StateAbstraction, error) {
	if !sa.sameUniverse(other) {
		return nil, fmt.Errorf("%w: %d and %d ground states", ErrUniverseMismatch, len(sa.order), len(other.order))
	}
	if !sa.complete() || !other.complete() {
		return nil, fmt.Errorf("%w: combining partially built abstractions", ErrUnknownState)
	}

	type pair struct {
		left  AbstractState
		right AbstractState
	}
	groups := make(map[pair]int)
	members := make([][]types.State, 0)
	for _, key := range sa.order {
		p := pair{left: sa.phi[key], right: other.phi[key]}
		i, ok := groups[p]
		if !ok {
			i = len(members)
			groups[p] = i
			members = append(members, make([]types.State, 0))
		}
		members[i] = append(members[i], sa.states[key])
	}

	result := NewStateAbstraction(sa.GroundStates())
	for _, m := range members {
		if _, err := result.MakeCluster(m); err != nil {
			return nil, err
		}
	}

	sa.lock.RLock()
	for key, o := range sa.optimal {
		result.optimal[key] = o.copy()
	}
	sa.lock.RUnlock()
	other.lock.RLock()
	for key, o := range other.optimal {
		if existing, ok := result.optimal[key]; ok {
			existing.merge(o)
		} else {
			result.optimal[key] = o.copy()
		}
	}
	other.lock.RUnlock()
	return result, nil
}

func (sa *StateAbstraction) String() string {
	return fmt.Sprintf("StateAbstraction(ground: %d, abstract: %d)", len(sa.order), len(sa.clusters))
}
