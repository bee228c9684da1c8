package planning

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/zeu5/state-abs/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

var ErrNoActions = errors.New("decision process has no actions")

type ValueIterationConfig struct {
	// Stop once the largest change of a state value is below Delta
	Delta         float64
	MaxIterations int
	// Actions whose Q value is within TieTolerance of the best are optimal
	TieTolerance float64
	Logger       *zap.Logger
}

func DefaultValueIterationConfig() ValueIterationConfig {
	return ValueIterationConfig{
		Delta:         1e-10,
		MaxIterations: 1000,
		TieTolerance:  1e-12,
		Logger:        zap.NewNop(),
	}
}

// ValueIteration is a types.Planner that runs synchronous Bellman
// backups over the states reachable from the initial state
type ValueIteration struct {
	config ValueIterationConfig
}

var _ types.Planner = &ValueIteration{}

func NewValueIteration(config ValueIterationConfig) *ValueIteration {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	defaults := DefaultValueIterationConfig()
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaults.MaxIterations
	}
	if config.Delta <= 0 {
		config.Delta = defaults.Delta
	}
	return &ValueIteration{config: config}
}

// reachable enumerates states breadth first, expanding actions in order
func reachable(m types.MDP) []types.State {
	start := m.InitialState()
	seen := map[string]bool{start.Hash(): true}
	order := []types.State{start}
	for i := 0; i < len(order); i++ {
		s := order[i]
		if m.IsTerminal(s) {
			continue
		}
		for _, a := range m.Actions() {
			for _, t := range m.Transitions(s, a) {
				if t.Prob <= 0 {
					continue
				}
				key := t.Next.Hash()
				if !seen[key] {
					seen[key] = true
					order = append(order, t.Next)
				}
			}
		}
	}
	return order
}

func (v *ValueIteration) Plan(ctx context.Context, m types.MDP) (types.Plan, error) {
	actions := m.Actions()
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoActions, m.Name())
	}
	actionKeys := types.ActionHashes(actions)
	states := reachable(m)
	index := make(map[string]int, len(states))
	for i, s := range states {
		index[s.Hash()] = i
	}

	gamma := m.Discount()
	values := make([]float64, len(states))
	next := make([]float64, len(states))
	q := NewQTable()

	iterations := 0
	for ; iterations < v.config.MaxIterations; iterations++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for i, s := range states {
			stateKey := s.Hash()
			if m.IsTerminal(s) {
				next[i] = 0
				for _, a := range actionKeys {
					q.Set(stateKey, a, 0)
				}
				continue
			}
			best := math.Inf(-1)
			for j, a := range actions {
				qVal := 0.0
				for _, t := range m.Transitions(s, a) {
					qVal += t.Prob * (m.Reward(s, a, t.Next) + gamma*values[index[t.Next.Hash()]])
				}
				q.Set(stateKey, actionKeys[j], qVal)
				if qVal > best {
					best = qVal
				}
			}
			next[i] = best
		}
		delta := floats.Distance(values, next, math.Inf(1))
		copy(values, next)
		if delta < v.config.Delta {
			iterations++
			break
		}
	}

	v.config.Logger.Debug("value iteration done",
		zap.String("mdp", m.Name()),
		zap.Int("states", len(states)),
		zap.Int("iterations", iterations))

	p := &tabularPlan{
		states:  states,
		actions: actions,
		values:  make(map[string]float64, len(states)),
		q:       q,
		optimal: make(map[string][]types.Action, len(states)),
	}
	actionByKey := make(map[string]types.Action, len(actions))
	for i, a := range actions {
		actionByKey[actionKeys[i]] = a
	}
	for i, s := range states {
		stateKey := s.Hash()
		p.values[stateKey] = values[i]
		best := q.ArgMaxAmong(stateKey, actionKeys, v.config.TieTolerance)
		opt := make([]types.Action, len(best))
		for j, a := range best {
			opt[j] = actionByKey[a]
		}
		p.optimal[stateKey] = opt
	}
	return p, nil
}

// tabularPlan is the read only result of a ValueIteration run
type tabularPlan struct {
	states  []types.State
	actions []types.Action
	values  map[string]float64
	q       *QTable
	optimal map[string][]types.Action
}

var _ types.Plan = &tabularPlan{}

func (p *tabularPlan) States() []types.State {
	out := make([]types.State, len(p.states))
	copy(out, p.states)
	return out
}

func (p *tabularPlan) Actions() []types.Action {
	return p.actions
}

func (p *tabularPlan) Value(s types.State) float64 {
	return p.values[s.Hash()]
}

func (p *tabularPlan) QValue(s types.State, a types.Action) float64 {
	return p.q.Get(s.Hash(), a.Hash(), 0)
}

func (p *tabularPlan) OptimalActions(s types.State) []types.Action {
	return p.optimal[s.Hash()]
}
