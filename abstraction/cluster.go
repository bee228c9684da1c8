package abstraction

import (
	"context"
	"fmt"
	"time"

	"github.com/zeu5/state-abs/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Consolidation selects how pairwise equivalences become clusters
type Consolidation string

const (
	// FirstOccurrence walks the states in enumeration order, each
	// state not yet clustered takes all its equivalent states that are
	// still free. With a non-transitive predicate the result depends on
	// the enumeration order
	FirstOccurrence Consolidation = "first-occurrence"
	// Transitive clusters the connected components of the equivalence graph
	Transitive Consolidation = "transitive"
)

// ParseConsolidation validates a consolidation mode name
func ParseConsolidation(name string) (Consolidation, error) {
	switch Consolidation(name) {
	case FirstOccurrence, Transitive:
		return Consolidation(name), nil
	case "":
		return FirstOccurrence, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConsolidation, name)
}

// ProgressFunc receives status updates of a task being abstracted
type ProgressFunc func(task string, status string)

type BuilderConfig struct {
	Epsilon       float64
	Consolidation Consolidation
	// Record the optimal actions of every ground state
	TrackOptimalActions bool
	// Number of goroutines evaluating rows of state pairs
	Workers int
	// Number of tasks of a distribution planned and clustered at once,
	// 0 runs all of them concurrently
	TaskWorkers int
	Logger      *zap.Logger
	Progress    ProgressFunc
}

func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Epsilon:       0,
		Consolidation: FirstOccurrence,
		Workers:       1,
		Logger:        zap.NewNop(),
	}
}

func (c BuilderConfig) normalize() (BuilderConfig, error) {
	if c.Epsilon < 0 {
		return c, fmt.Errorf("%w: %f", ErrNegativeEpsilon, c.Epsilon)
	}
	mode, err := ParseConsolidation(string(c.Consolidation))
	if err != nil {
		return c, err
	}
	c.Consolidation = mode
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Progress == nil {
		c.Progress = func(string, string) {}
	}
	return c, nil
}

// BuildSingleTask clusters the ground states of one planned decision
// process. Optimal actions, when tracked, are recorded with weight 1
func BuildSingleTask(ctx context.Context, plan types.Plan, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	config, err := config.normalize()
	if err != nil {
		return nil, err
	}
	return buildForTask(ctx, "task", 1.0, plan, predicate, config)
}

func buildForTask(ctx context.Context, task string, weight float64, plan types.Plan, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	start := time.Now()
	states := distinct(plan.States())
	config.Progress(task, fmt.Sprintf("comparing %d states", len(states)))

	rows, err := equivalentPairs(ctx, states, plan, predicate, config)
	if err != nil {
		return nil, err
	}

	config.Progress(task, "making clusters")
	var clusters [][]int
	switch config.Consolidation {
	case Transitive:
		clusters = consolidateTransitive(len(states), rows)
	default:
		clusters = consolidateFirstOccurrence(len(states), rows)
	}

	sa := NewStateAbstraction(states)
	for _, cluster := range clusters {
		members := make([]types.State, len(cluster))
		for i, idx := range cluster {
			members[i] = states[idx]
		}
		if _, err := sa.MakeCluster(members); err != nil {
			return nil, err
		}
	}

	if config.TrackOptimalActions {
		for _, s := range states {
			if err := sa.SetOptimalActions(s, plan.OptimalActions(s), task, weight); err != nil {
				return nil, err
			}
		}
	}

	config.Logger.Info("state abstraction built",
		zap.String("task", task),
		zap.String("predicate", predicate.Name()),
		zap.Float64("epsilon", config.Epsilon),
		zap.Int("ground_states", sa.NumGroundStates()),
		zap.Int("abstract_states", sa.NumAbstractStates()),
		zap.Duration("duration", time.Since(start)))
	config.Progress(task, fmt.Sprintf("done, %d ground, %d abstract", sa.NumGroundStates(), sa.NumAbstractStates()))
	return sa, nil
}

func distinct(states []types.State) []types.State {
	seen := make(map[string]bool, len(states))
	out := make([]types.State, 0, len(states))
	for _, s := range states {
		if seen[s.Hash()] {
			continue
		}
		seen[s.Hash()] = true
		out = append(out, s)
	}
	return out
}

// equivalentPairs tests every unordered pair once. rows[i] holds the
// indices j > i, ascending, such that states i and j are equivalent
func equivalentPairs(ctx context.Context, states []types.State, plan types.Plan, predicate Predicate, config BuilderConfig) ([][]int, error) {
	rows := make([][]int, len(states))
	actions := plan.Actions()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i := range states {
		if gCtx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			row := make([]int, 0)
			for j := i + 1; j < len(states); j++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				ok, err := predicate.Equivalent(states[i], states[j], plan, actions, config.Epsilon)
				if err != nil {
					return fmt.Errorf("comparing %s and %s: %w", states[i].Hash(), states[j].Hash(), err)
				}
				if ok {
					row = append(row, j)
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// consolidateFirstOccurrence builds candidate clusters with symmetric
// bookkeeping and emits them in enumeration order. A state consumed by
// an earlier cluster neither seeds a cluster nor joins a later one
func consolidateFirstOccurrence(n int, rows [][]int) [][]int {
	candidates := make([][]int, n)
	for i := 0; i < n; i++ {
		candidates[i] = []int{i}
	}
	for i, row := range rows {
		for _, j := range row {
			candidates[i] = append(candidates[i], j)
			candidates[j] = append(candidates[j], i)
		}
	}

	consumed := make([]bool, n)
	clusters := make([][]int, 0)
	for i := 0; i < n; i++ {
		if consumed[i] {
			continue
		}
		cluster := make([]int, 0, len(candidates[i]))
		for _, j := range candidates[i] {
			if consumed[j] {
				continue
			}
			consumed[j] = true
			cluster = append(cluster, j)
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// consolidateTransitive clusters the connected components, each
// cluster ordered by enumeration and clusters ordered by their first state
func consolidateTransitive(n int, rows [][]int) [][]int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for i, row := range rows {
		for _, j := range row {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			// keep the smaller index as root so roots are first members
			if ri < rj {
				parent[rj] = ri
			} else {
				parent[ri] = rj
			}
		}
	}

	index := make(map[int]int)
	clusters := make([][]int, 0)
	for i := 0; i < n; i++ {
		root := find(i)
		c, ok := index[root]
		if !ok {
			c = len(clusters)
			index[root] = c
			clusters = append(clusters, make([]int, 0))
		}
		clusters[c] = append(clusters[c], i)
	}
	return clusters
}
