package abstraction

import (
	"context"
	"fmt"

	"github.com/zeu5/state-abs/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Merge folds the abstractions from left to right with Combine. The
// result only groups ground states that every input groups together.
// A single abstraction is returned as is
func Merge(list []*StateAbstraction) (*StateAbstraction, error) {
	if len(list) == 0 {
		return nil, ErrEmptyMerge
	}
	merged := list[0]
	for i, sa := range list[1:] {
		next, err := merged.Combine(sa)
		if err != nil {
			return nil, fmt.Errorf("merging abstraction %d: %w", i+1, err)
		}
		merged = next
	}
	return merged, nil
}

// Build abstracts a single decision process or a task distribution
func Build(ctx context.Context, task interface{}, planner types.Planner, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	switch t := task.(type) {
	case *types.TaskDistribution:
		return BuildMultiTask(ctx, t, planner, predicate, config)
	case types.MDP:
		return BuildFromMDP(ctx, t, planner, predicate, config)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownTask, task)
}

// BuildFromMDP plans the decision process and clusters its states
func BuildFromMDP(ctx context.Context, m types.MDP, planner types.Planner, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	config, err := config.normalize()
	if err != nil {
		return nil, err
	}
	return planAndBuild(ctx, m.Name(), 1.0, m, planner, predicate, config)
}

func planAndBuild(ctx context.Context, task string, weight float64, m types.MDP, planner types.Planner, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	config.Progress(task, "planning")
	config.Logger.Debug("planning", zap.String("task", task))
	plan, err := planner.Plan(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("planning %s: %w", task, err)
	}
	return buildForTask(ctx, task, weight, plan, predicate, config)
}

// TaskName identifies the i-th instance of a distribution. Instances
// may share a name, the index keeps their optimal action weights apart
func TaskName(i int, m types.MDP) string {
	return fmt.Sprintf("%d:%s", i, m.Name())
}

// BuildMultiTask abstracts every instance of the distribution
// independently and merges the results in distribution order. Optimal
// actions are weighted by the probability of their task
func BuildMultiTask(ctx context.Context, dist *types.TaskDistribution, planner types.Planner, predicate Predicate, config BuilderConfig) (*StateAbstraction, error) {
	config, err := config.normalize()
	if err != nil {
		return nil, err
	}
	instances := dist.Instances()
	results := make([]*StateAbstraction, len(instances))

	g, gCtx := errgroup.WithContext(ctx)
	if config.TaskWorkers > 0 {
		g.SetLimit(config.TaskWorkers)
	}
	for i, m := range instances {
		i, m := i, m
		g.Go(func() error {
			sa, err := planAndBuild(gCtx, TaskName(i, m), dist.ProbabilityOf(i), m, planner, predicate, config)
			if err != nil {
				return err
			}
			results[i] = sa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := Merge(results)
	if err != nil {
		return nil, err
	}
	config.Logger.Info("multitask state abstraction built",
		zap.Int("tasks", len(results)),
		zap.Int("ground_states", merged.NumGroundStates()),
		zap.Int("abstract_states", merged.NumAbstractStates()))
	return merged, nil
}
