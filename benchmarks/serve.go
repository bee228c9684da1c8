package benchmarks

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/grid"
	"github.com/zeu5/state-abs/planning"
	"github.com/zeu5/state-abs/server"
	"go.uber.org/zap"
)

func ServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the grid abstraction and serve lookups over HTTP",
		Long:  "Build the grid abstraction, merged over the goals when more than one goal is configured, and serve phi and cluster lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			pred, err := cfg.PredicateImpl()
			if err != nil {
				return err
			}
			// one goal is a single world, several goals a distribution over them
			var task interface{} = grid.NewGridWorld(cfg.GridConfig(), cfg.GoalPositions()...)
			if len(cfg.Grid.Goals) > 1 {
				task, err = grid.GoalDistribution(cfg.GridConfig(), cfg.GoalPositions())
				if err != nil {
					return err
				}
			}
			planner := planning.NewValueIteration(cfg.ValueIterationConfig(logger))
			sa, err := abstraction.Build(ctx, task, planner, pred, cfg.BuilderConfig(logger))
			if err != nil {
				return err
			}
			logger.Info("abstraction ready",
				zap.Int("ground_states", sa.NumGroundStates()),
				zap.Int("abstract_states", sa.NumAbstractStates()))

			s := server.New(addr, sa, server.Info{
				Predicate:     cfg.Predicate,
				Epsilon:       cfg.Epsilon,
				Consolidation: cfg.Consolidation,
				Tasks:         len(cfg.Grid.Goals),
			}, logger)
			return s.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7074", "Address to listen on")
	addGridFlags(cmd)
	return cmd
}
